package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/log"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// issued by the auth service and injects the caller into the context:
// c.Get("user_id") holds the numeric subject as uint64 and c.Get("role")
// the role claim.  Tokens without a positive numeric subject are rejected.
func JWTAuth(secret string) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims := jwt.MapClaims{}
			tok, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			uid, ok := subjectID(claims["sub"])
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			role, _ := claims["role"].(string)

			c.Set("user_id", uid)
			c.Set("role", role)
			req := c.Request()
			ctx := log.ToContext(req.Context(), log.FromContext(req.Context()).WithField("user_id", uid))
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

// subjectID accepts the numeric forms a JSON "sub" claim arrives in.
func subjectID(v interface{}) (uint64, bool) {
	switch t := v.(type) {
	case float64:
		if t > 0 && t == float64(uint64(t)) {
			return uint64(t), true
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// CurrentIdentity returns the caller stored by JWTAuth.
func CurrentIdentity(c echo.Context) (model.Identity, bool) {
	uid, ok := c.Get("user_id").(uint64)
	if !ok || uid == 0 {
		return model.Identity{}, false
	}
	role, _ := c.Get("role").(string)
	return model.Identity{UserID: uid, Role: role}, true
}
