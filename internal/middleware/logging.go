package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-ticket-booking/internal/log"
)

// CorrelationIDHeader is read from requests and echoed on responses.
const CorrelationIDHeader = "X-Correlation-ID"

// RequestLogger attaches a correlation ID and a request-scoped logrus entry
// to the request context and logs one line per request.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			cid := req.Header.Get(CorrelationIDHeader)
			if cid == "" {
				cid = uuid.NewString()
			}
			c.Response().Header().Set(CorrelationIDHeader, cid)

			entry := logrus.WithFields(logrus.Fields{
				"correlation_id": cid,
				"method":         req.Method,
				"path":           req.URL.Path,
			})
			ctx := log.ContextWithCorrelationID(req.Context(), cid)
			c.SetRequest(req.WithContext(log.ToContext(ctx, entry)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			log.FromContext(c.Request().Context()).WithFields(logrus.Fields{
				"status":   c.Response().Status,
				"duration": time.Since(start).String(),
				"ip":       c.RealIP(),
			}).Info("request handled")
			return nil
		}
	}
}
