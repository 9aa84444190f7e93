package model

// Role names carried in the "role" claim of access tokens issued by the
// auth service.
const (
	RoleAdmin        = "admin"
	RoleTheaterOwner = "theater_owner"
	RoleUser         = "user"
)

// Identity is the authenticated caller as seen by this service.  Users
// are managed by the auth service; only the ID and role reach us.
type Identity struct {
	UserID uint64
	Role   string
}
