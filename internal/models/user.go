package models

// UserRole represents the roles recognised by the authorization layer.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RolePeer  UserRole = "PEER"
)

// Valid reports whether the role is known.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RolePeer
}

// Actor is the authenticated caller of a mutating operation.
type Actor struct {
	UserID string
	Role   UserRole
	PeerID string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
