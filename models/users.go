package models

// Role is the closed set of actor kinds accepted at the API boundary.
type Role string

const (
	RoleCustomer     Role = "customer"
	RoleRestaurateur Role = "restaurateur"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCustomer, RoleRestaurateur:
		return Role(s), true
	}
	return "", false
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) Is(role Role) bool {
	return a.Role == role
}
