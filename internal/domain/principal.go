package domain

import "slices"

type Role string

const (
	RolePassenger    Role = "passenger"
	RolePilot        Role = "pilot"
	RoleFirstOfficer Role = "first_officer"
	RoleATC          Role = "atc"
	RoleSupervisor   Role = "supervisor"
	RoleAdmin        Role = "admin"
)

// Principal is the authenticated identity behind a request.
type Principal struct {
	ID   string `json:"id"`
	Name string `json:"username"`
	Role Role   `json:"role"`
}

func (p Principal) HasRole(roles ...Role) bool {
	return slices.Contains(roles, p.Role)
}

// Staff roles may act on other principals' bookings.
func (p Principal) IsStaff() bool {
	return p.HasRole(RoleAdmin, RoleSupervisor)
}
