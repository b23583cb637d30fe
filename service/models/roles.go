package models

// Role is the closed set of account roles. Authorisation checks switch over
// this type exhaustively so a new role cannot silently pass a check.
type Role string

const (
	RoleGuest       Role = "guest"
	RoleStudent     Role = "student"
	RoleFacilitator Role = "facilitator"
	RoleAlumni      Role = "alumni"
	RoleAdmin       Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleStudent, RoleFacilitator, RoleAlumni, RoleAdmin:
		return true
	}
	return false
}

// CanImpersonate reports whether holders of this role may obtain sessions on
// behalf of other identities.
func (r Role) CanImpersonate() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleGuest, RoleStudent, RoleFacilitator, RoleAlumni:
		return false
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
