package model

// Role is the doctor/patient designation of a user.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// ParseRole accepts the two known roles. Anything else is reported as unknown.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleDoctor, RolePatient:
		return Role(s), true
	default:
		return "", false
	}
}

func (r Role) String() string { return string(r) }

// IsDoctor reports whether r is the doctor role.
func (r Role) IsDoctor() bool { return r == RoleDoctor }

// Portal returns the header label of the shell.
func (r Role) Portal() string {
	if r.IsDoctor() {
		return "Doctor Portal"
	}
	return "Patient Portal"
}
