package model

// ResolutionState is the lifecycle of one role resolution.
type ResolutionState string

const (
	StateUninitialized ResolutionState = "uninitialized"
	StateLoading       ResolutionState = "loading"
	StateResolved      ResolutionState = "resolved"
	StateError         ResolutionState = "error"
)

// Terminal reports whether no further transition will happen.
func (s ResolutionState) Terminal() bool {
	return s == StateResolved || s == StateError
}

// Resolution is the answer of the role resolver for one client.
//
// Role is empty when the user is anonymous or when the profile fetch failed.
// SessionPresent stays true in the error state: a cached session is still
// authoritative for authorization.
type Resolution struct {
	State          ResolutionState `json:"state"`
	Role           Role            `json:"role,omitempty"`
	SessionPresent bool            `json:"session_present"`
	Error          string          `json:"error,omitempty"`
}

// Anonymous reports whether no session exists.
func (r Resolution) Anonymous() bool {
	return r.State == StateResolved && !r.SessionPresent
}

// Dashboard selects the dashboard variant. Only a resolved doctor gets the
// doctor dashboard; every other outcome falls back to the patient one.
func (r Resolution) Dashboard() Role {
	if r.State == StateResolved && r.Role == RoleDoctor {
		return RoleDoctor
	}
	return RolePatient
}

// MenuRole is the role used to build the shell menu.
func (r Resolution) MenuRole() Role {
	return r.Dashboard()
}
