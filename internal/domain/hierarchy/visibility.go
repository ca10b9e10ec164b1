package hierarchy

// Scope describes which requests a viewer may list besides their own
type Scope struct {
	All   bool
	Roles []string // requester roles visible to the viewer
}

// VisibilityRules maps a viewer role to the requester roles it can see
type VisibilityRules map[string][]string

// DefaultVisibility returns the standard rules: managers see employees,
// directors see employees and managers.
func DefaultVisibility() VisibilityRules {
	return VisibilityRules{
		RoleEmployee: {},
		RoleManager:  {RoleEmployee},
		RoleDirector: {RoleEmployee, RoleManager},
	}
}

// DefaultAllVisible returns the roles that see every request
func DefaultAllVisible() []string {
	return []string{RoleHR, RoleHRManager, RoleHRDirector, RoleAdmin}
}

// Visibility evaluates viewer scopes
type Visibility struct {
	rules map[string][]string
	all   map[string]bool
}

// NewVisibility builds a Visibility from role rules and the set of roles
// that see everything. Roles are normalized.
func NewVisibility(rules VisibilityRules, allVisible []string) *Visibility {
	v := &Visibility{
		rules: make(map[string][]string, len(rules)),
		all:   make(map[string]bool, len(allVisible)),
	}
	for role, visible := range rules {
		v.rules[Normalize(role)] = NormalizeAll(visible)
	}
	for _, role := range NormalizeAll(allVisible) {
		v.all[role] = true
	}
	return v
}

// Scope returns the viewer's scope. Unknown roles see only their own requests.
func (v *Visibility) Scope(role string) Scope {
	key := Normalize(role)
	if v.all[key] {
		return Scope{All: true}
	}
	visible := v.rules[key]
	out := make([]string, len(visible))
	copy(out, visible)
	return Scope{Roles: out}
}
