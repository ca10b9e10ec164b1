package hierarchy

import "fmt"

// Table maps a requester role to its ordered approver roles
type Table map[string][]string

// DefaultTable returns the standard chains. Roles at HR-director level and
// admin need no further approval and map to an empty chain.
func DefaultTable() Table {
	return Table{
		RoleEmployee:   {RoleManager, RoleDirector, RoleHRDirector},
		RoleManager:    {RoleDirector, RoleHRDirector},
		RoleDirector:   {RoleHRDirector},
		RoleHR:         {RoleHRManager, RoleHRDirector},
		RoleHRManager:  {RoleHRDirector},
		RoleHRDirector: {},
		RoleAdmin:      {},
	}
}

// Resolver resolves approval chains from a fixed table
type Resolver struct {
	table Table
}

// NewResolver normalizes the table and returns a resolver over it.
// A chain that names the same role twice is rejected.
func NewResolver(table Table) (*Resolver, error) {
	normalized := make(Table, len(table))
	for role, chain := range table {
		key := Normalize(role)
		if key == "" {
			return nil, fmt.Errorf("hierarchy: empty requester role")
		}
		if _, dup := normalized[key]; dup {
			return nil, fmt.Errorf("hierarchy: role %q configured twice", key)
		}
		roles := NormalizeAll(chain)
		seen := make(map[string]bool, len(roles))
		for _, r := range roles {
			if seen[r] {
				return nil, fmt.Errorf("hierarchy: chain for %q lists %q twice", key, r)
			}
			seen[r] = true
		}
		normalized[key] = roles
	}
	return &Resolver{table: normalized}, nil
}

// MustNewResolver is NewResolver that panics on a malformed table
func MustNewResolver(table Table) *Resolver {
	r, err := NewResolver(table)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns a copy of the chain for role. Unknown or empty roles
// resolve to an empty chain.
func (r *Resolver) Resolve(role string) []string {
	chain := r.table[Normalize(role)]
	out := make([]string, len(chain))
	copy(out, chain)
	return out
}

// Known reports whether role has an entry in the table
func (r *Resolver) Known(role string) bool {
	_, ok := r.table[Normalize(role)]
	return ok
}
