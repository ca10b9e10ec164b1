// Package hierarchy maps a requester's role to the ordered chain of approver
// roles and decides which requests a viewer may see.
package hierarchy

import (
	"strings"
	"unicode"
)

// Canonical role tokens
const (
	RoleEmployee   = "colaborador"
	RoleManager    = "gerente"
	RoleDirector   = "director"
	RoleHR         = "rrhh"
	RoleHRManager  = "gerente_rrhh"
	RoleHRDirector = "director_rrhh"
	RoleAdmin      = "admin"
)

// Normalize lower-cases a role and collapses whitespace, '-' and '_' runs
// into a single '_'. "  Director   RRHH " becomes "director_rrhh".
func Normalize(role string) string {
	var b strings.Builder
	b.Grow(len(role))
	pendingSep := false
	for _, r := range strings.TrimSpace(role) {
		if unicode.IsSpace(r) || r == '-' || r == '_' {
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingSep = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// NormalizeAll normalizes every entry and drops empty ones
func NormalizeAll(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if n := Normalize(r); n != "" {
			out = append(out, n)
		}
	}
	return out
}
