// Package role implements the member role hierarchy and the resolver that asks the
// role authority for a principal's assigned role.
//
// The hierarchy is a closed, totally ordered set: free < member < admin < superadmin.
// Strings outside that set are rejected at parse time and never satisfy a check.
package role

import (
	"time"

	id "clubportal/pkg/domain"
	dErrors "clubportal/pkg/domain-errors"
)

// Role is a rank in the privilege hierarchy. The zero value means "no role".
type Role string

const (
	Free       Role = "free"
	Member     Role = "member"
	Admin      Role = "admin"
	SuperAdmin Role = "superadmin"
)

// ErrUnknownRole is returned when a role string is outside the hierarchy.
var ErrUnknownRole = dErrors.New(dErrors.CodeInvalidInput, "unknown role")

// ranks is the canonical rank table. Every comparison goes through it.
var ranks = map[Role]int{
	Free:       0,
	Member:     1,
	Admin:      2,
	SuperAdmin: 3,
}

var ordered = []Role{Free, Member, Admin, SuperAdmin}

// All returns every role from lowest to highest rank.
func All() []Role {
	out := make([]Role, len(ordered))
	copy(out, ordered)
	return out
}

// Parse accepts exactly one of the canonical role names.
func Parse(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

// Valid reports whether r is in the rank table.
func (r Role) Valid() bool {
	_, ok := ranks[r]
	return ok
}

// Rank returns r's position in the hierarchy; ok is false for unknown roles.
func (r Role) Rank() (rank int, ok bool) {
	rank, ok = ranks[r]
	return rank, ok
}

// AtLeast reports whether r ranks at or above min. Unknown roles on either side
// never satisfy the check.
func (r Role) AtLeast(min Role) bool {
	have, ok := ranks[r]
	if !ok {
		return false
	}
	need, ok := ranks[min]
	if !ok {
		return false
	}
	return have >= need
}

func (r Role) String() string {
	if r == "" {
		return "none"
	}
	return string(r)
}

// Assignment is a principal's role as recorded by the authority.
type Assignment struct {
	PrincipalID id.PrincipalID
	Role        Role
	UpdatedAt   time.Time
}
