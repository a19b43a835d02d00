package session

import (
	"time"

	"clubportal/internal/role"
	id "clubportal/pkg/domain"
	"clubportal/pkg/platform/sentinel"
)

// Session is the auth provider's view of a signed-in user.
type Session struct {
	PrincipalID id.PrincipalID
	DisplayName string
	RoleHint    string
	ExpiresAt   time.Time
}

// CheckExpiry returns sentinel.ErrExpired once now has reached ExpiresAt. A zero
// ExpiresAt never expires.
func (s *Session) CheckExpiry(now time.Time) error {
	if !s.ExpiresAt.IsZero() && !s.ExpiresAt.After(now) {
		return sentinel.ErrExpired
	}
	return nil
}

// Principal is the identity the store exposes once a session is accepted. A new
// pointer is allocated for every accepted session; observers compare pointers to
// notice a changed principal.
type Principal struct {
	ID          id.PrincipalID
	DisplayName string
}

// Status is the store lifecycle phase derived from State.
type Status int

const (
	StatusInitializing Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// State is the observable store value. Role is empty whenever Principal is nil, and
// while a newly switched-in principal's role is being resolved.
type State struct {
	Principal *Principal
	Role      role.Role
	Loading   bool
}

// Status derives the lifecycle phase.
func (s State) Status() Status {
	switch {
	case s.Principal != nil:
		return StatusAuthenticated
	case s.Loading:
		return StatusInitializing
	default:
		return StatusAnonymous
	}
}
