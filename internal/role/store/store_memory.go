package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"clubportal/internal/role"
	id "clubportal/pkg/domain"
	"clubportal/pkg/platform/sentinel"
)

// InMemoryAuthority keeps role assignments in process memory. Used in tests and
// when no DATABASE_URL is configured.
type InMemoryAuthority struct {
	mu          sync.RWMutex
	assignments map[id.PrincipalID]role.Assignment
	clock       func() time.Time
}

func NewInMemory() *InMemoryAuthority {
	return &InMemoryAuthority{
		assignments: make(map[id.PrincipalID]role.Assignment),
		clock:       time.Now,
	}
}

// UserRole returns the assigned role or sentinel.ErrNotFound.
func (s *InMemoryAuthority) UserRole(ctx context.Context, principalID id.PrincipalID) (role.Role, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[principalID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return a.Role, nil
}

// SetRole records an assignment, replacing any previous one.
func (s *InMemoryAuthority) SetRole(ctx context.Context, principalID id.PrincipalID, r role.Role) error {
	if !r.Valid() {
		return role.ErrUnknownRole
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[principalID] = role.Assignment{
		PrincipalID: principalID,
		Role:        r,
		UpdatedAt:   s.clock(),
	}
	return nil
}

// List returns all assignments ordered from highest role down, then by ID.
func (s *InMemoryAuthority) List(ctx context.Context) ([]role.Assignment, error) {
	s.mu.RLock()
	out := make([]role.Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		out = append(out, a)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		ri, _ := out[i].Role.Rank()
		rj, _ := out[j].Role.Rank()
		if ri != rj {
			return ri > rj
		}
		return out[i].PrincipalID.String() < out[j].PrincipalID.String()
	})
	return out, nil
}
