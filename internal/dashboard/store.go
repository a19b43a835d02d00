package dashboard

import (
	"context"
	"sort"
	"strings"
	"sync"

	id "clubportal/pkg/domain"
	"clubportal/pkg/platform/sentinel"
)

// InMemoryStore keeps messages and profiles in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	messages []Message
	profiles map[id.PrincipalID]Profile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[id.PrincipalID]Profile)}
}

func (s *InMemoryStore) SaveMessage(_ context.Context, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	return nil
}

// RecentMessages returns up to limit messages, newest first.
func (s *InMemoryStore) RecentMessages(_ context.Context, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.messages)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Message, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.messages[i])
	}
	return out, nil
}

func (s *InMemoryStore) SaveProfile(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.PrincipalID] = cloneProfile(p)
	return nil
}

// FindProfile returns the profile or sentinel.ErrNotFound.
func (s *InMemoryStore) FindProfile(_ context.Context, principalID id.PrincipalID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[principalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneProfile(p)
	return &out, nil
}

// SearchProfiles matches query case-insensitively against name, skills and tags.
func (s *InMemoryStore) SearchProfiles(_ context.Context, query string) ([]Profile, error) {
	q := strings.ToLower(query)
	s.mu.RLock()
	var out []Profile
	for _, p := range s.profiles {
		if profileMatches(p, q) {
			out = append(out, cloneProfile(p))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].DisplayName < out[j].DisplayName
	})
	return out, nil
}

func profileMatches(p Profile, q string) bool {
	if strings.Contains(strings.ToLower(p.DisplayName), q) {
		return true
	}
	for _, v := range append(append([]string{}, p.Skills...), p.Tags...) {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

func cloneProfile(p Profile) Profile {
	p.Skills = append([]string(nil), p.Skills...)
	p.Tags = append([]string(nil), p.Tags...)
	return p
}
