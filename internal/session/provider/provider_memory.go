// Package provider holds auth/session provider adapters for the session store.
package provider

import (
	"context"
	"sync"

	"clubportal/internal/session"
)

// Memory is an in-process provider. Notifications are delivered synchronously on
// the goroutine that calls SignIn or SignOut.
type Memory struct {
	mu      sync.Mutex
	current *session.Session
	subs    map[int]func(*session.Session)
	nextSub int
	err     error
}

func NewMemory() *Memory {
	return &Memory{subs: make(map[int]func(*session.Session))}
}

// FailWith makes CurrentSession and SignOut return err until cleared with nil.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Memory) CurrentSession(ctx context.Context) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return copySession(m.current), nil
}

func (m *Memory) OnSessionChange(ctx context.Context, fn func(*session.Session)) (func(), error) {
	m.mu.Lock()
	key := m.nextSub
	m.nextSub++
	m.subs[key] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, key)
			m.mu.Unlock()
		})
	}, nil
}

// SignIn replaces the current session and notifies subscribers.
func (m *Memory) SignIn(sess session.Session) {
	m.mu.Lock()
	m.current = &sess
	m.mu.Unlock()
	m.notify()
}

// Refresh notifies subscribers without changing the session, as a token refresh would.
func (m *Memory) Refresh() {
	m.notify()
}

func (m *Memory) SignOut(ctx context.Context) error {
	m.mu.Lock()
	if m.err != nil {
		err := m.err
		m.mu.Unlock()
		return err
	}
	m.current = nil
	m.mu.Unlock()
	m.notify()
	return nil
}

func (m *Memory) notify() {
	m.mu.Lock()
	current := m.current
	fns := make([]func(*session.Session), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(copySession(current))
	}
}

func copySession(s *session.Session) *session.Session {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}
