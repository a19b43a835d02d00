// Package session owns the current-user lifecycle: it listens to the auth provider,
// resolves the principal's role, and publishes a single State to observers.
//
// All state transitions run on one goroutine fed by an event channel, so the store is
// the only writer of State. Session-change notifications are authoritative: once one
// has been applied, the result of the initial session fetch is ignored.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"clubportal/internal/platform/metrics"
	"clubportal/internal/role"
	id "clubportal/pkg/domain"
	dErrors "clubportal/pkg/domain-errors"
	"clubportal/pkg/platform/sentinel"
)

var (
	// ErrAlreadyStarted is returned by a second Init.
	ErrAlreadyStarted = dErrors.New(dErrors.CodeInternal, "session store already started")
	// ErrSignOut wraps provider failures during sign-out. Local state is cleared regardless.
	ErrSignOut = dErrors.New(dErrors.CodeUnavailable, "sign out failed")
)

// Provider is the external auth/session service.
type Provider interface {
	CurrentSession(ctx context.Context) (*Session, error)
	OnSessionChange(ctx context.Context, fn func(*Session)) (unsubscribe func(), err error)
	SignOut(ctx context.Context) error
}

// RoleResolver answers role questions against the role authority.
type RoleResolver interface {
	Resolve(ctx context.Context, principalID id.PrincipalID) (role.Role, error)
	HasRole(ctx context.Context, principalID id.PrincipalID, want role.Role) bool
	HasRoleOrHigher(ctx context.Context, principalID id.PrincipalID, min role.Role) bool
}

type (
	initialFetched struct {
		session *Session
		err     error
	}
	sessionChanged struct {
		session *Session
	}
	roleResolved struct {
		gen       uint64
		principal *Principal
		role      role.Role
		err       error
	}
	signOutRequested struct {
		done chan struct{}
	}
	sessionExpired struct {
		gen uint64
	}
)

// Store is the process-wide session store.
type Store struct {
	provider Provider
	roles    RoleResolver
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu    sync.RWMutex
	state State

	subMu   sync.Mutex
	subs    map[int]chan State
	nextSub int

	events chan any
	stop   chan struct{}
	wg     sync.WaitGroup

	lifeMu      sync.Mutex
	started     bool
	stopped     bool
	unsubscribe func()
	cancel      context.CancelFunc

	// Loop-owned; touched only by run().
	gen         uint64
	notified    bool
	initialSeen bool
	expiry      *time.Timer
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore builds a store in the Initializing state. Call Init to start it.
func NewStore(provider Provider, roles RoleResolver, opts ...Option) *Store {
	s := &Store{
		provider: provider,
		roles:    roles,
		logger:   slog.Default(),
		state:    State{Loading: true},
		subs:     make(map[int]chan State),
		events:   make(chan any, 16),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Init starts the event loop, subscribes to session changes and fires the initial
// session fetch. ctx bounds nothing beyond its values; the store runs until Teardown.
func (s *Store) Init(ctx context.Context) error {
	s.lifeMu.Lock()
	if s.started {
		s.lifeMu.Unlock()
		return ErrAlreadyStarted
	}
	if s.stopped {
		s.lifeMu.Unlock()
		return sentinel.ErrClosed
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.started = true
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(runCtx)
	s.lifeMu.Unlock()

	unsubscribe, err := s.provider.OnSessionChange(runCtx, func(sess *Session) {
		s.post(sessionChanged{session: sess})
	})
	if err != nil {
		s.Teardown()
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "subscribe to session changes")
	}

	s.lifeMu.Lock()
	if s.stopped {
		s.lifeMu.Unlock()
		unsubscribe()
		return sentinel.ErrClosed
	}
	s.unsubscribe = unsubscribe
	s.wg.Add(1)
	s.lifeMu.Unlock()

	go func() {
		defer s.wg.Done()
		sess, err := s.provider.CurrentSession(runCtx)
		s.post(initialFetched{session: sess, err: err})
	}()
	return nil
}

// Teardown unsubscribes from the provider, stops the loop and closes every
// subscription channel. It is safe to call more than once.
func (s *Store) Teardown() {
	s.lifeMu.Lock()
	if s.stopped {
		s.lifeMu.Unlock()
		return
	}
	s.stopped = true
	unsubscribe, cancel := s.unsubscribe, s.cancel
	s.lifeMu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	close(s.stop)
	s.wg.Wait()
	s.stopExpiry()

	s.subMu.Lock()
	for key, ch := range s.subs {
		close(ch)
		delete(s.subs, key)
	}
	s.subMu.Unlock()
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe returns a channel that always holds the latest state. The current state
// is delivered immediately; intermediate states may be skipped by slow readers.
func (s *Store) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.subMu.Lock()
	if s.isStopped() {
		s.subMu.Unlock()
		ch <- s.Snapshot()
		close(ch)
		return ch, func() {}
	}
	key := s.nextSub
	s.nextSub++
	s.subs[key] = ch
	offerLatest(ch, s.Snapshot())
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if existing, ok := s.subs[key]; ok {
				close(existing)
				delete(s.subs, key)
			}
		})
	}
}

// WaitSettled blocks until the store has left Initializing.
func (s *Store) WaitSettled(ctx context.Context) (State, error) {
	ch, cancel := s.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		case st, ok := <-ch:
			if !ok {
				return s.Snapshot(), sentinel.ErrClosed
			}
			if !st.Loading {
				return st, nil
			}
		}
	}
}

// HasRole asks the role authority whether the current principal holds exactly want.
// It denies without a lookup while there is no principal or its role is unresolved.
func (s *Store) HasRole(ctx context.Context, want role.Role) bool {
	st := s.Snapshot()
	if st.Principal == nil || st.Role == "" {
		return false
	}
	return s.roles.HasRole(ctx, st.Principal.ID, want)
}

// HasRoleOrHigher asks the role authority whether the current principal ranks at
// or above min. Anonymous callers and principals whose role is still resolving are
// denied without a lookup.
func (s *Store) HasRoleOrHigher(ctx context.Context, min role.Role) bool {
	st := s.Snapshot()
	if st.Principal == nil || st.Role == "" {
		return false
	}
	return s.roles.HasRoleOrHigher(ctx, st.Principal.ID, min)
}

// CanAccessAdminPanel is HasRoleOrHigher(admin).
func (s *Store) CanAccessAdminPanel(ctx context.Context) bool {
	return s.HasRoleOrHigher(ctx, role.Admin)
}

// SignOut clears the local principal before returning control to the provider, so
// the next Snapshot is Anonymous even if the provider call fails.
func (s *Store) SignOut(ctx context.Context) error {
	done := make(chan struct{})
	if s.post(signOutRequested{done: done}) {
		select {
		case <-done:
		case <-s.stop:
			s.setState(State{})
		}
	} else {
		s.setState(State{})
	}

	if err := s.provider.SignOut(ctx); err != nil {
		s.logger.WarnContext(ctx, "provider sign out failed", "error", err)
		return errors.Join(ErrSignOut, err)
	}
	return nil
}

func (s *Store) isStopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// post delivers an event to the loop. It reports false when the loop is not running.
func (s *Store) post(ev any) bool {
	s.lifeMu.Lock()
	running := s.started && !s.stopped
	s.lifeMu.Unlock()
	if !running {
		return false
	}
	select {
	case s.events <- ev:
		return true
	case <-s.stop:
		return false
	}
}

func (s *Store) run(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop:
			return
		case ev := <-s.events:
			s.apply(ctx, ev)
		}
	}
}

func (s *Store) apply(ctx context.Context, ev any) {
	switch ev := ev.(type) {
	case initialFetched:
		if s.initialSeen {
			return
		}
		s.initialSeen = true
		if s.notified {
			s.logger.DebugContext(ctx, "initial session fetch superseded by notification")
			return
		}
		if ev.err != nil {
			s.logger.WarnContext(ctx, "initial session fetch failed", "error", ev.err)
		}
		s.begin(ctx, ev.session)

	case sessionChanged:
		s.notified = true
		s.begin(ctx, ev.session)

	case roleResolved:
		if ev.gen != s.gen {
			return
		}
		assigned := ev.role
		if ev.err != nil {
			s.logger.WarnContext(ctx, "role resolution failed, continuing as free",
				"error", ev.err,
				"principal_id", ev.principal.ID.String(),
			)
			assigned = role.Free
		}
		s.setState(State{Principal: ev.principal, Role: assigned})

	case signOutRequested:
		s.gen++
		s.stopExpiry()
		s.setState(State{})
		close(ev.done)

	case sessionExpired:
		if ev.gen != s.gen {
			return
		}
		s.gen++
		s.expiry = nil
		if p := s.Snapshot().Principal; p != nil {
			s.logger.InfoContext(ctx, "session ended", "principal_id", p.ID.String(), "error", sentinel.ErrExpired)
		}
		s.setState(State{})
	}
}

// begin starts a transition for a new session value. Anonymous is entered
// immediately; a session first resolves its role off-loop. A different principal
// replaces the current one at once with no role, never inheriting the old role.
func (s *Store) begin(ctx context.Context, sess *Session) {
	s.gen++
	s.stopExpiry()
	if sess != nil && !sess.PrincipalID.IsNil() {
		if err := sess.CheckExpiry(time.Now()); err != nil {
			s.logger.InfoContext(ctx, "ignoring session",
				"principal_id", sess.PrincipalID.String(),
				"error", err,
			)
			sess = nil
		}
	}
	if sess == nil || sess.PrincipalID.IsNil() {
		s.setState(State{})
		return
	}

	principal := &Principal{ID: sess.PrincipalID, DisplayName: sess.DisplayName}
	if current := s.Snapshot().Principal; current != nil {
		switch {
		case current.ID != sess.PrincipalID:
			s.setState(State{Principal: principal})
		case current.DisplayName == sess.DisplayName:
			principal = current
		}
	}

	gen := s.gen
	s.armExpiry(gen, sess.ExpiresAt)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		assigned, err := s.roles.Resolve(ctx, principal.ID)
		s.post(roleResolved{gen: gen, principal: principal, role: assigned, err: err})
	}()
}

// armExpiry ends the session of generation gen when expiresAt passes. Loop-owned.
func (s *Store) armExpiry(gen uint64, expiresAt time.Time) {
	if expiresAt.IsZero() {
		return
	}
	s.expiry = time.AfterFunc(time.Until(expiresAt), func() {
		s.post(sessionExpired{gen: gen})
	})
}

func (s *Store) stopExpiry() {
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
}

func (s *Store) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()

	s.metrics.IncrementSessionTransition(st.Status().String())
	attrs := []any{"status", st.Status().String(), "role", st.Role.String()}
	if st.Principal != nil {
		attrs = append(attrs, "principal_id", st.Principal.ID.String())
	}
	s.logger.Info("session state changed", attrs...)

	s.subMu.Lock()
	for _, ch := range s.subs {
		offerLatest(ch, st)
	}
	s.subMu.Unlock()
}

// offerLatest replaces whatever is buffered in ch with st. Callers hold subMu.
func offerLatest(ch chan State, st State) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- st:
	default:
	}
}
