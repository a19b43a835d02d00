package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"clubportal/internal/platform/metrics"
	"clubportal/internal/role"
	rolestore "clubportal/internal/role/store"
	"clubportal/internal/session"
	"clubportal/internal/session/provider"
	id "clubportal/pkg/domain"
	"clubportal/pkg/platform/sentinel"
)

const settle = 2 * time.Second

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// gatedAuthority blocks lookups for principals listed in gates until released.
type gatedAuthority struct {
	*rolestore.InMemoryAuthority
	mu    sync.Mutex
	gates map[id.PrincipalID]chan struct{}
	fail  map[id.PrincipalID]error
}

func newGatedAuthority() *gatedAuthority {
	return &gatedAuthority{
		InMemoryAuthority: rolestore.NewInMemory(),
		gates:             make(map[id.PrincipalID]chan struct{}),
		fail:              make(map[id.PrincipalID]error),
	}
}

func (g *gatedAuthority) gate(principalID id.PrincipalID) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch := make(chan struct{})
	g.gates[principalID] = ch
	return ch
}

func (g *gatedAuthority) failWith(principalID id.PrincipalID, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail[principalID] = err
}

func (g *gatedAuthority) UserRole(ctx context.Context, principalID id.PrincipalID) (role.Role, error) {
	g.mu.Lock()
	gate := g.gates[principalID]
	err := g.fail[principalID]
	g.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return g.InMemoryAuthority.UserRole(ctx, principalID)
}

// gatedProvider holds the initial CurrentSession call until released and then
// answers with a fixed, possibly stale, session.
type gatedProvider struct {
	*provider.Memory
	release chan struct{}
	initial *session.Session
	once    sync.Once
}

func (g *gatedProvider) CurrentSession(ctx context.Context) (*session.Session, error) {
	var first bool
	g.once.Do(func() { first = true })
	if !first {
		return g.Memory.CurrentSession(ctx)
	}
	select {
	case <-g.release:
		return g.initial, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type StoreSuite struct {
	suite.Suite
	provider  *provider.Memory
	authority *gatedAuthority
	metrics   *metrics.Metrics
	store     *session.Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.provider = provider.NewMemory()
	s.authority = newGatedAuthority()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.store = s.newStore(s.provider)
}

func (s *StoreSuite) TearDownTest() {
	s.store.Teardown()
}

func (s *StoreSuite) newStore(p session.Provider) *session.Store {
	resolver := role.NewResolver(s.authority, role.WithLogger(quietLogger()), role.WithTimeout(time.Second))
	return session.NewStore(p, resolver, session.WithLogger(quietLogger()), session.WithMetrics(s.metrics))
}

func (s *StoreSuite) newMember(r role.Role, name string) session.Session {
	principalID := id.PrincipalID(uuid.New())
	s.Require().NoError(s.authority.SetRole(context.Background(), principalID, r))
	return session.Session{PrincipalID: principalID, DisplayName: name, ExpiresAt: time.Now().Add(time.Hour)}
}

func (s *StoreSuite) waitFor(cond func(session.State) bool) session.State {
	s.T().Helper()
	var last session.State
	s.Require().Eventually(func() bool {
		last = s.store.Snapshot()
		return cond(last)
	}, settle, 5*time.Millisecond)
	return last
}

func authenticatedAs(principalID id.PrincipalID) func(session.State) bool {
	return func(st session.State) bool {
		return st.Principal != nil && st.Principal.ID == principalID
	}
}

func anonymous(st session.State) bool { return st.Status() == session.StatusAnonymous }

func (s *StoreSuite) TestStartsInitializing() {
	st := s.store.Snapshot()
	s.Equal(session.StatusInitializing, st.Status())
	s.True(st.Loading)
	s.Nil(st.Principal)
	s.Equal(role.Role(""), st.Role)
}

func (s *StoreSuite) TestInitWithoutSessionSettlesAnonymous() {
	s.Require().NoError(s.store.Init(context.Background()))

	st, err := s.store.WaitSettled(context.Background())
	s.Require().NoError(err)
	s.Equal(session.StatusAnonymous, st.Status())
	s.False(st.Loading)
	s.False(s.store.HasRoleOrHigher(context.Background(), role.Free))
}

func (s *StoreSuite) TestInitWithExistingSessionResolvesRole() {
	member := s.newMember(role.Member, "Ada")
	s.provider.SignIn(member)
	s.Require().NoError(s.store.Init(context.Background()))

	st := s.waitFor(authenticatedAs(member.PrincipalID))
	s.Equal(role.Member, st.Role)
	s.Equal("Ada", st.Principal.DisplayName)
	s.False(st.Loading)

	ctx := context.Background()
	s.True(s.store.HasRole(ctx, role.Member))
	s.False(s.store.HasRole(ctx, role.Admin))
	s.True(s.store.HasRoleOrHigher(ctx, role.Free))
	s.False(s.store.CanAccessAdminPanel(ctx))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.SessionTransitions.WithLabelValues("authenticated")))
}

func (s *StoreSuite) TestAdminCanAccessAdminPanel() {
	admin := s.newMember(role.SuperAdmin, "Grace")
	s.provider.SignIn(admin)
	s.Require().NoError(s.store.Init(context.Background()))
	s.waitFor(authenticatedAs(admin.PrincipalID))

	s.True(s.store.CanAccessAdminPanel(context.Background()))
}

func (s *StoreSuite) TestRoleFailureDegradesToFree() {
	member := s.newMember(role.Admin, "Ada")
	s.authority.failWith(member.PrincipalID, errors.New("backend down"))
	s.provider.SignIn(member)
	s.Require().NoError(s.store.Init(context.Background()))

	st := s.waitFor(authenticatedAs(member.PrincipalID))
	s.Equal(role.Free, st.Role)
	s.Equal(session.StatusAuthenticated, st.Status())
	s.False(s.store.HasRoleOrHigher(context.Background(), role.Free), "access checks still deny on failure")
}

func (s *StoreSuite) TestNotificationsDriveTransitions() {
	s.Require().NoError(s.store.Init(context.Background()))
	_, err := s.store.WaitSettled(context.Background())
	s.Require().NoError(err)

	member := s.newMember(role.Member, "Ada")
	s.provider.SignIn(member)
	s.waitFor(authenticatedAs(member.PrincipalID))

	s.Require().NoError(s.provider.SignOut(context.Background()))
	s.waitFor(anonymous)
}

func (s *StoreSuite) TestNotificationSupersedesInitialFetch() {
	stale := s.newMember(role.Member, "Stale")
	fresh := s.newMember(role.Admin, "Fresh")
	gated := &gatedProvider{Memory: s.provider, release: make(chan struct{}), initial: &stale}
	s.store = s.newStore(gated)

	s.Require().NoError(s.store.Init(context.Background()))
	s.provider.SignIn(fresh)
	s.waitFor(authenticatedAs(fresh.PrincipalID))

	close(gated.release)
	// Give the stale initial result time to arrive and be discarded.
	time.Sleep(50 * time.Millisecond)
	st := s.store.Snapshot()
	s.Require().NotNil(st.Principal)
	s.Equal(fresh.PrincipalID, st.Principal.ID)
	s.Equal(role.Admin, st.Role)
}

func (s *StoreSuite) TestInitialFetchAppliesWhenNoNotificationArrived() {
	member := s.newMember(role.Member, "Ada")
	gated := &gatedProvider{Memory: s.provider, release: make(chan struct{}), initial: &member}
	s.store = s.newStore(gated)

	s.Require().NoError(s.store.Init(context.Background()))
	s.True(s.store.Snapshot().Loading)
	close(gated.release)

	st := s.waitFor(authenticatedAs(member.PrincipalID))
	s.False(st.Loading)
}

func (s *StoreSuite) TestStaleRoleResultIsDiscarded() {
	slow := s.newMember(role.SuperAdmin, "Slow")
	gate := s.authority.gate(slow.PrincipalID)
	s.Require().NoError(s.store.Init(context.Background()))
	_, err := s.store.WaitSettled(context.Background())
	s.Require().NoError(err)

	states, cancel := s.store.Subscribe()
	defer cancel()

	s.provider.SignIn(slow)
	s.Require().NoError(s.store.SignOut(context.Background()))
	close(gate)

	time.Sleep(50 * time.Millisecond)
	s.Equal(session.StatusAnonymous, s.store.Snapshot().Status())
	for {
		select {
		case st := <-states:
			s.Nil(st.Principal, "stale principal must never be published")
			continue
		default:
		}
		break
	}
}

func (s *StoreSuite) TestSignOutIsImmediate() {
	admin := s.newMember(role.Admin, "Ada")
	s.provider.SignIn(admin)
	s.Require().NoError(s.store.Init(context.Background()))
	s.waitFor(authenticatedAs(admin.PrincipalID))

	s.Require().NoError(s.store.SignOut(context.Background()))

	st := s.store.Snapshot()
	s.Equal(session.StatusAnonymous, st.Status())
	s.Nil(st.Principal)
	s.Equal(role.Role(""), st.Role)
	s.False(s.store.HasRoleOrHigher(context.Background(), role.Free))
	s.False(s.store.CanAccessAdminPanel(context.Background()))

	current, err := s.provider.CurrentSession(context.Background())
	s.Require().NoError(err)
	s.Nil(current)
}

func (s *StoreSuite) TestSignOutProviderFailureStillClearsLocalState() {
	member := s.newMember(role.Member, "Ada")
	s.provider.SignIn(member)
	s.Require().NoError(s.store.Init(context.Background()))
	s.waitFor(authenticatedAs(member.PrincipalID))

	s.provider.FailWith(errors.New("network"))
	err := s.store.SignOut(context.Background())
	s.Require().ErrorIs(err, session.ErrSignOut)
	s.Equal(session.StatusAnonymous, s.store.Snapshot().Status())
}

func (s *StoreSuite) TestRefreshKeepsPrincipalPointer() {
	member := s.newMember(role.Member, "Ada")
	s.provider.SignIn(member)
	s.Require().NoError(s.store.Init(context.Background()))
	first := s.waitFor(authenticatedAs(member.PrincipalID)).Principal

	s.Require().NoError(s.authority.SetRole(context.Background(), member.PrincipalID, role.Admin))
	s.provider.Refresh()
	st := s.waitFor(func(st session.State) bool { return st.Role == role.Admin })
	s.Same(first, st.Principal)

	other := s.newMember(role.Member, "Bob")
	s.provider.SignIn(other)
	st = s.waitFor(authenticatedAs(other.PrincipalID))
	s.NotSame(first, st.Principal)
}

func (s *StoreSuite) TestPrincipalSwitchDoesNotInheritRole() {
	alice := s.newMember(role.Admin, "Alice")
	s.provider.SignIn(alice)
	s.Require().NoError(s.store.Init(context.Background()))
	s.waitFor(func(st session.State) bool { return st.Role == role.Admin })

	bob := s.newMember(role.Free, "Bob")
	gate := s.authority.gate(bob.PrincipalID)
	s.provider.SignIn(bob)

	pending := s.waitFor(authenticatedAs(bob.PrincipalID))
	s.Equal(role.Role(""), pending.Role)
	s.Equal(session.StatusAuthenticated, pending.Status())
	ctx := context.Background()
	s.False(s.store.CanAccessAdminPanel(ctx))
	s.False(s.store.HasRoleOrHigher(ctx, role.Free))
	s.False(s.store.HasRole(ctx, role.Admin))

	close(gate)
	st := s.waitFor(func(st session.State) bool { return st.Role != "" })
	s.Equal(role.Free, st.Role)
	s.Same(pending.Principal, st.Principal)
	s.False(s.store.CanAccessAdminPanel(ctx))
}

func (s *StoreSuite) TestExpiredSessionIsAnonymous() {
	expired := s.newMember(role.Admin, "Ada")
	expired.ExpiresAt = time.Now().Add(-time.Hour)

	s.Run("initial fetch", func() {
		s.provider.SignIn(expired)
		s.Require().NoError(s.store.Init(context.Background()))
		st, err := s.store.WaitSettled(context.Background())
		s.Require().NoError(err)
		s.Equal(session.StatusAnonymous, st.Status())
	})

	s.Run("notification", func() {
		member := s.newMember(role.Member, "Bob")
		s.provider.SignIn(member)
		s.waitFor(func(st session.State) bool { return st.Role == role.Member })

		s.provider.SignIn(expired)
		st := s.waitFor(anonymous)
		s.Nil(st.Principal)
		s.False(s.store.CanAccessAdminPanel(context.Background()))
	})
}

func (s *StoreSuite) TestSessionEndsAtExpiry() {
	member := s.newMember(role.Member, "Ada")
	member.ExpiresAt = time.Now().Add(150 * time.Millisecond)
	s.provider.SignIn(member)
	s.Require().NoError(s.store.Init(context.Background()))
	s.waitFor(func(st session.State) bool { return st.Role == role.Member })

	st := s.waitFor(anonymous)
	s.Nil(st.Principal)
	s.Equal(role.Role(""), st.Role)
}

func (s *StoreSuite) TestRenewedSessionOutlivesOldExpiry() {
	member := s.newMember(role.Member, "Ada")
	member.ExpiresAt = time.Now().Add(150 * time.Millisecond)
	s.provider.SignIn(member)
	s.Require().NoError(s.store.Init(context.Background()))
	s.waitFor(func(st session.State) bool { return st.Role == role.Member })

	member.ExpiresAt = time.Now().Add(time.Hour)
	s.provider.SignIn(member)

	time.Sleep(300 * time.Millisecond)
	st := s.store.Snapshot()
	s.Require().NotNil(st.Principal)
	s.Equal(member.PrincipalID, st.Principal.ID)
	s.Equal(role.Member, st.Role)
}

func (s *StoreSuite) TestSubscribeDeliversLatestAndClosesOnTeardown() {
	states, cancel := s.store.Subscribe()
	defer cancel()

	first := <-states
	s.True(first.Loading)

	s.Require().NoError(s.store.Init(context.Background()))
	select {
	case st := <-states:
		s.False(st.Loading)
	case <-time.After(settle):
		s.Fail("no state delivered")
	}

	s.store.Teardown()
	_, open := <-states
	s.False(open)
}

func (s *StoreSuite) TestLifecycleErrors() {
	s.Require().NoError(s.store.Init(context.Background()))
	s.Require().ErrorIs(s.store.Init(context.Background()), session.ErrAlreadyStarted)

	s.store.Teardown()
	s.store.Teardown()

	fresh := s.newStore(provider.NewMemory())
	fresh.Teardown()
	s.Require().ErrorIs(fresh.Init(context.Background()), sentinel.ErrClosed)

	_, err := fresh.WaitSettled(context.Background())
	s.Require().ErrorIs(err, sentinel.ErrClosed)
}

func (s *StoreSuite) TestSignOutWithoutInit() {
	s.Require().NoError(s.store.SignOut(context.Background()))
	s.Equal(session.StatusAnonymous, s.store.Snapshot().Status())
}

func TestSessionCheckExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name      string
		expiresAt time.Time
		wantErr   error
	}{
		{name: "no expiry", expiresAt: time.Time{}},
		{name: "future", expiresAt: now.Add(time.Second)},
		{name: "exactly now", expiresAt: now, wantErr: sentinel.ErrExpired},
		{name: "past", expiresAt: now.Add(-time.Second), wantErr: sentinel.ErrExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := &session.Session{ExpiresAt: tc.expiresAt}
			err := sess.CheckExpiry(now)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}
