// Package guard gates protected content behind an asynchronous minimum-role check.
//
// A Guard follows the session store and drives a View through the access decision
// for the current principal: Loading while pending, then Render or Redirect. It fails
// closed: the View is never told to render while the decision is pending or denied.
package guard

import (
	"context"
	"sync"

	"clubportal/internal/role"
	"clubportal/internal/session"
	id "clubportal/pkg/domain"
)

// Decision is the outcome of one role check.
type Decision int

const (
	Pending Decision = iota
	Granted
	Denied
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// StateSource publishes session state. *session.Store satisfies it.
type StateSource interface {
	Subscribe() (<-chan session.State, func())
}

// Checker performs the raw role check. *role.Resolver satisfies it.
type Checker interface {
	CheckRoleOrHigher(ctx context.Context, principalID id.PrincipalID, min role.Role) (bool, error)
}

// View is the protected surface driven by a Guard.
type View interface {
	Loading()
	Render()
	Redirect(route string)
}

type checkResult struct {
	principal *session.Principal
	allowed   bool
	err       error
}

// Guard holds the access decision for one protected view. It is not shared between
// views.
type Guard struct {
	source  StateSource
	checker Checker
	min     role.Role
	view    View
	cfg     config

	mu       sync.RWMutex
	decision Decision
}

func New(source StateSource, checker Checker, min role.Role, view View, opts ...Option) *Guard {
	return &Guard{
		source:  source,
		checker: checker,
		min:     min,
		view:    view,
		cfg:     newConfig(opts),
	}
}

// Decision returns the current decision.
func (g *Guard) Decision() Decision {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.decision
}

// Fallback returns the configured redirect route.
func (g *Guard) Fallback() string { return g.cfg.fallback }

// Run follows the source until ctx is done or the source closes its channel. A role
// check still in flight when the principal changes or Run returns is discarded.
func (g *Guard) Run(ctx context.Context) error {
	states, unsubscribe := g.source.Subscribe()
	defer unsubscribe()

	var (
		mounted     bool
		principal   *session.Principal
		results     chan checkResult
		cancelCheck context.CancelFunc = func() {}
	)
	defer func() { cancelCheck() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case st, ok := <-states:
			if !ok {
				return nil
			}
			if !mounted || st.Principal != principal {
				mounted = true
				cancelCheck()
				cancelCheck = func() {}
				results = nil
				principal = st.Principal
				g.set(Pending)
				g.view.Loading()
			}
			if g.Decision() != Pending || results != nil || st.Loading {
				continue
			}
			if principal == nil {
				g.finish(ctx, Denied)
				continue
			}
			checkCtx, cancel := context.WithTimeout(ctx, g.cfg.timeout)
			cancelCheck = cancel
			results = make(chan checkResult, 1)
			go g.check(checkCtx, principal, results)

		case res := <-results:
			results = nil
			cancelCheck()
			cancelCheck = func() {}
			if res.principal != principal {
				continue
			}
			if res.err != nil {
				g.cfg.logger.WarnContext(ctx, "role check failed, denying access",
					"principal_id", res.principal.ID.String(),
					"required_role", g.min.String(),
					"error", res.err,
				)
				g.finish(ctx, Denied)
				continue
			}
			if res.allowed {
				g.finish(ctx, Granted)
			} else {
				g.finish(ctx, Denied)
			}
		}
	}
}

func (g *Guard) check(ctx context.Context, principal *session.Principal, out chan<- checkResult) {
	allowed, err := g.checker.CheckRoleOrHigher(ctx, principal.ID, g.min)
	out <- checkResult{principal: principal, allowed: allowed, err: err}
}

func (g *Guard) set(d Decision) {
	g.mu.Lock()
	g.decision = d
	g.mu.Unlock()
}

func (g *Guard) finish(ctx context.Context, d Decision) {
	g.set(d)
	g.cfg.metrics.IncrementAccessDecision("component", g.min.String(), d.String())
	g.cfg.logger.DebugContext(ctx, "access decision",
		"required_role", g.min.String(),
		"decision", d.String(),
	)
	if d == Granted {
		g.view.Render()
		return
	}
	g.view.Redirect(g.cfg.fallback)
}
