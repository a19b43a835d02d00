// Package cli implements portalctl, a terminal client that drives the session store
// the way a single-user portal client does.
package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"clubportal/internal/guard"
	"clubportal/internal/i18n"
	"clubportal/internal/session"
	id "clubportal/pkg/domain"
)

// SessionProvider is the session backend portalctl talks to.
type SessionProvider interface {
	session.Provider
	SignIn(ctx context.Context, token string) (*session.Session, error)
}

// Roles answers role questions for the store and the guard.
type Roles interface {
	session.RoleResolver
	guard.Checker
}

// TokenIssuer mints session tokens for local development.
type TokenIssuer interface {
	Issue(principalID id.PrincipalID, name, role string, expiresIn time.Duration) (string, error)
}

// App holds portalctl's collaborators. Issuer is optional.
type App struct {
	Provider      SessionProvider
	Roles         Roles
	Issuer        TokenIssuer
	Catalog       *i18n.Catalog
	Logger        *slog.Logger
	FallbackRoute string
	CheckTimeout  time.Duration
}

// NewRootCommand builds the portalctl command tree.
func NewRootCommand(app *App) *cobra.Command {
	if app.Catalog == nil {
		app.Catalog = i18n.NewCatalog()
	}
	if app.Logger == nil {
		app.Logger = slog.Default()
	}

	var settleTimeout time.Duration
	root := &cobra.Command{
		Use:   "portalctl",
		Short: "Club portal session client",
		Long: `portalctl signs in to the club portal with a token issued by the auth
provider, reports the current session, and opens guarded dashboard tabs.

The session is shared through Redis, so every portalctl on the same prefix sees
sign-in and sign-out immediately.

Examples:
  portalctl signin --token "$PORTAL_TOKEN"
  portalctl whoami
  portalctl open messages
  portalctl signout`,
		SilenceUsage: true,
	}
	root.PersistentFlags().DurationVar(&settleTimeout, "timeout", 10*time.Second, "how long to wait for the session to settle")

	settle := func() time.Duration { return settleTimeout }
	root.AddCommand(
		newSignInCommand(app),
		newWhoAmICommand(app, settle),
		newOpenCommand(app, settle),
		newSignOutCommand(app, settle),
		newWatchCommand(app),
	)
	if app.Issuer != nil {
		root.AddCommand(newIssueCommand(app))
	}
	return root
}

// startStore initialises a session store and waits for it to leave Initializing.
// Callers must Teardown the returned store.
func (a *App) startStore(ctx context.Context, timeout time.Duration) (*session.Store, session.State, error) {
	store := session.NewStore(a.Provider, a.Roles, session.WithLogger(a.Logger))
	if err := store.Init(ctx); err != nil {
		return nil, session.State{}, err
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	st, err := store.WaitSettled(waitCtx)
	if err != nil {
		store.Teardown()
		return nil, session.State{}, err
	}
	return store, st, nil
}
