package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"clubportal/internal/dashboard"
	"clubportal/internal/guard"
	"clubportal/internal/role"
	"clubportal/internal/session"
)

// ErrUnknownTab is returned by open for names that are neither a dashboard tab nor admin.
var ErrUnknownTab = errors.New("unknown tab")

func newSignInCommand(app *App) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Store a session token issued by the auth provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("PORTAL_TOKEN")
			}
			if token == "" {
				return errors.New("a token is required (--token or PORTAL_TOKEN)")
			}
			sess, err := app.Provider.SignIn(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("sign in: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s), session expires %s\n",
				sess.DisplayName, sess.PrincipalID, sess.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "session token (defaults to $PORTAL_TOKEN)")
	return cmd
}

func newWhoAmICommand(app *App, settle func() time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current principal and role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, st, err := app.startStore(ctx, settle())
			if err != nil {
				return err
			}
			defer store.Teardown()

			out := cmd.OutOrStdout()
			if st.Principal == nil {
				fmt.Fprintln(out, "Not signed in")
				return nil
			}
			fmt.Fprintf(out, "Principal: %s (%s)\n", st.Principal.DisplayName, st.Principal.ID)
			fmt.Fprintf(out, "Role:      %s\n", st.Role)
			fmt.Fprintf(out, "Admin:     %t\n", store.CanAccessAdminPanel(ctx))
			return nil
		},
	}
}

func newOpenCommand(app *App, settle func() time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "open <tab>",
		Short: "Open a guarded dashboard tab or the admin panel",
		Long: fmt.Sprintf(`Open a dashboard tab (member or above) or "admin" (admin or above).

Tabs: %v`, dashboard.Tabs),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tab := args[0]
			minRole, titleKey := role.Member, "dashboard."+tab
			switch {
			case tab == "admin":
				minRole, titleKey = role.Admin, "page.admin"
			case !dashboard.IsTab(tab):
				return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			store, _, err := app.startStore(ctx, settle())
			if err != nil {
				return err
			}
			defer store.Teardown()

			view := newTerminalView(cmd.OutOrStdout(), app.Catalog.Translate(app.localeTag(), titleKey))
			g := guard.New(store, app.Roles, minRole, view,
				guard.WithFallback(app.FallbackRoute),
				guard.WithTimeout(app.CheckTimeout),
				guard.WithLogger(app.Logger),
			)
			runErr := make(chan error, 1)
			go func() { runErr <- g.Run(ctx) }()

			select {
			case d := <-view.decided:
				cancel()
				<-runErr
				if d == guard.Denied {
					return errAccessDenied
				}
				return nil
			case err := <-runErr:
				return err
			}
		},
	}
}

var errAccessDenied = errors.New("access denied")

func newSignOutCommand(app *App, settle func() time.Duration) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out everywhere this session is shared",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, _, err := app.startStore(ctx, settle())
			if err != nil {
				return err
			}
			defer store.Teardown()

			err = store.SignOut(ctx)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Local session: %s\n", store.Snapshot().Status())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Signed out")
			return nil
		},
	}
}

func newWatchCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print session changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store := session.NewStore(app.Provider, app.Roles, session.WithLogger(app.Logger))
			if err := store.Init(ctx); err != nil {
				return err
			}
			defer store.Teardown()

			states, unsubscribe := store.Subscribe()
			defer unsubscribe()
			out := cmd.OutOrStdout()
			for {
				select {
				case <-ctx.Done():
					return nil
				case st, ok := <-states:
					if !ok {
						return nil
					}
					printState(out, st)
				}
			}
		},
	}
}
