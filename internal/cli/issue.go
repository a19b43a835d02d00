package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	id "clubportal/pkg/domain"
)

func newIssueCommand(app *App) *cobra.Command {
	var (
		principal string
		name      string
		roleHint  string
		ttl       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Mint a development session token",
		Long: `Mint a session token signed with TOKEN_SIGNING_KEY. Intended for local
development where no auth provider is running; pipe the result into signin.

  portalctl signin --token "$(portalctl issue --name Ada)"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return errors.New("--name is required")
			}
			pid := id.PrincipalID(uuid.New())
			if principal != "" {
				parsed, err := id.ParsePrincipalID(principal)
				if err != nil {
					return err
				}
				pid = parsed
			}
			token, err := app.Issuer.Issue(pid, name, roleHint, ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&principal, "principal", "", "principal ID (random when empty)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&roleHint, "role-hint", "", "role hint embedded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
