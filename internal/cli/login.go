package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pantry/internal/state"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Authenticate and persist the session",
		Long: `Authenticate against the identity endpoint and persist the session
locally. Subsequent commands reuse the persisted session until it
expires or logout clears it.

Example:
  pantry login chef@example.com s3cret`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(rootOpts, cmd, args[0], args[1], false)
		},
	}
}

// NewSignupCommand creates the signup command.
func NewSignupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "signup <email> <password>",
		Short: "Create an account and log in",
		Long: `Register a new account with the identity endpoint. A successful
signup behaves exactly like a login: the session is installed and
persisted.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(rootOpts, cmd, args[0], args[1], true)
		},
	}
}

func runAuth(opts *RootOptions, cmd *cobra.Command, email, password string, signup bool) error {
	app, err := openApp(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	sub := app.Store.Subscribe()
	defer sub.Close()

	if signup {
		app.Store.Dispatch(state.SignupStart{Email: email, Password: password})
	} else {
		app.Store.Dispatch(state.LoginStart{Email: email, Password: password})
	}

	ctx, cancel := context.WithTimeout(cmdContext(cmd), opTimeout)
	defer cancel()
	c, err := awaitChange(ctx, sub, func(c state.Change) bool {
		switch c.Transition.(type) {
		case state.Login, state.LoginFail:
			return true
		}
		return false
	})
	if err != nil {
		return err
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	switch tr := c.Transition.(type) {
	case state.LoginFail:
		_ = out.Error(tr.Message, nil)
		return NewExitError(ExitFailure, tr.Message)
	case state.Login:
		return out.Success(
			fmt.Sprintf("logged in as %s (user %s), session valid until %s",
				tr.Session.Email, tr.Session.UserID, tr.Session.ExpiresAt.Format("2006-01-02 15:04:05 MST")),
			map[string]any{
				"email":      tr.Session.Email,
				"user_id":    tr.Session.UserID,
				"expires_at": tr.Session.ExpiresAt,
			},
		)
	}
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
