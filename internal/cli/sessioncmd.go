package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pantry/internal/config"
	"github.com/roach88/pantry/internal/session"
)

// NewSessionCommand creates the session command.
func NewSessionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the persisted session",
		Long: `Inspect the locally persisted session without contacting the
backend. Reports whether the session is still valid and, when the
token is a JWT, the claims it carries.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading configuration", err)
			}
			storage, err := session.OpenStorage(cfg.SessionDBPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "opening session database", err)
			}
			defer storage.Close()

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			sess, ok, err := storage.Load()
			if err != nil {
				return WrapExitError(ExitCommandError, "reading persisted session", err)
			}
			if !ok {
				_ = out.Error("no persisted session", nil)
				return NewExitError(ExitFailure, "no persisted session")
			}

			remaining := sess.Remaining(time.Now())
			status := "valid"
			if remaining <= 0 {
				status = "expired"
			}

			data := map[string]any{
				"email":      sess.Email,
				"user_id":    sess.UserID,
				"expires_at": sess.ExpiresAt,
				"status":     status,
			}
			if claims, err := session.TokenClaims(sess.Token); err == nil {
				data["claims"] = claims
			}
			return out.Success(
				fmt.Sprintf("%s session for %s (user %s), expires %s",
					status, sess.Email, sess.UserID, sess.ExpiresAt.Format("2006-01-02 15:04:05 MST")),
				data,
			)
		},
	}
}
