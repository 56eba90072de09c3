package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/pantry/internal/state"
)

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the session",
		Long: `Clear the in-memory session and the persisted blob. Logging out
without being logged in is not an error.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			// Close drains the queue, so the logout side effects have run
			// before the command returns.
			app.Store.Dispatch(state.Logout{})
			app.Close()

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success("logged out", map[string]any{"logged_out": true})
		},
	}
}
