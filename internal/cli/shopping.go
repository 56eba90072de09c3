package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pantry/internal/model"
	"github.com/roach88/pantry/internal/nav"
	"github.com/roach88/pantry/internal/state"
)

// NewShoppingCommand creates the shopping command group.
func NewShoppingCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shopping",
		Short: "Manage the shopping list",
	}
	cmd.AddCommand(newShoppingListCommand(rootOpts))
	cmd.AddCommand(newShoppingAddCommand(rootOpts))
	cmd.AddCommand(newShoppingRemoveCommand(rootOpts))
	return cmd
}

func newShoppingListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "Show the shopping list, fetching it if not yet loaded",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			list, err := resolveShoppingList(app, cmd)
			if err != nil {
				return err
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			var b strings.Builder
			fmt.Fprintf(&b, "%d item(s)", len(list))
			for _, ing := range list {
				fmt.Fprintf(&b, "\n%s  %g %s", ing.Name, ing.Amount, ing.Unit)
			}
			return out.Success(b.String(), list)
		},
	}
}

func newShoppingAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <amount> <unit>",
		Short: "Add an ingredient, merging duplicates",
		Long: `Add an ingredient to the shopping list. An ingredient whose name
matches an existing entry case-insensitively has its amount added to
that entry instead of creating a duplicate row.

Example:
  pantry shopping add Flour 2 cup`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("bad amount %q", args[1]), err)
			}

			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := resolveShoppingList(app, cmd); err != nil {
				return err
			}
			c := app.Store.Dispatch(state.AddIngredient{
				Ingredient: model.Ingredient{Name: args[0], Amount: amount, Unit: args[2]},
			})

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			list := c.State.ShoppingList.Ingredients
			return out.Success(fmt.Sprintf("added %s, list now has %d item(s)", args[0], len(list)), list)
		},
	}
}

func newShoppingRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>...",
		Short: "Remove ingredients by name",
		Long: `Remove ingredients from the shopping list. Names match existing
entries case-insensitively; names with no matching entry are ignored.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := resolveShoppingList(app, cmd); err != nil {
				return err
			}
			c := app.Store.Dispatch(state.DeleteIngredients{Names: args})

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			list := c.State.ShoppingList.Ingredients
			return out.Success(fmt.Sprintf("removed, list now has %d item(s)", len(list)), list)
		},
	}
}

// resolveShoppingList gates on the guard and guarantees the list is loaded.
func resolveShoppingList(app *App, cmd *cobra.Command) ([]model.Ingredient, error) {
	if v := app.Guard.Check(); !v.Allowed {
		return nil, NewExitError(ExitFailure,
			fmt.Sprintf("not authenticated, log in first (would redirect to %s)", v.Redirect))
	}

	ctx, cancel := context.WithTimeout(cmdContext(cmd), opTimeout)
	defer cancel()
	list, err := nav.NewShoppingListResolver(app.Store).Resolve(ctx)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "loading shopping list", err)
	}
	return list, nil
}
