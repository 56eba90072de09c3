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

// NewRecipesCommand creates the recipes command group.
func NewRecipesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "Browse and edit the recipe collection",
	}
	cmd.AddCommand(newRecipesListCommand(rootOpts))
	cmd.AddCommand(newRecipesAddCommand(rootOpts))
	cmd.AddCommand(newRecipesUpdateCommand(rootOpts))
	cmd.AddCommand(newRecipesDeleteCommand(rootOpts))
	return cmd
}

// recipeFlags is the editable surface shared by add and update.
type recipeFlags struct {
	Name        string
	Category    string
	Description string
	ImagePath   string
	About       string
	Comment     string
	Ingredients []string
	Variants    []string
	Publish     bool
}

func (f *recipeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Name, "name", "", "recipe name")
	cmd.Flags().StringVar(&f.Category, "category", "", "recipe category")
	cmd.Flags().StringVar(&f.Description, "description", "", "short description")
	cmd.Flags().StringVar(&f.ImagePath, "image", "", "image file path")
	cmd.Flags().StringVar(&f.About, "about", "", "longer free-form text")
	cmd.Flags().StringVar(&f.Comment, "comment", "", "private comment")
	cmd.Flags().StringArrayVar(&f.Ingredients, "ingredient", nil, "ingredient as name:amount:unit (repeatable)")
	cmd.Flags().StringArrayVar(&f.Variants, "variant", nil, "variant as name[:description][:checked] (repeatable)")
	cmd.Flags().BoolVar(&f.Publish, "publish", false, "mark the recipe as published")
}

func parseIngredient(spec string) (model.Ingredient, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return model.Ingredient{}, fmt.Errorf("ingredient %q: want name:amount:unit", spec)
	}
	amount, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return model.Ingredient{}, fmt.Errorf("ingredient %q: bad amount: %w", spec, err)
	}
	return model.Ingredient{Name: parts[0], Amount: amount, Unit: parts[2]}, nil
}

func parseVariant(spec string) (model.Variant, error) {
	parts := strings.SplitN(spec, ":", 3)
	if parts[0] == "" {
		return model.Variant{}, fmt.Errorf("variant %q: want name[:description][:checked]", spec)
	}
	v := model.Variant{Name: parts[0]}
	if len(parts) > 1 {
		v.Description = parts[1]
	}
	if len(parts) > 2 {
		checked, err := strconv.ParseBool(parts[2])
		if err != nil {
			return model.Variant{}, fmt.Errorf("variant %q: bad checked flag: %w", spec, err)
		}
		v.Checked = checked
	}
	return v, nil
}

func (f *recipeFlags) parseVariants() ([]model.Variant, error) {
	var variants []model.Variant
	for _, spec := range f.Variants {
		v, err := parseVariant(spec)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, nil
}

func newRecipesListCommand(rootOpts *RootOptions) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recipes, fetching them if not yet loaded",
		Long: `List the recipe collection. An empty in-memory collection is fetched
from the backend first; an already loaded one is served as-is.

Example:
  pantry recipes list --search soup`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			recipes, err := resolveRecipes(app, cmd)
			if err != nil {
				return err
			}
			if search != "" {
				recipes = state.FilterRecipes(recipes, search)
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			var b strings.Builder
			fmt.Fprintf(&b, "%d recipe(s)", len(recipes))
			for _, r := range recipes {
				fmt.Fprintf(&b, "\n%s  %s [%s]", r.ID, r.Name, r.Category)
			}
			return out.Success(b.String(), recipes)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter by name or category")
	return cmd
}

func newRecipesAddCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &recipeFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a recipe and push the collection",
		Long: `Add a recipe to the collection and push the whole collection to the
backend.

Example:
  pantry recipes add --name Goulash --category stew --ingredient "Beef:500:g"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			recipe := model.Recipe{
				ID:          model.NewRecipeID(),
				Name:        flags.Name,
				Category:    flags.Category,
				Description: flags.Description,
				Image:       model.Image{FilePath: flags.ImagePath},
				About:       flags.About,
				Comment:     flags.Comment,
				Publish:     flags.Publish,
			}
			for _, spec := range flags.Ingredients {
				ing, err := parseIngredient(spec)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid flag", err)
				}
				recipe.Ingredients = append(recipe.Ingredients, ing)
			}
			variants, err := flags.parseVariants()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid flag", err)
			}
			recipe.Variants = variants

			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := resolveRecipes(app, cmd); err != nil {
				return err
			}
			// New recipes belong to the session that creates them.
			if sess := app.Store.State().Session.Session; sess != nil {
				recipe.Author = sess.UserID
			}
			app.Store.Dispatch(state.AddRecipe{Recipe: recipe})
			app.Store.Dispatch(state.StoreRecipes{})

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(fmt.Sprintf("added recipe %s (%s)", recipe.Name, recipe.ID), recipe)
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newRecipesUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &recipeFlags{}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a recipe and push the collection",
		Long: `Update fields of an existing recipe. Only the flags given change;
everything else keeps its current value.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			recipes, err := resolveRecipes(app, cmd)
			if err != nil {
				return err
			}
			current, ok := findRecipe(recipes, args[0])
			if !ok {
				return NewExitError(ExitFailure, fmt.Sprintf("recipe %s not found", args[0]))
			}

			updated := current.Clone()
			set := cmd.Flags().Changed
			if set("name") {
				updated.Name = flags.Name
			}
			if set("category") {
				updated.Category = flags.Category
			}
			if set("description") {
				updated.Description = flags.Description
			}
			if set("image") {
				updated.Image = model.Image{FilePath: flags.ImagePath}
			}
			if set("about") {
				updated.About = flags.About
			}
			if set("comment") {
				updated.Comment = flags.Comment
			}
			if set("publish") {
				updated.Publish = flags.Publish
			}
			if set("ingredient") {
				updated.Ingredients = nil
				for _, spec := range flags.Ingredients {
					ing, err := parseIngredient(spec)
					if err != nil {
						return WrapExitError(ExitCommandError, "invalid flag", err)
					}
					updated.Ingredients = append(updated.Ingredients, ing)
				}
			}
			if set("variant") {
				variants, err := flags.parseVariants()
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid flag", err)
				}
				updated.Variants = variants
			}

			app.Store.Dispatch(state.UpdateRecipe{ID: current.ID, Recipe: updated})
			app.Store.Dispatch(state.StoreRecipes{})

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(fmt.Sprintf("updated recipe %s (%s)", updated.Name, updated.ID), updated)
		},
	}
	flags.register(cmd)
	return cmd
}

func newRecipesDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a recipe and push the collection",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			recipes, err := resolveRecipes(app, cmd)
			if err != nil {
				return err
			}
			current, ok := findRecipe(recipes, args[0])
			if !ok {
				return NewExitError(ExitFailure, fmt.Sprintf("recipe %s not found", args[0]))
			}

			app.Store.Dispatch(state.DeleteRecipe{ID: current.ID})
			app.Store.Dispatch(state.StoreRecipes{})

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(fmt.Sprintf("deleted recipe %s (%s)", current.Name, current.ID),
				map[string]any{"id": current.ID})
		},
	}
}

// resolveRecipes gates on the guard and guarantees the collection is loaded.
func resolveRecipes(app *App, cmd *cobra.Command) ([]model.Recipe, error) {
	if v := app.Guard.Check(); !v.Allowed {
		return nil, NewExitError(ExitFailure,
			fmt.Sprintf("not authenticated, log in first (would redirect to %s)", v.Redirect))
	}

	ctx, cancel := context.WithTimeout(cmdContext(cmd), opTimeout)
	defer cancel()
	recipes, err := nav.NewRecipesResolver(app.Store).Resolve(ctx)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "loading recipes", err)
	}
	return recipes, nil
}

func findRecipe(recipes []model.Recipe, id string) (model.Recipe, bool) {
	for _, r := range recipes {
		if r.ID == id {
			return r, true
		}
	}
	return model.Recipe{}, false
}
