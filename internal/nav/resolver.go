package nav

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/pantry/internal/model"
	"github.com/roach88/pantry/internal/state"
)

// errDetached is returned when the change stream ends before the awaited
// set transition arrives.
var errDetached = errors.New("resolver detached before data arrived")

// RecipesResolver is the lazy-fetch-once gate for the recipe collection.
//
// Resolve reads the slice once: non-empty passes through synchronously;
// empty dispatches a fetch and waits for exactly one subsequent set. Two
// navigations racing into an empty slice may both dispatch a fetch - the
// remote read is idempotent, the later set wins, so the race is wasteful
// but harmless.
type RecipesResolver struct {
	store *state.Store
}

// NewRecipesResolver creates a resolver reading from store.
func NewRecipesResolver(store *state.Store) *RecipesResolver {
	return &RecipesResolver{store: store}
}

// Resolve returns the recipe collection, fetching it first if the slice is
// empty.
func (r *RecipesResolver) Resolve(ctx context.Context) ([]model.Recipe, error) {
	if recipes := r.store.State().Recipes.Recipes; len(recipes) > 0 {
		return recipes, nil
	}

	// Subscribe before dispatching so the set cannot slip past us.
	sub := r.store.Subscribe()
	defer sub.Close()

	r.store.Dispatch(state.FetchRecipes{})

	for {
		change, ok := sub.Next(ctx)
		if !ok {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, errDetached
		}
		switch t := change.Transition.(type) {
		case state.SetRecipes:
			return change.State.Recipes.Recipes, nil
		case state.RecipesFetchFailed:
			return nil, fmt.Errorf("recipes fetch failed: %s", t.Message)
		}
	}
}

// ShoppingListResolver is the lazy-fetch-once gate for the shopping list.
type ShoppingListResolver struct {
	store *state.Store
}

// NewShoppingListResolver creates a resolver reading from store.
func NewShoppingListResolver(store *state.Store) *ShoppingListResolver {
	return &ShoppingListResolver{store: store}
}

// Resolve returns the ingredient list, fetching it first if the slice is
// empty.
func (r *ShoppingListResolver) Resolve(ctx context.Context) ([]model.Ingredient, error) {
	if ingredients := r.store.State().ShoppingList.Ingredients; len(ingredients) > 0 {
		return ingredients, nil
	}

	sub := r.store.Subscribe()
	defer sub.Close()

	r.store.Dispatch(state.FetchShoppingList{})

	for {
		change, ok := sub.Next(ctx)
		if !ok {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, errDetached
		}
		switch t := change.Transition.(type) {
		case state.SetIngredients:
			return change.State.ShoppingList.Ingredients, nil
		case state.ShoppingListFetchFailed:
			return nil, fmt.Errorf("shopping list fetch failed: %s", t.Message)
		}
	}
}
