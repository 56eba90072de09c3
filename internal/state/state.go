package state

import "github.com/roach88/pantry/internal/model"

// SessionState is the authentication slice.
type SessionState struct {
	// Session is nil while logged out.
	Session *model.Session
	// Error is the user-facing message from the last failed attempt.
	Error string
	// Loading is true between Login/SignupStart and its outcome.
	Loading bool
}

// Authenticated reports whether a session with a token is present.
func (s SessionState) Authenticated() bool {
	return s.Session != nil && s.Session.Authenticated()
}

// RecipesState is the recipe collection slice.
type RecipesState struct {
	Recipes []model.Recipe
	// Error is set by RecipesFetchFailed and cleared by SetRecipes.
	Error string
}

// ShoppingListState is the ingredient list slice.
type ShoppingListState struct {
	Ingredients []model.Ingredient
	// Error is set by ShoppingListFetchFailed and cleared by SetIngredients.
	Error string
}

// AppState is the record of the three independent slices. Slices are only
// ever replaced wholesale with new immutable values.
type AppState struct {
	Session      SessionState
	Recipes      RecipesState
	ShoppingList ShoppingListState
}

// reduce computes the next whole state. Each slice is reduced
// independently; a transition a reducer does not know passes its slice
// through unchanged.
func reduce(s AppState, t Transition) AppState {
	return AppState{
		Session:      reduceSession(s.Session, t),
		Recipes:      reduceRecipes(s.Recipes, t),
		ShoppingList: reduceShoppingList(s.ShoppingList, t),
	}
}
