package state

import "github.com/roach88/pantry/internal/model"

// Transition is a named, immutable description of an intended state change.
// The set of transitions is closed: reducers exhaustively match the types in
// this file and treat anything else as a no-op.
type Transition interface {
	// Name identifies the transition in logs and harness traces.
	Name() string
}

// Session transitions.

// LoginStart requests credential sign-in at the auth endpoint.
type LoginStart struct {
	Email    string
	Password string
}

// SignupStart requests account creation at the auth endpoint.
type SignupStart struct {
	Email    string
	Password string
}

// Login installs an authenticated session. Redirect is true for fresh
// logins (navigate to the recipes route afterwards) and false when the
// session was restored from disk.
type Login struct {
	Session  model.Session
	Redirect bool
}

// LoginFail clears the session and records a user-facing error message.
type LoginFail struct {
	Message string
}

// Logout clears the session. The effect pipeline additionally cancels the
// expiry timer, clears the persisted session, and navigates to the login
// route.
type Logout struct{}

// AutoLogin asks the effect pipeline to restore a persisted session.
type AutoLogin struct{}

// Recipe transitions.

// FetchRecipes asks the effect pipeline to load the recipe collection.
type FetchRecipes struct{}

// SetRecipes replaces the whole recipe collection.
type SetRecipes struct {
	Recipes []model.Recipe
}

// AddRecipe appends one recipe to the collection.
type AddRecipe struct {
	Recipe model.Recipe
}

// UpdateRecipe replaces the recipe whose identifier matches ID. The
// existing identifier always survives the update. Unmatched IDs are a
// no-op.
type UpdateRecipe struct {
	ID     string
	Recipe model.Recipe
}

// DeleteRecipe removes the recipe whose identifier matches ID.
type DeleteRecipe struct {
	ID string
}

// StoreRecipes asks the effect pipeline to persist the current collection.
type StoreRecipes struct{}

// RecipesFetchFailed records a failed recipe fetch.
type RecipesFetchFailed struct {
	Message string
}

// Shopping-list transitions.

// FetchShoppingList asks the effect pipeline to load the authenticated
// user's ingredient list.
type FetchShoppingList struct{}

// SetIngredients replaces the whole shopping list.
type SetIngredients struct {
	Ingredients []model.Ingredient
}

// AddIngredient merges one ingredient into the list (see mergeIngredient).
type AddIngredient struct {
	Ingredient model.Ingredient
}

// AddIngredients merges a batch of ingredients into the list, in order.
type AddIngredients struct {
	Ingredients []model.Ingredient
}

// UpdateIngredient replaces the entry at a positional index. Out-of-range
// indexes are a no-op.
type UpdateIngredient struct {
	Index      int
	Ingredient model.Ingredient
}

// DeleteIngredients removes every entry whose name matches one of Names
// under case folding.
type DeleteIngredients struct {
	Names []string
}

// ShoppingListFetchFailed records a failed shopping-list fetch.
type ShoppingListFetchFailed struct {
	Message string
}

func (LoginStart) Name() string  { return "session/login-start" }
func (SignupStart) Name() string { return "session/signup-start" }
func (Login) Name() string       { return "session/login" }
func (LoginFail) Name() string   { return "session/login-fail" }
func (Logout) Name() string      { return "session/logout" }
func (AutoLogin) Name() string   { return "session/auto-login" }

func (FetchRecipes) Name() string       { return "recipes/fetch" }
func (SetRecipes) Name() string         { return "recipes/set" }
func (AddRecipe) Name() string          { return "recipes/add" }
func (UpdateRecipe) Name() string       { return "recipes/update" }
func (DeleteRecipe) Name() string       { return "recipes/delete" }
func (StoreRecipes) Name() string       { return "recipes/store" }
func (RecipesFetchFailed) Name() string { return "recipes/fetch-failed" }

func (FetchShoppingList) Name() string       { return "shopping-list/fetch" }
func (SetIngredients) Name() string          { return "shopping-list/set" }
func (AddIngredient) Name() string           { return "shopping-list/add" }
func (AddIngredients) Name() string          { return "shopping-list/add-many" }
func (UpdateIngredient) Name() string        { return "shopping-list/update" }
func (DeleteIngredients) Name() string       { return "shopping-list/delete" }
func (ShoppingListFetchFailed) Name() string { return "shopping-list/fetch-failed" }
