package model

import (
	"slices"

	"github.com/google/uuid"
)

// Image references a recipe photo stored outside the engine.
type Image struct {
	FilePath string `json:"filePath"`
	FileName string `json:"fileName"`
}

// Variant is a named preparation option on a recipe, e.g. "vegetarian",
// with an optional description of how the preparation differs.
type Variant struct {
	Name        string `json:"name"`
	Checked     bool   `json:"checked"`
	Description string `json:"description"`
}

// Recipe is one document in the remote recipe collection.
//
// INVARIANT: ID is assigned exactly once at creation and is never
// reassigned. An update that carries a different id keeps the existing one.
type Recipe struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Image       Image        `json:"image"`
	Ingredients []Ingredient `json:"ingredients"`
	About       string       `json:"about"`
	Comment     string       `json:"comment"`
	Variants    []Variant    `json:"variants"`
	Author      string       `json:"author,omitempty"`
	Publish     bool         `json:"publishRecipe"`
}

// NewRecipeID generates an opaque recipe identifier.
func NewRecipeID() string {
	return uuid.NewString()
}

// Clone returns a copy of the recipe that shares no slices with the
// original. Reducers use this so listeners never observe in-place mutation.
func (r Recipe) Clone() Recipe {
	r.Ingredients = slices.Clone(r.Ingredients)
	r.Variants = slices.Clone(r.Variants)
	return r
}
