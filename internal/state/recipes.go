package state

import (
	"slices"

	"github.com/roach88/pantry/internal/model"
)

// reduceRecipes is the recipe collection reducer.
//
// UpdateRecipe on an identifier that matches no entry is a no-op, and the
// matched entry's identifier always survives the update. DeleteRecipe on an
// absent identifier filters zero entries.
func reduceRecipes(s RecipesState, t Transition) RecipesState {
	switch t := t.(type) {
	case SetRecipes:
		s.Recipes = cloneRecipes(t.Recipes)
		s.Error = ""
		return s

	case AddRecipe:
		s.Recipes = append(slices.Clone(s.Recipes), t.Recipe.Clone())
		return s

	case UpdateRecipe:
		i := slices.IndexFunc(s.Recipes, func(r model.Recipe) bool {
			return r.ID == t.ID
		})
		if i < 0 {
			return s
		}
		updated := t.Recipe.Clone()
		updated.ID = s.Recipes[i].ID
		next := slices.Clone(s.Recipes)
		next[i] = updated
		s.Recipes = next
		return s

	case DeleteRecipe:
		i := slices.IndexFunc(s.Recipes, func(r model.Recipe) bool {
			return r.ID == t.ID
		})
		if i < 0 {
			return s
		}
		s.Recipes = slices.Delete(slices.Clone(s.Recipes), i, i+1)
		return s

	case RecipesFetchFailed:
		s.Error = t.Message
		return s

	default:
		return s
	}
}

func cloneRecipes(recipes []model.Recipe) []model.Recipe {
	out := make([]model.Recipe, len(recipes))
	for i, r := range recipes {
		out[i] = r.Clone()
	}
	return out
}

// FilterRecipes returns the recipes whose name or category contains the
// query under case folding. An empty query returns the input unchanged.
func FilterRecipes(recipes []model.Recipe, query string) []model.Recipe {
	if query == "" {
		return recipes
	}
	q := foldName(query)
	var out []model.Recipe
	for _, r := range recipes {
		if containsFolded(r.Name, q) || containsFolded(r.Category, q) {
			out = append(out, r)
		}
	}
	return out
}
