package state

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/pantry/internal/model"
)

// foldName returns the case-insensitive identity key for an ingredient
// name. Unicode case folding, not ASCII lowering, so "Maß" and "MASS"
// collide the way a user expects.
//
// cases.Caser carries internal state, so a fresh one per call.
func foldName(name string) string {
	return cases.Fold().String(name)
}

func containsFolded(s, foldedQuery string) bool {
	return strings.Contains(foldName(s), foldedQuery)
}

// mergeIngredient is the one place where a create-vs-merge decision is
// made. If an entry with the same folded name exists, it is replaced by a
// copy whose amount is the sum of both amounts (name and unit unchanged).
// Otherwise the new entry is appended, preserving input order.
//
// Total: there is no failure mode.
func mergeIngredient(list []model.Ingredient, add model.Ingredient) []model.Ingredient {
	key := foldName(add.Name)
	for i, ing := range list {
		if foldName(ing.Name) == key {
			next := slices.Clone(list)
			next[i].Amount = ing.Amount + add.Amount
			return next
		}
	}
	return append(slices.Clone(list), add)
}

// reduceShoppingList is the shopping-list slice reducer.
//
// Add and AddMany route every insert through mergeIngredient, so the slice
// never holds two entries with the same folded name. UpdateIngredient on an
// out-of-range index is a no-op. DeleteIngredients matches names with the
// same fold key as the merge.
func reduceShoppingList(s ShoppingListState, t Transition) ShoppingListState {
	switch t := t.(type) {
	case SetIngredients:
		s.Ingredients = slices.Clone(t.Ingredients)
		s.Error = ""
		return s

	case AddIngredient:
		s.Ingredients = mergeIngredient(s.Ingredients, t.Ingredient)
		return s

	case AddIngredients:
		next := s.Ingredients
		for _, ing := range t.Ingredients {
			next = mergeIngredient(next, ing)
		}
		s.Ingredients = next
		return s

	case UpdateIngredient:
		if t.Index < 0 || t.Index >= len(s.Ingredients) {
			return s
		}
		next := slices.Clone(s.Ingredients)
		next[t.Index] = t.Ingredient
		s.Ingredients = next
		return s

	case DeleteIngredients:
		doomed := make(map[string]struct{}, len(t.Names))
		for _, name := range t.Names {
			doomed[foldName(name)] = struct{}{}
		}
		next := make([]model.Ingredient, 0, len(s.Ingredients))
		for _, ing := range s.Ingredients {
			if _, gone := doomed[foldName(ing.Name)]; !gone {
				next = append(next, ing)
			}
		}
		s.Ingredients = next
		return s

	case ShoppingListFetchFailed:
		s.Error = t.Message
		return s

	default:
		return s
	}
}
