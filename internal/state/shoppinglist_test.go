package state

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pantry/internal/model"
)

func ing(name string, amount float64, unit string) model.Ingredient {
	return model.Ingredient{Name: name, Amount: amount, Unit: unit}
}

func TestMergeIngredient_CaseInsensitiveSum(t *testing.T) {
	s := ShoppingListState{}
	s = reduceShoppingList(s, AddIngredient{Ingredient: ing("Flour", 2, "cup")})
	s = reduceShoppingList(s, AddIngredient{Ingredient: ing("flour", 1, "cup")})

	require.Len(t, s.Ingredients, 1)
	assert.Equal(t, ing("Flour", 3, "cup"), s.Ingredients[0])
}

func TestMergeIngredient_AppendsUnknownInOrder(t *testing.T) {
	s := ShoppingListState{}
	s = reduceShoppingList(s, AddIngredients{Ingredients: []model.Ingredient{
		ing("Salt", 1, "tsp"),
		ing("Pepper", 2, "tsp"),
		ing("salt", 3, "tsp"),
	}})

	require.Len(t, s.Ingredients, 2)
	assert.Equal(t, "Salt", s.Ingredients[0].Name)
	assert.Equal(t, float64(4), s.Ingredients[0].Amount)
	assert.Equal(t, "Pepper", s.Ingredients[1].Name)
}

// Same multiset of adds, any order: one entry per folded name, amount is
// the sum of all contributions under that name.
func TestMergeIngredient_CommutativeAmounts(t *testing.T) {
	inputs := []model.Ingredient{
		ing("Flour", 2, "cup"),
		ing("flour", 1, "cup"),
		ing("Sugar", 5, "g"),
		ing("FLOUR", 4, "cup"),
		ing("sugar", 1, "g"),
		ing("Eggs", 3, ""),
	}

	totals := func(list []model.Ingredient) map[string]float64 {
		m := make(map[string]float64)
		for _, i := range list {
			m[foldName(i.Name)] = i.Amount
		}
		return m
	}

	base := ShoppingListState{}
	for _, i := range inputs {
		base = reduceShoppingList(base, AddIngredient{Ingredient: i})
	}
	want := totals(base.Ingredients)

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		shuffled := append([]model.Ingredient(nil), inputs...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		s := reduceShoppingList(ShoppingListState{}, AddIngredients{Ingredients: shuffled})
		assert.Equal(t, want, totals(s.Ingredients), "trial %d", trial)

		// At most one entry per folded name.
		seen := make(map[string]bool)
		for _, i := range s.Ingredients {
			key := foldName(i.Name)
			assert.False(t, seen[key], "duplicate entry for %q", i.Name)
			seen[key] = true
		}
	}
}

func TestReduceShoppingList_SetReplacesWholesale(t *testing.T) {
	s := ShoppingListState{
		Ingredients: []model.Ingredient{ing("Salt", 1, "tsp")},
		Error:       "previous failure",
	}
	s = reduceShoppingList(s, SetIngredients{Ingredients: []model.Ingredient{
		ing("Butter", 200, "g"),
	}})

	require.Len(t, s.Ingredients, 1)
	assert.Equal(t, "Butter", s.Ingredients[0].Name)
	assert.Empty(t, s.Error)
}

func TestReduceShoppingList_UpdateByIndex(t *testing.T) {
	s := ShoppingListState{Ingredients: []model.Ingredient{
		ing("Salt", 1, "tsp"),
		ing("Pepper", 2, "tsp"),
	}}

	s = reduceShoppingList(s, UpdateIngredient{Index: 1, Ingredient: ing("Pepper", 5, "g")})
	assert.Equal(t, ing("Pepper", 5, "g"), s.Ingredients[1])
}

func TestReduceShoppingList_UpdateOutOfRangeIsNoop(t *testing.T) {
	orig := ShoppingListState{Ingredients: []model.Ingredient{ing("Salt", 1, "tsp")}}

	for _, idx := range []int{-1, 1, 99} {
		got := reduceShoppingList(orig, UpdateIngredient{Index: idx, Ingredient: ing("X", 1, "")})
		assert.Equal(t, orig, got)
		// Pass-through keeps the same backing array.
		assert.Same(t, &orig.Ingredients[0], &got.Ingredients[0])
	}
}

func TestReduceShoppingList_DeleteByNamesFoldsCase(t *testing.T) {
	s := ShoppingListState{Ingredients: []model.Ingredient{
		ing("Flour", 3, "cup"),
		ing("Sugar", 5, "g"),
		ing("Eggs", 3, ""),
	}}

	s = reduceShoppingList(s, DeleteIngredients{Names: []string{"flour", "EGGS"}})

	require.Len(t, s.Ingredients, 1)
	assert.Equal(t, "Sugar", s.Ingredients[0].Name)
}

func TestReduceShoppingList_FetchFailedRecordsError(t *testing.T) {
	s := ShoppingListState{Ingredients: []model.Ingredient{ing("Salt", 1, "tsp")}}
	got := reduceShoppingList(s, ShoppingListFetchFailed{Message: "boom"})

	assert.Equal(t, "boom", got.Error)
	// Prior slice value stays in place on failure.
	assert.Equal(t, s.Ingredients, got.Ingredients)
}

func TestReduceShoppingList_UnknownTransitionIsReferenceStableNoop(t *testing.T) {
	s := ShoppingListState{Ingredients: []model.Ingredient{ing("Salt", 1, "tsp")}}
	got := reduceShoppingList(s, FetchRecipes{})

	assert.Same(t, &s.Ingredients[0], &got.Ingredients[0])
	assert.Equal(t, s, got)
}
