package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/pantry/internal/state"
)

// Run executes a scenario against a fresh store and evaluates its
// assertions. The returned result carries the full trace either way; Pass
// reports whether every assertion held.
func Run(scenario *Scenario) (*Result, error) {
	store := state.NewStore()
	defer store.Close()

	result := NewResult()
	for i, step := range scenario.Steps {
		tr, err := buildTransition(step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		change := store.Dispatch(tr)
		result.Trace = append(result.Trace, TraceEvent{
			Seq:        change.Seq,
			Transition: tr.Name(),
			Summary:    summarize(change.State),
		})
	}

	final := store.State()
	for i, assertion := range scenario.Assertions {
		if err := evalAssertion(&assertion, result, final); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return result, nil
}

// summarize projects the full state onto the trace shape.
func summarize(s state.AppState) StateSummary {
	list := make([]IngredientSummary, 0, len(s.ShoppingList.Ingredients))
	for _, ing := range s.ShoppingList.Ingredients {
		list = append(list, IngredientSummary{Name: ing.Name, Amount: ing.Amount, Unit: ing.Unit})
	}
	return StateSummary{
		SessionAuthenticated: s.Session.Authenticated(),
		SessionError:         s.Session.Error,
		SessionLoading:       s.Session.Loading,
		RecipeCount:          len(s.Recipes.Recipes),
		RecipesError:         s.Recipes.Error,
		ShoppingList:         list,
		ShoppingListError:    s.ShoppingList.Error,
	}
}

func evalAssertion(a *Assertion, result *Result, final state.AppState) error {
	switch a.Type {
	case AssertTraceContains:
		for _, event := range result.Trace {
			if event.Transition == a.Transition {
				return nil
			}
		}
		return fmt.Errorf("transition %q not found in trace", a.Transition)

	case AssertTraceOrder:
		next := 0
		for _, event := range result.Trace {
			if next < len(a.Transitions) && event.Transition == a.Transitions[next] {
				next++
			}
		}
		if next != len(a.Transitions) {
			return fmt.Errorf("trace order violated: %q not reached (matched %d of %d)",
				a.Transitions[next], next, len(a.Transitions))
		}
		return nil

	case AssertTraceCount:
		count := 0
		for _, event := range result.Trace {
			if event.Transition == a.Transition {
				count++
			}
		}
		if count != a.Count {
			return fmt.Errorf("transition %q appeared %d times, want %d", a.Transition, count, a.Count)
		}
		return nil

	case AssertFinalState:
		return evalFinalState(a, final)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// evalFinalState subset-matches expected values against one state slice.
func evalFinalState(a *Assertion, final state.AppState) error {
	got := map[string]interface{}{}
	switch a.Slice {
	case "session":
		got["authenticated"] = final.Session.Authenticated()
		got["error"] = final.Session.Error
		got["loading"] = final.Session.Loading
		if final.Session.Session != nil {
			got["email"] = final.Session.Session.Email
			got["user_id"] = final.Session.Session.UserID
		}
	case "recipes":
		got["count"] = len(final.Recipes.Recipes)
		got["error"] = final.Recipes.Error
		names := []interface{}{}
		for _, r := range final.Recipes.Recipes {
			names = append(names, r.Name)
		}
		got["names"] = names
	case "shopping_list":
		got["count"] = len(final.ShoppingList.Ingredients)
		got["error"] = final.ShoppingList.Error
		items := []interface{}{}
		for _, ing := range final.ShoppingList.Ingredients {
			items = append(items, map[string]interface{}{
				"name":   ing.Name,
				"amount": ing.Amount,
				"unit":   ing.Unit,
			})
		}
		got["items"] = items
	}

	var mismatches []string
	for key, want := range a.Expect {
		have, ok := got[key]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("%s: no such field (absent session?)", key))
			continue
		}
		if !looselyEqual(want, have) {
			mismatches = append(mismatches, fmt.Sprintf("%s: got %v, want %v", key, have, want))
		}
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("final_state %s: %s", a.Slice, strings.Join(mismatches, "; "))
	}
	return nil
}

// looselyEqual compares YAML-decoded expectations against state values.
// Numbers compare numerically so an expected 3 matches an amount of 3.0;
// maps and slices compare recursively as subset and element-wise matches.
func looselyEqual(want, have interface{}) bool {
	if wn, ok := asFloat(want); ok {
		hn, ok := asFloat(have)
		return ok && math.Abs(wn-hn) < 1e-9
	}

	switch w := want.(type) {
	case map[string]interface{}:
		h, ok := have.(map[string]interface{})
		if !ok {
			return false
		}
		for key, wv := range w {
			hv, ok := h[key]
			if !ok || !looselyEqual(wv, hv) {
				return false
			}
		}
		return true
	case []interface{}:
		h, ok := have.([]interface{})
		if !ok || len(h) != len(w) {
			return false
		}
		for i := range w {
			if !looselyEqual(w[i], h[i]) {
				return false
			}
		}
		return true
	}
	return fmt.Sprintf("%v", want) == fmt.Sprintf("%v", have)
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
