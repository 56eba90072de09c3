package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pantry/internal/model"
	"github.com/roach88/pantry/internal/state"
)

// Scenario defines a deterministic reducer test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario; it names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps contains the transitions to dispatch, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and the final state.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions"`
}

// Step dispatches one transition.
type Step struct {
	// Dispatch is the transition name, e.g. "shopping-list/add".
	Dispatch string `yaml:"dispatch"`

	// Args contains the transition arguments. May be omitted for
	// argument-free transitions.
	Args map[string]interface{} `yaml:"args,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": the transition appears in the trace
	// - "trace_order": transitions appear in this relative order
	// - "trace_count": the transition appears exactly Count times
	// - "final_state": a state slice matches expected values
	Type string `yaml:"type"`

	// Transition is the transition name (trace_contains, trace_count).
	Transition string `yaml:"transition,omitempty"`

	// Transitions is the expected relative order (trace_order).
	Transitions []string `yaml:"transitions,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Slice names the state slice to inspect (final_state):
	// "session", "recipes" or "shopping_list".
	Slice string `yaml:"slice,omitempty"`

	// Expect contains expected slice values (final_state). Subset match;
	// only the given keys are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid, and
// that every step decodes to a known transition.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Dispatch == "" {
			return fmt.Errorf("steps[%d]: dispatch is required", i)
		}
		if _, err := buildTransition(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Transition == "" {
			return fmt.Errorf("assertions[%d]: transition is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Transitions) == 0 {
			return fmt.Errorf("assertions[%d]: transitions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Transition == "" {
			return fmt.Errorf("assertions[%d]: transition is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		switch a.Slice {
		case "session", "recipes", "shopping_list":
		default:
			return fmt.Errorf("assertions[%d]: unknown slice %q for final_state", index, a.Slice)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// Wire shapes for step arguments.

type ingredientArg struct {
	Name   string  `yaml:"name"`
	Amount float64 `yaml:"amount"`
	Unit   string  `yaml:"unit"`
}

func (a ingredientArg) model() model.Ingredient {
	return model.Ingredient{Name: a.Name, Amount: a.Amount, Unit: a.Unit}
}

type variantArg struct {
	Name        string `yaml:"name"`
	Checked     bool   `yaml:"checked"`
	Description string `yaml:"description"`
}

type recipeArg struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Category    string          `yaml:"category"`
	Description string          `yaml:"description"`
	Author      string          `yaml:"author"`
	Ingredients []ingredientArg `yaml:"ingredients"`
	Variants    []variantArg    `yaml:"variants"`
}

func (a recipeArg) model() model.Recipe {
	r := model.Recipe{
		ID:          a.ID,
		Name:        a.Name,
		Category:    a.Category,
		Description: a.Description,
		Author:      a.Author,
	}
	for _, ing := range a.Ingredients {
		r.Ingredients = append(r.Ingredients, ing.model())
	}
	for _, v := range a.Variants {
		r.Variants = append(r.Variants, model.Variant{
			Name:        v.Name,
			Checked:     v.Checked,
			Description: v.Description,
		})
	}
	return r
}

// decodeArgs re-marshals the loosely typed args map into a typed shape.
func decodeArgs[T any](args map[string]interface{}) (T, error) {
	var out T
	raw, err := yaml.Marshal(args)
	if err != nil {
		return out, err
	}
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&out); err != nil {
		return out, fmt.Errorf("decoding args: %w", err)
	}
	return out, nil
}

// scenarioExpiry keeps restored-session scenarios deterministic: far enough
// out that the session always counts as authenticated.
var scenarioExpiry = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)

// buildTransition turns one scenario step into a concrete transition.
func buildTransition(step Step) (state.Transition, error) {
	switch step.Dispatch {
	case state.LoginStart{}.Name():
		a, err := decodeArgs[struct {
			Email    string `yaml:"email"`
			Password string `yaml:"password"`
		}](step.Args)
		return state.LoginStart{Email: a.Email, Password: a.Password}, err

	case state.SignupStart{}.Name():
		a, err := decodeArgs[struct {
			Email    string `yaml:"email"`
			Password string `yaml:"password"`
		}](step.Args)
		return state.SignupStart{Email: a.Email, Password: a.Password}, err

	case state.Login{}.Name():
		a, err := decodeArgs[struct {
			Email    string `yaml:"email"`
			UserID   string `yaml:"user_id"`
			Token    string `yaml:"token"`
			Redirect bool   `yaml:"redirect"`
		}](step.Args)
		return state.Login{
			Session: model.Session{
				UserID:    a.UserID,
				Email:     a.Email,
				Token:     a.Token,
				ExpiresAt: scenarioExpiry,
			},
			Redirect: a.Redirect,
		}, err

	case state.LoginFail{}.Name():
		a, err := decodeArgs[struct {
			Message string `yaml:"message"`
		}](step.Args)
		return state.LoginFail{Message: a.Message}, err

	case state.Logout{}.Name():
		return state.Logout{}, nil

	case state.AutoLogin{}.Name():
		return state.AutoLogin{}, nil

	case state.FetchRecipes{}.Name():
		return state.FetchRecipes{}, nil

	case state.SetRecipes{}.Name():
		a, err := decodeArgs[struct {
			Recipes []recipeArg `yaml:"recipes"`
		}](step.Args)
		tr := state.SetRecipes{Recipes: []model.Recipe{}}
		for _, r := range a.Recipes {
			tr.Recipes = append(tr.Recipes, r.model())
		}
		return tr, err

	case state.AddRecipe{}.Name():
		a, err := decodeArgs[struct {
			Recipe recipeArg `yaml:"recipe"`
		}](step.Args)
		return state.AddRecipe{Recipe: a.Recipe.model()}, err

	case state.UpdateRecipe{}.Name():
		a, err := decodeArgs[struct {
			ID     string    `yaml:"id"`
			Recipe recipeArg `yaml:"recipe"`
		}](step.Args)
		return state.UpdateRecipe{ID: a.ID, Recipe: a.Recipe.model()}, err

	case state.DeleteRecipe{}.Name():
		a, err := decodeArgs[struct {
			ID string `yaml:"id"`
		}](step.Args)
		return state.DeleteRecipe{ID: a.ID}, err

	case state.StoreRecipes{}.Name():
		return state.StoreRecipes{}, nil

	case state.RecipesFetchFailed{}.Name():
		a, err := decodeArgs[struct {
			Message string `yaml:"message"`
		}](step.Args)
		return state.RecipesFetchFailed{Message: a.Message}, err

	case state.FetchShoppingList{}.Name():
		return state.FetchShoppingList{}, nil

	case state.SetIngredients{}.Name():
		a, err := decodeArgs[struct {
			Ingredients []ingredientArg `yaml:"ingredients"`
		}](step.Args)
		tr := state.SetIngredients{Ingredients: []model.Ingredient{}}
		for _, ing := range a.Ingredients {
			tr.Ingredients = append(tr.Ingredients, ing.model())
		}
		return tr, err

	case state.AddIngredient{}.Name():
		a, err := decodeArgs[struct {
			Ingredient ingredientArg `yaml:"ingredient"`
		}](step.Args)
		return state.AddIngredient{Ingredient: a.Ingredient.model()}, err

	case state.AddIngredients{}.Name():
		a, err := decodeArgs[struct {
			Ingredients []ingredientArg `yaml:"ingredients"`
		}](step.Args)
		tr := state.AddIngredients{}
		for _, ing := range a.Ingredients {
			tr.Ingredients = append(tr.Ingredients, ing.model())
		}
		return tr, err

	case state.UpdateIngredient{}.Name():
		a, err := decodeArgs[struct {
			Index      int           `yaml:"index"`
			Ingredient ingredientArg `yaml:"ingredient"`
		}](step.Args)
		return state.UpdateIngredient{Index: a.Index, Ingredient: a.Ingredient.model()}, err

	case state.DeleteIngredients{}.Name():
		a, err := decodeArgs[struct {
			Names []string `yaml:"names"`
		}](step.Args)
		return state.DeleteIngredients{Names: a.Names}, err

	case state.ShoppingListFetchFailed{}.Name():
		a, err := decodeArgs[struct {
			Message string `yaml:"message"`
		}](step.Args)
		return state.ShoppingListFetchFailed{Message: a.Message}, err
	}

	return nil, fmt.Errorf("unknown transition %q", step.Dispatch)
}
