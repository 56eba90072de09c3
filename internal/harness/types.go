package harness

// TraceEvent records one dispatch: its sequence number, the transition
// name and a summary of the state after the reducers ran.
type TraceEvent struct {
	Seq        int64        `json:"seq"`
	Transition string       `json:"transition"`
	Summary    StateSummary `json:"summary"`
}

// StateSummary is the part of the state a trace pins down. Deliberately
// smaller than the full state so golden files stay readable.
type StateSummary struct {
	SessionAuthenticated bool                `json:"session_authenticated"`
	SessionError         string              `json:"session_error,omitempty"`
	SessionLoading       bool                `json:"session_loading,omitempty"`
	RecipeCount          int                 `json:"recipe_count"`
	RecipesError         string              `json:"recipes_error,omitempty"`
	ShoppingList         []IngredientSummary `json:"shopping_list"`
	ShoppingListError    string              `json:"shopping_list_error,omitempty"`
}

// IngredientSummary is one shopping-list row in a trace.
type IngredientSummary struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per dispatched transition, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
