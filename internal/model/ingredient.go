package model

// Ingredient is a single shopping-list entry. The name is the identity key
// within a list: two entries never share a name under case folding, the
// merge in internal/state enforces that on every insert.
type Ingredient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}
