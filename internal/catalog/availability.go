package catalog

// IngredientRef is a display record for an ingredient code: the code plus its
// resolved display name.
type IngredientRef struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name"`
}

// Verdict is the availability projection for one product over a live sensor
// snapshot. It is derived on demand and never persisted.
type Verdict struct {
	Available bool            `json:"available"`
	Missing   []IngredientRef `json:"missing_ingredients,omitempty"`
}

// ResolveAvailability maps a product's required ingredient codes plus a live
// reading snapshot to a verdict. A product is available only when every
// required code resolves to in-stock; codes absent from the snapshot count as
// depleted. Pure function, safe to call on every poll.
func (r *Registry) ResolveAvailability(requiredCodes []string, readings map[string]float64) Verdict {
	verdict := Verdict{Available: true}
	for _, code := range requiredCodes {
		if r.inStock(code, readings) {
			continue
		}
		verdict.Available = false
		verdict.Missing = append(verdict.Missing, IngredientRef{
			Code:        code,
			DisplayName: r.DisplayName(code),
		})
	}
	return verdict
}

// inStock interprets one sensor value. 0 and 1 are the normal depleted and
// in-stock signals; anything else is legacy percentage telemetry and is
// compared against the ingredient's warning threshold.
func (r *Registry) inStock(code string, readings map[string]float64) bool {
	value, ok := readings[code]
	if !ok {
		return false
	}
	switch value {
	case 0:
		return false
	case 1:
		return true
	default:
		return value > r.Threshold(code)
	}
}
