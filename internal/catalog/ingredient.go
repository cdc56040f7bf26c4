package catalog

// DefaultWarningThreshold is applied to legacy percentage readings for
// ingredient codes the registry does not know about.
const DefaultWarningThreshold = 20.0

// IngredientDescriptor describes a physical consumable slot on the machine:
// its sensor code, display metadata and the warning threshold used when the
// machine reports legacy percentage telemetry instead of a 0/1 signal.
type IngredientDescriptor struct {
	Code             string            `json:"code" bson:"code"`
	DisplayName      string            `json:"display_name" bson:"display_name"`
	DisplayNameI18n  map[string]string `json:"display_name_i18n,omitempty" bson:"display_name_i18n,omitempty"`
	Category         string            `json:"category" bson:"category"`
	WarningThreshold float64           `json:"warning_threshold" bson:"warning_threshold"`
}

// Registry is a static lookup from ingredient code to descriptor. It is built
// once at startup and never mutated, so it is safe to share between requests.
type Registry struct {
	byCode map[string]IngredientDescriptor
}

func NewRegistry(descriptors ...IngredientDescriptor) *Registry {
	byCode := make(map[string]IngredientDescriptor, len(descriptors))
	for _, d := range descriptors {
		byCode[d.Code] = d
	}
	return &Registry{byCode: byCode}
}

// Lookup returns the descriptor for a code, if registered.
func (r *Registry) Lookup(code string) (IngredientDescriptor, bool) {
	d, ok := r.byCode[code]
	return d, ok
}

// DisplayName returns the registered display name for a code, or the raw code
// itself when the registry has no entry. Unknown codes degrade, never fail.
func (r *Registry) DisplayName(code string) string {
	if d, ok := r.byCode[code]; ok && d.DisplayName != "" {
		return d.DisplayName
	}
	return code
}

// Describe resolves display records for a list of codes, preserving order.
// Unknown codes keep their raw code as the display name.
func (r *Registry) Describe(codes []string) []IngredientRef {
	if len(codes) == 0 {
		return nil
	}
	refs := make([]IngredientRef, 0, len(codes))
	for _, code := range codes {
		refs = append(refs, IngredientRef{Code: code, DisplayName: r.DisplayName(code)})
	}
	return refs
}

// Threshold returns the warning threshold for a code, falling back to the
// conservative default for unknown codes.
func (r *Registry) Threshold(code string) float64 {
	if d, ok := r.byCode[code]; ok {
		return d.WarningThreshold
	}
	return DefaultWarningThreshold
}

// DefaultRegistry returns the registry for the standard machine slot layout.
func DefaultRegistry() *Registry {
	return NewRegistry(
		IngredientDescriptor{Code: "CupSmall", DisplayName: "8oz Cup", Category: "cups", WarningThreshold: 10},
		IngredientDescriptor{Code: "CupLarge", DisplayName: "12oz Cup", Category: "cups", WarningThreshold: 10},
		IngredientDescriptor{Code: "BeanHopper1", DisplayName: "House Blend Beans", Category: "coffee", WarningThreshold: 15},
		IngredientDescriptor{Code: "BeanHopper2", DisplayName: "Dark Roast Beans", Category: "coffee", WarningThreshold: 15},
		IngredientDescriptor{Code: "MilkFresh", DisplayName: "Fresh Milk", Category: "milk", WarningThreshold: 20},
		IngredientDescriptor{Code: "MilkOat", DisplayName: "Oat Milk", Category: "milk", WarningThreshold: 20},
		IngredientDescriptor{Code: "IceHopper", DisplayName: "Ice", Category: "ice", WarningThreshold: 25},
		IngredientDescriptor{Code: "Water", DisplayName: "Water", Category: "supplies", WarningThreshold: 10},
		IngredientDescriptor{Code: "TeaLeaf1", DisplayName: "Green Tea Leaves", Category: "tea", WarningThreshold: 15},
		IngredientDescriptor{Code: "IceCreamMix", DisplayName: "Ice Cream Mix", Category: "ice-cream", WarningThreshold: 25},
		IngredientDescriptor{Code: "Syrup1", DisplayName: "Vanilla Syrup", Category: "supplies", WarningThreshold: 15},
	)
}
