package catalog

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateCreateProduct validates a product before creation.
func ValidateCreateProduct(p *Product) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(p.Name) == "" {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	switch p.Type {
	case TypeTea, TypeCoffee, TypeIceCream, TypeOther:
	default:
		errors = append(errors, ValidationError{
			Field:   "type",
			Message: "type must be one of: tea, coffee, ice-cream, other",
		})
	}

	if p.Price < 0 {
		errors = append(errors, ValidationError{
			Field:   "price",
			Message: "price cannot be negative",
		})
	}

	if p.DefaultBeanCode != 0 && p.DefaultBeanCode != 1 && p.DefaultBeanCode != 2 {
		errors = append(errors, ValidationError{
			Field:   "default_bean_code",
			Message: "default_bean_code must be 1 or 2",
		})
	}

	if p.DefaultMilkCode != 0 && p.DefaultMilkCode != 1 && p.DefaultMilkCode != 2 {
		errors = append(errors, ValidationError{
			Field:   "default_milk_code",
			Message: "default_milk_code must be 1 or 2",
		})
	}

	if p.DefaultShots != 0 && p.DefaultShots != 1 && p.DefaultShots != 2 {
		errors = append(errors, ValidationError{
			Field:   "default_shots",
			Message: "default_shots must be 1 or 2",
		})
	}

	if _, err := ParseTemplate(p.ProductionTemplate); err != nil {
		errors = append(errors, ValidationError{
			Field:   "production_template",
			Message: err.Error(),
		})
	}

	return errors
}

// ValidateUpdateProduct validates a product before update.
func ValidateUpdateProduct(p *Product) []ValidationError {
	errors := ValidateCreateProduct(p)

	if p.ID.String() == "" {
		errors = append(errors, ValidationError{
			Field:   "id",
			Message: "id is required for update",
		})
	}

	return errors
}

// ProductConfigWarnings flags configurations that resolve but likely indicate
// a data-entry mistake. Returned to the admin surface alongside a successful
// write; never blocks it.
func ProductConfigWarnings(p *Product, registry *Registry) []ValidationError {
	var warnings []ValidationError

	// A product whose template carries no class code and which has no variant
	// class codes can resolve to a document without any ClassCode entry. The
	// machine's behavior for such a document is undefined, so surface it here
	// rather than at resolution time.
	template, err := ParseTemplate(p.ProductionTemplate)
	if err == nil {
		_, hasTemplateClass := template.Get(KeyClassCode)
		hasVariantClass := p.IcedClassCode != "" || p.DoubleShotClassCode != "" || p.IcedAndDoubleClassCode != ""
		if !hasTemplateClass && !hasVariantClass {
			warnings = append(warnings, ValidationError{
				Field:   "production_template",
				Message: "no ClassCode in template and no variant class codes; resolved documents will lack a recipe selector",
			})
		}
	}

	if registry != nil {
		for i, code := range p.RequiredIngredientCodes {
			if _, ok := registry.Lookup(code); !ok {
				warnings = append(warnings, ValidationError{
					Field:   fmt.Sprintf("required_ingredient_codes[%d]", i),
					Message: fmt.Sprintf("ingredient code %q is not registered; it will display as the raw code", code),
				})
			}
		}
	}

	return warnings
}
