package order

import (
	"github.com/brewdeck/brewdeck/internal/catalog"
)

// Latte art selections. Anything else is a predefined design id.
const (
	LatteArtNone   = ""
	LatteArtCustom = "custom"
)

// Selection is what the customer picked on the kiosk. It is immutable once
// attached to an order item. Fields for dimensions the product does not offer
// are ignored during resolution.
type Selection struct {
	BeanCode int  `json:"bean_code"`
	MilkCode int  `json:"milk_code"`
	Ice      bool `json:"ice"`
	Shots    int  `json:"shots"`

	// LatteArt is empty, a predefined design id, or "custom". LatteArtPath
	// carries the stored image path for the chosen design or upload.
	LatteArt     string `json:"latte_art,omitempty"`
	LatteArtPath string `json:"latte_art_path,omitempty"`
}

// ResolveDefaults builds the selection a product recommends, decoupling "what
// the customer chose" from "what the product suggests". The kiosk preselects
// this and the customer edits from there.
func ResolveDefaults(product *catalog.Product) Selection {
	sel := Selection{
		BeanCode: product.DefaultBeanCode,
		MilkCode: product.DefaultMilkCode,
		Ice:      product.DefaultIce,
		Shots:    product.DefaultShots,
	}
	if sel.BeanCode == 0 {
		sel.BeanCode = 1
	}
	if sel.MilkCode == 0 {
		sel.MilkCode = 1
	}
	if sel.Shots == 0 {
		sel.Shots = 1
	}
	return sel
}

// Normalize fills unset numeric fields so that downstream resolution never
// sees a zero bean, milk or shot code.
func (s Selection) Normalize() Selection {
	if s.BeanCode == 0 {
		s.BeanCode = 1
	}
	if s.MilkCode == 0 {
		s.MilkCode = 1
	}
	if s.Shots == 0 {
		s.Shots = 1
	}
	return s
}
