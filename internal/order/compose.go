package order

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/brewdeck/brewdeck/internal/catalog"
)

// DoubleShotSurcharge is added to the unit price when the customer picks a
// second shot.
const DoubleShotSurcharge = 0.5

// NoOptionsSummary is the summary token for an item with no active
// customization dimension. The kiosk receipt line must never be empty.
const NoOptionsSummary = "NONE"

// OrderLine is the ready-to-persist result of composing one kiosk pick.
type OrderLine struct {
	ProductID       uuid.UUID               `json:"product_id"`
	ProductName     string                  `json:"product_name"`
	Quantity        int                     `json:"quantity"`
	UnitPrice       float64                 `json:"unit_price"`
	LineTotal       float64                 `json:"line_total"`
	ProductionCodes string                  `json:"production_codes"`
	Ingredients     []catalog.IngredientRef `json:"ingredients,omitempty"`
	OptionSummary   string                  `json:"option_summary"`
	ImagePath       string                  `json:"image_path,omitempty"`
}

// Composer is the entry point the transport layer calls: product plus
// selection plus quantity in, order line out. It never fails; a malformed
// template degrades to an empty production document and is logged as a
// data-quality warning.
type Composer struct {
	registry *catalog.Registry
	logger   apt.Logger
}

func NewComposer(registry *catalog.Registry, logger apt.Logger) *Composer {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Composer{registry: registry, logger: logger}
}

// ComposeOrderLine resolves the production document, ingredient display list,
// pricing and option summary for one pick.
func (c *Composer) ComposeOrderLine(product *catalog.Product, sel Selection, quantity int) OrderLine {
	sel = sel.Normalize()
	if quantity < 1 {
		quantity = 1
	}

	doc, err := ResolveProductionCodes(product, sel)
	if err != nil {
		c.logger.Info("production template unusable, composing empty document",
			"product_id", product.ID.String(), "error", err)
		doc = catalog.CodeDocument{}
	}
	serialized, marshalErr := json.Marshal(doc)
	if marshalErr != nil {
		serialized = []byte("[]")
	}

	unitPrice := product.Price
	if sel.Shots == 2 {
		unitPrice += DoubleShotSurcharge
	}

	imagePath := ""
	if sel.LatteArt != LatteArtNone {
		imagePath = sel.LatteArtPath
	}

	return OrderLine{
		ProductID:       product.ID,
		ProductName:     product.Name,
		Quantity:        quantity,
		UnitPrice:       unitPrice,
		LineTotal:       unitPrice * float64(quantity),
		ProductionCodes: string(serialized),
		Ingredients:     c.registry.Describe(product.RequiredIngredientCodes),
		OptionSummary:   OptionSummary(product, sel),
		ImagePath:       imagePath,
	}
}

// OptionSummary joins the active customization dimensions into the line shown
// on receipts and the staff monitor, e.g. "Bean2, Iced, Double Shot".
func OptionSummary(product *catalog.Product, sel Selection) string {
	sel = sel.Normalize()

	var parts []string
	if product.HasBeanOptions {
		parts = append(parts, fmt.Sprintf("Bean%d", sel.BeanCode))
	}
	if product.HasMilkOptions {
		parts = append(parts, fmt.Sprintf("Milk%d", sel.MilkCode))
	}
	if sel.Ice && (product.HasIceOptions || sel.Ice != product.DefaultIce) {
		parts = append(parts, "Iced")
	}
	if sel.Shots == 2 && (product.HasShotOptions || sel.Shots != product.DefaultShots) {
		parts = append(parts, "Double Shot")
	}
	if product.HasLatteArt && sel.LatteArt != LatteArtNone {
		parts = append(parts, "Latte Art")
	}

	if len(parts) == 0 {
		return NoOptionsSummary
	}
	return strings.Join(parts, ", ")
}
