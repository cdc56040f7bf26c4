package catalog

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Product types understood by the kiosk UI.
const (
	TypeTea      = "tea"
	TypeCoffee   = "coffee"
	TypeIceCream = "ice-cream"
	TypeOther    = "other"
)

// Product is a machine-producible item as configured by staff. The production
// template and variant class codes drive production-code resolution; the
// required ingredient codes drive availability.
type Product struct {
	ID       uuid.UUID         `json:"id" bson:"_id"`
	Name     string            `json:"name" bson:"name"`
	NameI18n map[string]string `json:"name_i18n,omitempty" bson:"name_i18n,omitempty"`
	Type     string            `json:"type" bson:"type"`
	Price    float64           `json:"price" bson:"price"`
	Active   bool              `json:"active" bson:"active"`

	// RequiredIngredientCodes lists the machine slots this product consumes,
	// in display order.
	RequiredIngredientCodes []string `json:"required_ingredient_codes" bson:"required_ingredient_codes"`

	// ProductionTemplate is the staff-entered base production-code document,
	// stored as a JSON array of single-key objects. It may be empty or, for
	// older records, malformed; resolution degrades rather than fails.
	ProductionTemplate string `json:"production_template,omitempty" bson:"production_template,omitempty"`

	// Customization capability flags.
	HasBeanOptions bool `json:"has_bean_options" bson:"has_bean_options"`
	HasMilkOptions bool `json:"has_milk_options" bson:"has_milk_options"`
	HasIceOptions  bool `json:"has_ice_options" bson:"has_ice_options"`
	HasShotOptions bool `json:"has_shot_options" bson:"has_shot_options"`
	HasLatteArt    bool `json:"has_latte_art" bson:"has_latte_art"`

	// Customization defaults shown preselected on the kiosk.
	DefaultBeanCode int  `json:"default_bean_code" bson:"default_bean_code"`
	DefaultMilkCode int  `json:"default_milk_code" bson:"default_milk_code"`
	DefaultIce      bool `json:"default_ice" bson:"default_ice"`
	DefaultShots    int  `json:"default_shots" bson:"default_shots"`

	// Variant overrides: a dedicated machine recipe for an ice/shot
	// combination instead of generic modifier codes. Empty means absent.
	IcedClassCode          string `json:"iced_class_code,omitempty" bson:"iced_class_code,omitempty"`
	DoubleShotClassCode    string `json:"double_shot_class_code,omitempty" bson:"double_shot_class_code,omitempty"`
	IcedAndDoubleClassCode string `json:"iced_and_double_class_code,omitempty" bson:"iced_and_double_class_code,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	CreatedBy string    `json:"created_by" bson:"created_by"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy string    `json:"updated_by" bson:"updated_by"`
}

func (p *Product) GetID() uuid.UUID {
	return p.ID
}

func (p *Product) ResourceType() string {
	return "product"
}

func (p *Product) SetID(id uuid.UUID) {
	p.ID = id
}

func NewProduct(name, productType string) *Product {
	return &Product{
		ID:              apt.GenerateNewID(),
		Name:            name,
		Type:            productType,
		Active:          true,
		DefaultBeanCode: 1,
		DefaultMilkCode: 1,
		DefaultShots:    1,
	}
}

func (p *Product) EnsureID() {
	if p.ID == uuid.Nil {
		p.ID = apt.GenerateNewID()
	}
}

func (p *Product) BeforeCreate() {
	p.EnsureID()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
}

func (p *Product) BeforeUpdate() {
	p.UpdatedAt = time.Now()
}

// HasAnyOptions reports whether the kiosk should show a customization screen
// for this product at all.
func (p *Product) HasAnyOptions() bool {
	return p.HasBeanOptions || p.HasMilkOptions || p.HasIceOptions || p.HasShotOptions || p.HasLatteArt
}
