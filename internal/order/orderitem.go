package order

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/brewdeck/brewdeck/internal/catalog"
)

// OrderItem is one composed unit of an order: the product, the customer's
// selection and the resolved production-code document the machine will
// execute. ProductionCodes is stored in its serialized wire form and never
// mutated after submission.
type OrderItem struct {
	ID          uuid.UUID `json:"id" bson:"_id"`
	OrderID     uuid.UUID `json:"order_id" bson:"order_id"`
	ProductID   uuid.UUID `json:"product_id" bson:"product_id"`
	ProductName string    `json:"product_name" bson:"product_name"`
	Quantity    int       `json:"quantity" bson:"quantity"`
	UnitPrice   float64   `json:"unit_price" bson:"unit_price"`
	LineTotal   float64   `json:"line_total" bson:"line_total"`
	Status      string    `json:"status" bson:"status"`

	Selection       Selection               `json:"selection" bson:"selection"`
	ProductionCodes string                  `json:"production_codes" bson:"production_codes"`
	Ingredients     []catalog.IngredientRef `json:"ingredients,omitempty" bson:"ingredients,omitempty"`
	OptionSummary   string                  `json:"option_summary" bson:"option_summary"`
	ImagePath       string                  `json:"image_path,omitempty" bson:"image_path,omitempty"`

	// IsTest marks out-of-band test pours created by staff. They run through
	// the machine and aggregate like regular items.
	IsTest bool `json:"is_test,omitempty" bson:"is_test,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	CreatedBy   string     `json:"created_by" bson:"created_by"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
	UpdatedBy   string     `json:"updated_by" bson:"updated_by"`
}

func (oi *OrderItem) GetID() uuid.UUID {
	return oi.ID
}

func (oi *OrderItem) ResourceType() string {
	return "order-item"
}

func (oi *OrderItem) SetID(id uuid.UUID) {
	oi.ID = id
}

func NewOrderItem() *OrderItem {
	return &OrderItem{
		ID:     apt.GenerateNewID(),
		Status: StatusUnpaid,
	}
}

func (oi *OrderItem) EnsureID() {
	if oi.ID == uuid.Nil {
		oi.ID = apt.GenerateNewID()
	}
}

func (oi *OrderItem) BeforeCreate() {
	oi.EnsureID()
	oi.CreatedAt = time.Now()
	oi.UpdatedAt = time.Now()
}

func (oi *OrderItem) BeforeUpdate() {
	oi.UpdatedAt = time.Now()
}

func (oi *OrderItem) MarkAsPaid() {
	oi.Status = StatusPaid
	oi.UpdatedAt = time.Now()
}

func (oi *OrderItem) MarkAsQueued() {
	oi.Status = StatusQueued
	oi.UpdatedAt = time.Now()
}

func (oi *OrderItem) MarkAsProcessing() {
	oi.Status = StatusProcessing
	oi.UpdatedAt = time.Now()
}

func (oi *OrderItem) MarkAsCompleted() {
	now := time.Now()
	oi.Status = StatusCompleted
	oi.CompletedAt = &now
	oi.UpdatedAt = now
}

func (oi *OrderItem) Cancel() {
	oi.Status = StatusCancelled
	oi.UpdatedAt = time.Now()
}
