package pkg

import (
	"encoding/json"
	"time"
)

const (
	// MachineItemsTopic delivers item status changes reported by the machine.
	MachineItemsTopic = "machine.items"
	// MachineStockTopic delivers raw ingredient sensor readings from the machine.
	MachineStockTopic = "machine.stock"
	// OrderItemsTopic carries queued items for the machine to pick up.
	OrderItemsTopic = "orders.items"
	// AvailabilityTopic fans out product availability changes to kiosk UIs.
	AvailabilityTopic = "catalog.availability"

	EventMachineItemStatusChanged = "machine.item.status_changed"
	EventStockReading             = "machine.stock.reading"
	EventOrderItemQueued          = "order.item.queued"
	EventAvailabilityChanged      = "catalog.availability.changed"
)

// MachineItemStatusEvent is published by the machine whenever an item it is
// working on changes state.
type MachineItemStatusEvent struct {
	EventType      string    `json:"event_type"`
	DeviceID       string    `json:"device_id"`
	OrderItemID    string    `json:"order_item_id"`
	NewStatus      string    `json:"new_status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// StockReadingEvent is a single ingredient sensor reading. Values 0 and 1 are
// the normal depleted/in-stock signals; older firmware reports percentages.
type StockReadingEvent struct {
	EventType      string    `json:"event_type"`
	DeviceID       string    `json:"device_id"`
	IngredientCode string    `json:"ingredient_code"`
	Value          float64   `json:"value"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// OrderItemQueuedEvent hands a paid item over to the machine. ProductionCodes
// must keep its wire shape (an array of single-key objects) so the machine can
// execute it as-is.
type OrderItemQueuedEvent struct {
	EventType       string          `json:"event_type"`
	OrderID         string          `json:"order_id"`
	OrderItemID     string          `json:"order_item_id"`
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name,omitempty"`
	Quantity        int             `json:"quantity"`
	ProductionCodes json.RawMessage `json:"production_codes"`
	ImagePath       string          `json:"image_path,omitempty"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// AvailabilityChangedEvent tells kiosk clients a product flipped between
// orderable and sold out.
type AvailabilityChangedEvent struct {
	EventType    string    `json:"event_type"`
	ProductID    string    `json:"product_id"`
	Available    bool      `json:"available"`
	MissingCodes []string  `json:"missing_codes,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
