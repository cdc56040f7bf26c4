package order

import (
	"context"

	"github.com/google/uuid"
)

// Item statuses. An item moves unpaid -> paid -> queued -> processing ->
// completed; cancellation is possible until the machine finishes it.
const (
	StatusUnpaid     = "unpaid"
	StatusPaid       = "paid"
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// StatusUnknown is the aggregate fallback when an order has no usable own
// status to report.
const StatusUnknown = "unknown"

// AggregateStatus derives an order's effective status from its items. The
// order's stored status only matters when the items are inconclusive.
//
// Precedence: no items; all cancelled; all completed; any processing; any
// queued; otherwise the order's own status. Test line items participate like
// any other item.
func AggregateStatus(itemStatuses []string, orderOwnStatus string) string {
	if orderOwnStatus == "" {
		orderOwnStatus = StatusUnknown
	}
	if len(itemStatuses) == 0 {
		return orderOwnStatus
	}

	allCancelled := true
	allCompleted := true
	anyProcessing := false
	anyQueued := false
	for _, status := range itemStatuses {
		if status != StatusCancelled {
			allCancelled = false
		}
		if status != StatusCompleted {
			allCompleted = false
		}
		if status == StatusProcessing {
			anyProcessing = true
		}
		if status == StatusQueued {
			anyQueued = true
		}
	}

	switch {
	case allCancelled:
		return StatusCancelled
	case allCompleted:
		return StatusCompleted
	case anyProcessing:
		return StatusProcessing
	case anyQueued:
		return StatusQueued
	default:
		return orderOwnStatus
	}
}

// CancelMode says whether and how an order may be cancelled.
type CancelMode string

const (
	// CancelNone: the order is terminal or not yet in the machine's hands.
	CancelNone CancelMode = "none"
	// CancelNormal: the order is queued and can be pulled without waste.
	CancelNormal CancelMode = "normal"
	// CancelForce: the order is in production; cancelling will waste consumed
	// ingredients and callers must ask for a stronger confirmation.
	CancelForce CancelMode = "force"
)

// CancelEligibility maps an aggregate status to the permitted cancel action.
func CancelEligibility(aggregate string) CancelMode {
	switch aggregate {
	case StatusQueued:
		return CancelNormal
	case StatusProcessing:
		return CancelForce
	default:
		return CancelNone
	}
}

// ItemCancelResult reports the outcome of cancelling one item. Callers retry
// only the failed subset.
type ItemCancelResult struct {
	ItemID    uuid.UUID `json:"item_id"`
	Cancelled bool      `json:"cancelled"`
	Error     string    `json:"error,omitempty"`
}

// CancelOrderItems cancels every item individually. There is no cross-item
// transaction: some items may cancel while others fail, and the per-item
// results make that visible. An item only keeps the cancelled status when its
// save succeeded, so the in-memory items always mirror the store and a retry
// over the same slice hits the failed ones again.
func CancelOrderItems(ctx context.Context, repo OrderItemRepo, items []*OrderItem) []ItemCancelResult {
	results := make([]ItemCancelResult, 0, len(items))
	for _, item := range items {
		if item.Status == StatusCancelled {
			results = append(results, ItemCancelResult{ItemID: item.ID, Cancelled: true})
			continue
		}
		prevStatus := item.Status
		prevUpdatedAt := item.UpdatedAt
		item.Cancel()
		if err := repo.Save(ctx, item); err != nil {
			item.Status = prevStatus
			item.UpdatedAt = prevUpdatedAt
			results = append(results, ItemCancelResult{ItemID: item.ID, Error: err.Error()})
			continue
		}
		results = append(results, ItemCancelResult{ItemID: item.ID, Cancelled: true})
	}
	return results
}
