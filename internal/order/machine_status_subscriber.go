package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/brewdeck/brewdeck/pkg"
)

// MachineStatusSubscriber syncs item statuses from the machine's progress
// events.
type MachineStatusSubscriber struct {
	subscriber    events.Subscriber
	orderItemRepo OrderItemRepo
	logger        apt.Logger
}

func NewMachineStatusSubscriber(sub events.Subscriber, orderItemRepo OrderItemRepo, logger apt.Logger) *MachineStatusSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &MachineStatusSubscriber{
		subscriber:    sub,
		orderItemRepo: orderItemRepo,
		logger:        logger,
	}
}

func (s *MachineStatusSubscriber) Start(ctx context.Context) error {
	s.log().Info("starting machine status subscriber", "topic", pkg.MachineItemsTopic)
	if s.subscriber == nil {
		return fmt.Errorf("machine status subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, pkg.MachineItemsTopic, s.handleEvent)
}

func (s *MachineStatusSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var evt pkg.MachineItemStatusEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.log().Info("invalid machine item event", "error", err)
		return nil
	}
	if evt.EventType != pkg.EventMachineItemStatusChanged {
		s.log().Debug("unknown machine event type", "event_type", evt.EventType)
		return nil
	}

	if evt.OrderItemID == "" {
		s.log().Debug("machine event missing order_item_id")
		return nil
	}
	orderItemID, err := uuid.Parse(evt.OrderItemID)
	if err != nil {
		s.log().Info("invalid order_item_id in machine event", "order_item_id", evt.OrderItemID)
		return nil
	}

	item, err := s.orderItemRepo.Get(ctx, orderItemID)
	if err != nil || item == nil {
		s.log().Info("cannot find order item for machine event", "order_item_id", orderItemID, "error", err)
		return nil
	}

	newStatus := s.mapMachineStatus(evt.NewStatus)
	if newStatus == "" {
		s.log().Debug("no status mapping for machine status", "status", evt.NewStatus)
		return nil
	}

	oldStatus := item.Status
	switch newStatus {
	case StatusQueued:
		item.MarkAsQueued()
	case StatusProcessing:
		item.MarkAsProcessing()
	case StatusCompleted:
		item.MarkAsCompleted()
	case StatusCancelled:
		item.Cancel()
	}

	if err := s.orderItemRepo.Save(ctx, item); err != nil {
		s.log().Info("failed to update order item status", "order_item_id", orderItemID, "error", err)
		return err
	}

	s.log().Info("order item status updated from machine event",
		"order_item_id", orderItemID,
		"old_status", oldStatus,
		"new_status", newStatus,
		"device_id", evt.DeviceID,
	)
	return nil
}

// mapMachineStatus maps the machine's progress codes to item statuses.
// received: the machine accepted the queued item
// started:  production began
// finished: the drink is in the pickup hatch
// failed:   the machine aborted; treated as a cancellation
func (s *MachineStatusSubscriber) mapMachineStatus(machineStatus string) string {
	switch machineStatus {
	case "received":
		return StatusQueued
	case "started":
		return StatusProcessing
	case "finished":
		return StatusCompleted
	case "failed", "cancelled":
		return StatusCancelled
	default:
		return ""
	}
}

func (s *MachineStatusSubscriber) log() apt.Logger {
	return s.logger.With("component", "MachineStatusSubscriber")
}
