package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/brewdeck/brewdeck/pkg"
)

// StockSubscriber keeps the stock cache current from machine sensor readings
// and fans out availability changes for products affected by a reading.
type StockSubscriber struct {
	subscriber  events.Subscriber
	cache       *StockStateCache
	registry    *Registry
	productRepo ProductRepo
	publisher   events.Publisher
	logger      apt.Logger
}

func NewStockSubscriber(sub events.Subscriber, cache *StockStateCache, registry *Registry, productRepo ProductRepo, publisher events.Publisher, logger apt.Logger) *StockSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &StockSubscriber{
		subscriber:  sub,
		cache:       cache,
		registry:    registry,
		productRepo: productRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// streamFetcher is satisfied by stream-backed subscribers that retain
// message history. Core NATS subscribers do not implement it.
type streamFetcher interface {
	Fetch(ctx context.Context, limit int) ([]events.StreamMessage, error)
}

func (s *StockSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting stock subscriber", "topic", pkg.MachineStockTopic)
	if s.cache != nil {
		// Retained readings seed the cache first; the live snapshot, when the
		// machine service is reachable, supersedes them.
		if fetcher, ok := s.subscriber.(streamFetcher); ok {
			s.replayRetainedReadings(ctx, fetcher)
		}
		if err := s.cache.Warm(ctx); err != nil {
			s.logger.Info("stock cache warmup failed", "error", err)
		}
	}
	if s.subscriber == nil {
		return fmt.Errorf("stock subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, pkg.MachineStockTopic, s.handleEvent)
}

// replayRetainedReadings applies readings the stream retained while this
// service was down. Availability fanout is skipped; nothing downstream has
// observed a different verdict yet.
func (s *StockSubscriber) replayRetainedReadings(ctx context.Context, fetcher streamFetcher) {
	msgs, err := fetcher.Fetch(ctx, 0)
	if err != nil {
		s.logger.Info("stock replay fetch failed", "error", err)
		return
	}
	applied := 0
	for _, msg := range msgs {
		var event pkg.StockReadingEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			continue
		}
		if event.IngredientCode == "" {
			continue
		}
		s.cache.Set(event.IngredientCode, event.Value)
		applied++
	}
	if applied > 0 {
		s.logger.Info("replayed retained stock readings", "count", applied)
	}
}

func (s *StockSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var event pkg.StockReadingEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		s.logger.Info("invalid stock reading event", "error", err)
		return nil
	}
	if event.IngredientCode == "" {
		s.logger.Debug("stock reading event missing ingredient code")
		return nil
	}

	before := s.cache.Snapshot()
	s.cache.Set(event.IngredientCode, event.Value)
	s.logger.Debug("stock reading updated", "ingredient_code", event.IngredientCode, "value", event.Value)

	s.publishAvailabilityChanges(ctx, event.IngredientCode, before)
	return nil
}

// publishAvailabilityChanges recomputes the verdict for every product that
// requires the changed ingredient and publishes an event for each product
// whose availability flipped.
func (s *StockSubscriber) publishAvailabilityChanges(ctx context.Context, code string, before map[string]float64) {
	if s.productRepo == nil || s.publisher == nil || s.registry == nil {
		return
	}

	products, err := s.productRepo.ListActive(ctx)
	if err != nil {
		s.logger.Info("cannot list products for availability fanout", "error", err)
		return
	}

	after := s.cache.Snapshot()
	for _, product := range products {
		if !requiresCode(product, code) {
			continue
		}
		was := s.registry.ResolveAvailability(product.RequiredIngredientCodes, before)
		now := s.registry.ResolveAvailability(product.RequiredIngredientCodes, after)
		if was.Available == now.Available {
			continue
		}

		evt := pkg.AvailabilityChangedEvent{
			EventType:  pkg.EventAvailabilityChanged,
			ProductID:  product.ID.String(),
			Available:  now.Available,
			OccurredAt: time.Now().UTC(),
		}
		for _, missing := range now.Missing {
			evt.MissingCodes = append(evt.MissingCodes, missing.Code)
		}

		payload, err := json.Marshal(evt)
		if err != nil {
			s.logger.Error("cannot marshal availability event", "error", err, "product_id", product.ID.String())
			continue
		}
		if err := s.publisher.Publish(ctx, pkg.AvailabilityTopic, payload); err != nil {
			s.logger.Error("cannot publish availability event", "error", err, "product_id", product.ID.String())
		} else {
			s.logger.Info("published availability change", "product_id", product.ID.String(), "available", now.Available)
		}
	}
}

func requiresCode(product *Product, code string) bool {
	for _, required := range product.RequiredIngredientCodes {
		if required == code {
			return true
		}
	}
	return false
}
