package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/appetiteclub/apt"
)

// StockStateCache holds the latest sensor reading per ingredient code. It is
// warmed from the machine's stock endpoint on startup and kept current by the
// stock subscriber. Each delivered reading is treated as the latest truth; no
// de-duplication happens here.
type StockStateCache struct {
	mu       sync.RWMutex
	readings map[string]float64
	client   *apt.ServiceClient
	logger   apt.Logger
}

func NewStockStateCache(client *apt.ServiceClient, logger apt.Logger) *StockStateCache {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &StockStateCache{
		readings: make(map[string]float64),
		client:   client,
		logger:   logger,
	}
}

// Warm fetches the machine's current stock levels. A failed warmup leaves the
// cache empty, which fails safe: products resolve as unavailable until real
// readings arrive.
func (c *StockStateCache) Warm(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	resp, err := c.client.List(ctx, "stock")
	if err != nil {
		return fmt.Errorf("failed to list stock readings: %w", err)
	}
	return c.ingestCollection(resp.Data)
}

func (c *StockStateCache) Get(code string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.readings[code]
	return value, ok
}

func (c *StockStateCache) Set(code string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readings[code] = value
}

// Snapshot returns an immutable copy of the current readings for the
// availability resolver.
func (c *StockStateCache) Snapshot() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]float64, len(c.readings))
	for code, value := range c.readings {
		out[code] = value
	}
	return out
}

func (c *StockStateCache) ingestCollection(data interface{}) error {
	var records []stockReadingDTO
	if err := rehydrate(data, &records); err != nil {
		return err
	}
	for _, record := range records {
		if record.IngredientCode == "" {
			c.logger.Debug("skipping stock record without ingredient code")
			continue
		}
		c.Set(record.IngredientCode, record.Value)
	}
	return nil
}

type stockReadingDTO struct {
	IngredientCode string  `json:"ingredient_code"`
	Value          float64 `json:"value"`
}

func rehydrate(data interface{}, out interface{}) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}
