package catalog

import (
	"context"
	"errors"

	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"
)

// MockProductRepo is a test mock for ProductRepo
type MockProductRepo struct {
	products       map[uuid.UUID]*Product
	CreateFunc     func(ctx context.Context, p *Product) error
	GetFunc        func(ctx context.Context, id uuid.UUID) (*Product, error)
	ListFunc       func(ctx context.Context) ([]*Product, error)
	ListActiveFunc func(ctx context.Context) ([]*Product, error)
	SaveFunc       func(ctx context.Context, p *Product) error
	DeleteFunc     func(ctx context.Context, id uuid.UUID) error
}

func NewMockProductRepo() *MockProductRepo {
	return &MockProductRepo{
		products: make(map[uuid.UUID]*Product),
	}
}

func (m *MockProductRepo) Create(ctx context.Context, p *Product) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	m.products[p.ID] = p
	return nil
}

func (m *MockProductRepo) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return m.products[id], nil
}

func (m *MockProductRepo) List(ctx context.Context) ([]*Product, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	result := make([]*Product, 0, len(m.products))
	for _, p := range m.products {
		result = append(result, p)
	}
	return result, nil
}

func (m *MockProductRepo) ListActive(ctx context.Context) ([]*Product, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	result := make([]*Product, 0, len(m.products))
	for _, p := range m.products {
		if p.Active {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *MockProductRepo) Save(ctx context.Context, p *Product) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, p)
	}
	if _, exists := m.products[p.ID]; !exists {
		return errors.New("product not found")
	}
	m.products[p.ID] = p
	return nil
}

func (m *MockProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	if _, exists := m.products[id]; !exists {
		return errors.New("product not found")
	}
	delete(m.products, id)
	return nil
}

// AddProduct is a helper to seed the mock repository
func (m *MockProductRepo) AddProduct(p *Product) {
	m.products[p.ID] = p
}

// MockPublisher records published messages per topic
type MockPublisher struct {
	Published   map[string][][]byte
	PublishFunc func(ctx context.Context, topic string, msg []byte) error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Published: make(map[string][][]byte),
	}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	m.Published[topic] = append(m.Published[topic], msg)
	return nil
}

// MockSubscriber is a test mock for events.Subscriber
type MockSubscriber struct {
	Subscribed    bool
	SubscribeFunc func(ctx context.Context, topic string, handler events.HandlerFunc) error
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	m.Subscribed = true
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	return nil
}

// MockStreamSubscriber is a stream-backed subscriber mock with retained messages
type MockStreamSubscriber struct {
	MockSubscriber
	Messages []events.StreamMessage
	FetchErr error
}

func (m *MockStreamSubscriber) Fetch(ctx context.Context, limit int) ([]events.StreamMessage, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return m.Messages, nil
}
