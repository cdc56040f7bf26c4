package order

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/brewdeck/brewdeck/internal/catalog"
)

// MockOrderRepo is a test mock for OrderRepo
type MockOrderRepo struct {
	orders     map[uuid.UUID]*Order
	CreateFunc func(ctx context.Context, o *Order) error
	GetFunc    func(ctx context.Context, id uuid.UUID) (*Order, error)
	SaveFunc   func(ctx context.Context, o *Order) error
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{
		orders: make(map[uuid.UUID]*Order),
	}
}

func (m *MockOrderRepo) Create(ctx context.Context, o *Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, o)
	}
	m.orders[o.ID] = o
	return nil
}

func (m *MockOrderRepo) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return m.orders[id], nil
}

func (m *MockOrderRepo) List(ctx context.Context) ([]*Order, error) {
	result := make([]*Order, 0, len(m.orders))
	for _, o := range m.orders {
		result = append(result, o)
	}
	return result, nil
}

func (m *MockOrderRepo) ListByStatus(ctx context.Context, status string) ([]*Order, error) {
	result := make([]*Order, 0)
	for _, o := range m.orders {
		if o.Status == status {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *MockOrderRepo) Save(ctx context.Context, o *Order) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, o)
	}
	if _, exists := m.orders[o.ID]; !exists {
		return errors.New("order not found")
	}
	m.orders[o.ID] = o
	return nil
}

func (m *MockOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.orders[id]; !exists {
		return errors.New("order not found")
	}
	delete(m.orders, id)
	return nil
}

// AddOrder is a helper to seed the mock repository
func (m *MockOrderRepo) AddOrder(o *Order) {
	m.orders[o.ID] = o
}

// MockOrderItemRepo is a test mock for OrderItemRepo
type MockOrderItemRepo struct {
	items      map[uuid.UUID]*OrderItem
	CreateFunc func(ctx context.Context, item *OrderItem) error
	GetFunc    func(ctx context.Context, id uuid.UUID) (*OrderItem, error)
	SaveFunc   func(ctx context.Context, item *OrderItem) error
}

func NewMockOrderItemRepo() *MockOrderItemRepo {
	return &MockOrderItemRepo{
		items: make(map[uuid.UUID]*OrderItem),
	}
}

func (m *MockOrderItemRepo) Create(ctx context.Context, item *OrderItem) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, item)
	}
	m.items[item.ID] = item
	return nil
}

func (m *MockOrderItemRepo) Get(ctx context.Context, id uuid.UUID) (*OrderItem, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return m.items[id], nil
}

func (m *MockOrderItemRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*OrderItem, error) {
	result := make([]*OrderItem, 0)
	for _, item := range m.items {
		if item.OrderID == orderID {
			result = append(result, item)
		}
	}
	return result, nil
}

func (m *MockOrderItemRepo) Save(ctx context.Context, item *OrderItem) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, item)
	}
	if _, exists := m.items[item.ID]; !exists {
		return errors.New("order item not found")
	}
	m.items[item.ID] = item
	return nil
}

func (m *MockOrderItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.items[id]; !exists {
		return errors.New("order item not found")
	}
	delete(m.items, id)
	return nil
}

// AddItem is a helper to seed the mock repository
func (m *MockOrderItemRepo) AddItem(item *OrderItem) {
	m.items[item.ID] = item
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

// MockProductRepo is a test mock for catalog.ProductRepo
type MockProductRepo struct {
	products map[uuid.UUID]*catalog.Product
	GetFunc  func(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
}

func NewMockProductRepo() *MockProductRepo {
	return &MockProductRepo{
		products: make(map[uuid.UUID]*catalog.Product),
	}
}

func (m *MockProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *MockProductRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return m.products[id], nil
}

func (m *MockProductRepo) List(ctx context.Context) ([]*catalog.Product, error) {
	result := make([]*catalog.Product, 0, len(m.products))
	for _, p := range m.products {
		result = append(result, p)
	}
	return result, nil
}

func (m *MockProductRepo) ListActive(ctx context.Context) ([]*catalog.Product, error) {
	result := make([]*catalog.Product, 0)
	for _, p := range m.products {
		if p.Active {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *MockProductRepo) Save(ctx context.Context, p *catalog.Product) error {
	if _, exists := m.products[p.ID]; !exists {
		return errors.New("product not found")
	}
	m.products[p.ID] = p
	return nil
}

func (m *MockProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.products[id]; !exists {
		return errors.New("product not found")
	}
	delete(m.products, id)
	return nil
}

// AddProduct is a helper to seed the mock repository
func (m *MockProductRepo) AddProduct(p *catalog.Product) {
	m.products[p.ID] = p
}

// coffeeProduct is a baseline product with every customization dimension.
func coffeeProduct() *catalog.Product {
	return &catalog.Product{
		ID:                      uuid.MustParse("550e8400-e29b-41d4-a716-446655440010"),
		Name:                    "Latte",
		Type:                    catalog.TypeCoffee,
		Price:                   4.5,
		Active:                  true,
		RequiredIngredientCodes: []string{"BeanHopper1", "MilkFresh"},
		ProductionTemplate:      `[{"ClassCode":"5001"},{"BeanCode":"1"},{"MilkCode":"1"}]`,
		HasBeanOptions:          true,
		HasMilkOptions:          true,
		HasIceOptions:           true,
		HasShotOptions:          true,
		HasLatteArt:             true,
		DefaultBeanCode:         1,
		DefaultMilkCode:         1,
		DefaultShots:            1,
	}
}
