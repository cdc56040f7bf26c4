package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brewdeck/brewdeck/internal/catalog"
	"github.com/brewdeck/brewdeck/pkg"
)

type handlerFixture struct {
	handler     *Handler
	router      chi.Router
	orderRepo   *MockOrderRepo
	itemRepo    *MockOrderItemRepo
	productRepo *MockProductRepo
	publisher   *MockPublisher
}

func newHandlerFixture() *handlerFixture {
	orderRepo := NewMockOrderRepo()
	itemRepo := NewMockOrderItemRepo()
	productRepo := NewMockProductRepo()
	publisher := NewMockPublisher()

	composer := NewComposer(catalog.DefaultRegistry(), apt.NewNoopLogger())

	h := NewHandler(HandlerDeps{
		Repos: Repos{
			OrderRepo:     orderRepo,
			OrderItemRepo: itemRepo,
		},
		ProductRepo: productRepo,
		Composer:    composer,
		Publisher:   publisher,
	}, apt.NewConfig(), apt.NewNoopLogger())

	router := chi.NewRouter()
	h.RegisterRoutes(router)

	return &handlerFixture{
		handler:     h,
		router:      router,
		orderRepo:   orderRepo,
		itemRepo:    itemRepo,
		productRepo: productRepo,
		publisher:   publisher,
	}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("cannot marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name   string
		deps   HandlerDeps
		logger apt.Logger
	}{
		{
			name: "withAllDependencies",
			deps: HandlerDeps{
				Repos: Repos{
					OrderRepo:     NewMockOrderRepo(),
					OrderItemRepo: NewMockOrderItemRepo(),
				},
				ProductRepo: NewMockProductRepo(),
				Publisher:   NewMockPublisher(),
			},
			logger: apt.NewNoopLogger(),
		},
		{
			name:   "withNilLogger",
			deps:   HandlerDeps{},
			logger: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.deps, apt.NewConfig(), tt.logger)
			if h == nil {
				t.Error("NewHandler() returned nil")
			}
		})
	}
}

func TestHandlerCreateOrder(t *testing.T) {
	f := newHandlerFixture()

	rec := f.do(t, http.MethodPost, "/orders", OrderCreateRequest{DeviceID: "kiosk-1"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	orders, _ := f.orderRepo.List(nil)
	if len(orders) != 1 {
		t.Fatalf("created %d orders, want 1", len(orders))
	}
	if orders[0].Status != StatusUnpaid {
		t.Errorf("new order status = %q, want unpaid", orders[0].Status)
	}
	if orders[0].DeviceID != "kiosk-1" {
		t.Errorf("new order device = %q, want kiosk-1", orders[0].DeviceID)
	}
}

func TestHandlerCreateOrderItem(t *testing.T) {
	f := newHandlerFixture()

	product := coffeeProduct()
	f.productRepo.AddProduct(product)

	order := NewOrder()
	f.orderRepo.AddOrder(order)

	tests := []struct {
		name       string
		orderID    string
		body       OrderItemCreateRequest
		wantStatus int
	}{
		{
			name:    "composesItemWithSelection",
			orderID: order.ID.String(),
			body: OrderItemCreateRequest{
				ProductID: product.ID.String(),
				Quantity:  2,
				Selection: &Selection{BeanCode: 2, MilkCode: 1, Shots: 2},
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:    "defaultsWhenSelectionOmitted",
			orderID: order.ID.String(),
			body: OrderItemCreateRequest{
				ProductID: product.ID.String(),
				Quantity:  1,
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "unknownProduct",
			orderID:    order.ID.String(),
			body:       OrderItemCreateRequest{ProductID: uuid.New().String(), Quantity: 1},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknownOrder",
			orderID:    uuid.New().String(),
			body:       OrderItemCreateRequest{ProductID: product.ID.String(), Quantity: 1},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalidOrderID",
			orderID:    "not-a-uuid",
			body:       OrderItemCreateRequest{ProductID: product.ID.String(), Quantity: 1},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/orders/"+tt.orderID+"/items", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandlerCreateOrderItemComposition(t *testing.T) {
	f := newHandlerFixture()

	product := coffeeProduct()
	f.productRepo.AddProduct(product)

	order := NewOrder()
	f.orderRepo.AddOrder(order)

	rec := f.do(t, http.MethodPost, "/orders/"+order.ID.String()+"/items", OrderItemCreateRequest{
		ProductID: product.ID.String(),
		Quantity:  1,
		Selection: &Selection{BeanCode: 2, MilkCode: 2, Shots: 2},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	items, _ := f.itemRepo.ListByOrder(nil, order.ID)
	if len(items) != 1 {
		t.Fatalf("created %d items, want 1", len(items))
	}
	item := items[0]

	if item.UnitPrice != product.Price+DoubleShotSurcharge {
		t.Errorf("unit price = %v, want %v", item.UnitPrice, product.Price+DoubleShotSurcharge)
	}
	if item.Status != StatusUnpaid {
		t.Errorf("item status = %q, want unpaid", item.Status)
	}

	var doc catalog.CodeDocument
	if err := json.Unmarshal([]byte(item.ProductionCodes), &doc); err != nil {
		t.Fatalf("production codes not decodable: %v", err)
	}
	if got, _ := doc.Get(catalog.KeyBeanCode); got != "2" {
		t.Errorf("BeanCode = %q, want 2", got)
	}
	if item.OptionSummary == "" {
		t.Error("option summary should never be empty")
	}
}

func TestHandlerCreateOrderItemRejectsPaidOrder(t *testing.T) {
	f := newHandlerFixture()

	product := coffeeProduct()
	f.productRepo.AddProduct(product)

	order := NewOrder()
	order.MarkAsPaid()
	f.orderRepo.AddOrder(order)

	rec := f.do(t, http.MethodPost, "/orders/"+order.ID.String()+"/items", OrderItemCreateRequest{
		ProductID: product.ID.String(),
		Quantity:  1,
	})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandlerPayOrder(t *testing.T) {
	f := newHandlerFixture()

	order := NewOrder()
	f.orderRepo.AddOrder(order)

	item := NewOrderItem()
	item.OrderID = order.ID
	item.ProductID = uuid.New()
	item.ProductionCodes = `[{"ClassCode":"5001"},{"CupCode":"2"}]`
	f.itemRepo.AddItem(item)

	rec := f.do(t, http.MethodPost, "/orders/"+order.ID.String()+"/pay", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	if order.Status != StatusPaid {
		t.Errorf("order status = %q, want paid", order.Status)
	}
	if item.Status != StatusQueued {
		t.Errorf("item status = %q, want queued", item.Status)
	}

	published := f.publisher.Published[pkg.OrderItemsTopic]
	if len(published) != 1 {
		t.Fatalf("published %d queued events, want 1", len(published))
	}

	var evt pkg.OrderItemQueuedEvent
	if err := json.Unmarshal(published[0], &evt); err != nil {
		t.Fatalf("cannot decode queued event: %v", err)
	}
	if evt.OrderItemID != item.ID.String() {
		t.Errorf("event item ID = %q, want %q", evt.OrderItemID, item.ID.String())
	}
	if string(evt.ProductionCodes) != item.ProductionCodes {
		t.Errorf("event production codes = %s, want %s", evt.ProductionCodes, item.ProductionCodes)
	}
}

func TestHandlerPayOrderRejectsEmptyOrAlreadyPaid(t *testing.T) {
	f := newHandlerFixture()

	empty := NewOrder()
	f.orderRepo.AddOrder(empty)

	rec := f.do(t, http.MethodPost, "/orders/"+empty.ID.String()+"/pay", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("paying empty order: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	paid := NewOrder()
	paid.MarkAsPaid()
	f.orderRepo.AddOrder(paid)

	rec = f.do(t, http.MethodPost, "/orders/"+paid.ID.String()+"/pay", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("paying paid order: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandlerGetOrderStatus(t *testing.T) {
	f := newHandlerFixture()

	order := NewOrder()
	order.MarkAsPaid()
	f.orderRepo.AddOrder(order)

	for _, status := range []string{StatusQueued, StatusProcessing} {
		item := NewOrderItem()
		item.OrderID = order.ID
		item.Status = status
		f.itemRepo.AddItem(item)
	}

	rec := f.do(t, http.MethodGet, "/orders/"+order.ID.String()+"/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Status          string `json:"status"`
			CancelMode      string `json:"cancel_mode"`
			Cancellable     bool   `json:"cancellable"`
			RequiresConfirm bool   `json:"requires_confirm"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("cannot decode response: %v", err)
	}

	if resp.Data.Status != StatusProcessing {
		t.Errorf("aggregate status = %q, want processing", resp.Data.Status)
	}
	if resp.Data.CancelMode != string(CancelForce) {
		t.Errorf("cancel mode = %q, want force", resp.Data.CancelMode)
	}
	if !resp.Data.Cancellable || !resp.Data.RequiresConfirm {
		t.Errorf("cancellable = %v, requires_confirm = %v, want both true", resp.Data.Cancellable, resp.Data.RequiresConfirm)
	}
}

func TestHandlerCancelOrder(t *testing.T) {
	t.Run("queuedOrderCancelsNormally", func(t *testing.T) {
		f := newHandlerFixture()

		order := NewOrder()
		order.MarkAsPaid()
		f.orderRepo.AddOrder(order)

		item := NewOrderItem()
		item.OrderID = order.ID
		item.Status = StatusQueued
		f.itemRepo.AddItem(item)

		rec := f.do(t, http.MethodPost, "/orders/"+order.ID.String()+"/cancel", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
		}

		if item.Status != StatusCancelled {
			t.Errorf("item status = %q, want cancelled", item.Status)
		}
		if order.Status != StatusCancelled {
			t.Errorf("order status = %q, want cancelled", order.Status)
		}
	})

	t.Run("processingOrderRequiresForce", func(t *testing.T) {
		f := newHandlerFixture()

		order := NewOrder()
		order.MarkAsPaid()
		f.orderRepo.AddOrder(order)

		item := NewOrderItem()
		item.OrderID = order.ID
		item.Status = StatusProcessing
		f.itemRepo.AddItem(item)

		rec := f.do(t, http.MethodPost, "/orders/"+order.ID.String()+"/cancel", nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("cancel without force: status = %d, want %d", rec.Code, http.StatusConflict)
		}
		if item.Status != StatusProcessing {
			t.Errorf("item status changed without force: %q", item.Status)
		}

		rec = f.do(t, http.MethodPost, "/orders/"+order.ID.String()+"/cancel?force=true", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("force cancel: status = %d, body: %s", rec.Code, rec.Body.String())
		}
		if item.Status != StatusCancelled {
			t.Errorf("item status = %q, want cancelled", item.Status)
		}
	})

	t.Run("partialFailureReportsStoredStatus", func(t *testing.T) {
		f := newHandlerFixture()

		order := NewOrder()
		order.MarkAsPaid()
		f.orderRepo.AddOrder(order)

		good := NewOrderItem()
		good.OrderID = order.ID
		good.Status = StatusQueued
		f.itemRepo.AddItem(good)

		stuck := NewOrderItem()
		stuck.OrderID = order.ID
		stuck.Status = StatusQueued
		f.itemRepo.AddItem(stuck)

		f.itemRepo.SaveFunc = func(ctx context.Context, item *OrderItem) error {
			if item.ID == stuck.ID {
				return errors.New("write conflict")
			}
			f.itemRepo.items[item.ID] = item
			return nil
		}

		rec := f.do(t, http.MethodPost, "/orders/"+order.ID.String()+"/cancel", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
		}

		var envelope struct {
			Data struct {
				FullyCancelled bool   `json:"fully_cancelled"`
				Status         string `json:"status"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}

		if envelope.Data.FullyCancelled {
			t.Error("fully_cancelled should be false when an item save failed")
		}
		if envelope.Data.Status == StatusCancelled {
			t.Errorf("response status = %q, but the store still holds a queued item", envelope.Data.Status)
		}
		if stuck.Status != StatusQueued {
			t.Errorf("stuck item status = %q, want queued", stuck.Status)
		}
		if order.Status == StatusCancelled {
			t.Error("order should not be cancelled while an item remains queued")
		}
	})

	t.Run("fullyCancelledOrderNotCancellableAgain", func(t *testing.T) {
		f := newHandlerFixture()

		order := NewOrder()
		order.MarkAsPaid()
		f.orderRepo.AddOrder(order)

		for i := 0; i < 2; i++ {
			item := NewOrderItem()
			item.OrderID = order.ID
			item.Status = StatusCancelled
			f.itemRepo.AddItem(item)
		}

		rec := f.do(t, http.MethodPost, "/orders/"+order.ID.String()+"/cancel", nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
		}
	})

	t.Run("completedOrderNotCancellable", func(t *testing.T) {
		f := newHandlerFixture()

		order := NewOrder()
		order.MarkAsPaid()
		f.orderRepo.AddOrder(order)

		item := NewOrderItem()
		item.OrderID = order.ID
		item.Status = StatusCompleted
		f.itemRepo.AddItem(item)

		rec := f.do(t, http.MethodPost, "/orders/"+order.ID.String()+"/cancel", nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
		}
	})
}

func TestHandlerGetOrder(t *testing.T) {
	f := newHandlerFixture()

	order := NewOrder()
	f.orderRepo.AddOrder(order)

	rec := f.do(t, http.MethodGet, "/orders/"+order.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = f.do(t, http.MethodGet, "/orders/"+uuid.New().String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown order: status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = f.do(t, http.MethodGet, "/orders/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid id: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
