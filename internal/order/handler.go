package order

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brewdeck/brewdeck/internal/catalog"
	"github.com/brewdeck/brewdeck/pkg"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	logger        apt.Logger
	config        *apt.Config
	tlm           *telemetry.HTTP
	orderRepo     OrderRepo
	orderItemRepo OrderItemRepo
	productRepo   catalog.ProductRepo
	composer      *Composer
	publisher     events.Publisher
}

type HandlerDeps struct {
	Repos       Repos
	ProductRepo catalog.ProductRepo
	Composer    *Composer
	Publisher   events.Publisher
}

type Repos struct {
	OrderRepo     OrderRepo
	OrderItemRepo OrderItemRepo
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		config:        config,
		logger:        logger,
		tlm:           telemetry.NewHTTP(),
		orderRepo:     hd.Repos.OrderRepo,
		orderItemRepo: hd.Repos.OrderItemRepo,
		productRepo:   hd.ProductRepo,
		composer:      hd.Composer,
		publisher:     hd.Publisher,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Delete("/{id}", h.DeleteOrder)
		r.Get("/{id}/status", h.GetOrderStatus)
		r.Post("/{id}/pay", h.PayOrder)
		r.Post("/{id}/cancel", h.CancelOrder)

		r.Route("/{orderID}/items", func(r chi.Router) {
			r.Post("/", h.CreateOrderItem)
			r.Get("/", h.ListOrderItems)
		})
	})

	r.Route("/order-items", func(r chi.Router) {
		r.Get("/{id}", h.GetOrderItem)
	})
}

// Order Handlers

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	req, ok := h.decodeOrderCreatePayload(w, r, log)
	if !ok {
		return
	}

	order := NewOrder()
	order.DeviceID = req.DeviceID
	order.BeforeCreate()

	if err := h.orderRepo.Create(ctx, order); err != nil {
		log.Error("cannot create order", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create order")
		return
	}

	links := apt.RESTfulLinksFor(order)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, order, links...)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	order, err := h.orderRepo.Get(ctx, id)
	if err != nil || order == nil {
		log.Error("error loading order", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	links := apt.RESTfulLinksFor(order)
	apt.RespondSuccess(w, order, links...)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	status := r.URL.Query().Get("status")

	var orders []*Order
	var err error
	if status != "" {
		orders, err = h.orderRepo.ListByStatus(ctx, status)
	} else {
		orders, err = h.orderRepo.List(ctx)
	}

	if err != nil {
		log.Error("error retrieving orders", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve orders")
		return
	}

	apt.RespondCollection(w, orders, "order")
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	if err := h.orderRepo.Delete(ctx, id); err != nil {
		log.Error("cannot delete order", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not delete order")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetOrderStatus reports the aggregate status derived from the order's items
// and which cancel action, if any, is currently allowed.
func (h *Handler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrderStatus")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	order, err := h.orderRepo.Get(ctx, id)
	if err != nil || order == nil {
		log.Error("order not found", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	items, err := h.orderItemRepo.ListByOrder(ctx, id)
	if err != nil {
		log.Error("cannot list order items", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve order items")
		return
	}

	aggregate := AggregateStatus(itemStatuses(items), order.Status)
	mode := CancelEligibility(aggregate)

	apt.RespondSuccess(w, OrderStatusResponse{
		OrderID:         order.ID,
		Status:          aggregate,
		CancelMode:      mode,
		Cancellable:     mode != CancelNone,
		RequiresConfirm: mode == CancelForce,
	})
}

// OrderStatusResponse is the kiosk-facing status projection for one order.
type OrderStatusResponse struct {
	OrderID         uuid.UUID  `json:"order_id"`
	Status          string     `json:"status"`
	CancelMode      CancelMode `json:"cancel_mode"`
	Cancellable     bool       `json:"cancellable"`
	RequiresConfirm bool       `json:"requires_confirm"`
}

// PayOrder marks the order paid and hands every item to the machine queue.
func (h *Handler) PayOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PayOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	order, err := h.orderRepo.Get(ctx, id)
	if err != nil || order == nil {
		log.Error("order not found", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	if order.Status != StatusUnpaid {
		apt.RespondError(w, http.StatusBadRequest, "Order is already paid")
		return
	}

	items, err := h.orderItemRepo.ListByOrder(ctx, id)
	if err != nil {
		log.Error("cannot list order items", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve order items")
		return
	}
	if len(items) == 0 {
		apt.RespondError(w, http.StatusBadRequest, "Order has no items")
		return
	}

	order.MarkAsPaid()
	if err := h.orderRepo.Save(ctx, order); err != nil {
		log.Error("cannot mark order paid", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update order")
		return
	}

	for _, item := range items {
		item.MarkAsQueued()
		if err := h.orderItemRepo.Save(ctx, item); err != nil {
			log.Error("cannot queue order item", "error", err, "item_id", item.ID)
			continue
		}
		h.publishOrderItemQueued(ctx, item)
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"order":        order,
		"queued_items": len(items),
	}, nil)
}

// CancelOrder cancels every item of the order individually and reports the
// outcome per item. A processing order needs ?force=true; cancelling it wastes
// whatever the machine already consumed.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CancelOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	order, err := h.orderRepo.Get(ctx, id)
	if err != nil || order == nil {
		log.Error("order not found", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	items, err := h.orderItemRepo.ListByOrder(ctx, id)
	if err != nil {
		log.Error("cannot list order items", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve order items")
		return
	}

	aggregate := AggregateStatus(itemStatuses(items), order.Status)
	switch CancelEligibility(aggregate) {
	case CancelNone:
		log.Info("order not cancellable", "order_id", id, "status", aggregate)
		apt.RespondError(w, http.StatusConflict, "Order cannot be cancelled in status "+aggregate)
		return
	case CancelForce:
		if r.URL.Query().Get("force") != "true" {
			apt.Respond(w, http.StatusConflict, map[string]interface{}{
				"requires_force": true,
				"status":         aggregate,
				"message":        "Order is in production; force-cancelling wastes consumed ingredients",
			}, nil)
			return
		}
	}

	results := CancelOrderItems(ctx, h.orderItemRepo, items)

	fullyCancelled := true
	for _, result := range results {
		if !result.Cancelled {
			fullyCancelled = false
			log.Error("cannot cancel order item", "item_id", result.ItemID, "error", result.Error)
		}
	}

	if fullyCancelled {
		order.Cancel()
		if err := h.orderRepo.Save(ctx, order); err != nil {
			log.Error("cannot mark order cancelled", "error", err)
		}
	}

	log.Info("order cancel executed", "order_id", id, "fully_cancelled", fullyCancelled, "items", len(results))

	// CancelOrderItems reverts items whose save failed, so the statuses here
	// reflect what the store actually holds.
	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"order_id":        order.ID,
		"fully_cancelled": fullyCancelled,
		"results":         results,
		"status":          AggregateStatus(itemStatuses(items), order.Status),
	}, nil)
}

// OrderItem Handlers

func (h *Handler) CreateOrderItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrderItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	orderIDStr := chi.URLParam(r, "orderID")
	orderID, err := uuid.Parse(orderIDStr)
	if err != nil {
		log.Debug("invalid order ID", "orderID", orderIDStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	req, ok := h.decodeOrderItemCreatePayload(w, r, log)
	if !ok {
		return
	}

	parentOrder, err := h.orderRepo.Get(ctx, orderID)
	if err != nil || parentOrder == nil {
		log.Error("order not found for item create", "error", err, "order_id", orderID.String())
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	if parentOrder.Status != StatusUnpaid {
		apt.RespondError(w, http.StatusBadRequest, "Order is already paid; items can no longer be added")
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		log.Debug("invalid product ID", "product_id", req.ProductID)
		apt.RespondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.productRepo.Get(ctx, productID)
	if err != nil || product == nil {
		log.Error("product not found for item create", "error", err, "product_id", productID.String())
		apt.RespondError(w, http.StatusNotFound, "Product not found")
		return
	}

	sel := ResolveDefaults(product)
	if req.Selection != nil {
		sel = req.Selection.Normalize()
	}

	line := h.composer.ComposeOrderLine(product, sel, req.Quantity)

	item := NewOrderItem()
	item.OrderID = orderID
	item.ProductID = line.ProductID
	item.ProductName = line.ProductName
	item.Quantity = line.Quantity
	item.UnitPrice = line.UnitPrice
	item.LineTotal = line.LineTotal
	item.Selection = sel
	item.ProductionCodes = line.ProductionCodes
	item.Ingredients = line.Ingredients
	item.OptionSummary = line.OptionSummary
	item.ImagePath = line.ImagePath
	item.IsTest = req.IsTest
	item.BeforeCreate()

	if err := h.orderItemRepo.Create(ctx, item); err != nil {
		log.Error("cannot create order item", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create order item")
		return
	}

	links := apt.RESTfulLinksFor(item)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, item, links...)
}

func (h *Handler) GetOrderItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrderItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	item, err := h.orderItemRepo.Get(ctx, id)
	if err != nil || item == nil {
		log.Error("error loading order item", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Order item not found")
		return
	}

	links := apt.RESTfulLinksFor(item)
	apt.RespondSuccess(w, item, links...)
}

func (h *Handler) ListOrderItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrderItems")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	orderIDStr := chi.URLParam(r, "orderID")
	orderID, err := uuid.Parse(orderIDStr)
	if err != nil {
		log.Debug("invalid order ID", "orderID", orderIDStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	items, err := h.orderItemRepo.ListByOrder(ctx, orderID)
	if err != nil {
		log.Error("error retrieving order items", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve order items")
		return
	}

	apt.RespondCollection(w, items, "order-item")
}

// Request payloads and helpers

type OrderCreateRequest struct {
	DeviceID string `json:"device_id"`
}

type OrderItemCreateRequest struct {
	ProductID string     `json:"product_id"`
	Quantity  int        `json:"quantity"`
	Selection *Selection `json:"selection,omitempty"`
	IsTest    bool       `json:"is_test,omitempty"`
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "id", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decodeOrderCreatePayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (OrderCreateRequest, bool) {
	var req OrderCreateRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		log.Debug("cannot read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return req, false
	}
	if len(body) == 0 {
		return req, true
	}
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("invalid order payload", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return req, false
	}
	return req, true
}

func (h *Handler) decodeOrderItemCreatePayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (OrderItemCreateRequest, bool) {
	var req OrderItemCreateRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		log.Debug("cannot read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return req, false
	}
	if err := json.Unmarshal(body, &req); err != nil {
		log.Debug("invalid order item payload", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return req, false
	}
	return req, true
}

func (h *Handler) publishOrderItemQueued(ctx context.Context, item *OrderItem) {
	if h.publisher == nil {
		return
	}

	evt := pkg.OrderItemQueuedEvent{
		EventType:       pkg.EventOrderItemQueued,
		OrderID:         item.OrderID.String(),
		OrderItemID:     item.ID.String(),
		ProductID:       item.ProductID.String(),
		ProductName:     item.ProductName,
		Quantity:        item.Quantity,
		ProductionCodes: json.RawMessage(item.ProductionCodes),
		ImagePath:       item.ImagePath,
		OccurredAt:      time.Now().UTC(),
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal order item queued event", "error", err, "item_id", item.ID.String())
		return
	}
	if err := h.publisher.Publish(ctx, pkg.OrderItemsTopic, payload); err != nil {
		h.logger.Error("cannot publish order item queued event", "error", err, "item_id", item.ID.String())
	} else {
		h.logger.Info("published order item queued event", "order_item_id", item.ID.String())
	}
}

func itemStatuses(items []*OrderItem) []string {
	statuses := make([]string, 0, len(items))
	for _, item := range items {
		statuses = append(statuses, item.Status)
	}
	return statuses
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
