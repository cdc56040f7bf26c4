package catalog

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	logger      apt.Logger
	config      *apt.Config
	tlm         *telemetry.HTTP
	productRepo ProductRepo
	registry    *Registry
	stock       *StockStateCache
}

type HandlerDeps struct {
	ProductRepo ProductRepo
	Registry    *Registry
	Stock       *StockStateCache
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		config:      config,
		logger:      logger,
		tlm:         telemetry.NewHTTP(),
		productRepo: hd.ProductRepo,
		registry:    hd.Registry,
		stock:       hd.Stock,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Get("/", h.ListProducts)
		r.Get("/{id}", h.GetProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
		r.Get("/{id}/availability", h.GetProductAvailability)
	})

	r.Route("/ingredients", func(r chi.Router) {
		r.Get("/stock", h.GetStock)
	})
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateProduct")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	product, ok := h.decodeProductPayload(w, r, log)
	if !ok {
		return
	}

	if errs := ValidateCreateProduct(product); len(errs) > 0 {
		log.Debug("product validation failed", "count", len(errs))
		respondValidationErrors(w, errs)
		return
	}

	product.BeforeCreate()

	if err := h.productRepo.Create(ctx, product); err != nil {
		log.Error("cannot create product", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create product")
		return
	}

	if warnings := ProductConfigWarnings(product, h.registry); len(warnings) > 0 {
		for _, warning := range warnings {
			log.Info("product config warning", "product_id", product.ID.String(), "field", warning.Field, "message", warning.Message)
		}
		apt.Respond(w, http.StatusCreated, map[string]interface{}{
			"product":  product,
			"warnings": warnings,
		}, nil)
		return
	}

	links := apt.RESTfulLinksFor(product)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, product, links...)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetProduct")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	product, err := h.productRepo.Get(ctx, id)
	if err != nil || product == nil {
		log.Error("product not found", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Product not found")
		return
	}

	links := apt.RESTfulLinksFor(product)
	apt.RespondSuccess(w, product, links...)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListProducts")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var products []*Product
	var err error

	if r.URL.Query().Get("active") == "true" {
		products, err = h.productRepo.ListActive(ctx)
	} else {
		products, err = h.productRepo.List(ctx)
	}

	if err != nil {
		log.Error("error retrieving products", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve products")
		return
	}

	apt.RespondCollection(w, products, "product")
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateProduct")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	existing, err := h.productRepo.Get(ctx, id)
	if err != nil || existing == nil {
		log.Error("product not found", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Product not found")
		return
	}

	product, ok := h.decodeProductPayload(w, r, log)
	if !ok {
		return
	}
	product.ID = id
	product.CreatedAt = existing.CreatedAt
	product.CreatedBy = existing.CreatedBy

	if errs := ValidateUpdateProduct(product); len(errs) > 0 {
		log.Debug("product validation failed", "count", len(errs))
		respondValidationErrors(w, errs)
		return
	}

	product.BeforeUpdate()

	if err := h.productRepo.Save(ctx, product); err != nil {
		log.Error("cannot update product", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update product")
		return
	}

	for _, warning := range ProductConfigWarnings(product, h.registry) {
		log.Info("product config warning", "product_id", product.ID.String(), "field", warning.Field, "message", warning.Message)
	}

	links := apt.RESTfulLinksFor(product)
	apt.RespondSuccess(w, product, links...)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteProduct")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	if err := h.productRepo.Delete(ctx, id); err != nil {
		log.Error("cannot delete product", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetProductAvailability resolves the product's verdict against the current
// stock snapshot. It is a read-time projection; nothing is persisted.
func (h *Handler) GetProductAvailability(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetProductAvailability")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	product, err := h.productRepo.Get(ctx, id)
	if err != nil || product == nil {
		log.Error("product not found", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Product not found")
		return
	}

	verdict := h.registry.ResolveAvailability(product.RequiredIngredientCodes, h.stock.Snapshot())
	apt.RespondSuccess(w, verdict)
}

// GetStock exposes the raw reading snapshot for the staff dashboard.
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetStock")
	defer finish()

	readings := h.stock.Snapshot()
	out := make([]map[string]interface{}, 0, len(readings))
	for code, value := range readings {
		out = append(out, map[string]interface{}{
			"ingredient_code": code,
			"display_name":    h.registry.DisplayName(code),
			"value":           value,
		})
	}
	apt.RespondSuccess(w, out)
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

func (h *Handler) decodeProductPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (*Product, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		log.Debug("cannot read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return nil, false
	}

	var product Product
	if err := json.Unmarshal(body, &product); err != nil {
		log.Debug("invalid product payload", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return nil, false
	}
	return &product, true
}

func respondValidationErrors(w http.ResponseWriter, errs []ValidationError) {
	apt.Respond(w, http.StatusBadRequest, map[string]interface{}{
		"errors": errs,
	}, nil)
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
