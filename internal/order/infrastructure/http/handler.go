package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/auth"
	"storefront/internal/order/application"
	"storefront/internal/order/domain"
)

// IdempotencyStore claims request keys for duplicate detection. A claimed
// key is released with Forget when the submission does not commit.
type IdempotencyStore interface {
	Key(customerID, requestKey string) string
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

type Handler struct {
	log     *slog.Logger
	service *application.Service
	idem    IdempotencyStore
	tracer  trace.Tracer
}

// NewHandler wires the submission workflow. idem may be nil when no redis
// is configured; the Idempotency-Key header is then ignored.
func NewHandler(log *slog.Logger, service *application.Service, idem IdempotencyStore) *Handler {
	return &Handler{
		log:     log,
		service: service,
		idem:    idem,
		tracer:  otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/orders", h.submitOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	return r
}

type addressReq struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type submitOrderReq struct {
	Address addressReq `json:"address"`
}

type orderItemResp struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int32  `json:"quantity"`
}

type orderResp struct {
	ID          string          `json:"id"`
	Items       []orderItemResp `json:"items"`
	Total       string          `json:"total"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SubmitOrder")
	defer span.End()

	id, _ := auth.FromContext(ctx)

	var claimed string
	if key := r.Header.Get("Idempotency-Key"); key != "" && h.idem != nil {
		claimed = h.idem.Key(id.UserID.String(), key)
		seen, err := h.idem.Seen(ctx, claimed)
		if err != nil {
			h.log.Error("idempotency check failed", "err", err)
			claimed = ""
		} else if seen {
			writeError(w, http.StatusConflict, "DUPLICATE_REQUEST", "request already processed")
			return
		}
	}

	var req submitOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.releaseKey(ctx, claimed)
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid body")
		return
	}

	o, err := h.service.Submit(ctx, id.UserID, domain.ShippingAddress{
		Line1:      req.Address.Line1,
		Line2:      req.Address.Line2,
		City:       req.Address.City,
		Region:     req.Address.Region,
		PostalCode: req.Address.PostalCode,
		Country:    req.Address.Country,
	})
	if err != nil {
		h.releaseKey(ctx, claimed)
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResp(o))
}

// releaseKey frees a claimed idempotency key after a failed submission so
// the client can retry with the same key.
func (h *Handler) releaseKey(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := h.idem.Forget(ctx, key); err != nil {
		h.log.Error("idempotency release failed", "err", err, "key", key)
	}
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid order id")
		return
	}

	o, err := h.service.GetOrder(ctx, orderID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	// Customers only see their own orders; absent and foreign ids are
	// indistinguishable.
	id, _ := auth.FromContext(ctx)
	if id.Role != auth.RoleAdmin && o.CustomerID != id.UserID {
		writeError(w, http.StatusNotFound, "ORDER_NOT_FOUND", application.ErrOrderNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrders")
	defer span.End()

	id, _ := auth.FromContext(ctx)
	orders, err := h.service.ListOrders(ctx, id.UserID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	items := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		items = append(items, toOrderResp(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrEmptyCart):
		writeError(w, http.StatusConflict, "EMPTY_CART", err.Error())
	case errors.Is(err, application.ErrAddressUnverified):
		writeError(w, http.StatusUnprocessableEntity, "ADDRESS_UNVERIFIED", err.Error())
	case errors.Is(err, application.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "ORDER_NOT_FOUND", err.Error())
	default:
		h.log.Error("order request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func toOrderResp(o domain.Order) orderResp {
	items := make([]orderItemResp, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResp{
			ProductID: it.ProductID.String(),
			Name:      it.Name,
			UnitPrice: it.UnitPrice.String(),
			Quantity:  it.Quantity,
		})
	}
	return orderResp{
		ID:          o.ID.String(),
		Items:       items,
		Total:       o.Total.String(),
		SubmittedAt: o.SubmittedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"code": code, "error": msg})
}
