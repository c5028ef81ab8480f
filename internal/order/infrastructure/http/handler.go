package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	cartapp "github.com/zuvees/storefront/internal/cart/application"
	catalogdomain "github.com/zuvees/storefront/internal/catalog/domain"
	orderapp "github.com/zuvees/storefront/internal/order/application"
	"github.com/zuvees/storefront/internal/order/domain"
)

// Caller identity and the session key arrive pre-resolved in headers;
// authentication happens upstream of this service.
const (
	headerUserID     = "X-User-ID"
	headerSessionKey = "X-Session-Key"
	headerIdemKey    = "Idempotency-Key"
)

type Handler struct {
	log    *slog.Logger
	orders *orderapp.Service
	cart   *cartapp.Service
	tracer trace.Tracer
}

func NewHandler(log *slog.Logger, orders *orderapp.Service, cart *cartapp.Service) *Handler {
	return &Handler{
		log:    log,
		orders: orders,
		cart:   cart,
		tracer: otel.Tracer("storefront-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/cart/items", h.addCartItem)
	r.Get("/cart", h.getCart)
	r.Delete("/cart", h.clearCart)
	r.Post("/orders", h.placeOrder)
	r.Get("/orders/{id}", h.getOrder)
	return r
}

type addItemReq struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	sessionKey := r.Header.Get(headerSessionKey)
	if sessionKey == "" {
		writeError(w, http.StatusBadRequest, "missing_session", "X-Session-Key header is required")
		return
	}

	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid body")
		return
	}

	err := h.cart.AddItem(r.Context(), sessionKey, req.VariantID, req.Quantity)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, cartapp.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, catalogdomain.ErrVariantNotFound):
		writeError(w, http.StatusNotFound, "variant_not_found", err.Error())
	default:
		var exceeded *cartapp.StockExceededError
		if errors.As(err, &exceeded) {
			writeError(w, http.StatusConflict, "stock_exceeded", exceeded.Error())
			return
		}
		h.log.Error("add cart item failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not add item")
	}
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	sessionKey := r.Header.Get(headerSessionKey)
	if sessionKey == "" {
		writeError(w, http.StatusBadRequest, "missing_session", "X-Session-Key header is required")
		return
	}

	detail, err := h.cart.Detail(r.Context(), sessionKey)
	if err != nil {
		h.log.Error("cart detail failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not load cart")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	sessionKey := r.Header.Get(headerSessionKey)
	if sessionKey == "" {
		writeError(w, http.StatusBadRequest, "missing_session", "X-Session-Key header is required")
		return
	}
	if err := h.cart.Clear(r.Context(), sessionKey); err != nil {
		h.log.Error("cart clear failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not clear cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlaceOrder")
	defer span.End()

	userID := r.Header.Get(headerUserID)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing_identity", "X-User-ID header is required")
		return
	}
	sessionKey := r.Header.Get(headerSessionKey)
	if sessionKey == "" {
		writeError(w, http.StatusBadRequest, "missing_session", "X-Session-Key header is required")
		return
	}

	o, err := h.orders.PlaceOrder(ctx, userID, sessionKey, r.Header.Get(headerIdemKey))
	if err != nil {
		h.writePlacementError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing_identity", "X-User-ID header is required")
		return
	}

	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "order_not_found", "order not found")
		return
	}
	if err != nil {
		h.log.Error("get order failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not load order")
		return
	}
	if o.UserID != userID {
		// Orders are visible to their owner only; pretend it does not exist.
		writeError(w, http.StatusNotFound, "order_not_found", "order not found")
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) writePlacementError(w http.ResponseWriter, err error) {
	pe, ok := domain.AsPlacementError(err)
	if !ok {
		h.log.Error("placement failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "placement failed")
		return
	}

	body := errorResponse{Kind: string(pe.Kind), Detail: pe.Error()}
	switch pe.Kind {
	case domain.KindEmptyCart:
		writeJSON(w, http.StatusUnprocessableEntity, body)
	case domain.KindVariantNotFound:
		body.VariantID = pe.VariantID
		writeJSON(w, http.StatusNotFound, body)
	case domain.KindInsufficientStock:
		body.VariantID = pe.VariantID
		body.Available = &pe.Available
		writeJSON(w, http.StatusConflict, body)
	case domain.KindTransientStorage:
		writeJSON(w, http.StatusServiceUnavailable, body)
	default:
		h.log.Error("placement commit failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, body)
	}
}

type errorResponse struct {
	Kind      string `json:"kind"`
	Detail    string `json:"detail"`
	VariantID string `json:"variant_id,omitempty"`
	Available *int   `json:"available,omitempty"`
}

type orderResponse struct {
	ID         string              `json:"id"`
	UserID     string              `json:"user_id"`
	TotalCents int64               `json:"total_cents"`
	Status     string              `json:"status"`
	Items      []orderItemResponse `json:"items"`
	CreatedAt  time.Time           `json:"created_at"`
}

type orderItemResponse struct {
	VariantID  string `json:"variant_id"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

func toOrderResponse(o domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			VariantID:  item.VariantID,
			Quantity:   item.Quantity,
			PriceCents: item.PriceCents,
		})
	}
	return orderResponse{
		ID:         o.ID,
		UserID:     o.UserID,
		TotalCents: o.TotalCents,
		Status:     string(o.Status),
		Items:      items,
		CreatedAt:  o.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, detail string) {
	writeJSON(w, status, errorResponse{Kind: kind, Detail: detail})
}
