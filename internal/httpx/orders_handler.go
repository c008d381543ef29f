package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/swiftcart/backend/internal/kafka"
	"github.com/swiftcart/backend/internal/orders"
	"github.com/swiftcart/backend/internal/redisx"
)

type OrdersHandler struct {
	Svc            *orders.Service
	Redis          *redis.Client
	ProducerPlaced *kafkax.Producer
	ProducerStatus *kafkax.Producer
	Service        string
}

type paymentIntentReq struct {
	AddressID       string `json:"addressId"`
	PaymentMethodID string `json:"paymentMethodId"`
}

func (h *OrdersHandler) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	var req paymentIntentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeKind(w, http.StatusBadRequest, "InvalidInput", "invalid json")
		return
	}
	if req.AddressID == "" || req.PaymentMethodID == "" {
		writeKind(w, http.StatusBadRequest, "InvalidInput", "missing fields")
		return
	}
	prep, err := h.Svc.PreparePaymentIntent(r.Context(), p.UserID, req.AddressID, req.PaymentMethodID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prep)
}

type placeOrderReq struct {
	PaymentIntentID string `json:"paymentIntentId"`
	AddressID       string `json:"addressId"`
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeKind(w, http.StatusBadRequest, "InvalidInput", "invalid json")
		return
	}
	if req.PaymentIntentID == "" || req.AddressID == "" {
		writeKind(w, http.StatusBadRequest, "InvalidInput", "missing fields")
		return
	}

	ctx := r.Context()

	// Fast-path replay check; the unique index on payment_id stays the truth.
	idemKey := fmt.Sprintf(redisx.KeyIdemOrderPlace, req.PaymentIntentID)
	if seen, _ := redisx.Exists(ctx, h.Redis, idemKey); seen {
		writeError(w, orders.ErrDuplicatePayment)
		return
	}

	o, err := h.Svc.PlaceOrder(ctx, p.UserID, req.PaymentIntentID, req.AddressID)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = h.Redis.Set(ctx, idemKey, o.OrderID, redisx.TTLIdempotency).Err()
	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, o.OrderID)
	_ = h.Redis.Set(ctx, statusKey, fmt.Sprintf(`{"status":%q}`, o.Status), redisx.TTLStatusCache).Err()

	h.publish(h.ProducerPlaced, orders.EventOrderPlaced, o.OrderID, r.Header.Get("X-Request-Id"),
		orders.OrderPlacedPayload{
			OrderID:    o.OrderID,
			UserID:     o.UserID,
			Items:      o.Lines,
			TotalCents: o.TotalCents,
		})

	writeJSON(w, http.StatusCreated, map[string]any{"message": "order placed successfully", "order": o})
}

type advanceStatusReq struct {
	Status orders.Status `json:"status"`
}

func (h *OrdersHandler) advanceStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Body is optional: empty means "advance one step"; {"status":"Cancelled"}
	// is the administrative cancel override.
	var req advanceStatusReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	o, from, err := h.Svc.AdvanceStatus(ctx, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, o.OrderID)
	_ = h.Redis.Set(ctx, statusKey, fmt.Sprintf(`{"status":%q}`, o.Status), redisx.TTLStatusCache).Err()

	h.publish(h.ProducerStatus, orders.EventOrderStatusChanged, o.OrderID, r.Header.Get("X-Request-Id"),
		orders.OrderStatusChangedPayload{OrderID: o.OrderID, From: from, To: o.Status})

	writeJSON(w, http.StatusOK, map[string]any{"message": "order status updated successfully", "order": o})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Svc.OrderByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// getOrderStatus serves the cached status when it is fresh and falls back to
// the store, re-priming the cache on the way out.
func (h *OrdersHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "id")

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	o, err := h.Svc.OrderByID(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	body := fmt.Sprintf(`{"status":%q}`, o.Status)
	_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
	writeJSON(w, http.StatusOK, json.RawMessage(body))
}

func (h *OrdersHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	os, err := h.Svc.OrdersForUser(r.Context(), p.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": os})
}

func (h *OrdersHandler) allOrders(w http.ResponseWriter, r *http.Request) {
	os, err := h.Svc.AllOrders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": os})
}

func (h *OrdersHandler) publish(p *kafkax.Producer, eventType, orderID, traceID string, payload any) {
	if p == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
