package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	domain "github.com/rudraksha-store/api/internal/domain"
	"github.com/rudraksha-store/api/internal/payments"
	"github.com/rudraksha-store/api/internal/platform/httpx"
	"github.com/rudraksha-store/api/internal/platform/requestctx"
	"github.com/rudraksha-store/api/internal/services"
)

const (
	maxWebhookBodySize   = 256 * 1024
	razorpaySignatureHdr = "X-Razorpay-Signature"
	defaultWebhookLimit  = 120
	defaultWebhookWindow = time.Minute
	eventPaymentCaptured = "payment.captured"
	eventPaymentFailed   = "payment.failed"
	eventOrderPaid       = "order.paid"
)

// WebhookHandlersDeps bundles the dependencies for gateway webhook endpoints.
type WebhookHandlersDeps struct {
	Orders  services.OrderService
	Gateway payments.Provider
	// RateLimit overrides the per-IP request budget per window. Zero keeps the default.
	RateLimit  int
	RateWindow time.Duration
	Clock      func() time.Time
}

// WebhookHandlers serves server-to-server gateway notifications.
type WebhookHandlers struct {
	orders  services.OrderService
	gateway payments.Provider
	limiter *webhookRateLimiter
}

// NewWebhookHandlers constructs webhook endpoints.
func NewWebhookHandlers(deps WebhookHandlersDeps) *WebhookHandlers {
	limit := deps.RateLimit
	if limit <= 0 {
		limit = defaultWebhookLimit
	}
	window := deps.RateWindow
	if window <= 0 {
		window = defaultWebhookWindow
	}
	return &WebhookHandlers{
		orders:  deps.Orders,
		gateway: deps.Gateway,
		limiter: newWebhookRateLimiter(limit, window, deps.Clock),
	}
}

// Routes registers the /webhooks endpoints.
func (h *WebhookHandlers) Routes(r chi.Router) {
	r.Post("/razorpay", h.razorpay)
}

type razorpayWebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// razorpay processes gateway payment events. The raw body is verified against
// the webhook secret before any parsing. Unhandled event types are acknowledged
// so the gateway does not retry them.
func (h *WebhookHandlers) razorpay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.limiter.Allow(r.RemoteAddr) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many requests", http.StatusTooManyRequests))
		return
	}

	body, err := readLimitedBody(r, maxWebhookBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	signature := strings.TrimSpace(r.Header.Get(razorpaySignatureHdr))
	if signature == "" || !h.gateway.VerifyWebhookSignature(body, signature) {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_signature", "webhook signature verification failed", http.StatusBadRequest))
		return
	}

	var event razorpayWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	var status domain.PaymentStatus
	switch event.Event {
	case eventPaymentCaptured, eventOrderPaid:
		status = domain.PaymentStatusCompleted
	case eventPaymentFailed:
		status = domain.PaymentStatusFailed
	default:
		requestctx.Logger(ctx).Info("webhook event ignored", zap.String("event", event.Event))
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	entity := event.Payload.Payment.Entity
	if strings.TrimSpace(entity.OrderID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "payment entity order_id is required", http.StatusBadRequest))
		return
	}

	// The whole body was authenticated above, so the per-payment signature
	// check does not apply to webhook-sourced updates.
	cmd := services.PaymentCallbackCommand{
		GatewayOrderID:   entity.OrderID,
		GatewayPaymentID: entity.ID,
		Status:           status,
		SourceVerified:   true,
	}

	if _, err := h.orders.UpdatePaymentStatus(ctx, cmd); err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "processed"})
}

// webhookRateLimiter is a fixed-window per-key limiter for webhook abuse protection.
type webhookRateLimiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time
	mu     sync.Mutex
	store  map[string]webhookRateEntry
}

type webhookRateEntry struct {
	count int
	reset time.Time
}

func newWebhookRateLimiter(limit int, window time.Duration, clock func() time.Time) *webhookRateLimiter {
	if clock == nil {
		clock = time.Now
	}
	return &webhookRateLimiter{
		limit:  limit,
		window: window,
		clock:  clock,
		store:  make(map[string]webhookRateEntry),
	}
}

func (l *webhookRateLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "anonymous"
	}

	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.store[key]
	if !ok || now.After(entry.reset) {
		l.store[key] = webhookRateEntry{count: 1, reset: now.Add(l.window)}
		l.pruneExpiredLocked(now)
		return true
	}
	if entry.count >= l.limit {
		return false
	}
	entry.count++
	l.store[key] = entry
	return true
}

func (l *webhookRateLimiter) pruneExpiredLocked(now time.Time) {
	for key, entry := range l.store {
		if now.After(entry.reset) {
			delete(l.store, key)
		}
	}
}
