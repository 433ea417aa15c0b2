package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/rudraksha-store/api/internal/domain"
	"github.com/rudraksha-store/api/internal/platform/httpx"
	"github.com/rudraksha-store/api/internal/services"
)

// NotificationHandlers serves the per-user notification feed.
type NotificationHandlers struct {
	notifications services.NotificationService
}

// NewNotificationHandlers constructs notification endpoints.
func NewNotificationHandlers(notifications services.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{notifications: notifications}
}

// Routes registers the signed-in user's notification feed.
func (h *NotificationHandlers) Routes(r chi.Router) {
	r.Get("/", h.listMine)
}

func (h *NotificationHandlers) listMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := requestIdentity(ctx)
	if !ok {
		writeUnauthenticated(ctx, w)
		return
	}
	limit, ok := parseLimitParam(w, r)
	if !ok {
		return
	}

	notifications, err := h.notifications.ListByUser(ctx, identity.UserID, limit)
	if err != nil {
		writeRepositoryError(ctx, w, err, "notification_error")
		return
	}
	writeJSONResponse(w, http.StatusOK, buildNotificationPayloads(notifications))
}

// AdminNotificationHandlers serves the back-office notification log.
type AdminNotificationHandlers struct {
	notifications services.NotificationService
}

// NewAdminNotificationHandlers constructs admin notification endpoints.
func NewAdminNotificationHandlers(notifications services.NotificationService) *AdminNotificationHandlers {
	return &AdminNotificationHandlers{notifications: notifications}
}

// Routes registers notification log endpoints under /admin.
func (h *AdminNotificationHandlers) Routes(r chi.Router) {
	r.Get("/notifications", h.listAll)
}

func (h *AdminNotificationHandlers) listAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, ok := parseLimitParam(w, r)
	if !ok {
		return
	}

	notifications, err := h.notifications.ListAll(ctx, limit)
	if err != nil {
		writeRepositoryError(ctx, w, err, "notification_error")
		return
	}
	writeJSONResponse(w, http.StatusOK, buildNotificationPayloads(notifications))
}

type notificationPayload struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	UserID    string         `json:"userId,omitempty"`
	OrderID   string         `json:"orderId,omitempty"`
	ProductID string         `json:"productId,omitempty"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt string         `json:"createdAt"`
}

func buildNotificationPayloads(notifications []domain.Notification) []notificationPayload {
	payload := make([]notificationPayload, 0, len(notifications))
	for _, notification := range notifications {
		payload = append(payload, notificationPayload{
			ID:        notification.ID,
			Type:      notification.Type,
			UserID:    notification.UserID,
			OrderID:   notification.OrderID,
			ProductID: notification.ProductID,
			Title:     notification.Title,
			Message:   notification.Message,
			Metadata:  notification.Metadata,
			CreatedAt: formatTime(notification.CreatedAt),
		})
	}
	return payload
}

// parseLimitParam reads an optional non-negative limit query parameter. It
// writes the error response itself and reports false on invalid input.
func parseLimitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "limit must be a non-negative integer", http.StatusBadRequest))
		return 0, false
	}
	return parsed, true
}
