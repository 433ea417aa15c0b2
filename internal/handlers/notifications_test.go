package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rudraksha-store/api/internal/services"
)

type stubNotificationHandlerService struct {
	byUserFn func(context.Context, string, int) ([]services.Notification, error)
	allFn    func(context.Context, int) ([]services.Notification, error)
}

func (s *stubNotificationHandlerService) Record(ctx context.Context, cmd services.RecordNotificationCommand) {
}

func (s *stubNotificationHandlerService) ListByUser(ctx context.Context, userID string, limit int) ([]services.Notification, error) {
	if s.byUserFn != nil {
		return s.byUserFn(ctx, userID, limit)
	}
	return nil, errors.New("not implemented")
}

func (s *stubNotificationHandlerService) ListAll(ctx context.Context, limit int) ([]services.Notification, error) {
	if s.allFn != nil {
		return s.allFn(ctx, limit)
	}
	return nil, errors.New("not implemented")
}

var _ services.NotificationService = (*stubNotificationHandlerService)(nil)

func TestNotificationFeedScopedToIdentity(t *testing.T) {
	createdAt := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	service := &stubNotificationHandlerService{
		byUserFn: func(ctx context.Context, userID string, limit int) ([]services.Notification, error) {
			if userID != "+919876543210" {
				t.Fatalf("unexpected user id %q", userID)
			}
			if limit != 20 {
				t.Fatalf("expected limit 20, got %d", limit)
			}
			return []services.Notification{{
				ID:        "notif-1",
				Type:      "order_shipped",
				OrderID:   "order-1",
				Title:     "Order shipped",
				Message:   "Your order RUD40000000 is on its way",
				CreatedAt: createdAt,
			}}, nil
		},
	}
	router := chi.NewRouter()
	NewNotificationHandlers(service).Routes(router)

	req := httptest.NewRequest(http.MethodGet, "/?limit=20", nil)
	req = withTestIdentity(req, "+919876543210")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON array: %v", err)
	}
	if len(body) != 1 || body[0]["type"] != "order_shipped" {
		t.Fatalf("unexpected payload: %+v", body)
	}
	if body[0]["createdAt"] != "2026-02-01T10:00:00Z" {
		t.Fatalf("unexpected createdAt: %v", body[0]["createdAt"])
	}
}

func TestNotificationFeedRequiresIdentity(t *testing.T) {
	router := chi.NewRouter()
	NewNotificationHandlers(&stubNotificationHandlerService{}).Routes(router)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestAdminNotificationLog(t *testing.T) {
	service := &stubNotificationHandlerService{
		allFn: func(ctx context.Context, limit int) ([]services.Notification, error) {
			return []services.Notification{
				{ID: "notif-2", Type: "payment_completed", UserID: "+919876543210"},
				{ID: "notif-1", Type: "new_order", UserID: "+919876543210"},
			}, nil
		},
	}
	router := chi.NewRouter()
	NewAdminNotificationHandlers(service).Routes(router)

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var body []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON array: %v", err)
	}
	if len(body) != 2 || body[0]["id"] != "notif-2" {
		t.Fatalf("unexpected payload: %+v", body)
	}
}

func TestAdminNotificationLogRejectsBadLimit(t *testing.T) {
	router := chi.NewRouter()
	NewAdminNotificationHandlers(&stubNotificationHandlerService{}).Routes(router)

	req := httptest.NewRequest(http.MethodGet, "/notifications?limit=-3", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
