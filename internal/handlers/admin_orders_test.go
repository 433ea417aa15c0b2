package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/rudraksha-store/api/internal/domain"
	"github.com/rudraksha-store/api/internal/services"
)

func newAdminOrderRouter(service services.OrderService) chi.Router {
	router := chi.NewRouter()
	NewAdminOrderHandlers(service).Routes(router)
	return router
}

func TestAdminOrdersListFilters(t *testing.T) {
	var captured services.OrderListFilter
	service := &stubOrderService{
		listFn: func(ctx context.Context, filter services.OrderListFilter) ([]services.Order, error) {
			captured = filter
			return []services.Order{{ID: "order-1", Status: domain.OrderStatusShipped}}, nil
		},
	}
	router := newAdminOrderRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/orders?status=Shipped&paymentStatus=COMPLETED&limit=25", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.Status != domain.OrderStatusShipped {
		t.Fatalf("expected shipped filter, got %q", captured.Status)
	}
	if captured.PaymentStatus != domain.PaymentStatusCompleted {
		t.Fatalf("expected completed payment filter, got %q", captured.PaymentStatus)
	}
	if captured.Limit != 25 {
		t.Fatalf("expected limit 25, got %d", captured.Limit)
	}
}

func TestAdminOrdersListRejectsBadLimit(t *testing.T) {
	router := newAdminOrderRouter(&stubOrderService{})

	req := httptest.NewRequest(http.MethodGet, "/orders?limit=lots", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAdminOrdersUpdateStatus(t *testing.T) {
	var captured services.UpdateOrderStatusCommand
	service := &stubOrderService{
		statusFn: func(ctx context.Context, cmd services.UpdateOrderStatusCommand) (services.Order, error) {
			captured = cmd
			return services.Order{ID: cmd.OrderID, Status: cmd.Status}, nil
		},
	}
	router := newAdminOrderRouter(service)

	req := httptest.NewRequest(http.MethodPut, "/orders/order-1/status", strings.NewReader(`{"status": "Processing"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.OrderID != "order-1" || captured.Status != domain.OrderStatusProcessing {
		t.Fatalf("unexpected command: %+v", captured)
	}
}

func TestAdminOrdersUpdateStatusInvalidTransition(t *testing.T) {
	service := &stubOrderService{
		statusFn: func(ctx context.Context, cmd services.UpdateOrderStatusCommand) (services.Order, error) {
			return services.Order{}, services.ErrInvalidStatusTransition
		},
	}
	router := newAdminOrderRouter(service)

	req := httptest.NewRequest(http.MethodPut, "/orders/order-1/status", strings.NewReader(`{"status": "delivered"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body["error"] != "invalid_transition" {
		t.Fatalf("expected invalid_transition, got %v", body["error"])
	}
}

func TestAdminOrdersCancel(t *testing.T) {
	var captured services.CancelOrderCommand
	service := &stubOrderService{
		cancelFn: func(ctx context.Context, cmd services.CancelOrderCommand) (services.Order, error) {
			captured = cmd
			return services.Order{ID: cmd.OrderID, Status: domain.OrderStatusCancelled, CancellationReason: cmd.Reason}, nil
		},
	}
	router := newAdminOrderRouter(service)

	req := httptest.NewRequest(http.MethodPost, "/orders/order-1/cancel", strings.NewReader(`{"reason": "out of stock"}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.Reason != "out of stock" {
		t.Fatalf("expected cancellation reason forwarded, got %q", captured.Reason)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body["cancellationReason"] != "out of stock" {
		t.Fatalf("expected reason in payload, got %v", body["cancellationReason"])
	}
}
