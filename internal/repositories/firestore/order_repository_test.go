package firestore

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/rudraksha-store/api/internal/platform/firestore"
)

func orderDocFixture(id, userID string, orderDate time.Time) pfirestore.Document[orderDocument] {
	return pfirestore.Document[orderDocument]{
		ID: id,
		Data: orderDocument{
			UserID:        userID,
			OrderNumber:   "RUD" + id,
			Status:        "pending",
			PaymentStatus: "pending",
			OrderDate:     orderDate,
		},
	}
}

func TestListByUserFallsBackWhenIndexIsMissing(t *testing.T) {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	unordered := []pfirestore.Document[orderDocument]{
		orderDocFixture("10000001", "+919876543210", base),
		orderDocFixture("10000003", "+919876543210", base.Add(2*time.Hour)),
		orderDocFixture("10000002", "+919876543210", base.Add(time.Hour)),
	}

	calls := 0
	repo := &OrderRepository{
		query: func(ctx context.Context, build pfirestore.QueryBuilder) ([]pfirestore.Document[orderDocument], error) {
			calls++
			if calls == 1 {
				return nil, pfirestore.WrapError("orders.list_by_user",
					status.Error(codes.FailedPrecondition, "The query requires an index."))
			}
			return unordered, nil
		},
	}

	orders, err := repo.ListByUser(context.Background(), "+919876543210")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected the unordered retry, got %d query calls", calls)
	}
	if len(orders) != len(unordered) {
		t.Fatalf("fallback must return the same set, got %d of %d orders", len(orders), len(unordered))
	}
	for i, want := range []string{"10000003", "10000002", "10000001"} {
		if orders[i].ID != want {
			t.Fatalf("expected newest-first order %q at position %d, got %q", want, i, orders[i].ID)
		}
	}
}

func TestListByUserPropagatesNonIndexErrors(t *testing.T) {
	calls := 0
	repo := &OrderRepository{
		query: func(ctx context.Context, build pfirestore.QueryBuilder) ([]pfirestore.Document[orderDocument], error) {
			calls++
			return nil, pfirestore.WrapError("orders.list_by_user",
				status.Error(codes.Unavailable, "backend unavailable"))
		},
	}

	if _, err := repo.ListByUser(context.Background(), "+919876543210"); err == nil {
		t.Fatal("expected the outage to surface")
	}
	if calls != 1 {
		t.Fatalf("non-index failures must not trigger the unordered retry, got %d calls", calls)
	}
}
