package services

import (
	"context"
	"testing"
	"time"

	domain "github.com/rudraksha-store/api/internal/domain"
)

func newTestWishlistService(t *testing.T, users *stubUserRepo, local *LocalWishlistStore, now time.Time) WishlistService {
	t.Helper()
	svc, err := NewWishlistService(WishlistServiceDeps{
		Users: users,
		Local: local,
		Clock: fixedClock(now),
	})
	if err != nil {
		t.Fatalf("NewWishlistService: %v", err)
	}
	return svc
}

func TestWishlistAddDeduplicatesByProduct(t *testing.T) {
	users := newStubUserRepo()
	users.users["+919876543210"] = domain.User{PhoneNumber: "+919876543210"}
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestWishlistService(t, users, NewLocalWishlistStore(), now)

	items, err := svc.Add(context.Background(), "+919876543210", domain.WishlistItem{ProductID: "p1", Name: " Rudraksha Mala "})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}
	if items[0].Name != "Rudraksha Mala" {
		t.Fatalf("fields must be trimmed before persistence, got %q", items[0].Name)
	}
	if items[0].ID != "p1" {
		t.Fatalf("id must default to the product id, got %q", items[0].ID)
	}
	if !items[0].AddedAt.Equal(now) {
		t.Fatalf("expected addedAt %v, got %v", now, items[0].AddedAt)
	}

	// Adding the same product again is a no-op.
	items, err = svc.Add(context.Background(), "+919876543210", domain.WishlistItem{ProductID: "p1", Name: "Different Name"})
	if err != nil {
		t.Fatalf("Add duplicate: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Rudraksha Mala" {
		t.Fatalf("duplicate add must keep the original entry, got %#v", items)
	}
}

func TestWishlistAddSeedsMissingUser(t *testing.T) {
	users := newStubUserRepo()
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestWishlistService(t, users, NewLocalWishlistStore(), now)

	if _, err := svc.Add(context.Background(), "9876543210", domain.WishlistItem{ProductID: "p1"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	user, ok := users.users["+919876543210"]
	if !ok || len(user.Wishlist) != 1 {
		t.Fatalf("expected seeded user with wishlist entry, got %#v", user)
	}
}

func TestWishlistGuestRoutesToLocalStore(t *testing.T) {
	users := newStubUserRepo()
	local := NewLocalWishlistStore()
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestWishlistService(t, users, local, now)

	guestID := "guest_1769940000000_abc123def"
	if _, err := svc.Add(context.Background(), guestID, domain.WishlistItem{ProductID: "p1"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if users.saveCalls != 0 {
		t.Fatal("guest wishlists must not touch the user store")
	}
	items, err := svc.List(context.Background(), guestID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].ProductID != "p1" {
		t.Fatalf("unexpected guest wishlist %#v", items)
	}
}

func TestWishlistRemoveByProductID(t *testing.T) {
	users := newStubUserRepo()
	users.users["+919876543210"] = domain.User{
		PhoneNumber: "+919876543210",
		Wishlist: []domain.WishlistItem{
			{ID: "p1", ProductID: "p1", Name: "Mala"},
			{ID: "p2", ProductID: "p2", Name: "Bracelet"},
		},
	}
	svc := newTestWishlistService(t, users, NewLocalWishlistStore(), time.Now())

	if err := svc.RemoveByProductID(context.Background(), "+919876543210", "p1"); err != nil {
		t.Fatalf("RemoveByProductID: %v", err)
	}
	wishlist := users.users["+919876543210"].Wishlist
	if len(wishlist) != 1 || wishlist[0].ProductID != "p2" {
		t.Fatalf("unexpected wishlist %#v", wishlist)
	}

	// Removing an absent product succeeds silently.
	if err := svc.RemoveByProductID(context.Background(), "+919876543210", "p9"); err != nil {
		t.Fatalf("removing an absent product must be a no-op, got %v", err)
	}
}

func TestWishlistMergeLocal(t *testing.T) {
	users := newStubUserRepo()
	users.users["+919876543210"] = domain.User{
		PhoneNumber: "+919876543210",
		Wishlist:    []domain.WishlistItem{{ID: "p1", ProductID: "p1", Name: "Mala", AddedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}},
	}
	local := NewLocalWishlistStore()
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestWishlistService(t, users, local, now)

	guestID := "guest_1769940000000_abc123def"
	ctx := context.Background()
	local.Add(ctx, guestID, domain.WishlistItem{ID: "p1", ProductID: "p1", Name: "Mala"})
	local.Add(ctx, guestID, domain.WishlistItem{ID: "p2", ProductID: "p2", Name: "Bracelet"})

	merged, err := svc.MergeLocal(ctx, guestID, "9876543210")
	if err != nil {
		t.Fatalf("MergeLocal: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged items, got %d", len(merged))
	}

	wishlist := users.users["+919876543210"].Wishlist
	if len(wishlist) != 2 {
		t.Fatalf("expected duplicate guest entries to be skipped, got %#v", wishlist)
	}

	// The guest list is cleared after the merge.
	remaining, err := local.List(ctx, guestID)
	if err != nil {
		t.Fatalf("List guest: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("guest wishlist must be cleared, got %#v", remaining)
	}
}

func TestWishlistMergeLocalRequiresGuestID(t *testing.T) {
	svc := newTestWishlistService(t, newStubUserRepo(), NewLocalWishlistStore(), time.Now())
	if _, err := svc.MergeLocal(context.Background(), "+919876543210", "+919876543210"); err == nil {
		t.Fatal("expected non-guest source id to be rejected")
	}
}

func TestWishlistAddRequiresProductID(t *testing.T) {
	svc := newTestWishlistService(t, newStubUserRepo(), NewLocalWishlistStore(), time.Now())
	if _, err := svc.Add(context.Background(), "+919876543210", domain.WishlistItem{Name: "No Product"}); err == nil {
		t.Fatal("expected missing product id to be rejected")
	}
}
