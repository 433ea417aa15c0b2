package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rudraksha-store/api/internal/repositories"
)

var (
	errWishlistProductID = errors.New("wishlist: product id is required")
	errWishlistOwner     = errors.New("wishlist: owner id is required")
)

// WishlistServiceDeps bundles the dependencies required to construct a wishlist service instance.
type WishlistServiceDeps struct {
	// Users backs the store for signed-in users' wishlists.
	Users repositories.UserRepository
	// Local backs guest wishlists. Defaults to an in-process store.
	Local WishlistStore
	Clock func() time.Time
}

type wishlistService struct {
	persistent WishlistStore
	local      WishlistStore
	clock      func() time.Time
}

// NewWishlistService wires dependencies into a concrete WishlistService
// implementation. Guest ids are routed to the local store, phone-keyed ids to
// the user-document store.
func NewWishlistService(deps WishlistServiceDeps) (WishlistService, error) {
	if deps.Users == nil {
		return nil, errors.New("wishlist service: user repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	local := deps.Local
	if local == nil {
		local = NewLocalWishlistStore()
	}

	return &wishlistService{
		persistent: &userWishlistStore{users: deps.Users},
		local:      local,
		clock: func() time.Time {
			return clock().UTC()
		},
	}, nil
}

func (s *wishlistService) storeFor(ownerID string) WishlistStore {
	if strings.HasPrefix(ownerID, "guest_") {
		return s.local
	}
	return s.persistent
}

func (s *wishlistService) List(ctx context.Context, userID string) ([]WishlistItem, error) {
	ownerID, err := wishlistOwner(userID)
	if err != nil {
		return nil, err
	}
	return s.storeFor(ownerID).List(ctx, ownerID)
}

// Add appends the item unless an entry for the product already exists. Adding
// the same product twice is a no-op, not an error.
func (s *wishlistService) Add(ctx context.Context, userID string, item WishlistItem) ([]WishlistItem, error) {
	ownerID, err := wishlistOwner(userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(item.ProductID) == "" {
		return nil, errWishlistProductID
	}

	store := s.storeFor(ownerID)
	items, err := store.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, existing := range items {
		if existing.ProductID == item.ProductID {
			return items, nil
		}
	}

	normalized := normalizeWishlistItem(item, s.clock())
	if err := store.Add(ctx, ownerID, normalized); err != nil {
		return nil, err
	}
	return append(items, normalized), nil
}

func (s *wishlistService) Remove(ctx context.Context, userID string, item WishlistItem) error {
	ownerID, err := wishlistOwner(userID)
	if err != nil {
		return err
	}
	return s.storeFor(ownerID).Remove(ctx, ownerID, item)
}

// RemoveByProductID drops the entry for the product. Absence is a no-op.
func (s *wishlistService) RemoveByProductID(ctx context.Context, userID, productID string) error {
	ownerID, err := wishlistOwner(userID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(productID) == "" {
		return errWishlistProductID
	}

	store := s.storeFor(ownerID)
	items, err := store.List(ctx, ownerID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.ProductID == productID {
			return store.Remove(ctx, ownerID, item)
		}
	}
	return nil
}

// MergeLocal folds the guest wishlist into the signed-in user's list,
// skipping products already present, then clears the guest list.
func (s *wishlistService) MergeLocal(ctx context.Context, guestID, userID string) ([]WishlistItem, error) {
	guest := strings.TrimSpace(guestID)
	if !strings.HasPrefix(guest, "guest_") {
		return nil, errors.New("wishlist: guest id is required")
	}
	ownerID, err := wishlistOwner(userID)
	if err != nil {
		return nil, err
	}

	guestItems, err := s.local.List(ctx, guest)
	if err != nil {
		return nil, err
	}

	target := s.storeFor(ownerID)
	items, err := target.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(items))
	for _, item := range items {
		present[item.ProductID] = struct{}{}
	}

	for _, item := range guestItems {
		if _, ok := present[item.ProductID]; ok {
			continue
		}
		normalized := normalizeWishlistItem(item, s.clock())
		if err := target.Add(ctx, ownerID, normalized); err != nil {
			return nil, err
		}
		items = append(items, normalized)
		present[item.ProductID] = struct{}{}
	}

	if err := s.local.Clear(ctx, guest); err != nil {
		return nil, err
	}
	return items, nil
}

func wishlistOwner(userID string) (string, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return "", errWishlistOwner
	}
	if strings.HasPrefix(trimmed, "guest_") {
		return trimmed, nil
	}
	return canonicalUserID(trimmed)
}

// normalizeWishlistItem trims every field before persistence so array removal
// by whole-item equality matches reliably.
func normalizeWishlistItem(item WishlistItem, now time.Time) WishlistItem {
	normalized := WishlistItem{
		ID:            strings.TrimSpace(item.ID),
		ProductID:     strings.TrimSpace(item.ProductID),
		Name:          strings.TrimSpace(item.Name),
		Deity:         strings.TrimSpace(item.Deity),
		CategoryName:  strings.TrimSpace(item.CategoryName),
		Price:         item.Price,
		OriginalPrice: item.OriginalPrice,
		Image:         strings.TrimSpace(item.Image),
		Badge:         strings.TrimSpace(item.Badge),
		HasVariants:   item.HasVariants,
		AddedAt:       item.AddedAt,
	}
	if normalized.ID == "" {
		normalized.ID = normalized.ProductID
	}
	if normalized.AddedAt.IsZero() {
		normalized.AddedAt = now
	}
	return normalized
}

// userWishlistStore keeps wishlist items embedded in the user document.
type userWishlistStore struct {
	users repositories.UserRepository
}

func (s *userWishlistStore) List(ctx context.Context, ownerID string) ([]WishlistItem, error) {
	user, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return user.Wishlist, nil
}

func (s *userWishlistStore) Add(ctx context.Context, ownerID string, item WishlistItem) error {
	err := s.users.AddWishlistItem(ctx, ownerID, item)
	if err == nil || !isNotFound(err) {
		return err
	}

	// First wishlist write for a user with no document yet.
	seed := User{
		PhoneNumber: ownerID,
		Wishlist:    []WishlistItem{item},
		CreatedAt:   item.AddedAt,
		UpdatedAt:   item.AddedAt,
	}
	return s.users.Save(ctx, seed)
}

func (s *userWishlistStore) Remove(ctx context.Context, ownerID string, item WishlistItem) error {
	err := s.users.RemoveWishlistItem(ctx, ownerID, item)
	if isNotFound(err) {
		return nil
	}
	return err
}

func (s *userWishlistStore) Clear(ctx context.Context, ownerID string) error {
	err := s.users.SetWishlist(ctx, ownerID, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}

// LocalWishlistStore keeps guest wishlists in process memory. Entries live only
// as long as the server instance.
type LocalWishlistStore struct {
	mu    sync.RWMutex
	lists map[string][]WishlistItem
}

// NewLocalWishlistStore constructs an empty in-process wishlist store.
func NewLocalWishlistStore() *LocalWishlistStore {
	return &LocalWishlistStore{lists: make(map[string][]WishlistItem)}
}

func (s *LocalWishlistStore) List(_ context.Context, ownerID string) ([]WishlistItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]WishlistItem(nil), s.lists[ownerID]...), nil
}

func (s *LocalWishlistStore) Add(_ context.Context, ownerID string, item WishlistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[ownerID] = append(s.lists[ownerID], item)
	return nil
}

func (s *LocalWishlistStore) Remove(_ context.Context, ownerID string, item WishlistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.lists[ownerID]
	remaining := items[:0]
	for _, existing := range items {
		if existing != item {
			remaining = append(remaining, existing)
		}
	}
	s.lists[ownerID] = remaining
	return nil
}

func (s *LocalWishlistStore) Clear(_ context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lists, ownerID)
	return nil
}

var (
	_ WishlistStore = (*userWishlistStore)(nil)
	_ WishlistStore = (*LocalWishlistStore)(nil)
)
