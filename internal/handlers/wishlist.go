package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/rudraksha-store/api/internal/domain"
	"github.com/rudraksha-store/api/internal/platform/httpx"
	"github.com/rudraksha-store/api/internal/services"
)

const maxWishlistBodySize = 32 * 1024

// WishlistHandlers serves per-user wishlists. Guest sessions use the same
// endpoints; routing to the session-local store happens inside the service.
type WishlistHandlers struct {
	wishlist services.WishlistService
}

// NewWishlistHandlers constructs wishlist endpoints backed by the wishlist service.
func NewWishlistHandlers(wishlist services.WishlistService) *WishlistHandlers {
	return &WishlistHandlers{wishlist: wishlist}
}

// Routes registers the /wishlist endpoints.
func (h *WishlistHandlers) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.add)
	r.Post("/merge", h.merge)
	r.Delete("/{productID}", h.remove)
}

func (h *WishlistHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requestIdentity(ctx)
	if !ok {
		writeUnauthenticated(ctx, w)
		return
	}

	items, err := h.wishlist.List(ctx, identity.UserID)
	if err != nil {
		writeWishlistError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildWishlistPayload(items))
}

type wishlistItemRequest struct {
	ProductID     string  `json:"productId"`
	Name          string  `json:"name"`
	Deity         string  `json:"deity"`
	CategoryName  string  `json:"categoryName"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"originalPrice"`
	Image         string  `json:"image"`
	Badge         string  `json:"badge"`
	HasVariants   bool    `json:"hasVariants"`
}

func (h *WishlistHandlers) add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requestIdentity(ctx)
	if !ok {
		writeUnauthenticated(ctx, w)
		return
	}

	body, err := readLimitedBody(r, maxWishlistBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req wishlistItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	items, err := h.wishlist.Add(ctx, identity.UserID, domain.WishlistItem{
		ProductID:     req.ProductID,
		Name:          req.Name,
		Deity:         req.Deity,
		CategoryName:  req.CategoryName,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Image:         req.Image,
		Badge:         req.Badge,
		HasVariants:   req.HasVariants,
	})
	if err != nil {
		writeWishlistError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildWishlistPayload(items))
}

func (h *WishlistHandlers) remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requestIdentity(ctx)
	if !ok {
		writeUnauthenticated(ctx, w)
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	if err := h.wishlist.RemoveByProductID(ctx, identity.UserID, productID); err != nil {
		writeWishlistError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type mergeWishlistRequest struct {
	GuestID string `json:"guestId"`
}

// merge folds a guest session's wishlist into the signed-in user's list.
func (h *WishlistHandlers) merge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requestIdentity(ctx)
	if !ok || !identity.IsAuthenticated {
		writeUnauthenticated(ctx, w)
		return
	}

	body, err := readLimitedBody(r, maxWishlistBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req mergeWishlistRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	items, err := h.wishlist.MergeLocal(ctx, req.GuestID, identity.UserID)
	if err != nil {
		writeWishlistError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildWishlistPayload(items))
}

type wishlistItemPayload struct {
	ID            string  `json:"id"`
	ProductID     string  `json:"productId"`
	Name          string  `json:"name"`
	Deity         string  `json:"deity,omitempty"`
	CategoryName  string  `json:"categoryName,omitempty"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"originalPrice,omitempty"`
	Image         string  `json:"image,omitempty"`
	Badge         string  `json:"badge,omitempty"`
	HasVariants   bool    `json:"hasVariants"`
	AddedAt       string  `json:"addedAt,omitempty"`
}

func buildWishlistPayload(items []domain.WishlistItem) []wishlistItemPayload {
	payload := make([]wishlistItemPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, wishlistItemPayload{
			ID:            item.ID,
			ProductID:     item.ProductID,
			Name:          item.Name,
			Deity:         item.Deity,
			CategoryName:  item.CategoryName,
			Price:         item.Price,
			OriginalPrice: item.OriginalPrice,
			Image:         item.Image,
			Badge:         item.Badge,
			HasVariants:   item.HasVariants,
			AddedAt:       formatTime(item.AddedAt),
		})
	}
	return payload
}

func writeWishlistError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if strings.HasPrefix(err.Error(), "wishlist:") {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	writeRepositoryError(ctx, w, err, "wishlist_error")
}
