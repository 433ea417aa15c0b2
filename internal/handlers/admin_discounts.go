package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/rudraksha-store/api/internal/domain"
	"github.com/rudraksha-store/api/internal/platform/httpx"
	"github.com/rudraksha-store/api/internal/services"
)

// AdminDiscountHandlers serves back-office discount code management.
type AdminDiscountHandlers struct {
	discounts services.DiscountService
}

// NewAdminDiscountHandlers constructs admin discount endpoints.
func NewAdminDiscountHandlers(discounts services.DiscountService) *AdminDiscountHandlers {
	return &AdminDiscountHandlers{discounts: discounts}
}

// Routes registers discount management endpoints under /admin.
func (h *AdminDiscountHandlers) Routes(r chi.Router) {
	r.Route("/discounts", func(r chi.Router) {
		r.Get("/", h.listDiscounts)
		r.Post("/", h.createDiscount)
		r.Delete("/{discountID}", h.deleteDiscount)
	})
}

type createDiscountRequest struct {
	Code       string    `json:"code"`
	Type       string    `json:"type"`
	Amount     float64   `json:"amount"`
	Expiry     time.Time `json:"expiry"`
	UsageLimit int       `json:"usageLimit"`
}

type discountPayload struct {
	ID         string  `json:"id"`
	Code       string  `json:"code"`
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`
	Expiry     string  `json:"expiry"`
	UsageLimit int     `json:"usageLimit"`
	UsedCount  int     `json:"usedCount"`
	CreatedAt  string  `json:"createdAt,omitempty"`
}

func (h *AdminDiscountHandlers) listDiscounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	discounts, err := h.discounts.ListDiscounts(ctx)
	if err != nil {
		writeDiscountAdminError(ctx, w, err)
		return
	}
	payload := make([]discountPayload, 0, len(discounts))
	for _, discount := range discounts {
		payload = append(payload, buildDiscountPayload(discount))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *AdminDiscountHandlers) createDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, defaultBodyLimit)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req createDiscountRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	discount, err := h.discounts.CreateDiscount(ctx, services.CreateDiscountCommand{
		Code:       req.Code,
		Type:       domain.DiscountType(strings.ToLower(strings.TrimSpace(req.Type))),
		Amount:     req.Amount,
		Expiry:     req.Expiry,
		UsageLimit: req.UsageLimit,
	})
	if err != nil {
		writeDiscountAdminError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildDiscountPayload(discount))
}

func (h *AdminDiscountHandlers) deleteDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	discountID := strings.TrimSpace(chi.URLParam(r, "discountID"))

	if err := h.discounts.DeleteDiscount(ctx, discountID); err != nil {
		writeDiscountAdminError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func buildDiscountPayload(discount domain.Discount) discountPayload {
	return discountPayload{
		ID:         discount.ID,
		Code:       discount.Code,
		Type:       string(discount.Type),
		Amount:     discount.Amount,
		Expiry:     formatTime(discount.Expiry),
		UsageLimit: discount.UsageLimit,
		UsedCount:  discount.UsedCount,
		CreatedAt:  formatTime(discount.CreatedAt),
	}
}

func writeDiscountAdminError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrDiscountNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("discount_not_found", "discount not found", http.StatusNotFound))
	case errors.Is(err, services.ErrDiscountExhausted):
		httpx.WriteError(ctx, w, httpx.NewError("discount_exhausted", "discount usage limit reached", http.StatusConflict))
	case strings.HasPrefix(err.Error(), "discount:"):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", strings.TrimSpace(strings.TrimPrefix(err.Error(), "discount:")), http.StatusBadRequest))
	default:
		writeRepositoryError(ctx, w, err, "discount_error")
	}
}
