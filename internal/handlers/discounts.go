package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rudraksha-store/api/internal/platform/httpx"
	"github.com/rudraksha-store/api/internal/services"
)

const maxDiscountBodySize = 8 * 1024

// DiscountHandlers serves discount code validation for the checkout page.
type DiscountHandlers struct {
	discounts services.DiscountService
}

// NewDiscountHandlers constructs discount validation endpoints.
func NewDiscountHandlers(discounts services.DiscountService) *DiscountHandlers {
	return &DiscountHandlers{discounts: discounts}
}

// Routes registers the /discounts endpoints.
func (h *DiscountHandlers) Routes(r chi.Router) {
	r.Post("/validate", h.validate)
}

type validateDiscountRequest struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
}

type validateDiscountResponse struct {
	Valid  bool    `json:"valid"`
	Reason string  `json:"reason,omitempty"`
	Code   string  `json:"code,omitempty"`
	Type   string  `json:"type,omitempty"`
	Amount float64 `json:"amount"`
}

// validate reports whether a code applies to the given subtotal. Business
// rejections (unknown, expired, exhausted) come back as 200 with valid=false
// so the checkout page can show the reason inline.
func (h *DiscountHandlers) validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxDiscountBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req validateDiscountRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "code is required", http.StatusBadRequest))
		return
	}

	result, err := h.discounts.ValidateCode(ctx, req.Code, req.Subtotal)
	if err != nil {
		writeRepositoryError(ctx, w, err, "discount_error")
		return
	}

	resp := validateDiscountResponse{
		Valid:  result.Valid,
		Reason: result.Reason,
		Amount: result.Amount,
	}
	if result.Valid {
		resp.Code = result.Discount.Code
		resp.Type = string(result.Discount.Type)
	}
	writeJSONResponse(w, http.StatusOK, resp)
}
