package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/rudraksha-store/api/internal/domain"
	"github.com/rudraksha-store/api/internal/platform/httpx"
	"github.com/rudraksha-store/api/internal/services"
)

const maxProfileBodySize = 64 * 1024

// MeHandlers serves the signed-in user's profile, addresses, and order history.
type MeHandlers struct {
	users services.UserService
}

// NewMeHandlers constructs profile endpoints backed by the user service.
func NewMeHandlers(users services.UserService) *MeHandlers {
	return &MeHandlers{users: users}
}

// Routes registers the /me endpoints.
func (h *MeHandlers) Routes(r chi.Router) {
	r.Get("/", h.getProfile)
	r.Put("/", h.updateProfile)
	r.Route("/addresses", func(r chi.Router) {
		r.Get("/", h.listAddresses)
		r.Post("/", h.createAddress)
		r.Route("/{addressID}", func(r chi.Router) {
			r.Put("/", h.updateAddress)
			r.Delete("/", h.deleteAddress)
			r.Post("/default", h.setDefaultAddress)
		})
	})
}

func (h *MeHandlers) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requestIdentity(ctx)
	if !ok {
		writeUnauthenticated(ctx, w)
		return
	}

	result, err := h.users.GetUserWithOrders(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			// First visit after sign-in: return an empty profile instead of 404
			// so the storefront can render without a separate create call.
			writeJSONResponse(w, http.StatusOK, buildProfilePayload(domain.User{PhoneNumber: identity.UserID}, nil))
			return
		}
		writeProfileError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildProfilePayload(result.User, result.Orders))
}

func (h *MeHandlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requestIdentity(ctx)
	if !ok {
		writeUnauthenticated(ctx, w)
		return
	}

	body, err := readLimitedBody(r, maxProfileBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}
	if req.Name == nil && req.Email == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "no editable fields provided", http.StatusBadRequest))
		return
	}

	user, err := h.users.CreateOrUpdateUser(ctx, services.UpsertUserCommand{
		UserID: identity.UserID,
		Name:   req.Name,
		Email:  req.Email,
	})
	if err != nil {
		writeProfileError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildProfilePayload(user, nil))
}

func (h *MeHandlers) listAddresses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requestIdentity(ctx)
	if !ok {
		writeUnauthenticated(ctx, w)
		return
	}

	addresses, err := h.users.ListAddresses(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSONResponse(w, http.StatusOK, []addressPayload{})
			return
		}
		writeProfileError(ctx, w, err)
		return
	}

	payload := make([]addressPayload, 0, len(addresses))
	for _, addr := range addresses {
		payload = append(payload, buildAddressPayload(addr))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *MeHandlers) createAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requestIdentity(ctx)
	if !ok {
		writeUnauthenticated(ctx, w)
		return
	}

	address, err := decodeAddressRequest(r)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	saved, err := h.users.AddAddress(ctx, identity.UserID, address)
	if err != nil {
		writeProfileError(ctx, w, err)
		return
	}

	w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+saved.ID)
	writeJSONResponse(w, http.StatusCreated, buildAddressPayload(saved))
}

func (h *MeHandlers) updateAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requestIdentity(ctx)
	if !ok {
		writeUnauthenticated(ctx, w)
		return
	}

	addressID := strings.TrimSpace(chi.URLParam(r, "addressID"))
	if addressID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "address id is required", http.StatusBadRequest))
		return
	}

	address, err := decodeAddressRequest(r)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	address.ID = addressID

	saved, err := h.users.UpdateAddress(ctx, identity.UserID, address)
	if err != nil {
		writeProfileError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildAddressPayload(saved))
}

func (h *MeHandlers) deleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requestIdentity(ctx)
	if !ok {
		writeUnauthenticated(ctx, w)
		return
	}

	addressID := strings.TrimSpace(chi.URLParam(r, "addressID"))
	if addressID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "address id is required", http.StatusBadRequest))
		return
	}

	if err := h.users.RemoveAddress(ctx, identity.UserID, addressID); err != nil {
		writeProfileError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MeHandlers) setDefaultAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requestIdentity(ctx)
	if !ok {
		writeUnauthenticated(ctx, w)
		return
	}

	addressID := strings.TrimSpace(chi.URLParam(r, "addressID"))
	if addressID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "address id is required", http.StatusBadRequest))
		return
	}

	if err := h.users.SetDefaultAddress(ctx, identity.UserID, addressID); err != nil {
		writeProfileError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addressRequest struct {
	Name              string `json:"name"`
	Phone             string `json:"phone"`
	DoorNo            string `json:"doorNo"`
	City              string `json:"city"`
	Pincode           string `json:"pincode"`
	Landmark          string `json:"landmark"`
	AddressType       string `json:"addressType"`
	CustomAddressName string `json:"customAddressName"`
	IsDefault         bool   `json:"isDefault"`
}

func decodeAddressRequest(r *http.Request) (domain.Address, error) {
	body, err := readLimitedBody(r, maxProfileBodySize)
	if err != nil {
		return domain.Address{}, err
	}
	var req addressRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return domain.Address{}, errors.New("invalid JSON payload")
	}
	return domain.Address{
		Name:              req.Name,
		Phone:             req.Phone,
		DoorNo:            req.DoorNo,
		City:              req.City,
		Pincode:           req.Pincode,
		Landmark:          req.Landmark,
		AddressType:       domain.AddressType(strings.ToLower(strings.TrimSpace(req.AddressType))),
		CustomAddressName: req.CustomAddressName,
		IsDefault:         req.IsDefault,
	}, nil
}

type addressPayload struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Phone             string `json:"phone,omitempty"`
	DoorNo            string `json:"doorNo"`
	City              string `json:"city,omitempty"`
	Pincode           string `json:"pincode"`
	Landmark          string `json:"landmark,omitempty"`
	AddressType       string `json:"addressType"`
	CustomAddressName string `json:"customAddressName,omitempty"`
	IsDefault         bool   `json:"isDefault"`
}

func buildAddressPayload(addr domain.Address) addressPayload {
	return addressPayload{
		ID:                addr.ID,
		Name:              addr.Name,
		Phone:             addr.Phone,
		DoorNo:            addr.DoorNo,
		City:              addr.City,
		Pincode:           addr.Pincode,
		Landmark:          addr.Landmark,
		AddressType:       string(addr.AddressType),
		CustomAddressName: addr.CustomAddressName,
		IsDefault:         addr.IsDefault,
	}
}

type profilePayload struct {
	PhoneNumber string           `json:"phoneNumber"`
	Name        string           `json:"name,omitempty"`
	Email       string           `json:"email,omitempty"`
	Addresses   []addressPayload `json:"addresses"`
	Orders      []orderPayload   `json:"orders,omitempty"`
	CreatedAt   string           `json:"createdAt,omitempty"`
	UpdatedAt   string           `json:"updatedAt,omitempty"`
}

func buildProfilePayload(user domain.User, orders []domain.Order) profilePayload {
	addresses := make([]addressPayload, 0, len(user.Addresses))
	for _, addr := range user.Addresses {
		addresses = append(addresses, buildAddressPayload(addr))
	}
	payload := profilePayload{
		PhoneNumber: user.PhoneNumber,
		Name:        user.Name,
		Email:       user.Email,
		Addresses:   addresses,
		CreatedAt:   formatTime(user.CreatedAt),
		UpdatedAt:   formatTime(user.UpdatedAt),
	}
	for _, order := range orders {
		payload.Orders = append(payload.Orders, buildOrderPayload(order))
	}
	return payload
}

func writeProfileError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "user not found", http.StatusNotFound))
	case errors.Is(err, services.ErrInvalidUserID):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_user_id", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrAddressNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("address_not_found", "address not found", http.StatusNotFound))
	case strings.HasPrefix(err.Error(), "user:"):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		writeRepositoryError(ctx, w, err, "profile_error")
	}
}
