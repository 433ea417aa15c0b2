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

const maxOrderBodySize = 128 * 1024

// OrderHandlers serves checkout, order history, and the client payment callback.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs order endpoints backed by the order service.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	r.Post("/", h.createOrder)
	r.Get("/", h.listMyOrders)
	r.Post("/payment/callback", h.paymentCallback)
	r.Get("/{orderID}", h.getOrder)
}

type checkoutItemRequest struct {
	ProductID string  `json:"productId"`
	VariantID string  `json:"variantId"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type checkoutRequest struct {
	CustomerInfo struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
		Address string `json:"address"`
		City    string `json:"city"`
		State   string `json:"state"`
		Pincode string `json:"pincode"`
	} `json:"customerInfo"`
	Items        []checkoutItemRequest `json:"items"`
	DiscountCode string                `json:"discountCode"`
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requestIdentity(ctx)
	if !ok {
		writeUnauthenticated(ctx, w)
		return
	}

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req checkoutRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.OrderItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.Name,
			Image:     item.Image,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	order, err := h.orders.CreateOrder(ctx, services.CreateOrderCommand{
		UserID: identity.UserID,
		CustomerInfo: domain.CustomerInfo{
			Name:    req.CustomerInfo.Name,
			Phone:   req.CustomerInfo.Phone,
			Email:   req.CustomerInfo.Email,
			Address: req.CustomerInfo.Address,
			City:    req.CustomerInfo.City,
			State:   req.CustomerInfo.State,
			Pincode: req.CustomerInfo.Pincode,
		},
		Items:        items,
		DiscountCode: req.DiscountCode,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildOrderPayload(order))
}

func (h *OrderHandlers) listMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requestIdentity(ctx)
	if !ok {
		writeUnauthenticated(ctx, w)
		return
	}

	orders, err := h.orders.GetOrdersByUserID(ctx, identity.UserID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	payload := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		payload = append(payload, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requestIdentity(ctx)
	if !ok {
		writeUnauthenticated(ctx, w)
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	// Customers may inspect only their own orders.
	if order.UserID != identity.UserID {
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

type paymentCallbackRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	Status            string `json:"status"`
}

// paymentCallback reconciles the checkout-page payment result. A missing or
// unknown status is treated as completed because the Razorpay success handler
// posts only the id and signature triple.
func (h *OrderHandlers) paymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req paymentCallbackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(req.RazorpayOrderID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "razorpay_order_id is required", http.StatusBadRequest))
		return
	}

	status := domain.PaymentStatusCompleted
	if strings.EqualFold(strings.TrimSpace(req.Status), string(domain.PaymentStatusFailed)) {
		status = domain.PaymentStatusFailed
	}

	order, err := h.orders.UpdatePaymentStatus(ctx, services.PaymentCallbackCommand{
		GatewayOrderID:   req.RazorpayOrderID,
		GatewayPaymentID: req.RazorpayPaymentID,
		Signature:        req.RazorpaySignature,
		Status:           status,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

type orderItemPayload struct {
	ProductID  string  `json:"productId"`
	VariantID  string  `json:"variantId,omitempty"`
	Name       string  `json:"name"`
	Image      string  `json:"image,omitempty"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	TotalPrice float64 `json:"totalPrice"`
}

type customerInfoPayload struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode"`
}

type orderPayload struct {
	ID                 string              `json:"id"`
	OrderNumber        string              `json:"orderNumber"`
	UserID             string              `json:"userId,omitempty"`
	CustomerInfo       customerInfoPayload `json:"customerInfo"`
	Items              []orderItemPayload  `json:"items"`
	Subtotal           float64             `json:"subtotal"`
	ShippingCost       float64             `json:"shippingCost"`
	Total              float64             `json:"total"`
	RazorpayOrderID    string              `json:"razorpayOrderId,omitempty"`
	RazorpayPaymentID  string              `json:"razorpayPaymentId,omitempty"`
	Status             string              `json:"status"`
	PaymentStatus      string              `json:"paymentStatus"`
	OrderDate          string              `json:"orderDate"`
	PaidAt             string              `json:"paidAt,omitempty"`
	CancellationReason string              `json:"cancellationReason,omitempty"`
}

func buildOrderPayload(order domain.Order) orderPayload {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			ProductID:  item.ProductID,
			VariantID:  item.VariantID,
			Name:       item.Name,
			Image:      item.Image,
			Quantity:   item.Quantity,
			Price:      item.Price,
			TotalPrice: item.TotalPrice,
		})
	}
	return orderPayload{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		CustomerInfo: customerInfoPayload{
			Name:    order.CustomerInfo.Name,
			Phone:   order.CustomerInfo.Phone,
			Email:   order.CustomerInfo.Email,
			Address: order.CustomerInfo.Address,
			City:    order.CustomerInfo.City,
			State:   order.CustomerInfo.State,
			Pincode: order.CustomerInfo.Pincode,
		},
		Items:              items,
		Subtotal:           order.Subtotal,
		ShippingCost:       order.ShippingCost,
		Total:              order.Total,
		RazorpayOrderID:    order.RazorpayOrderID,
		RazorpayPaymentID:  order.RazorpayPaymentID,
		Status:             string(order.Status),
		PaymentStatus:      string(order.PaymentStatus),
		OrderDate:          formatTime(order.OrderDate),
		PaidAt:             formatTimePtr(order.PaidAt),
		CancellationReason: order.CancellationReason,
	}
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrPaymentSignatureInvalid):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_signature", "payment signature verification failed", http.StatusBadRequest))
	case errors.Is(err, services.ErrInvalidStatusTransition):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_transition", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderTerminal):
		httpx.WriteError(ctx, w, httpx.NewError("order_terminal", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrInvalidUserID):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_user_id", err.Error(), http.StatusBadRequest))
	case strings.HasPrefix(err.Error(), "order:"):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		writeRepositoryError(ctx, w, err, "order_error")
	}
}
