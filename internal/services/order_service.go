package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	domain "github.com/rudraksha-store/api/internal/domain"
	"github.com/rudraksha-store/api/internal/payments"
	"github.com/rudraksha-store/api/internal/platform/requestctx"
	"github.com/rudraksha-store/api/internal/repositories"
)

var (
	errOrderIDRequired      = errors.New("order: order id is required")
	errOrderNotFound        = errors.New("order: not found")
	errOrderEmptyItems      = errors.New("order: at least one item is required")
	errOrderInvalidItem     = errors.New("order: item quantity and price must be positive")
	errOrderSignature       = errors.New("order: payment signature verification failed")
	errOrderBadTransition   = errors.New("order: invalid status transition")
	errOrderTerminal        = errors.New("order: order is in a terminal status")
	errOrderReasonRequired  = errors.New("order: cancellation reason is required")
	errOrderCallbackPayment = errors.New("order: callback payment status must be completed or failed")
)

var (
	// ErrOrderNotFound indicates no order exists for the id.
	ErrOrderNotFound = errOrderNotFound
	// ErrPaymentSignatureInvalid indicates the gateway callback signature did not verify.
	ErrPaymentSignatureInvalid = errOrderSignature
	// ErrInvalidStatusTransition indicates the fulfillment status move is not allowed.
	ErrInvalidStatusTransition = errOrderBadTransition
	// ErrOrderTerminal indicates the order already reached delivered or cancelled.
	ErrOrderTerminal = errOrderTerminal
)

// orderStateTransitions is the forward fulfillment sequence. Cancellation is
// handled separately and allowed from any non-terminal status.
var orderStateTransitions = map[domain.OrderStatus]domain.OrderStatus{
	domain.OrderStatusPending:    domain.OrderStatusProcessing,
	domain.OrderStatusProcessing: domain.OrderStatusPacked,
	domain.OrderStatusPacked:     domain.OrderStatusShipped,
	domain.OrderStatusShipped:    domain.OrderStatusDelivered,
}

// ShippingPolicy computes the shipping charge for a subtotal.
type ShippingPolicy struct {
	FlatRate          float64
	FreeShippingAbove float64
}

// Cost returns the shipping charge for the subtotal.
func (p ShippingPolicy) Cost(subtotal float64) float64 {
	if p.FreeShippingAbove > 0 && subtotal >= p.FreeShippingAbove {
		return 0
	}
	return p.FlatRate
}

// OrderServiceDeps bundles the dependencies required to construct an order service instance.
type OrderServiceDeps struct {
	Orders        repositories.OrderRepository
	Users         UserService
	Discounts     DiscountService
	Wishlist      WishlistService
	Notifications NotificationService
	Gateway       payments.Provider
	Shipping      ShippingPolicy
	Clock         func() time.Time
	IDGenerator   func() string
}

type orderService struct {
	orders        repositories.OrderRepository
	users         UserService
	discounts     DiscountService
	wishlist      WishlistService
	notifications NotificationService
	gateway       payments.Provider
	shipping      ShippingPolicy
	clock         func() time.Time
	newID         func() string
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Users == nil {
		return nil, errors.New("order service: user service is required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("order service: payment gateway is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string {
			return strings.ToLower(ulid.Make().String())
		}
	}

	return &orderService{
		orders:        deps.Orders,
		users:         deps.Users,
		discounts:     deps.Discounts,
		wishlist:      deps.Wishlist,
		notifications: deps.Notifications,
		gateway:       deps.Gateway,
		shipping:      deps.Shipping,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: newID,
	}, nil
}

// CreateOrder recomputes totals server side, reserves a gateway order, and
// persists the order as pending/pending before linking it to the user.
func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	userID, err := canonicalUserID(cmd.UserID)
	if err != nil {
		return Order{}, err
	}
	if len(cmd.Items) == 0 {
		return Order{}, errOrderEmptyItems
	}
	customer, err := sanitizeCustomerInfo(cmd.CustomerInfo)
	if err != nil {
		return Order{}, err
	}

	items := make([]OrderItem, 0, len(cmd.Items))
	subtotal := 0.0
	for _, item := range cmd.Items {
		if item.Quantity <= 0 || item.Price <= 0 {
			return Order{}, errOrderInvalidItem
		}
		item.TotalPrice = roundMoney(float64(item.Quantity) * item.Price)
		subtotal += item.TotalPrice
		items = append(items, item)
	}
	subtotal = roundMoney(subtotal)

	discountAmount := 0.0
	discountApplied := false
	discountCode := strings.TrimSpace(cmd.DiscountCode)
	if discountCode != "" && s.discounts != nil {
		validation, err := s.discounts.ValidateCode(ctx, discountCode, subtotal)
		if err != nil {
			return Order{}, err
		}
		if !validation.Valid {
			return Order{}, fmt.Errorf("order: discount code rejected: %s", validation.Reason)
		}
		discountAmount = validation.Amount
		discountApplied = true
	}

	now := s.clock()
	shippingCost := s.shipping.Cost(subtotal)
	total := roundMoney(subtotal - discountAmount + shippingCost)
	if total < 0 {
		total = 0
	}

	order := Order{
		ID:            s.newID(),
		UserID:        userID,
		OrderNumber:   generateOrderNumber(now),
		CustomerInfo:  customer,
		Items:         items,
		Subtotal:      subtotal,
		ShippingCost:  shippingCost,
		Total:         total,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		OrderDate:     now,
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, payments.CreateOrderRequest{
		Amount:   order.Total,
		Currency: "INR",
		Receipt:  order.OrderNumber,
		Notes: map[string]string{
			"orderId": order.ID,
			"userId":  order.UserID,
		},
	})
	if err != nil {
		return Order{}, fmt.Errorf("order: create gateway order: %w", err)
	}
	order.RazorpayOrderID = gatewayOrder.ID

	// Consume the redemption only once the gateway accepted the order; an
	// abandoned gateway order is harmless, a burned usage is not.
	if discountApplied {
		if _, err := s.discounts.UseCode(ctx, discountCode); err != nil {
			return Order{}, err
		}
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return Order{}, err
	}

	if err := s.users.AddOrderToUser(ctx, order.UserID, order.ID); err != nil {
		requestctx.Logger(ctx).Warn("order history link failed",
			zap.String("orderId", order.ID),
			zap.Error(err))
	}
	s.record(ctx, RecordNotificationCommand{
		Type:    "new_order",
		UserID:  order.UserID,
		OrderID: order.ID,
		Title:   "New Order Received",
		Message: fmt.Sprintf("Order %s placed for ₹%.2f", order.OrderNumber, order.Total),
		Metadata: map[string]any{
			"orderNumber": order.OrderNumber,
			"total":       order.Total,
		},
	})

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return Order{}, errOrderIDRequired
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return Order{}, errOrderNotFound
		}
		return Order{}, err
	}
	return order, nil
}

func (s *orderService) GetOrderByGatewayOrderID(ctx context.Context, gatewayOrderID string) (Order, error) {
	if strings.TrimSpace(gatewayOrderID) == "" {
		return Order{}, errors.New("order: gateway order id is required")
	}
	order, err := s.orders.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if isNotFound(err) {
			return Order{}, errOrderNotFound
		}
		return Order{}, err
	}
	return order, nil
}

func (s *orderService) GetOrdersByUserID(ctx context.Context, userID string) ([]Order, error) {
	canonical, err := canonicalUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.orders.ListByUser(ctx, canonical)
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) ([]Order, error) {
	return s.orders.List(ctx, repositories.OrderListFilter{
		Status:        filter.Status,
		PaymentStatus: filter.PaymentStatus,
		Limit:         filter.Limit,
	})
}

// UpdatePaymentStatus reconciles a gateway callback. Processing is idempotent
// and touches only the payment axis of the order.
func (s *orderService) UpdatePaymentStatus(ctx context.Context, cmd PaymentCallbackCommand) (Order, error) {
	if cmd.Status != domain.PaymentStatusCompleted && cmd.Status != domain.PaymentStatusFailed {
		return Order{}, errOrderCallbackPayment
	}

	order, err := s.GetOrderByGatewayOrderID(ctx, cmd.GatewayOrderID)
	if err != nil {
		return Order{}, err
	}

	if cmd.Status == domain.PaymentStatusCompleted && !cmd.SourceVerified {
		if !s.gateway.VerifyPaymentSignature(cmd.GatewayOrderID, cmd.GatewayPaymentID, cmd.Signature) {
			return Order{}, errOrderSignature
		}
	}

	// A replayed callback with the same outcome is acknowledged without writes.
	if order.PaymentStatus == cmd.Status &&
		(cmd.GatewayPaymentID == "" || order.RazorpayPaymentID == cmd.GatewayPaymentID) {
		return order, nil
	}
	// Completed payments are final. A late failure callback cannot demote them.
	if order.PaymentStatus == domain.PaymentStatusCompleted {
		return order, nil
	}

	update := repositories.PaymentUpdate{
		PaymentStatus:    cmd.Status,
		GatewayPaymentID: cmd.GatewayPaymentID,
		GatewaySignature: cmd.Signature,
	}
	if cmd.Status == domain.PaymentStatusCompleted {
		paidAt := s.clock()
		update.PaidAt = &paidAt
	}
	if err := s.orders.UpdatePayment(ctx, order.ID, update); err != nil {
		return Order{}, err
	}

	order.PaymentStatus = cmd.Status
	order.RazorpayPaymentID = cmd.GatewayPaymentID
	order.RazorpaySignature = cmd.Signature
	order.PaidAt = update.PaidAt

	if cmd.Status == domain.PaymentStatusCompleted {
		s.prunePurchasedWishlistItems(ctx, order)
		s.record(ctx, RecordNotificationCommand{
			Type:    "payment_completed",
			UserID:  order.UserID,
			OrderID: order.ID,
			Title:   "Payment Received",
			Message: fmt.Sprintf("Payment for order %s confirmed", order.OrderNumber),
			Metadata: map[string]any{
				"orderNumber": order.OrderNumber,
				"paymentId":   cmd.GatewayPaymentID,
			},
		})
	} else {
		s.record(ctx, RecordNotificationCommand{
			Type:    "payment_failed",
			UserID:  order.UserID,
			OrderID: order.ID,
			Title:   "Payment Failed",
			Message: fmt.Sprintf("Payment for order %s failed", order.OrderNumber),
		})
	}

	return order, nil
}

// prunePurchasedWishlistItems removes each purchased product from the buyer's
// wishlist. Failures are isolated per product and never fail the callback.
func (s *orderService) prunePurchasedWishlistItems(ctx context.Context, order Order) {
	if s.wishlist == nil {
		return
	}
	for _, item := range order.Items {
		productID := strings.TrimSpace(item.ProductID)
		if productID == "" {
			continue
		}
		if err := s.wishlist.RemoveByProductID(ctx, order.UserID, productID); err != nil {
			requestctx.Logger(ctx).Warn("wishlist prune failed",
				zap.String("orderId", order.ID),
				zap.String("productId", productID),
				zap.Error(err))
		}
	}
}

func (s *orderService) UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (Order, error) {
	order, err := s.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		return Order{}, err
	}
	if isTerminalStatus(order.Status) {
		return Order{}, errOrderTerminal
	}
	if next, ok := orderStateTransitions[order.Status]; !ok || next != cmd.Status {
		return Order{}, fmt.Errorf("%w: %s -> %s", errOrderBadTransition, order.Status, cmd.Status)
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, cmd.Status, ""); err != nil {
		return Order{}, err
	}
	order.Status = cmd.Status

	s.record(ctx, RecordNotificationCommand{
		Type:    "order_status",
		UserID:  order.UserID,
		OrderID: order.ID,
		Title:   "Order Update",
		Message: fmt.Sprintf("Order %s is now %s", order.OrderNumber, order.Status),
	})
	return order, nil
}

func (s *orderService) CancelOrder(ctx context.Context, cmd CancelOrderCommand) (Order, error) {
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		return Order{}, errOrderReasonRequired
	}

	order, err := s.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		return Order{}, err
	}
	if isTerminalStatus(order.Status) {
		return Order{}, errOrderTerminal
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusCancelled, reason); err != nil {
		return Order{}, err
	}
	order.Status = domain.OrderStatusCancelled
	order.CancellationReason = reason

	s.record(ctx, RecordNotificationCommand{
		Type:    "order_cancelled",
		UserID:  order.UserID,
		OrderID: order.ID,
		Title:   "Order Cancelled",
		Message: fmt.Sprintf("Order %s cancelled: %s", order.OrderNumber, reason),
	})
	return order, nil
}

func (s *orderService) record(ctx context.Context, cmd RecordNotificationCommand) {
	if s.notifications == nil {
		return
	}
	s.notifications.Record(ctx, cmd)
}

// generateOrderNumber derives the customer-facing order number from the
// creation instant: RUD followed by the last 8 digits of the epoch millis.
func generateOrderNumber(now time.Time) string {
	millis := fmt.Sprintf("%d", now.UnixMilli())
	if len(millis) > 8 {
		millis = millis[len(millis)-8:]
	}
	return "RUD" + millis
}

func isTerminalStatus(status domain.OrderStatus) bool {
	return status == domain.OrderStatusDelivered || status == domain.OrderStatusCancelled
}

func sanitizeCustomerInfo(info CustomerInfo) (CustomerInfo, error) {
	sanitized := CustomerInfo{
		Name:    strings.TrimSpace(info.Name),
		Phone:   strings.TrimSpace(info.Phone),
		Email:   strings.ToLower(strings.TrimSpace(info.Email)),
		Address: strings.TrimSpace(info.Address),
		City:    strings.TrimSpace(info.City),
		State:   strings.TrimSpace(info.State),
		Pincode: strings.TrimSpace(info.Pincode),
	}
	if sanitized.Name == "" {
		return CustomerInfo{}, errors.New("order: customer name is required")
	}
	if sanitized.Phone == "" {
		return CustomerInfo{}, errors.New("order: customer phone is required")
	}
	if sanitized.Address == "" {
		return CustomerInfo{}, errors.New("order: customer address is required")
	}
	if !pincodePattern.MatchString(sanitized.Pincode) {
		return CustomerInfo{}, errInvalidPincode
	}
	return sanitized, nil
}

func roundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}
