package payments

import (
	"context"
	"errors"
	"time"
)

// ErrGatewayUnavailable indicates the payment gateway rejected or never received the request.
var ErrGatewayUnavailable = errors.New("payments: gateway unavailable")

// Logger defines the logging contract for gateway operations.
type Logger func(ctx context.Context, event string, fields map[string]any)

// CreateOrderRequest captures the payload required to open a gateway order
// before the customer is handed to the payment widget.
type CreateOrderRequest struct {
	// Amount is the order total in rupees. Providers convert to the
	// gateway's minor unit themselves.
	Amount   float64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// GatewayOrder represents the gateway-side order the client completes payment against.
type GatewayOrder struct {
	ID        string
	Amount    int64
	Currency  string
	Status    string
	CreatedAt time.Time
	Raw       map[string]any
}

// Provider defines the contract payment gateway adapters implement.
type Provider interface {
	// CreateOrder opens a gateway order and returns its identifier for the checkout page.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (GatewayOrder, error)
	// VerifyPaymentSignature reports whether a checkout callback is authentic.
	VerifyPaymentSignature(gatewayOrderID, paymentID, signature string) bool
	// VerifyWebhookSignature reports whether a server-to-server webhook payload is authentic.
	VerifyWebhookSignature(body []byte, signature string) bool
}
