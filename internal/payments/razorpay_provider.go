package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
)

type razorpayOrderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayProviderConfig configures the RazorpayProvider.
type RazorpayProviderConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string
	Logger        Logger
	Clock         func() time.Time

	// Orders overrides the order API, primarily for tests.
	Orders razorpayOrderAPI
}

// RazorpayProvider implements Provider against the Razorpay Orders API.
type RazorpayProvider struct {
	orders        razorpayOrderAPI
	keySecret     string
	webhookSecret string
	currency      string
	clock         func() time.Time
	logger        Logger
}

// NewRazorpayProvider constructs a Razorpay-backed Provider.
func NewRazorpayProvider(cfg RazorpayProviderConfig) (*RazorpayProvider, error) {
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errors.New("razorpay: key secret is required")
	}

	orders := cfg.Orders
	if orders == nil {
		keyID := strings.TrimSpace(cfg.KeyID)
		if keyID == "" {
			return nil, errors.New("razorpay: key id is required")
		}
		orders = razorpay.NewClient(keyID, keySecret).Order
	}

	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "INR"
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &RazorpayProvider{
		orders:        orders,
		keySecret:     keySecret,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		currency:      currency,
		clock:         clock,
		logger:        logger,
	}, nil
}

// CreateOrder opens a gateway order for the given amount in rupees.
func (p *RazorpayProvider) CreateOrder(ctx context.Context, req CreateOrderRequest) (GatewayOrder, error) {
	if p == nil || p.orders == nil {
		return GatewayOrder{}, errors.New("razorpay: provider is not initialised")
	}
	if req.Amount <= 0 {
		return GatewayOrder{}, fmt.Errorf("razorpay: invalid order amount %v", req.Amount)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = p.currency
	}

	paise := int64(math.Round(req.Amount * 100))
	data := map[string]interface{}{
		"amount":   paise,
		"currency": currency,
	}
	if receipt := strings.TrimSpace(req.Receipt); receipt != "" {
		data["receipt"] = receipt
	}
	if len(req.Notes) > 0 {
		notes := make(map[string]interface{}, len(req.Notes))
		for k, v := range req.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	resp, err := p.orders.Create(data, nil)
	if err != nil {
		p.logger(ctx, "razorpay.order.create_failed", map[string]any{
			"receipt": req.Receipt,
			"error":   err.Error(),
		})
		return GatewayOrder{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	order := GatewayOrder{
		ID:        stringField(resp, "id"),
		Amount:    int64Field(resp, "amount"),
		Currency:  stringField(resp, "currency"),
		Status:    stringField(resp, "status"),
		CreatedAt: p.clock(),
		Raw:       resp,
	}
	if order.ID == "" {
		return GatewayOrder{}, errors.New("razorpay: response missing order id")
	}

	p.logger(ctx, "razorpay.order.created", map[string]any{
		"gateway_order_id": order.ID,
		"amount":           order.Amount,
		"currency":         order.Currency,
	})
	return order, nil
}

// VerifyPaymentSignature checks the checkout callback signature against the key secret.
func (p *RazorpayProvider) VerifyPaymentSignature(gatewayOrderID, paymentID, signature string) bool {
	if p == nil || gatewayOrderID == "" || paymentID == "" {
		return false
	}
	payload := PaymentSignaturePayload(gatewayOrderID, paymentID)
	return VerifyHMACSignature([]byte(payload), signature, p.keySecret)
}

// VerifyWebhookSignature checks a webhook body signature against the webhook secret.
func (p *RazorpayProvider) VerifyWebhookSignature(body []byte, signature string) bool {
	if p == nil || len(body) == 0 {
		return false
	}
	return VerifyHMACSignature(body, signature, p.webhookSecret)
}

func stringField(m map[string]interface{}, key string) string {
	v, _ := m[key].(string)
	return v
}

func int64Field(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
