package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// CursorPage wraps a page of results with the token required to fetch the next page.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// UserIdentifier is the derived identity attached to every request. For authenticated
// sessions UserID always equals the verified phone number; guests carry a generated
// pseudo-unique id instead.
type UserIdentifier struct {
	PhoneNumber     string
	UserID          string
	IsAuthenticated bool
}

// AddressType enumerates the supported address labels.
type AddressType string

const (
	// AddressTypeHome marks a residential address.
	AddressTypeHome AddressType = "home"
	// AddressTypeOffice marks a workplace address.
	AddressTypeOffice AddressType = "office"
	// AddressTypeOther marks a custom-labelled address.
	AddressTypeOther AddressType = "other"
)

// Address is embedded in the user document's address list.
type Address struct {
	ID                string
	Name              string
	Phone             string
	DoorNo            string
	City              string
	Pincode           string
	Landmark          string
	AddressType       AddressType
	CustomAddressName string
	IsDefault         bool
}

// WishlistItem is embedded in the user document for authenticated users, or held in
// the local guest store otherwise. At most one entry exists per ProductID.
type WishlistItem struct {
	ID            string
	ProductID     string
	Name          string
	Deity         string
	CategoryName  string
	Price         float64
	OriginalPrice float64
	Image         string
	Badge         string
	HasVariants   bool
	AddedAt       time.Time
}

// User is the document stored under the canonical phone number key.
type User struct {
	Name        string
	Email       string
	PhoneNumber string
	Addresses   []Address
	OrderIDs    []string
	Wishlist    []WishlistItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderStatus enumerates fulfillment states driven by admin actions.
type OrderStatus string

const (
	// OrderStatusPending indicates the order has been created but not yet processed.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing indicates the order is being prepared.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusPacked indicates the order is packed and awaiting dispatch.
	OrderStatusPacked OrderStatus = "packed"
	// OrderStatusShipped indicates the order has left the warehouse.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered indicates the order reached the customer.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled indicates the order was cancelled before completion.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus enumerates payment states driven exclusively by gateway callbacks.
type PaymentStatus string

const (
	// PaymentStatusPending indicates payment has not yet been confirmed.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusCompleted indicates the gateway confirmed the payment.
	PaymentStatusCompleted PaymentStatus = "completed"
	// PaymentStatusFailed indicates the gateway reported a failure.
	PaymentStatusFailed PaymentStatus = "failed"
	// PaymentStatusRefunded indicates the payment was returned to the customer.
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// CustomerInfo is a snapshot of contact and shipping fields copied at order-creation
// time. It is intentionally decoupled from later edits to the live address book.
type CustomerInfo struct {
	Name    string
	Phone   string
	Email   string
	Address string
	City    string
	State   string
	Pincode string
}

// OrderItem is a line item priced at order-creation time.
type OrderItem struct {
	ProductID  string
	VariantID  string
	Name       string
	Image      string
	Quantity   int
	Price      float64
	Discount   float64
	TotalPrice float64
}

// Order is the persisted order document. Status and PaymentStatus are independent
// axes: gateway callbacks only ever touch the payment axis.
type Order struct {
	ID                 string
	UserID             string
	OrderNumber        string
	CustomerInfo       CustomerInfo
	Items              []OrderItem
	Subtotal           float64
	ShippingCost       float64
	Total              float64
	RazorpayOrderID    string
	RazorpayPaymentID  string
	RazorpaySignature  string
	Status             OrderStatus
	PaymentStatus      PaymentStatus
	OrderDate          time.Time
	PaidAt             *time.Time
	CancellationReason string
}

// DiscountType enumerates how a discount amount is applied.
type DiscountType string

const (
	// DiscountTypePercentage applies amount as a percentage of the subtotal.
	DiscountTypePercentage DiscountType = "percentage"
	// DiscountTypeFixed subtracts amount directly, clamped to the subtotal.
	DiscountTypeFixed DiscountType = "fixed"
)

// Discount is a promotional code. Codes are stored uppercase.
type Discount struct {
	ID         string
	Code       string
	Type       DiscountType
	Amount     float64
	Expiry     time.Time
	UsageLimit int
	UsedCount  int
	CreatedAt  time.Time
}

// Notification is an append-only audit record of order and product lifecycle events.
type Notification struct {
	ID        string
	Type      string
	UserID    string
	OrderID   string
	ProductID string
	Title     string
	Message   string
	Metadata  map[string]any
	CreatedAt time.Time
}

// Variant carries per-size stock and pricing for a product.
type Variant struct {
	ID            string
	ProductID     string
	Size          string
	Price         float64
	OriginalPrice float64
	Stock         int
	SKU           string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Product is a catalog entry. Price and TotalStock are derived from variants when
// variants exist.
type Product struct {
	ID            string
	Name          string
	Deity         string
	Description   string
	CategoryID    string
	CategoryName  string
	Price         float64
	OriginalPrice float64
	Images        []string
	Badge         string
	HasVariants   bool
	TotalStock    int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Category groups products for storefront navigation.
type Category struct {
	ID          string
	Name        string
	Description string
	Image       string
	SortOrder   int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SystemHealthReport summarises downstream dependency status for readiness probes.
type SystemHealthReport struct {
	Healthy    bool
	Components map[string]ComponentHealth
	CheckedAt  time.Time
}

// ComponentHealth captures the status of a single dependency.
type ComponentHealth struct {
	Healthy bool
	Detail  string
	Latency time.Duration
}
