package services

import (
	"context"
	"io"
	"time"

	domain "github.com/rudraksha-store/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	User               = domain.User
	UserIdentifier     = domain.UserIdentifier
	Address            = domain.Address
	WishlistItem       = domain.WishlistItem
	Order              = domain.Order
	OrderItem          = domain.OrderItem
	OrderStatus        = domain.OrderStatus
	PaymentStatus      = domain.PaymentStatus
	CustomerInfo       = domain.CustomerInfo
	Discount           = domain.Discount
	DiscountType       = domain.DiscountType
	Notification       = domain.Notification
	Product            = domain.Product
	Category           = domain.Category
	Variant            = domain.Variant
	SystemHealthReport = domain.SystemHealthReport
)

// UserService manages user profiles keyed by canonical phone number, their
// addresses, and their order history links.
type UserService interface {
	CreateOrUpdateUser(ctx context.Context, cmd UpsertUserCommand) (User, error)
	GetUser(ctx context.Context, userID string) (User, error)
	GetUserWithOrders(ctx context.Context, userID string) (UserWithOrders, error)
	AddOrderToUser(ctx context.Context, userID, orderID string) error

	ListAddresses(ctx context.Context, userID string) ([]Address, error)
	AddAddress(ctx context.Context, userID string, address Address) (Address, error)
	UpdateAddress(ctx context.Context, userID string, address Address) (Address, error)
	RemoveAddress(ctx context.Context, userID, addressID string) error
	SetDefaultAddress(ctx context.Context, userID, addressID string) error
}

// UserWithOrders bundles a user with their resolved order history.
type UserWithOrders struct {
	User   User
	Orders []Order
}

// UpsertUserCommand carries a partial user update. Nil slices leave the stored
// arrays untouched so a profile edit cannot wipe addresses or wishlist entries.
type UpsertUserCommand struct {
	UserID    string
	Name      *string
	Email     *string
	Addresses []Address
	Wishlist  []WishlistItem
	OrderIDs  []string
}

// OrderService owns the order lifecycle from checkout through fulfillment and
// gateway payment reconciliation.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	GetOrderByGatewayOrderID(ctx context.Context, gatewayOrderID string) (Order, error)
	GetOrdersByUserID(ctx context.Context, userID string) ([]Order, error)
	ListOrders(ctx context.Context, filter OrderListFilter) ([]Order, error)
	UpdatePaymentStatus(ctx context.Context, cmd PaymentCallbackCommand) (Order, error)
	UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (Order, error)
	CancelOrder(ctx context.Context, cmd CancelOrderCommand) (Order, error)
}

// CreateOrderCommand carries checkout input. Totals are recomputed server side.
type CreateOrderCommand struct {
	UserID       string
	CustomerInfo CustomerInfo
	Items        []OrderItem
	DiscountCode string
}

// OrderListFilter narrows admin order listings.
type OrderListFilter struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Limit         int
}

// PaymentCallbackCommand carries a gateway payment callback. Only the payment
// axis of the order is affected by processing it.
type PaymentCallbackCommand struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	Status           PaymentStatus
	// SourceVerified marks callbacks whose whole payload was already
	// authenticated (server webhooks), skipping the per-payment signature check.
	SourceVerified bool
}

// UpdateOrderStatusCommand moves an order forward through fulfillment.
type UpdateOrderStatusCommand struct {
	OrderID string
	Status  OrderStatus
}

// CancelOrderCommand cancels an order that has not reached a terminal status.
type CancelOrderCommand struct {
	OrderID string
	Reason  string
}

// DiscountService validates and redeems discount codes.
type DiscountService interface {
	CreateDiscount(ctx context.Context, cmd CreateDiscountCommand) (Discount, error)
	ListDiscounts(ctx context.Context) ([]Discount, error)
	DeleteDiscount(ctx context.Context, discountID string) error
	// ValidateCode reports business failures in the result, not as errors.
	ValidateCode(ctx context.Context, code string, subtotal float64) (DiscountValidation, error)
	// UseCode re-validates then atomically consumes one usage.
	UseCode(ctx context.Context, code string) (Discount, error)
}

// CreateDiscountCommand carries admin discount creation input.
type CreateDiscountCommand struct {
	Code       string
	Type       DiscountType
	Amount     float64
	Expiry     time.Time
	UsageLimit int
}

// DiscountValidation is the outcome of checking a code against a subtotal.
type DiscountValidation struct {
	Valid    bool
	Reason   string
	Discount Discount
	Amount   float64
}

// WishlistService keeps per-user wishlists with at most one entry per product.
type WishlistService interface {
	List(ctx context.Context, userID string) ([]WishlistItem, error)
	Add(ctx context.Context, userID string, item WishlistItem) ([]WishlistItem, error)
	Remove(ctx context.Context, userID string, item WishlistItem) error
	RemoveByProductID(ctx context.Context, userID, productID string) error
	// MergeLocal folds a guest wishlist into the signed-in user's list, then clears it.
	MergeLocal(ctx context.Context, guestID, userID string) ([]WishlistItem, error)
}

// WishlistStore abstracts wishlist persistence so guest sessions and signed-in
// users can be served by different backends.
type WishlistStore interface {
	List(ctx context.Context, ownerID string) ([]WishlistItem, error)
	Add(ctx context.Context, ownerID string, item WishlistItem) error
	Remove(ctx context.Context, ownerID string, item WishlistItem) error
	Clear(ctx context.Context, ownerID string) error
}

// NotificationService keeps an append-only event log of order and product
// lifecycle events. Recording never fails the calling flow.
type NotificationService interface {
	Record(ctx context.Context, cmd RecordNotificationCommand)
	ListByUser(ctx context.Context, userID string, limit int) ([]Notification, error)
	ListAll(ctx context.Context, limit int) ([]Notification, error)
}

// RecordNotificationCommand carries a lifecycle event to append to the log.
type RecordNotificationCommand struct {
	Type      string
	UserID    string
	OrderID   string
	ProductID string
	Title     string
	Message   string
	Metadata  map[string]any
}

// NotificationPublisher emits recorded notifications to an event bus.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, notification Notification) (string, error)
}

// CatalogService manages products, categories, and variants, deriving product
// price and stock aggregates from variants where they exist.
type CatalogService interface {
	CreateProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error)
	UpdateProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	GetProduct(ctx context.Context, productID string) (Product, error)
	ListProducts(ctx context.Context, filter ProductListFilter) ([]Product, error)
	UploadProductImage(ctx context.Context, cmd UploadImageCommand) (string, error)

	CreateCategory(ctx context.Context, cmd UpsertCategoryCommand) (Category, error)
	UpdateCategory(ctx context.Context, cmd UpsertCategoryCommand) (Category, error)
	DeleteCategory(ctx context.Context, categoryID string) error
	ListCategories(ctx context.Context) ([]Category, error)

	SetVariants(ctx context.Context, productID string, variants []Variant) (Product, error)
	ListVariants(ctx context.Context, productID string) ([]Variant, error)
}

// ProductListFilter narrows product listings.
type ProductListFilter struct {
	CategoryID string
	Deity      string
	ActiveOnly bool
	Limit      int
}

// UpsertProductCommand carries product create/update input.
type UpsertProductCommand struct {
	ProductID     string
	Name          string
	Deity         string
	Description   string
	CategoryID    string
	Price         float64
	OriginalPrice float64
	Images        []string
	Badge         string
	IsActive      *bool
}

// UpsertCategoryCommand carries category create/update input.
type UpsertCategoryCommand struct {
	CategoryID  string
	Name        string
	Description string
	Image       string
	SortOrder   int
	IsActive    *bool
}

// UploadImageCommand carries an image upload destined for the public bucket.
type UploadImageCommand struct {
	ProductID   string
	CategoryID  string
	FileName    string
	ContentType string
	Body        io.Reader
}

// SystemService aggregates dependency health for readiness probes.
type SystemService interface {
	Health(ctx context.Context) (SystemHealthReport, error)
}
