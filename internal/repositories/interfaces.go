package repositories

import (
	"context"
	"time"

	domain "github.com/rudraksha-store/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Users() UserRepository
	Orders() OrderRepository
	Discounts() DiscountRepository
	Notifications() NotificationRepository
	Catalog() CatalogRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository persists user documents keyed by canonical phone number.
type UserRepository interface {
	FindByID(ctx context.Context, userID string) (domain.User, error)
	Save(ctx context.Context, user domain.User) error
	SetAddresses(ctx context.Context, userID string, addresses []domain.Address) error
	SetWishlist(ctx context.Context, userID string, items []domain.WishlistItem) error
	// AppendOrderID adds the order id to the user's history without duplicates.
	AppendOrderID(ctx context.Context, userID, orderID string) error
	// AddWishlistItem appends the item if no equal item is already present.
	AddWishlistItem(ctx context.Context, userID string, item domain.WishlistItem) error
	// RemoveWishlistItem deletes entries equal to the given item across all fields.
	RemoveWishlistItem(ctx context.Context, userID string, item domain.WishlistItem) error
}

// OrderListFilter narrows admin order listings.
type OrderListFilter struct {
	Status        domain.OrderStatus
	PaymentStatus domain.PaymentStatus
	Limit         int
}

// OrderRepository persists orders and supports gateway reconciliation lookups.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (domain.Order, error)
	// ListByUser returns the user's orders newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
	UpdatePayment(ctx context.Context, orderID string, update PaymentUpdate) error
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, cancellationReason string) error
}

// PaymentUpdate captures the reconciliation fields written by a gateway callback.
type PaymentUpdate struct {
	PaymentStatus    domain.PaymentStatus
	GatewayPaymentID string
	GatewaySignature string
	PaidAt           *time.Time
}

// DiscountRepository persists discount codes.
type DiscountRepository interface {
	Insert(ctx context.Context, discount domain.Discount) error
	FindByCode(ctx context.Context, code string) (domain.Discount, error)
	List(ctx context.Context) ([]domain.Discount, error)
	Delete(ctx context.Context, discountID string) error
	// IncrementUsage atomically bumps usedCount, failing when the usage limit is reached.
	IncrementUsage(ctx context.Context, discountID string) error
}

// NotificationRepository records back-office notification entries.
type NotificationRepository interface {
	Insert(ctx context.Context, notification domain.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	List(ctx context.Context, limit int) ([]domain.Notification, error)
}

// ProductListFilter narrows product listings.
type ProductListFilter struct {
	CategoryID string
	Deity      string
	ActiveOnly bool
	Limit      int
}

// CatalogRepository persists products, categories, and variants.
type CatalogRepository interface {
	InsertProduct(ctx context.Context, product domain.Product) error
	UpdateProduct(ctx context.Context, product domain.Product) error
	DeleteProduct(ctx context.Context, productID string) error
	FindProduct(ctx context.Context, productID string) (domain.Product, error)
	ListProducts(ctx context.Context, filter ProductListFilter) ([]domain.Product, error)

	SaveCategory(ctx context.Context, category domain.Category) error
	DeleteCategory(ctx context.Context, categoryID string) error
	FindCategory(ctx context.Context, categoryID string) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)

	SaveVariant(ctx context.Context, variant domain.Variant) error
	DeleteVariant(ctx context.Context, variantID string) error
	ListVariantsByProduct(ctx context.Context, productID string) ([]domain.Variant, error)
}

// HealthRepository aggregates dependency probes for readiness checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
