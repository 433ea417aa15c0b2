package firestore

import (
	"context"
	"errors"

	gofirestore "cloud.google.com/go/firestore"
	pfirestore "github.com/rudraksha-store/api/internal/platform/firestore"
	"github.com/rudraksha-store/api/internal/repositories"
)

// Registry wires every Firestore-backed repository behind the repositories.Registry interface.
type Registry struct {
	provider      *pfirestore.Provider
	users         *UserRepository
	orders        *OrderRepository
	discounts     *DiscountRepository
	notifications *NotificationRepository
	catalog       *CatalogRepository
	health        repositories.HealthRepository
}

var (
	_ repositories.Registry               = (*Registry)(nil)
	_ repositories.UserRepository         = (*UserRepository)(nil)
	_ repositories.OrderRepository        = (*OrderRepository)(nil)
	_ repositories.DiscountRepository     = (*DiscountRepository)(nil)
	_ repositories.NotificationRepository = (*NotificationRepository)(nil)
	_ repositories.CatalogRepository      = (*CatalogRepository)(nil)
)

// RegistryOption customises the registry.
type RegistryOption func(*Registry)

// WithHealthRepository overrides the readiness probe implementation.
func WithHealthRepository(health repositories.HealthRepository) RegistryOption {
	return func(r *Registry) {
		if health != nil {
			r.health = health
		}
	}
}

// NewRegistry constructs the repository registry on a shared Firestore provider.
func NewRegistry(provider *pfirestore.Provider, opts ...RegistryOption) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	users, err := NewUserRepository(provider)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	discounts, err := NewDiscountRepository(provider)
	if err != nil {
		return nil, err
	}
	notifications, err := NewNotificationRepository(provider)
	if err != nil {
		return nil, err
	}
	catalog, err := NewCatalogRepository(provider)
	if err != nil {
		return nil, err
	}

	registry := &Registry{
		provider:      provider,
		users:         users,
		orders:        orders,
		discounts:     discounts,
		notifications: notifications,
		catalog:       catalog,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(registry)
		}
	}
	if registry.health == nil {
		health, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{
			{
				Name: "firestore",
				Check: func(ctx context.Context) error {
					_, err := provider.Client(ctx)
					return err
				},
			},
		})
		if err != nil {
			return nil, err
		}
		registry.health = health
	}
	return registry, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	return r.provider.Close(ctx)
}

// Users returns the user repository.
func (r *Registry) Users() repositories.UserRepository { return r.users }

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Discounts returns the discount repository.
func (r *Registry) Discounts() repositories.DiscountRepository { return r.discounts }

// Notifications returns the notification repository.
func (r *Registry) Notifications() repositories.NotificationRepository { return r.notifications }

// Catalog returns the catalog repository.
func (r *Registry) Catalog() repositories.CatalogRepository { return r.catalog }

// Health returns the readiness probe repository.
func (r *Registry) Health() repositories.HealthRepository { return r.health }

// RunInTx executes fn inside a Firestore transaction. The callback sees the same
// context and must route its writes through repositories that honour it.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.provider.RunTransaction(ctx, func(ctx context.Context, _ *gofirestore.Transaction) error {
		return fn(ctx)
	})
}
