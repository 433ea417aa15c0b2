package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rudraksha-store/api/internal/payments"
	"github.com/rudraksha-store/api/internal/platform/config"
	"github.com/rudraksha-store/api/internal/repositories"
	"github.com/rudraksha-store/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Users         services.UserService
	Wishlist      services.WishlistService
	Discounts     services.DiscountService
	Notifications services.NotificationService
	Catalog       services.CatalogService
	Orders        services.OrderService
	System        services.SystemService
}

// ContainerDeps carries runtime dependencies that are built from external
// clients in main rather than from the repository registry.
type ContainerDeps struct {
	// Gateway is the payment provider used for checkout and reconciliation.
	Gateway payments.Provider
	// Images is optional. Catalog image uploads are rejected when unset.
	Images services.ImageStore
	// Publisher is optional. Notifications stay store-only when unset.
	Publisher services.NotificationPublisher
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring will provide real
// implementations, while tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, deps ContainerDeps) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(ctx, reg, cfg, deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients, background workers, or caches.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(ctx context.Context, reg repositories.Registry, cfg config.Config, deps ContainerDeps) (Services, error) {
	var svc Services
	if reg == nil {
		return svc, nil
	}

	usersRepo := reg.Users()
	ordersRepo := reg.Orders()

	if usersRepo != nil && ordersRepo != nil {
		userSvc, err := services.NewUserService(services.UserServiceDeps{
			Users:  usersRepo,
			Orders: ordersRepo,
			Clock:  time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build user service: %w", err)
		}
		svc.Users = userSvc
	}

	if usersRepo != nil {
		wishlistSvc, err := services.NewWishlistService(services.WishlistServiceDeps{
			Users: usersRepo,
			Clock: time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build wishlist service: %w", err)
		}
		svc.Wishlist = wishlistSvc
	}

	if discountsRepo := reg.Discounts(); discountsRepo != nil {
		discountSvc, err := services.NewDiscountService(services.DiscountServiceDeps{
			Discounts: discountsRepo,
			Clock:     time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build discount service: %w", err)
		}
		svc.Discounts = discountSvc
	}

	if notificationsRepo := reg.Notifications(); notificationsRepo != nil {
		notificationSvc, err := services.NewNotificationService(services.NotificationServiceDeps{
			Notifications: notificationsRepo,
			Publisher:     deps.Publisher,
			Clock:         time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build notification service: %w", err)
		}
		svc.Notifications = notificationSvc
	}

	if catalogRepo := reg.Catalog(); catalogRepo != nil {
		catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
			Catalog: catalogRepo,
			Images:  deps.Images,
			Clock:   time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build catalog service: %w", err)
		}
		svc.Catalog = catalogSvc
	}

	if ordersRepo != nil && svc.Users != nil && deps.Gateway != nil {
		orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
			Orders:        ordersRepo,
			Users:         svc.Users,
			Discounts:     svc.Discounts,
			Wishlist:      svc.Wishlist,
			Notifications: svc.Notifications,
			Gateway:       deps.Gateway,
			Shipping: services.ShippingPolicy{
				FlatRate:          cfg.Shipping.FlatRate,
				FreeShippingAbove: cfg.Shipping.FreeShippingAbove,
			},
			Clock: time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build order service: %w", err)
		}
		svc.Orders = orderSvc
	}

	if healthRepo := reg.Health(); healthRepo != nil {
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}
