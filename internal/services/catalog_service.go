package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/rudraksha-store/api/internal/platform/requestctx"
	"github.com/rudraksha-store/api/internal/platform/storage"
	"github.com/rudraksha-store/api/internal/repositories"
)

var (
	errProductIDRequired   = errors.New("catalog: product id is required")
	errProductNotFound     = errors.New("catalog: product not found")
	errProductNameRequired = errors.New("catalog: product name is required")
	errProductCategory     = errors.New("catalog: category id is required")
	errProductPrice        = errors.New("catalog: price must be positive")
	errCategoryIDRequired  = errors.New("catalog: category id is required")
	errCategoryNotFound    = errors.New("catalog: category not found")
	errCategoryName        = errors.New("catalog: category name is required")
	errVariantInput        = errors.New("catalog: variant size and positive price are required")
	errImageTarget         = errors.New("catalog: image upload needs a product or category id")
)

var (
	// ErrProductNotFound indicates no product exists for the id.
	ErrProductNotFound = errProductNotFound
	// ErrCategoryNotFound indicates no category exists for the id.
	ErrCategoryNotFound = errCategoryNotFound
)

// ImageStore abstracts public image storage for catalog media.
type ImageStore interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error)
	DeleteByURL(ctx context.Context, publicURL string) error
}

// CatalogServiceDeps bundles the dependencies required to construct a catalog service instance.
type CatalogServiceDeps struct {
	Catalog     repositories.CatalogRepository
	Images      ImageStore
	Clock       func() time.Time
	IDGenerator func() string
}

type catalogService struct {
	catalog   repositories.CatalogRepository
	images    ImageStore
	sanitizer *bluemonday.Policy
	clock     func() time.Time
	newID     func() string
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog service: catalog repository is required")
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

	return &catalogService{
		catalog:   deps.Catalog,
		images:    deps.Images,
		sanitizer: bluemonday.UGCPolicy(),
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: newID,
	}, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error) {
	product, err := s.productFromCommand(ctx, cmd)
	if err != nil {
		return Product{}, err
	}

	now := s.clock()
	product.ID = s.newID()
	product.IsActive = true
	if cmd.IsActive != nil {
		product.IsActive = *cmd.IsActive
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.catalog.InsertProduct(ctx, product); err != nil {
		return Product{}, err
	}
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error) {
	if strings.TrimSpace(cmd.ProductID) == "" {
		return Product{}, errProductIDRequired
	}
	existing, err := s.GetProduct(ctx, cmd.ProductID)
	if err != nil {
		return Product{}, err
	}

	product, err := s.productFromCommand(ctx, cmd)
	if err != nil {
		return Product{}, err
	}
	product.ID = existing.ID
	product.HasVariants = existing.HasVariants
	product.TotalStock = existing.TotalStock
	product.IsActive = existing.IsActive
	if cmd.IsActive != nil {
		product.IsActive = *cmd.IsActive
	}
	if existing.HasVariants {
		// Variant-backed aggregates survive a metadata edit.
		product.Price = existing.Price
		product.OriginalPrice = existing.OriginalPrice
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = s.clock()

	if err := s.catalog.UpdateProduct(ctx, product); err != nil {
		return Product{}, err
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, productID string) error {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	variants, err := s.catalog.ListVariantsByProduct(ctx, product.ID)
	if err != nil {
		return err
	}
	for _, variant := range variants {
		if err := s.catalog.DeleteVariant(ctx, variant.ID); err != nil {
			return err
		}
	}

	if err := s.catalog.DeleteProduct(ctx, product.ID); err != nil {
		return err
	}

	if s.images != nil {
		for _, image := range product.Images {
			if err := s.images.DeleteByURL(ctx, image); err != nil {
				requestctx.Logger(ctx).Warn("product image cleanup failed",
					zap.String("productId", product.ID),
					zap.String("url", image),
					zap.Error(err))
			}
		}
	}
	return nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	if strings.TrimSpace(productID) == "" {
		return Product{}, errProductIDRequired
	}
	product, err := s.catalog.FindProduct(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return Product{}, errProductNotFound
		}
		return Product{}, err
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductListFilter) ([]Product, error) {
	return s.catalog.ListProducts(ctx, repositories.ProductListFilter{
		CategoryID: filter.CategoryID,
		Deity:      filter.Deity,
		ActiveOnly: filter.ActiveOnly,
		Limit:      filter.Limit,
	})
}

// UploadProductImage stores the image in the public bucket and returns its URL.
// Either ProductID or CategoryID selects the destination prefix.
func (s *catalogService) UploadProductImage(ctx context.Context, cmd UploadImageCommand) (string, error) {
	if s.images == nil {
		return "", errors.New("catalog: image storage is not configured")
	}

	var (
		object string
		err    error
	)
	switch {
	case strings.TrimSpace(cmd.ProductID) != "":
		object, err = storage.BuildObjectPath(storage.PurposeProductImage, storage.PathParams{
			ProductID: cmd.ProductID,
			FileName:  cmd.FileName,
		})
	case strings.TrimSpace(cmd.CategoryID) != "":
		object, err = storage.BuildObjectPath(storage.PurposeCategoryImage, storage.PathParams{
			CategoryID: cmd.CategoryID,
			FileName:   cmd.FileName,
		})
	default:
		return "", errImageTarget
	}
	if err != nil {
		return "", err
	}

	return s.images.Upload(ctx, object, cmd.ContentType, cmd.Body)
}

func (s *catalogService) CreateCategory(ctx context.Context, cmd UpsertCategoryCommand) (Category, error) {
	category, err := s.categoryFromCommand(cmd)
	if err != nil {
		return Category{}, err
	}

	now := s.clock()
	category.ID = s.newID()
	category.IsActive = true
	if cmd.IsActive != nil {
		category.IsActive = *cmd.IsActive
	}
	category.CreatedAt = now
	category.UpdatedAt = now

	if err := s.catalog.SaveCategory(ctx, category); err != nil {
		return Category{}, err
	}
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, cmd UpsertCategoryCommand) (Category, error) {
	if strings.TrimSpace(cmd.CategoryID) == "" {
		return Category{}, errCategoryIDRequired
	}
	existing, err := s.catalog.FindCategory(ctx, cmd.CategoryID)
	if err != nil {
		if isNotFound(err) {
			return Category{}, errCategoryNotFound
		}
		return Category{}, err
	}

	category, err := s.categoryFromCommand(cmd)
	if err != nil {
		return Category{}, err
	}
	category.ID = existing.ID
	category.IsActive = existing.IsActive
	if cmd.IsActive != nil {
		category.IsActive = *cmd.IsActive
	}
	category.CreatedAt = existing.CreatedAt
	category.UpdatedAt = s.clock()

	if err := s.catalog.SaveCategory(ctx, category); err != nil {
		return Category{}, err
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, categoryID string) error {
	if strings.TrimSpace(categoryID) == "" {
		return errCategoryIDRequired
	}
	err := s.catalog.DeleteCategory(ctx, categoryID)
	if isNotFound(err) {
		return errCategoryNotFound
	}
	return err
}

func (s *catalogService) ListCategories(ctx context.Context) ([]Category, error) {
	return s.catalog.ListCategories(ctx)
}

// SetVariants replaces the product's variant set and recomputes the derived
// aggregates: total stock across variants and display price from the first one.
func (s *catalogService) SetVariants(ctx context.Context, productID string, variants []Variant) (Product, error) {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return Product{}, err
	}

	existing, err := s.catalog.ListVariantsByProduct(ctx, product.ID)
	if err != nil {
		return Product{}, err
	}
	for _, variant := range existing {
		if err := s.catalog.DeleteVariant(ctx, variant.ID); err != nil {
			return Product{}, err
		}
	}

	now := s.clock()
	totalStock := 0
	saved := make([]Variant, 0, len(variants))
	for _, variant := range variants {
		if strings.TrimSpace(variant.Size) == "" || variant.Price <= 0 {
			return Product{}, errVariantInput
		}
		variant.ID = s.newID()
		variant.ProductID = product.ID
		variant.Size = strings.TrimSpace(variant.Size)
		variant.SKU = strings.TrimSpace(variant.SKU)
		variant.CreatedAt = now
		variant.UpdatedAt = now
		if err := s.catalog.SaveVariant(ctx, variant); err != nil {
			return Product{}, err
		}
		totalStock += variant.Stock
		saved = append(saved, variant)
	}

	product.HasVariants = len(saved) > 0
	product.TotalStock = totalStock
	if len(saved) > 0 {
		product.Price = saved[0].Price
		product.OriginalPrice = saved[0].OriginalPrice
	}
	product.UpdatedAt = now

	if err := s.catalog.UpdateProduct(ctx, product); err != nil {
		return Product{}, err
	}
	return product, nil
}

func (s *catalogService) ListVariants(ctx context.Context, productID string) ([]Variant, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, errProductIDRequired
	}
	return s.catalog.ListVariantsByProduct(ctx, productID)
}

func (s *catalogService) productFromCommand(ctx context.Context, cmd UpsertProductCommand) (Product, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return Product{}, errProductNameRequired
	}
	categoryID := strings.TrimSpace(cmd.CategoryID)
	if categoryID == "" {
		return Product{}, errProductCategory
	}
	if cmd.Price <= 0 {
		return Product{}, errProductPrice
	}

	categoryName := ""
	if category, err := s.catalog.FindCategory(ctx, categoryID); err == nil {
		categoryName = category.Name
	} else if !isNotFound(err) {
		return Product{}, err
	}

	return Product{
		Name:          name,
		Deity:         strings.TrimSpace(cmd.Deity),
		Description:   s.sanitizer.Sanitize(cmd.Description),
		CategoryID:    categoryID,
		CategoryName:  categoryName,
		Price:         cmd.Price,
		OriginalPrice: cmd.OriginalPrice,
		Images:        cmd.Images,
		Badge:         strings.TrimSpace(cmd.Badge),
	}, nil
}

func (s *catalogService) categoryFromCommand(cmd UpsertCategoryCommand) (Category, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return Category{}, errCategoryName
	}
	return Category{
		Name:        name,
		Description: s.sanitizer.Sanitize(cmd.Description),
		Image:       strings.TrimSpace(cmd.Image),
		SortOrder:   cmd.SortOrder,
	}, nil
}
