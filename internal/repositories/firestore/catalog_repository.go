package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	domain "github.com/rudraksha-store/api/internal/domain"
	pfirestore "github.com/rudraksha-store/api/internal/platform/firestore"
	"github.com/rudraksha-store/api/internal/repositories"
)

const (
	productCollection  = "products"
	categoryCollection = "categories"
	variantCollection  = "variants"
)

// CatalogRepository persists products, categories, and variants.
type CatalogRepository struct {
	products   *pfirestore.BaseRepository[productDocument]
	categories *pfirestore.BaseRepository[categoryDocument]
	variants   *pfirestore.BaseRepository[variantDocument]
}

// NewCatalogRepository constructs a Firestore-backed catalog repository.
func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	return &CatalogRepository{
		products:   pfirestore.NewBaseRepository[productDocument](provider, productCollection, nil, nil),
		categories: pfirestore.NewBaseRepository[categoryDocument](provider, categoryCollection, nil, nil),
		variants:   pfirestore.NewBaseRepository[variantDocument](provider, variantCollection, nil, nil),
	}, nil
}

// InsertProduct creates the product, failing when the id already exists.
func (r *CatalogRepository) InsertProduct(ctx context.Context, product domain.Product) error {
	if strings.TrimSpace(product.ID) == "" {
		return errors.New("product id is required")
	}
	_, err := r.products.Create(ctx, product.ID, fromDomainProduct(product))
	return err
}

// UpdateProduct overwrites the product document.
func (r *CatalogRepository) UpdateProduct(ctx context.Context, product domain.Product) error {
	if strings.TrimSpace(product.ID) == "" {
		return errors.New("product id is required")
	}
	_, err := r.products.Set(ctx, product.ID, fromDomainProduct(product))
	return err
}

// DeleteProduct removes the product document.
func (r *CatalogRepository) DeleteProduct(ctx context.Context, productID string) error {
	if strings.TrimSpace(productID) == "" {
		return errors.New("product id is required")
	}
	_, err := r.products.Delete(ctx, productID)
	return err
}

// FindProduct loads a product by id.
func (r *CatalogRepository) FindProduct(ctx context.Context, productID string) (domain.Product, error) {
	if strings.TrimSpace(productID) == "" {
		return domain.Product{}, errors.New("product id is required")
	}
	doc, err := r.products.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return toDomainProduct(doc.ID, doc.Data), nil
}

// ListProducts returns products matching the filter.
func (r *CatalogRepository) ListProducts(ctx context.Context, filter repositories.ProductListFilter) ([]domain.Product, error) {
	docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.CategoryID != "" {
			q = q.Where("categoryId", "==", filter.CategoryID)
		}
		if filter.Deity != "" {
			q = q.Where("deity", "==", filter.Deity)
		}
		if filter.ActiveOnly {
			q = q.Where("isActive", "==", true)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		return q
	})
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, toDomainProduct(doc.ID, doc.Data))
	}
	return products, nil
}

// SaveCategory upserts the category document.
func (r *CatalogRepository) SaveCategory(ctx context.Context, category domain.Category) error {
	if strings.TrimSpace(category.ID) == "" {
		return errors.New("category id is required")
	}
	_, err := r.categories.Set(ctx, category.ID, fromDomainCategory(category))
	return err
}

// DeleteCategory removes the category document.
func (r *CatalogRepository) DeleteCategory(ctx context.Context, categoryID string) error {
	if strings.TrimSpace(categoryID) == "" {
		return errors.New("category id is required")
	}
	_, err := r.categories.Delete(ctx, categoryID)
	return err
}

// FindCategory loads a category by id.
func (r *CatalogRepository) FindCategory(ctx context.Context, categoryID string) (domain.Category, error) {
	if strings.TrimSpace(categoryID) == "" {
		return domain.Category{}, errors.New("category id is required")
	}
	doc, err := r.categories.Get(ctx, categoryID)
	if err != nil {
		return domain.Category{}, err
	}
	return toDomainCategory(doc.ID, doc.Data), nil
}

// ListCategories returns every category ordered by sort order.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	docs, err := r.categories.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("sortOrder", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(docs))
	for _, doc := range docs {
		categories = append(categories, toDomainCategory(doc.ID, doc.Data))
	}
	return categories, nil
}

// SaveVariant upserts the variant document.
func (r *CatalogRepository) SaveVariant(ctx context.Context, variant domain.Variant) error {
	if strings.TrimSpace(variant.ID) == "" {
		return errors.New("variant id is required")
	}
	if strings.TrimSpace(variant.ProductID) == "" {
		return errors.New("variant product id is required")
	}
	_, err := r.variants.Set(ctx, variant.ID, fromDomainVariant(variant))
	return err
}

// DeleteVariant removes the variant document.
func (r *CatalogRepository) DeleteVariant(ctx context.Context, variantID string) error {
	if strings.TrimSpace(variantID) == "" {
		return errors.New("variant id is required")
	}
	_, err := r.variants.Delete(ctx, variantID)
	return err
}

// ListVariantsByProduct returns the product's variants.
func (r *CatalogRepository) ListVariantsByProduct(ctx context.Context, productID string) ([]domain.Variant, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, errors.New("product id is required")
	}
	docs, err := r.variants.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("productId", "==", productID)
	})
	if err != nil {
		return nil, err
	}

	variants := make([]domain.Variant, 0, len(docs))
	for _, doc := range docs {
		variants = append(variants, toDomainVariant(doc.ID, doc.Data))
	}
	return variants, nil
}

type productDocument struct {
	Name          string    `firestore:"name"`
	Deity         string    `firestore:"deity,omitempty"`
	Description   string    `firestore:"description,omitempty"`
	CategoryID    string    `firestore:"categoryId"`
	CategoryName  string    `firestore:"categoryName,omitempty"`
	Price         float64   `firestore:"price"`
	OriginalPrice float64   `firestore:"originalPrice,omitempty"`
	Images        []string  `firestore:"images"`
	Badge         string    `firestore:"badge,omitempty"`
	HasVariants   bool      `firestore:"hasVariants"`
	TotalStock    int       `firestore:"totalStock"`
	IsActive      bool      `firestore:"isActive"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

type categoryDocument struct {
	Name        string    `firestore:"name"`
	Description string    `firestore:"description,omitempty"`
	Image       string    `firestore:"image,omitempty"`
	SortOrder   int       `firestore:"sortOrder"`
	IsActive    bool      `firestore:"isActive"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

type variantDocument struct {
	ProductID     string    `firestore:"productId"`
	Size          string    `firestore:"size"`
	Price         float64   `firestore:"price"`
	OriginalPrice float64   `firestore:"originalPrice,omitempty"`
	Stock         int       `firestore:"stock"`
	SKU           string    `firestore:"sku,omitempty"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func fromDomainProduct(product domain.Product) productDocument {
	images := product.Images
	if images == nil {
		images = []string{}
	}
	return productDocument{
		Name:          strings.TrimSpace(product.Name),
		Deity:         strings.TrimSpace(product.Deity),
		Description:   product.Description,
		CategoryID:    product.CategoryID,
		CategoryName:  product.CategoryName,
		Price:         product.Price,
		OriginalPrice: product.OriginalPrice,
		Images:        images,
		Badge:         product.Badge,
		HasVariants:   product.HasVariants,
		TotalStock:    product.TotalStock,
		IsActive:      product.IsActive,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}

func toDomainProduct(id string, doc productDocument) domain.Product {
	return domain.Product{
		ID:            id,
		Name:          doc.Name,
		Deity:         doc.Deity,
		Description:   doc.Description,
		CategoryID:    doc.CategoryID,
		CategoryName:  doc.CategoryName,
		Price:         doc.Price,
		OriginalPrice: doc.OriginalPrice,
		Images:        doc.Images,
		Badge:         doc.Badge,
		HasVariants:   doc.HasVariants,
		TotalStock:    doc.TotalStock,
		IsActive:      doc.IsActive,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

func fromDomainCategory(category domain.Category) categoryDocument {
	return categoryDocument{
		Name:        strings.TrimSpace(category.Name),
		Description: category.Description,
		Image:       category.Image,
		SortOrder:   category.SortOrder,
		IsActive:    category.IsActive,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}

func toDomainCategory(id string, doc categoryDocument) domain.Category {
	return domain.Category{
		ID:          id,
		Name:        doc.Name,
		Description: doc.Description,
		Image:       doc.Image,
		SortOrder:   doc.SortOrder,
		IsActive:    doc.IsActive,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

func fromDomainVariant(variant domain.Variant) variantDocument {
	return variantDocument{
		ProductID:     variant.ProductID,
		Size:          variant.Size,
		Price:         variant.Price,
		OriginalPrice: variant.OriginalPrice,
		Stock:         variant.Stock,
		SKU:           variant.SKU,
		CreatedAt:     variant.CreatedAt,
		UpdatedAt:     variant.UpdatedAt,
	}
}

func toDomainVariant(id string, doc variantDocument) domain.Variant {
	return domain.Variant{
		ID:            id,
		ProductID:     doc.ProductID,
		Size:          doc.Size,
		Price:         doc.Price,
		OriginalPrice: doc.OriginalPrice,
		Stock:         doc.Stock,
		SKU:           doc.SKU,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}
