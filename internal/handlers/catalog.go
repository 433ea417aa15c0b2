package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/rudraksha-store/api/internal/domain"
	"github.com/rudraksha-store/api/internal/platform/httpx"
	"github.com/rudraksha-store/api/internal/services"
)

// CatalogHandlers serves the public storefront catalog.
type CatalogHandlers struct {
	catalog services.CatalogService
}

// NewCatalogHandlers constructs public catalog endpoints.
func NewCatalogHandlers(catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes registers the public catalog endpoints on the API root.
func (h *CatalogHandlers) Routes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/{productID}", h.getProduct)
		r.Get("/{productID}/variants", h.listVariants)
	})
	r.Get("/categories", h.listCategories)
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a non-negative integer", http.StatusBadRequest))
			return
		}
		limit = parsed
	}

	// Storefront listings only show active products; the back-office uses the
	// admin endpoints to see everything.
	products, err := h.catalog.ListProducts(ctx, services.ProductListFilter{
		CategoryID: strings.TrimSpace(query.Get("categoryId")),
		Deity:      strings.TrimSpace(query.Get("deity")),
		ActiveOnly: true,
		Limit:      limit,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]productPayload, 0, len(products))
	for _, product := range products {
		payload = append(payload, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))

	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildProductPayload(product))
}

func (h *CatalogHandlers) listVariants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))

	variants, err := h.catalog.ListVariants(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]variantPayload, 0, len(variants))
	for _, variant := range variants {
		payload = append(payload, buildVariantPayload(variant))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *CatalogHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]categoryPayload, 0, len(categories))
	for _, category := range categories {
		if !category.IsActive {
			continue
		}
		payload = append(payload, buildCategoryPayload(category))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

type productPayload struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Deity         string   `json:"deity,omitempty"`
	Description   string   `json:"description,omitempty"`
	CategoryID    string   `json:"categoryId"`
	CategoryName  string   `json:"categoryName,omitempty"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice,omitempty"`
	Images        []string `json:"images,omitempty"`
	Badge         string   `json:"badge,omitempty"`
	HasVariants   bool     `json:"hasVariants"`
	TotalStock    int      `json:"totalStock"`
	IsActive      bool     `json:"isActive"`
	CreatedAt     string   `json:"createdAt,omitempty"`
	UpdatedAt     string   `json:"updatedAt,omitempty"`
}

func buildProductPayload(product domain.Product) productPayload {
	return productPayload{
		ID:            product.ID,
		Name:          product.Name,
		Deity:         product.Deity,
		Description:   product.Description,
		CategoryID:    product.CategoryID,
		CategoryName:  product.CategoryName,
		Price:         product.Price,
		OriginalPrice: product.OriginalPrice,
		Images:        product.Images,
		Badge:         product.Badge,
		HasVariants:   product.HasVariants,
		TotalStock:    product.TotalStock,
		IsActive:      product.IsActive,
		CreatedAt:     formatTime(product.CreatedAt),
		UpdatedAt:     formatTime(product.UpdatedAt),
	}
}

type variantPayload struct {
	ID            string  `json:"id"`
	ProductID     string  `json:"productId"`
	Size          string  `json:"size"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"originalPrice,omitempty"`
	Stock         int     `json:"stock"`
	SKU           string  `json:"sku,omitempty"`
}

func buildVariantPayload(variant domain.Variant) variantPayload {
	return variantPayload{
		ID:            variant.ID,
		ProductID:     variant.ProductID,
		Size:          variant.Size,
		Price:         variant.Price,
		OriginalPrice: variant.OriginalPrice,
		Stock:         variant.Stock,
		SKU:           variant.SKU,
	}
}

type categoryPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	SortOrder   int    `json:"sortOrder"`
	IsActive    bool   `json:"isActive"`
}

func buildCategoryPayload(category domain.Category) categoryPayload {
	return categoryPayload{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		Image:       category.Image,
		SortOrder:   category.SortOrder,
		IsActive:    category.IsActive,
	}
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCategoryNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("category_not_found", "category not found", http.StatusNotFound))
	case strings.HasPrefix(err.Error(), "catalog:"), strings.HasPrefix(err.Error(), "storage:"):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		writeRepositoryError(ctx, w, err, "catalog_error")
	}
}
