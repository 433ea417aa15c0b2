package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/rudraksha-store/api/internal/domain"
	"github.com/rudraksha-store/api/internal/platform/httpx"
	"github.com/rudraksha-store/api/internal/services"
)

const (
	maxAdminBodySize   = 256 * 1024
	maxImageUploadSize = 10 << 20
)

// AdminCatalogHandlers serves back-office catalog management.
type AdminCatalogHandlers struct {
	catalog services.CatalogService
}

// NewAdminCatalogHandlers constructs admin catalog endpoints.
func NewAdminCatalogHandlers(catalog services.CatalogService) *AdminCatalogHandlers {
	return &AdminCatalogHandlers{catalog: catalog}
}

// Routes registers catalog management endpoints under /admin.
func (h *AdminCatalogHandlers) Routes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Route("/{productID}", func(r chi.Router) {
			r.Put("/", h.updateProduct)
			r.Delete("/", h.deleteProduct)
			r.Put("/variants", h.setVariants)
			r.Post("/image", h.uploadProductImage)
		})
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.createCategory)
		r.Route("/{categoryID}", func(r chi.Router) {
			r.Put("/", h.updateCategory)
			r.Delete("/", h.deleteCategory)
			r.Post("/image", h.uploadCategoryImage)
		})
	})
}

type productRequest struct {
	Name          string   `json:"name"`
	Deity         string   `json:"deity"`
	Description   string   `json:"description"`
	CategoryID    string   `json:"categoryId"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice"`
	Images        []string `json:"images"`
	Badge         string   `json:"badge"`
	IsActive      *bool    `json:"isActive"`
}

func (h *AdminCatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	limit, ok := parseLimitParam(w, r)
	if !ok {
		return
	}

	products, err := h.catalog.ListProducts(ctx, services.ProductListFilter{
		CategoryID: strings.TrimSpace(query.Get("categoryId")),
		Deity:      strings.TrimSpace(query.Get("deity")),
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

func (h *AdminCatalogHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req productRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	product, err := h.catalog.CreateProduct(ctx, productCommand("", req))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildProductPayload(product))
}

func (h *AdminCatalogHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req productRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, productCommand(productID, req))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildProductPayload(product))
}

func (h *AdminCatalogHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))

	if err := h.catalog.DeleteProduct(ctx, productID); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type variantRequest struct {
	Size          string  `json:"size"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"originalPrice"`
	Stock         int     `json:"stock"`
	SKU           string  `json:"sku"`
}

func (h *AdminCatalogHandlers) setVariants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var reqs []variantRequest
	if err := json.Unmarshal(body, &reqs); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	variants := make([]domain.Variant, 0, len(reqs))
	for _, req := range reqs {
		variants = append(variants, domain.Variant{
			Size:          req.Size,
			Price:         req.Price,
			OriginalPrice: req.OriginalPrice,
			Stock:         req.Stock,
			SKU:           req.SKU,
		})
	}

	product, err := h.catalog.SetVariants(ctx, productID, variants)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildProductPayload(product))
}

func (h *AdminCatalogHandlers) uploadProductImage(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	h.uploadImage(w, r, services.UploadImageCommand{ProductID: productID})
}

func (h *AdminCatalogHandlers) uploadCategoryImage(w http.ResponseWriter, r *http.Request) {
	categoryID := strings.TrimSpace(chi.URLParam(r, "categoryID"))
	h.uploadImage(w, r, services.UploadImageCommand{CategoryID: categoryID})
}

// uploadImage streams a multipart "image" part into the public bucket.
func (h *AdminCatalogHandlers) uploadImage(w http.ResponseWriter, r *http.Request, cmd services.UploadImageCommand) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxImageUploadSize); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "multipart form parse failed", http.StatusBadRequest))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "image file part is required", http.StatusBadRequest))
		return
	}
	defer file.Close()

	cmd.FileName = header.Filename
	cmd.ContentType = header.Header.Get("Content-Type")
	cmd.Body = file

	url, err := h.catalog.UploadProductImage(ctx, cmd)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]string{"url": url})
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	SortOrder   int    `json:"sortOrder"`
	IsActive    *bool  `json:"isActive"`
}

func (h *AdminCatalogHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	payload := make([]categoryPayload, 0, len(categories))
	for _, category := range categories {
		payload = append(payload, buildCategoryPayload(category))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *AdminCatalogHandlers) createCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req categoryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	category, err := h.catalog.CreateCategory(ctx, categoryCommand("", req))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildCategoryPayload(category))
}

func (h *AdminCatalogHandlers) updateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categoryID := strings.TrimSpace(chi.URLParam(r, "categoryID"))

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req categoryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	category, err := h.catalog.UpdateCategory(ctx, categoryCommand(categoryID, req))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildCategoryPayload(category))
}

func (h *AdminCatalogHandlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categoryID := strings.TrimSpace(chi.URLParam(r, "categoryID"))

	if err := h.catalog.DeleteCategory(ctx, categoryID); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func productCommand(productID string, req productRequest) services.UpsertProductCommand {
	return services.UpsertProductCommand{
		ProductID:     productID,
		Name:          req.Name,
		Deity:         req.Deity,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Images:        req.Images,
		Badge:         req.Badge,
		IsActive:      req.IsActive,
	}
}

func categoryCommand(categoryID string, req categoryRequest) services.UpsertCategoryCommand {
	return services.UpsertCategoryCommand{
		CategoryID:  categoryID,
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
	}
}
