package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	domain "github.com/rudraksha-store/api/internal/domain"
	"github.com/rudraksha-store/api/internal/repositories"
)

type stubCatalogRepo struct {
	products   map[string]domain.Product
	categories map[string]domain.Category
	variants   map[string]domain.Variant

	deletedVariants []string
	deletedProducts []string
}

func newStubCatalogRepo() *stubCatalogRepo {
	return &stubCatalogRepo{
		products:   make(map[string]domain.Product),
		categories: make(map[string]domain.Category),
		variants:   make(map[string]domain.Variant),
	}
}

func (r *stubCatalogRepo) InsertProduct(_ context.Context, product domain.Product) error {
	r.products[product.ID] = product
	return nil
}

func (r *stubCatalogRepo) UpdateProduct(_ context.Context, product domain.Product) error {
	r.products[product.ID] = product
	return nil
}

func (r *stubCatalogRepo) DeleteProduct(_ context.Context, productID string) error {
	if _, ok := r.products[productID]; !ok {
		return errStubNotFound
	}
	delete(r.products, productID)
	r.deletedProducts = append(r.deletedProducts, productID)
	return nil
}

func (r *stubCatalogRepo) FindProduct(_ context.Context, productID string) (domain.Product, error) {
	product, ok := r.products[productID]
	if !ok {
		return domain.Product{}, errStubNotFound
	}
	return product, nil
}

func (r *stubCatalogRepo) ListProducts(_ context.Context, filter repositories.ProductListFilter) ([]domain.Product, error) {
	var products []domain.Product
	for _, product := range r.products {
		if filter.CategoryID != "" && product.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Deity != "" && product.Deity != filter.Deity {
			continue
		}
		if filter.ActiveOnly && !product.IsActive {
			continue
		}
		products = append(products, product)
	}
	return products, nil
}

func (r *stubCatalogRepo) SaveCategory(_ context.Context, category domain.Category) error {
	r.categories[category.ID] = category
	return nil
}

func (r *stubCatalogRepo) DeleteCategory(_ context.Context, categoryID string) error {
	if _, ok := r.categories[categoryID]; !ok {
		return errStubNotFound
	}
	delete(r.categories, categoryID)
	return nil
}

func (r *stubCatalogRepo) FindCategory(_ context.Context, categoryID string) (domain.Category, error) {
	category, ok := r.categories[categoryID]
	if !ok {
		return domain.Category{}, errStubNotFound
	}
	return category, nil
}

func (r *stubCatalogRepo) ListCategories(_ context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	for _, category := range r.categories {
		categories = append(categories, category)
	}
	return categories, nil
}

func (r *stubCatalogRepo) SaveVariant(_ context.Context, variant domain.Variant) error {
	r.variants[variant.ID] = variant
	return nil
}

func (r *stubCatalogRepo) DeleteVariant(_ context.Context, variantID string) error {
	if _, ok := r.variants[variantID]; !ok {
		return errStubNotFound
	}
	delete(r.variants, variantID)
	r.deletedVariants = append(r.deletedVariants, variantID)
	return nil
}

func (r *stubCatalogRepo) ListVariantsByProduct(_ context.Context, productID string) ([]domain.Variant, error) {
	var variants []domain.Variant
	for _, variant := range r.variants {
		if variant.ProductID == productID {
			variants = append(variants, variant)
		}
	}
	return variants, nil
}

type stubImageStore struct {
	uploads   map[string]string
	deleted   []string
	deleteErr error
}

func newStubImageStore() *stubImageStore {
	return &stubImageStore{uploads: make(map[string]string)}
}

func (s *stubImageStore) Upload(_ context.Context, object, contentType string, body io.Reader) (string, error) {
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	url := "https://storage.example.com/" + object
	s.uploads[object] = contentType
	return url, nil
}

func (s *stubImageStore) DeleteByURL(_ context.Context, publicURL string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, publicURL)
	return nil
}

type catalogFixture struct {
	svc     CatalogService
	catalog *stubCatalogRepo
	images  *stubImageStore
}

func newCatalogFixture(t *testing.T, now time.Time) *catalogFixture {
	t.Helper()
	catalog := newStubCatalogRepo()
	images := newStubImageStore()

	counter := 0
	svc, err := NewCatalogService(CatalogServiceDeps{
		Catalog: catalog,
		Images:  images,
		Clock:   fixedClock(now),
		IDGenerator: func() string {
			counter++
			return fmt.Sprintf("id-%d", counter)
		},
	})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	return &catalogFixture{svc: svc, catalog: catalog, images: images}
}

func TestCreateProductDenormalizesCategoryName(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	fx := newCatalogFixture(t, now)
	fx.catalog.categories["cat-1"] = domain.Category{ID: "cat-1", Name: "Malas"}

	product, err := fx.svc.CreateProduct(context.Background(), UpsertProductCommand{
		Name:       "5 Mukhi Mala",
		Deity:      "Shiva",
		CategoryID: "cat-1",
		Price:      499,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if product.CategoryName != "Malas" {
		t.Fatalf("expected denormalized category name, got %q", product.CategoryName)
	}
	if !product.IsActive {
		t.Fatal("products default to active")
	}
	if !product.CreatedAt.Equal(now) {
		t.Fatalf("expected createdAt %v, got %v", now, product.CreatedAt)
	}
}

func TestCreateProductSanitizesDescription(t *testing.T) {
	fx := newCatalogFixture(t, time.Now())
	fx.catalog.categories["cat-1"] = domain.Category{ID: "cat-1", Name: "Malas"}

	product, err := fx.svc.CreateProduct(context.Background(), UpsertProductCommand{
		Name:        "Mala",
		CategoryID:  "cat-1",
		Price:       499,
		Description: `<p>Energised beads</p><script>alert("x")</script>`,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if strings.Contains(product.Description, "<script>") {
		t.Fatalf("script tags must be stripped, got %q", product.Description)
	}
	if !strings.Contains(product.Description, "Energised beads") {
		t.Fatalf("benign markup content must survive, got %q", product.Description)
	}
}

func TestCreateProductValidation(t *testing.T) {
	fx := newCatalogFixture(t, time.Now())

	cases := []struct {
		name string
		cmd  UpsertProductCommand
	}{
		{"missing name", UpsertProductCommand{CategoryID: "cat-1", Price: 10}},
		{"missing category", UpsertProductCommand{Name: "Mala", Price: 10}},
		{"zero price", UpsertProductCommand{Name: "Mala", CategoryID: "cat-1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := fx.svc.CreateProduct(context.Background(), tc.cmd); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestUpdateProductPreservesVariantAggregates(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	fx := newCatalogFixture(t, now)
	fx.catalog.products["prod-1"] = domain.Product{
		ID:            "prod-1",
		Name:          "Mala",
		CategoryID:    "cat-1",
		Price:         599,
		OriginalPrice: 799,
		HasVariants:   true,
		TotalStock:    14,
		IsActive:      true,
		CreatedAt:     now.Add(-time.Hour),
	}

	updated, err := fx.svc.UpdateProduct(context.Background(), UpsertProductCommand{
		ProductID:  "prod-1",
		Name:       "Mala Premium",
		CategoryID: "cat-1",
		Price:      999,
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.Price != 599 || updated.OriginalPrice != 799 {
		t.Fatalf("variant-derived price must survive a metadata edit, got %v/%v", updated.Price, updated.OriginalPrice)
	}
	if !updated.HasVariants || updated.TotalStock != 14 {
		t.Fatalf("variant aggregates must be preserved, got %#v", updated)
	}
	if updated.Name != "Mala Premium" {
		t.Fatalf("metadata edit lost, got %q", updated.Name)
	}
	if !updated.CreatedAt.Equal(now.Add(-time.Hour)) {
		t.Fatal("createdAt must be preserved on update")
	}
}

func TestUpdateProductNotFound(t *testing.T) {
	fx := newCatalogFixture(t, time.Now())
	_, err := fx.svc.UpdateProduct(context.Background(), UpsertProductCommand{
		ProductID: "missing", Name: "X", CategoryID: "cat-1", Price: 10,
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestSetVariantsRecomputesAggregates(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	fx := newCatalogFixture(t, now)
	fx.catalog.products["prod-1"] = domain.Product{ID: "prod-1", Name: "Mala", CategoryID: "cat-1", Price: 100}
	fx.catalog.variants["old-1"] = domain.Variant{ID: "old-1", ProductID: "prod-1", Size: "S", Price: 90, Stock: 2}

	product, err := fx.svc.SetVariants(context.Background(), "prod-1", []domain.Variant{
		{Size: "8mm", Price: 499, OriginalPrice: 599, Stock: 10},
		{Size: "10mm", Price: 699, Stock: 5},
	})
	if err != nil {
		t.Fatalf("SetVariants: %v", err)
	}

	if !product.HasVariants {
		t.Fatal("expected hasVariants true")
	}
	if product.TotalStock != 15 {
		t.Fatalf("expected total stock 15, got %d", product.TotalStock)
	}
	if product.Price != 499 || product.OriginalPrice != 599 {
		t.Fatalf("display price must come from the first variant, got %v/%v", product.Price, product.OriginalPrice)
	}

	if len(fx.catalog.deletedVariants) != 1 || fx.catalog.deletedVariants[0] != "old-1" {
		t.Fatalf("previous variants must be replaced, got %#v", fx.catalog.deletedVariants)
	}
	variants, _ := fx.catalog.ListVariantsByProduct(context.Background(), "prod-1")
	if len(variants) != 2 {
		t.Fatalf("expected 2 stored variants, got %d", len(variants))
	}
}

func TestSetVariantsRejectsBadInput(t *testing.T) {
	fx := newCatalogFixture(t, time.Now())
	fx.catalog.products["prod-1"] = domain.Product{ID: "prod-1", Name: "Mala", CategoryID: "cat-1", Price: 100}

	if _, err := fx.svc.SetVariants(context.Background(), "prod-1", []domain.Variant{
		{Size: "", Price: 499},
	}); err == nil {
		t.Fatal("expected missing size to be rejected")
	}
	if _, err := fx.svc.SetVariants(context.Background(), "prod-1", []domain.Variant{
		{Size: "8mm", Price: 0},
	}); err == nil {
		t.Fatal("expected non-positive price to be rejected")
	}
}

func TestDeleteProductCascades(t *testing.T) {
	fx := newCatalogFixture(t, time.Now())
	fx.catalog.products["prod-1"] = domain.Product{
		ID:     "prod-1",
		Name:   "Mala",
		Images: []string{"https://storage.example.com/products/prod-1/a.webp"},
	}
	fx.catalog.variants["var-1"] = domain.Variant{ID: "var-1", ProductID: "prod-1", Size: "S", Price: 10}

	if err := fx.svc.DeleteProduct(context.Background(), "prod-1"); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if len(fx.catalog.deletedVariants) != 1 {
		t.Fatalf("variants must be deleted with the product, got %#v", fx.catalog.deletedVariants)
	}
	if len(fx.images.deleted) != 1 {
		t.Fatalf("images must be cleaned up, got %#v", fx.images.deleted)
	}
}

func TestDeleteProductToleratesImageCleanupFailure(t *testing.T) {
	fx := newCatalogFixture(t, time.Now())
	fx.catalog.products["prod-1"] = domain.Product{
		ID:     "prod-1",
		Name:   "Mala",
		Images: []string{"https://storage.example.com/products/prod-1/a.webp"},
	}
	fx.images.deleteErr = errors.New("bucket unavailable")

	if err := fx.svc.DeleteProduct(context.Background(), "prod-1"); err != nil {
		t.Fatalf("image cleanup failure must not fail the delete: %v", err)
	}
	if _, ok := fx.catalog.products["prod-1"]; ok {
		t.Fatal("product should be gone")
	}
}

func TestUploadProductImagePaths(t *testing.T) {
	fx := newCatalogFixture(t, time.Now())

	url, err := fx.svc.UploadProductImage(context.Background(), UploadImageCommand{
		ProductID:   "prod-1",
		FileName:    "front.webp",
		ContentType: "image/webp",
		Body:        strings.NewReader("fake-bytes"),
	})
	if err != nil {
		t.Fatalf("UploadProductImage: %v", err)
	}
	if url != "https://storage.example.com/products/prod-1/front.webp" {
		t.Fatalf("unexpected url %q", url)
	}
	if fx.images.uploads["products/prod-1/front.webp"] != "image/webp" {
		t.Fatalf("unexpected uploads %#v", fx.images.uploads)
	}

	url, err = fx.svc.UploadProductImage(context.Background(), UploadImageCommand{
		CategoryID:  "cat-1",
		FileName:    "banner.jpg",
		ContentType: "image/jpeg",
		Body:        strings.NewReader("fake-bytes"),
	})
	if err != nil {
		t.Fatalf("UploadProductImage category: %v", err)
	}
	if url != "https://storage.example.com/categories/cat-1/banner.jpg" {
		t.Fatalf("unexpected url %q", url)
	}

	if _, err := fx.svc.UploadProductImage(context.Background(), UploadImageCommand{
		FileName: "stray.png",
		Body:     strings.NewReader(""),
	}); err == nil {
		t.Fatal("expected missing target to be rejected")
	}
}

func TestCategoryLifecycle(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	fx := newCatalogFixture(t, now)

	category, err := fx.svc.CreateCategory(context.Background(), UpsertCategoryCommand{
		Name:      "Bracelets",
		SortOrder: 2,
	})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if !category.IsActive {
		t.Fatal("categories default to active")
	}

	inactive := false
	updated, err := fx.svc.UpdateCategory(context.Background(), UpsertCategoryCommand{
		CategoryID: category.ID,
		Name:       "Bracelets",
		SortOrder:  3,
		IsActive:   &inactive,
	})
	if err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if updated.IsActive || updated.SortOrder != 3 {
		t.Fatalf("unexpected updated category %#v", updated)
	}
	if !updated.CreatedAt.Equal(category.CreatedAt) {
		t.Fatal("createdAt must be preserved on update")
	}

	if err := fx.svc.DeleteCategory(context.Background(), category.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if err := fx.svc.DeleteCategory(context.Background(), category.ID); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}
