package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/rudraksha-store/api/internal/domain"
	"github.com/rudraksha-store/api/internal/repositories"
)

type stubDiscountRepo struct {
	byCode   map[string]domain.Discount
	inserted []domain.Discount
	deleted  []string
}

func newStubDiscountRepo() *stubDiscountRepo {
	return &stubDiscountRepo{byCode: make(map[string]domain.Discount)}
}

func (r *stubDiscountRepo) Insert(_ context.Context, discount domain.Discount) error {
	r.byCode[discount.Code] = discount
	r.inserted = append(r.inserted, discount)
	return nil
}

func (r *stubDiscountRepo) FindByCode(_ context.Context, code string) (domain.Discount, error) {
	discount, ok := r.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return domain.Discount{}, errStubNotFound
	}
	return discount, nil
}

func (r *stubDiscountRepo) List(_ context.Context) ([]domain.Discount, error) {
	discounts := make([]domain.Discount, 0, len(r.byCode))
	for _, discount := range r.byCode {
		discounts = append(discounts, discount)
	}
	return discounts, nil
}

func (r *stubDiscountRepo) Delete(_ context.Context, discountID string) error {
	for code, discount := range r.byCode {
		if discount.ID == discountID {
			delete(r.byCode, code)
			r.deleted = append(r.deleted, discountID)
			return nil
		}
	}
	return errStubNotFound
}

func (r *stubDiscountRepo) IncrementUsage(_ context.Context, discountID string) error {
	for code, discount := range r.byCode {
		if discount.ID != discountID {
			continue
		}
		if discount.UsageLimit > 0 && discount.UsedCount >= discount.UsageLimit {
			return repositories.ErrDiscountExhausted
		}
		discount.UsedCount++
		r.byCode[code] = discount
		return nil
	}
	return errStubNotFound
}

func newTestDiscountService(t *testing.T, repo *stubDiscountRepo, now time.Time) DiscountService {
	t.Helper()
	svc, err := NewDiscountService(DiscountServiceDeps{
		Discounts:   repo,
		Clock:       fixedClock(now),
		IDGenerator: func() string { return "disc-1" },
	})
	if err != nil {
		t.Fatalf("NewDiscountService: %v", err)
	}
	return svc
}

func TestCreateDiscountUppercasesCode(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	repo := newStubDiscountRepo()
	svc := newTestDiscountService(t, repo, now)

	discount, err := svc.CreateDiscount(context.Background(), CreateDiscountCommand{
		Code:   "  shiva10 ",
		Type:   domain.DiscountTypePercentage,
		Amount: 10,
		Expiry: now.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateDiscount: %v", err)
	}
	if discount.Code != "SHIVA10" {
		t.Fatalf("expected uppercase code, got %q", discount.Code)
	}
	if discount.ID != "disc-1" {
		t.Fatalf("unexpected id %q", discount.ID)
	}
}

func TestCreateDiscountValidation(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestDiscountService(t, newStubDiscountRepo(), now)

	cases := []struct {
		name string
		cmd  CreateDiscountCommand
	}{
		{"empty code", CreateDiscountCommand{Type: domain.DiscountTypeFixed, Amount: 10, Expiry: now.Add(time.Hour)}},
		{"bad type", CreateDiscountCommand{Code: "X", Type: "bogo", Amount: 10, Expiry: now.Add(time.Hour)}},
		{"zero amount", CreateDiscountCommand{Code: "X", Type: domain.DiscountTypeFixed, Amount: 0, Expiry: now.Add(time.Hour)}},
		{"percent over 100", CreateDiscountCommand{Code: "X", Type: domain.DiscountTypePercentage, Amount: 150, Expiry: now.Add(time.Hour)}},
		{"past expiry", CreateDiscountCommand{Code: "X", Type: domain.DiscountTypeFixed, Amount: 10, Expiry: now.Add(-time.Hour)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateDiscount(context.Background(), tc.cmd); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateCodeOutcomes(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	repo := newStubDiscountRepo()
	repo.byCode["FRESH10"] = domain.Discount{ID: "d1", Code: "FRESH10", Type: domain.DiscountTypePercentage, Amount: 10, Expiry: now.Add(time.Hour)}
	repo.byCode["OLD"] = domain.Discount{ID: "d2", Code: "OLD", Type: domain.DiscountTypeFixed, Amount: 50, Expiry: now.Add(-time.Minute)}
	repo.byCode["SPENT"] = domain.Discount{ID: "d3", Code: "SPENT", Type: domain.DiscountTypeFixed, Amount: 50, Expiry: now.Add(time.Hour), UsageLimit: 5, UsedCount: 5}
	svc := newTestDiscountService(t, repo, now)

	cases := []struct {
		name       string
		code       string
		wantValid  bool
		wantReason string
		wantAmount float64
	}{
		{"valid lowercased input", "fresh10", true, "", 100},
		{"unknown", "NOPE", false, "invalid code", 0},
		{"expired", "OLD", false, "expired", 0},
		{"exhausted", "SPENT", false, "usage limit reached", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.ValidateCode(context.Background(), tc.code, 1000)
			if err != nil {
				t.Fatalf("ValidateCode: %v", err)
			}
			if result.Valid != tc.wantValid || result.Reason != tc.wantReason || result.Amount != tc.wantAmount {
				t.Fatalf("unexpected validation %#v", result)
			}
		})
	}
}

func TestUseCodeConsumesUsage(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	repo := newStubDiscountRepo()
	repo.byCode["LAST1"] = domain.Discount{ID: "d1", Code: "LAST1", Type: domain.DiscountTypeFixed, Amount: 50, Expiry: now.Add(time.Hour), UsageLimit: 1}
	svc := newTestDiscountService(t, repo, now)

	discount, err := svc.UseCode(context.Background(), "last1")
	if err != nil {
		t.Fatalf("UseCode: %v", err)
	}
	if discount.UsedCount != 1 {
		t.Fatalf("expected usedCount 1, got %d", discount.UsedCount)
	}

	if _, err := svc.UseCode(context.Background(), "LAST1"); !errors.Is(err, ErrDiscountExhausted) {
		t.Fatalf("expected ErrDiscountExhausted, got %v", err)
	}
}

func TestUseCodeUnknown(t *testing.T) {
	svc := newTestDiscountService(t, newStubDiscountRepo(), time.Now())
	if _, err := svc.UseCode(context.Background(), "NOPE"); !errors.Is(err, ErrDiscountNotFound) {
		t.Fatalf("expected ErrDiscountNotFound, got %v", err)
	}
}

func TestCalculateDiscountAmount(t *testing.T) {
	percentage := domain.Discount{Type: domain.DiscountTypePercentage, Amount: 12.5}
	fixed := domain.Discount{Type: domain.DiscountTypeFixed, Amount: 500}

	cases := []struct {
		name     string
		discount domain.Discount
		subtotal float64
		want     float64
	}{
		{"percentage rounds to paise", percentage, 999, 124.88},
		{"fixed under subtotal", fixed, 1200, 500},
		{"fixed clamped to subtotal", fixed, 300, 300},
		{"zero subtotal", fixed, 0, 0},
		{"negative subtotal", percentage, -10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CalculateDiscountAmount(tc.discount, tc.subtotal); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestDeleteDiscountNotFound(t *testing.T) {
	svc := newTestDiscountService(t, newStubDiscountRepo(), time.Now())
	if err := svc.DeleteDiscount(context.Background(), "missing"); !errors.Is(err, ErrDiscountNotFound) {
		t.Fatalf("expected ErrDiscountNotFound, got %v", err)
	}
}
