package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/rudraksha-store/api/internal/domain"
	"github.com/rudraksha-store/api/internal/repositories"
)

var (
	errDiscountCodeRequired = errors.New("discount: code is required")
	errDiscountNotFound     = errors.New("discount: not found")
	errDiscountBadType      = errors.New("discount: type must be percentage or fixed")
	errDiscountBadAmount    = errors.New("discount: amount must be positive")
	errDiscountBadPercent   = errors.New("discount: percentage must not exceed 100")
	errDiscountBadExpiry    = errors.New("discount: expiry must be in the future")
	errDiscountExhausted    = errors.New("discount: usage limit reached")
)

var (
	// ErrDiscountNotFound indicates no discount exists for the code or id.
	ErrDiscountNotFound = errDiscountNotFound
	// ErrDiscountExhausted indicates the code's usage limit has been consumed.
	ErrDiscountExhausted = errDiscountExhausted
)

const (
	reasonDiscountExpired   = "expired"
	reasonDiscountExhausted = "usage limit reached"
)

// DiscountServiceDeps bundles the dependencies required to construct a discount service instance.
type DiscountServiceDeps struct {
	Discounts   repositories.DiscountRepository
	Clock       func() time.Time
	IDGenerator func() string
}

type discountService struct {
	discounts repositories.DiscountRepository
	clock     func() time.Time
	newID     func() string
}

// NewDiscountService wires dependencies into a concrete DiscountService implementation.
func NewDiscountService(deps DiscountServiceDeps) (DiscountService, error) {
	if deps.Discounts == nil {
		return nil, errors.New("discount service: discount repository is required")
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

	return &discountService{
		discounts: deps.Discounts,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: newID,
	}, nil
}

func (s *discountService) CreateDiscount(ctx context.Context, cmd CreateDiscountCommand) (Discount, error) {
	code := strings.ToUpper(strings.TrimSpace(cmd.Code))
	if code == "" {
		return Discount{}, errDiscountCodeRequired
	}
	switch cmd.Type {
	case domain.DiscountTypePercentage:
		if cmd.Amount > 100 {
			return Discount{}, errDiscountBadPercent
		}
	case domain.DiscountTypeFixed:
	default:
		return Discount{}, errDiscountBadType
	}
	if cmd.Amount <= 0 {
		return Discount{}, errDiscountBadAmount
	}
	now := s.clock()
	if !cmd.Expiry.After(now) {
		return Discount{}, errDiscountBadExpiry
	}

	discount := Discount{
		ID:         s.newID(),
		Code:       code,
		Type:       cmd.Type,
		Amount:     cmd.Amount,
		Expiry:     cmd.Expiry.UTC(),
		UsageLimit: cmd.UsageLimit,
		CreatedAt:  now,
	}
	if err := s.discounts.Insert(ctx, discount); err != nil {
		return Discount{}, err
	}
	return discount, nil
}

func (s *discountService) ListDiscounts(ctx context.Context) ([]Discount, error) {
	return s.discounts.List(ctx)
}

func (s *discountService) DeleteDiscount(ctx context.Context, discountID string) error {
	if strings.TrimSpace(discountID) == "" {
		return errors.New("discount: discount id is required")
	}
	err := s.discounts.Delete(ctx, discountID)
	if isNotFound(err) {
		return errDiscountNotFound
	}
	return err
}

// ValidateCode reports business failures (unknown code, expiry, exhaustion) in
// the result rather than as errors. Only infrastructure failures return an error.
func (s *discountService) ValidateCode(ctx context.Context, code string, subtotal float64) (DiscountValidation, error) {
	if strings.TrimSpace(code) == "" {
		return DiscountValidation{}, errDiscountCodeRequired
	}

	discount, err := s.discounts.FindByCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return DiscountValidation{Valid: false, Reason: "invalid code"}, nil
		}
		return DiscountValidation{}, err
	}

	now := s.clock()
	if !now.Before(discount.Expiry) {
		return DiscountValidation{Valid: false, Reason: reasonDiscountExpired, Discount: discount}, nil
	}
	if discount.UsageLimit > 0 && discount.UsedCount >= discount.UsageLimit {
		return DiscountValidation{Valid: false, Reason: reasonDiscountExhausted, Discount: discount}, nil
	}

	return DiscountValidation{
		Valid:    true,
		Discount: discount,
		Amount:   CalculateDiscountAmount(discount, subtotal),
	}, nil
}

// UseCode re-validates the code then consumes one usage atomically at the
// store layer, so concurrent redemptions cannot exceed the limit.
func (s *discountService) UseCode(ctx context.Context, code string) (Discount, error) {
	validation, err := s.ValidateCode(ctx, code, 0)
	if err != nil {
		return Discount{}, err
	}
	if !validation.Valid {
		switch validation.Reason {
		case reasonDiscountExhausted:
			return Discount{}, errDiscountExhausted
		default:
			return Discount{}, errDiscountNotFound
		}
	}

	discount := validation.Discount
	if err := s.discounts.IncrementUsage(ctx, discount.ID); err != nil {
		if errors.Is(err, repositories.ErrDiscountExhausted) {
			return Discount{}, errDiscountExhausted
		}
		return Discount{}, err
	}
	discount.UsedCount++
	return discount, nil
}

// CalculateDiscountAmount computes the money value of a discount against a
// subtotal. Fixed discounts are clamped to the subtotal so the final amount
// can never go negative.
func CalculateDiscountAmount(discount Discount, subtotal float64) float64 {
	if subtotal <= 0 {
		return 0
	}
	switch discount.Type {
	case domain.DiscountTypePercentage:
		return roundMoney(subtotal * discount.Amount / 100)
	case domain.DiscountTypeFixed:
		if discount.Amount > subtotal {
			return subtotal
		}
		return discount.Amount
	default:
		return 0
	}
}
