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

const discountCollection = "discounts"

// DiscountRepository persists discount codes.
type DiscountRepository struct {
	base     *pfirestore.BaseRepository[discountDocument]
	provider *pfirestore.Provider
}

// NewDiscountRepository constructs a Firestore-backed discount repository.
func NewDiscountRepository(provider *pfirestore.Provider) (*DiscountRepository, error) {
	if provider == nil {
		return nil, errors.New("discount repository requires firestore provider")
	}
	return &DiscountRepository{
		base:     pfirestore.NewBaseRepository[discountDocument](provider, discountCollection, nil, nil),
		provider: provider,
	}, nil
}

// Insert creates the discount, failing when the id already exists.
func (r *DiscountRepository) Insert(ctx context.Context, discount domain.Discount) error {
	if strings.TrimSpace(discount.ID) == "" {
		return errors.New("discount id is required")
	}
	_, err := r.base.Create(ctx, discount.ID, fromDomainDiscount(discount))
	return err
}

// FindByCode looks a discount up by its normalised (uppercase) code.
func (r *DiscountRepository) FindByCode(ctx context.Context, code string) (domain.Discount, error) {
	normalised := strings.ToUpper(strings.TrimSpace(code))
	if normalised == "" {
		return domain.Discount{}, errors.New("discount code is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("code", "==", normalised).Limit(1)
	})
	if err != nil {
		return domain.Discount{}, err
	}
	if len(docs) == 0 {
		return domain.Discount{}, pfirestore.WrapError("discounts.find_by_code", notFoundError(normalised))
	}
	return toDomainDiscount(docs[0].ID, docs[0].Data), nil
}

// List returns every discount, newest first.
func (r *DiscountRepository) List(ctx context.Context) ([]domain.Discount, error) {
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}

	discounts := make([]domain.Discount, 0, len(docs))
	for _, doc := range docs {
		discounts = append(discounts, toDomainDiscount(doc.ID, doc.Data))
	}
	return discounts, nil
}

// Delete removes the discount document.
func (r *DiscountRepository) Delete(ctx context.Context, discountID string) error {
	if strings.TrimSpace(discountID) == "" {
		return errors.New("discount id is required")
	}
	_, err := r.base.Delete(ctx, discountID)
	return err
}

// IncrementUsage bumps usedCount inside a transaction so concurrent redemptions
// cannot exceed the usage limit. Returns ErrDiscountExhausted at the limit.
func (r *DiscountRepository) IncrementUsage(ctx context.Context, discountID string) error {
	if strings.TrimSpace(discountID) == "" {
		return errors.New("discount id is required")
	}

	ref, err := r.base.DocumentRef(ctx, discountID)
	if err != nil {
		return err
	}

	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var doc discountDocument
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		if doc.UsageLimit > 0 && doc.UsedCount >= doc.UsageLimit {
			return repositories.ErrDiscountExhausted
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "usedCount", Value: doc.UsedCount + 1},
		})
	})
}

type discountDocument struct {
	Code       string    `firestore:"code"`
	Type       string    `firestore:"type"`
	Amount     float64   `firestore:"amount"`
	Expiry     time.Time `firestore:"expiry"`
	UsageLimit int       `firestore:"usageLimit"`
	UsedCount  int       `firestore:"usedCount"`
	CreatedAt  time.Time `firestore:"createdAt"`
}

func fromDomainDiscount(discount domain.Discount) discountDocument {
	return discountDocument{
		Code:       strings.ToUpper(strings.TrimSpace(discount.Code)),
		Type:       string(discount.Type),
		Amount:     discount.Amount,
		Expiry:     discount.Expiry,
		UsageLimit: discount.UsageLimit,
		UsedCount:  discount.UsedCount,
		CreatedAt:  discount.CreatedAt,
	}
}

func toDomainDiscount(id string, doc discountDocument) domain.Discount {
	return domain.Discount{
		ID:         id,
		Code:       doc.Code,
		Type:       domain.DiscountType(doc.Type),
		Amount:     doc.Amount,
		Expiry:     doc.Expiry,
		UsageLimit: doc.UsageLimit,
		UsedCount:  doc.UsedCount,
		CreatedAt:  doc.CreatedAt,
	}
}
