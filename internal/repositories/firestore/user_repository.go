package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	domain "github.com/rudraksha-store/api/internal/domain"
	pfirestore "github.com/rudraksha-store/api/internal/platform/firestore"
)

const userCollection = "users"

// UserRepository persists user documents keyed by canonical phone number.
type UserRepository struct {
	base     *pfirestore.BaseRepository[userDocument]
	provider *pfirestore.Provider
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}

	base := pfirestore.NewBaseRepository[userDocument](provider, userCollection, nil, nil)
	return &UserRepository{base: base, provider: provider}, nil
}

// FindByID loads the user document by phone number.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.User, error) {
	if r == nil || r.base == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	if strings.TrimSpace(userID) == "" {
		return domain.User{}, errors.New("user id is required")
	}

	doc, err := r.base.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	user := toDomainUser(doc.Data)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = doc.CreateTime
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = doc.UpdateTime
	}
	return user, nil
}

// Save upserts the full user document under its phone number.
func (r *UserRepository) Save(ctx context.Context, user domain.User) error {
	if r == nil || r.base == nil {
		return errors.New("user repository not initialised")
	}
	if strings.TrimSpace(user.PhoneNumber) == "" {
		return errors.New("user phone number is required")
	}

	_, err := r.base.Set(ctx, user.PhoneNumber, fromDomainUser(user, time.Now().UTC()))
	return err
}

// SetAddresses replaces the user's address list.
func (r *UserRepository) SetAddresses(ctx context.Context, userID string, addresses []domain.Address) error {
	_, err := r.base.Update(ctx, userID, []firestore.Update{
		{Path: "addresses", Value: fromDomainAddresses(addresses)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return err
}

// SetWishlist replaces the user's wishlist array.
func (r *UserRepository) SetWishlist(ctx context.Context, userID string, items []domain.WishlistItem) error {
	_, err := r.base.Update(ctx, userID, []firestore.Update{
		{Path: "wishlist", Value: fromDomainWishlist(items)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return err
}

// AppendOrderID adds the order id to the user's history. ArrayUnion keeps the list duplicate free.
func (r *UserRepository) AppendOrderID(ctx context.Context, userID, orderID string) error {
	if strings.TrimSpace(orderID) == "" {
		return errors.New("order id is required")
	}
	_, err := r.base.Update(ctx, userID, []firestore.Update{
		{Path: "orderIds", Value: firestore.ArrayUnion(orderID)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return err
}

// AddWishlistItem appends the item to the wishlist array.
func (r *UserRepository) AddWishlistItem(ctx context.Context, userID string, item domain.WishlistItem) error {
	_, err := r.base.Update(ctx, userID, []firestore.Update{
		{Path: "wishlist", Value: firestore.ArrayUnion(fromDomainWishlistItem(item))},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return err
}

// RemoveWishlistItem deletes array entries equal to the item across every field.
func (r *UserRepository) RemoveWishlistItem(ctx context.Context, userID string, item domain.WishlistItem) error {
	_, err := r.base.Update(ctx, userID, []firestore.Update{
		{Path: "wishlist", Value: firestore.ArrayRemove(fromDomainWishlistItem(item))},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	return err
}

type userDocument struct {
	Name        string                 `firestore:"name"`
	Email       string                 `firestore:"email"`
	PhoneNumber string                 `firestore:"phoneNumber"`
	Addresses   []addressDocument      `firestore:"addresses"`
	OrderIDs    []string               `firestore:"orderIds"`
	Wishlist    []wishlistItemDocument `firestore:"wishlist"`
	CreatedAt   time.Time              `firestore:"createdAt"`
	UpdatedAt   time.Time              `firestore:"updatedAt"`
}

type addressDocument struct {
	ID                string `firestore:"id"`
	Name              string `firestore:"name"`
	Phone             string `firestore:"phone"`
	DoorNo            string `firestore:"doorNo"`
	City              string `firestore:"city,omitempty"`
	Pincode           string `firestore:"pincode"`
	Landmark          string `firestore:"landmark,omitempty"`
	AddressType       string `firestore:"addressType"`
	CustomAddressName string `firestore:"customAddressName,omitempty"`
	IsDefault         bool   `firestore:"isDefault"`
}

type wishlistItemDocument struct {
	ID            string    `firestore:"id"`
	ProductID     string    `firestore:"productId"`
	Name          string    `firestore:"name"`
	Deity         string    `firestore:"deity,omitempty"`
	CategoryName  string    `firestore:"categoryName,omitempty"`
	Price         float64   `firestore:"price"`
	OriginalPrice float64   `firestore:"originalPrice,omitempty"`
	Image         string    `firestore:"image,omitempty"`
	Badge         string    `firestore:"badge,omitempty"`
	HasVariants   bool      `firestore:"hasVariants"`
	AddedAt       time.Time `firestore:"addedAt"`
}

func toDomainUser(doc userDocument) domain.User {
	user := domain.User{
		Name:        doc.Name,
		Email:       strings.TrimSpace(doc.Email),
		PhoneNumber: strings.TrimSpace(doc.PhoneNumber),
		OrderIDs:    append([]string(nil), doc.OrderIDs...),
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	for _, a := range doc.Addresses {
		user.Addresses = append(user.Addresses, domain.Address{
			ID:                a.ID,
			Name:              a.Name,
			Phone:             a.Phone,
			DoorNo:            a.DoorNo,
			City:              a.City,
			Pincode:           a.Pincode,
			Landmark:          a.Landmark,
			AddressType:       domain.AddressType(a.AddressType),
			CustomAddressName: a.CustomAddressName,
			IsDefault:         a.IsDefault,
		})
	}
	for _, w := range doc.Wishlist {
		user.Wishlist = append(user.Wishlist, toDomainWishlistItem(w))
	}
	return user
}

func fromDomainUser(user domain.User, now time.Time) userDocument {
	doc := userDocument{
		Name:        strings.TrimSpace(user.Name),
		Email:       strings.ToLower(strings.TrimSpace(user.Email)),
		PhoneNumber: strings.TrimSpace(user.PhoneNumber),
		Addresses:   fromDomainAddresses(user.Addresses),
		OrderIDs:    user.OrderIDs,
		Wishlist:    fromDomainWishlist(user.Wishlist),
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   now,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.OrderIDs == nil {
		doc.OrderIDs = []string{}
	}
	if doc.Addresses == nil {
		doc.Addresses = []addressDocument{}
	}
	if doc.Wishlist == nil {
		doc.Wishlist = []wishlistItemDocument{}
	}
	return doc
}

func fromDomainAddresses(addresses []domain.Address) []addressDocument {
	if len(addresses) == 0 {
		return []addressDocument{}
	}
	docs := make([]addressDocument, 0, len(addresses))
	for _, a := range addresses {
		docs = append(docs, addressDocument{
			ID:                a.ID,
			Name:              strings.TrimSpace(a.Name),
			Phone:             strings.TrimSpace(a.Phone),
			DoorNo:            strings.TrimSpace(a.DoorNo),
			City:              strings.TrimSpace(a.City),
			Pincode:           strings.TrimSpace(a.Pincode),
			Landmark:          strings.TrimSpace(a.Landmark),
			AddressType:       string(a.AddressType),
			CustomAddressName: strings.TrimSpace(a.CustomAddressName),
			IsDefault:         a.IsDefault,
		})
	}
	return docs
}

func fromDomainWishlist(items []domain.WishlistItem) []wishlistItemDocument {
	if len(items) == 0 {
		return []wishlistItemDocument{}
	}
	docs := make([]wishlistItemDocument, 0, len(items))
	for _, item := range items {
		docs = append(docs, fromDomainWishlistItem(item))
	}
	return docs
}

func fromDomainWishlistItem(item domain.WishlistItem) wishlistItemDocument {
	return wishlistItemDocument{
		ID:            item.ID,
		ProductID:     item.ProductID,
		Name:          item.Name,
		Deity:         item.Deity,
		CategoryName:  item.CategoryName,
		Price:         item.Price,
		OriginalPrice: item.OriginalPrice,
		Image:         item.Image,
		Badge:         item.Badge,
		HasVariants:   item.HasVariants,
		AddedAt:       item.AddedAt,
	}
}

func toDomainWishlistItem(doc wishlistItemDocument) domain.WishlistItem {
	return domain.WishlistItem{
		ID:            doc.ID,
		ProductID:     doc.ProductID,
		Name:          doc.Name,
		Deity:         doc.Deity,
		CategoryName:  doc.CategoryName,
		Price:         doc.Price,
		OriginalPrice: doc.OriginalPrice,
		Image:         doc.Image,
		Badge:         doc.Badge,
		HasVariants:   doc.HasVariants,
		AddedAt:       doc.AddedAt,
	}
}
