package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	domain "github.com/rudraksha-store/api/internal/domain"
	"github.com/rudraksha-store/api/internal/platform/auth"
	"github.com/rudraksha-store/api/internal/repositories"
)

var (
	errUserIDRequired    = errors.New("user: user id is required")
	errInvalidUserID     = errors.New("user: invalid user id")
	errUserNotFound      = errors.New("user: not found")
	errAddressIDRequired = errors.New("user: address id is required")
	errAddressNotFound   = errors.New("user: address not found")
	errInvalidPincode    = errors.New("user: pincode must be exactly 6 digits")
	errInvalidAddrType   = errors.New("user: address type must be home, office, or other")
	errCustomNameState   = errors.New("user: custom address name is required exactly when address type is other")
	errAddressRecipient  = errors.New("user: address recipient name is required")
	errAddressDoorNo     = errors.New("user: address door number is required")

	pincodePattern = regexp.MustCompile(`^\d{6}$`)
)

var (
	// ErrUserNotFound indicates no user document exists for the id.
	ErrUserNotFound = errUserNotFound
	// ErrInvalidUserID indicates the id is neither a phone number nor a guest id.
	ErrInvalidUserID = errInvalidUserID
	// ErrAddressNotFound indicates the referenced address does not exist on the user.
	ErrAddressNotFound = errAddressNotFound
)

// UserServiceDeps bundles the dependencies required to construct a user service instance.
type UserServiceDeps struct {
	Users  repositories.UserRepository
	Orders repositories.OrderRepository
	Clock  func() time.Time
}

type userService struct {
	users  repositories.UserRepository
	orders repositories.OrderRepository
	clock  func() time.Time
}

// NewUserService wires dependencies into a concrete UserService implementation.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Users == nil {
		return nil, errors.New("user service: user repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("user service: order repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &userService{
		users:  deps.Users,
		orders: deps.Orders,
		clock: func() time.Time {
			return clock().UTC()
		},
	}, nil
}

func (s *userService) CreateOrUpdateUser(ctx context.Context, cmd UpsertUserCommand) (User, error) {
	userID, err := canonicalUserID(cmd.UserID)
	if err != nil {
		return User{}, err
	}

	now := s.clock()
	existing, err := s.users.FindByID(ctx, userID)
	switch {
	case err == nil:
	case isNotFound(err):
		existing = User{PhoneNumber: userID, CreatedAt: now}
	default:
		return User{}, err
	}

	updated := existing
	updated.PhoneNumber = userID
	if cmd.Name != nil {
		updated.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.Email != nil {
		updated.Email = strings.ToLower(strings.TrimSpace(*cmd.Email))
	}
	// Omitted arrays keep their stored values so a profile edit cannot wipe
	// addresses, wishlist entries, or order history.
	if cmd.Addresses != nil {
		updated.Addresses = cmd.Addresses
	}
	if cmd.Wishlist != nil {
		updated.Wishlist = cmd.Wishlist
	}
	if cmd.OrderIDs != nil {
		updated.OrderIDs = cmd.OrderIDs
	}
	updated.UpdatedAt = now

	if err := s.users.Save(ctx, updated); err != nil {
		return User{}, err
	}
	return updated, nil
}

func (s *userService) GetUser(ctx context.Context, userID string) (User, error) {
	canonical, err := canonicalUserID(userID)
	if err != nil {
		return User{}, err
	}

	user, err := s.users.FindByID(ctx, canonical)
	if err != nil {
		if isNotFound(err) {
			return User{}, errUserNotFound
		}
		return User{}, err
	}
	return user, nil
}

// GetUserWithOrders resolves the user's order history by the indexed userId
// query, falling back to per-id lookups for orders written before the userId
// field existed.
func (s *userService) GetUserWithOrders(ctx context.Context, userID string) (UserWithOrders, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return UserWithOrders{}, err
	}

	orders, err := s.orders.ListByUser(ctx, user.PhoneNumber)
	if err != nil {
		return UserWithOrders{}, err
	}
	if len(orders) == 0 && len(user.OrderIDs) > 0 {
		orders = s.ordersByIDs(ctx, user.OrderIDs)
	}
	return UserWithOrders{User: user, Orders: orders}, nil
}

func (s *userService) ordersByIDs(ctx context.Context, orderIDs []string) []Order {
	orders := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		order, err := s.orders.FindByID(ctx, id)
		if err != nil {
			continue
		}
		orders = append(orders, order)
	}
	for i := 0; i < len(orders); i++ {
		for j := i + 1; j < len(orders); j++ {
			if orders[j].OrderDate.After(orders[i].OrderDate) {
				orders[i], orders[j] = orders[j], orders[i]
			}
		}
	}
	return orders
}

// AddOrderToUser links the order to the user's history. A missing user document
// is created first so guest checkouts still accumulate history.
func (s *userService) AddOrderToUser(ctx context.Context, userID, orderID string) error {
	canonical, err := canonicalUserID(userID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(orderID) == "" {
		return errors.New("user: order id is required")
	}

	err = s.users.AppendOrderID(ctx, canonical, orderID)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return err
	}

	now := s.clock()
	seed := User{
		PhoneNumber: canonical,
		OrderIDs:    []string{orderID},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.users.Save(ctx, seed)
}

func (s *userService) ListAddresses(ctx context.Context, userID string) ([]Address, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Addresses, nil
}

func (s *userService) AddAddress(ctx context.Context, userID string, address Address) (Address, error) {
	sanitized, err := sanitizeAddress(address)
	if err != nil {
		return Address{}, err
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return Address{}, err
	}

	now := s.clock()
	sanitized.ID = fmt.Sprintf("addr_%d", now.UnixMilli())
	if len(user.Addresses) == 0 {
		sanitized.IsDefault = true
	}

	addresses := append([]Address(nil), user.Addresses...)
	if sanitized.IsDefault {
		for i := range addresses {
			addresses[i].IsDefault = false
		}
	}
	addresses = append(addresses, sanitized)

	if err := s.users.SetAddresses(ctx, user.PhoneNumber, addresses); err != nil {
		return Address{}, err
	}
	return sanitized, nil
}

func (s *userService) UpdateAddress(ctx context.Context, userID string, address Address) (Address, error) {
	if strings.TrimSpace(address.ID) == "" {
		return Address{}, errAddressIDRequired
	}
	sanitized, err := sanitizeAddress(address)
	if err != nil {
		return Address{}, err
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return Address{}, err
	}

	addresses := append([]Address(nil), user.Addresses...)
	index := -1
	for i, addr := range addresses {
		if addr.ID == address.ID {
			index = i
			break
		}
	}
	if index < 0 {
		return Address{}, errAddressNotFound
	}

	sanitized.ID = addresses[index].ID
	if sanitized.IsDefault {
		for i := range addresses {
			addresses[i].IsDefault = false
		}
	} else if addresses[index].IsDefault {
		// An edit never leaves the list without a default address.
		sanitized.IsDefault = true
	}
	addresses[index] = sanitized

	if err := s.users.SetAddresses(ctx, user.PhoneNumber, addresses); err != nil {
		return Address{}, err
	}
	return sanitized, nil
}

func (s *userService) RemoveAddress(ctx context.Context, userID, addressID string) error {
	if strings.TrimSpace(addressID) == "" {
		return errAddressIDRequired
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	remaining := make([]Address, 0, len(user.Addresses))
	removedDefault := false
	found := false
	for _, addr := range user.Addresses {
		if addr.ID == addressID {
			found = true
			removedDefault = addr.IsDefault
			continue
		}
		remaining = append(remaining, addr)
	}
	if !found {
		return errAddressNotFound
	}
	if removedDefault && len(remaining) > 0 {
		remaining[0].IsDefault = true
	}

	return s.users.SetAddresses(ctx, user.PhoneNumber, remaining)
}

func (s *userService) SetDefaultAddress(ctx context.Context, userID, addressID string) error {
	if strings.TrimSpace(addressID) == "" {
		return errAddressIDRequired
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	addresses := append([]Address(nil), user.Addresses...)
	found := false
	for i := range addresses {
		if addresses[i].ID == addressID {
			addresses[i].IsDefault = true
			found = true
		} else {
			addresses[i].IsDefault = false
		}
	}
	if !found {
		return errAddressNotFound
	}

	return s.users.SetAddresses(ctx, user.PhoneNumber, addresses)
}

func canonicalUserID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errUserIDRequired
	}
	canonical := auth.StandardizeUserID(trimmed)
	if !auth.IsValidUserID(canonical) {
		return "", fmt.Errorf("%w: %q", errInvalidUserID, raw)
	}
	return canonical, nil
}

func sanitizeAddress(addr Address) (Address, error) {
	sanitized := Address{
		ID:                strings.TrimSpace(addr.ID),
		Name:              strings.TrimSpace(addr.Name),
		Phone:             strings.TrimSpace(addr.Phone),
		DoorNo:            strings.TrimSpace(addr.DoorNo),
		City:              strings.TrimSpace(addr.City),
		Pincode:           strings.TrimSpace(addr.Pincode),
		Landmark:          strings.TrimSpace(addr.Landmark),
		AddressType:       addr.AddressType,
		CustomAddressName: strings.TrimSpace(addr.CustomAddressName),
		IsDefault:         addr.IsDefault,
	}

	if sanitized.Name == "" {
		return Address{}, errAddressRecipient
	}
	if sanitized.DoorNo == "" {
		return Address{}, errAddressDoorNo
	}
	if !pincodePattern.MatchString(sanitized.Pincode) {
		return Address{}, errInvalidPincode
	}

	switch sanitized.AddressType {
	case "":
		sanitized.AddressType = domain.AddressTypeHome
	case domain.AddressTypeHome, domain.AddressTypeOffice, domain.AddressTypeOther:
	default:
		return Address{}, errInvalidAddrType
	}

	if sanitized.AddressType == domain.AddressTypeOther {
		if sanitized.CustomAddressName == "" {
			return Address{}, errCustomNameState
		}
	} else if sanitized.CustomAddressName != "" {
		return Address{}, errCustomNameState
	}

	return sanitized, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}

func isConflict(err error) bool {
	if err == nil {
		return false
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsConflict()
	}
	return false
}
