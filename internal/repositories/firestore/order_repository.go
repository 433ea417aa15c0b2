package firestore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	domain "github.com/rudraksha-store/api/internal/domain"
	pfirestore "github.com/rudraksha-store/api/internal/platform/firestore"
	"github.com/rudraksha-store/api/internal/repositories"
)

const orderCollection = "orders"

type orderQueryFunc func(ctx context.Context, build pfirestore.QueryBuilder) ([]pfirestore.Document[orderDocument], error)

// OrderRepository persists order documents and answers gateway reconciliation lookups.
type OrderRepository struct {
	base *pfirestore.BaseRepository[orderDocument]
	// query runs collection queries. Tests substitute it to exercise error paths.
	query orderQueryFunc
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, orderCollection, nil, nil)
	return &OrderRepository{
		base:  base,
		query: base.Query,
	}, nil
}

// Insert creates the order document, failing when the id already exists.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order id is required")
	}
	_, err := r.base.Create(ctx, order.ID, fromDomainOrder(order))
	return err
}

// FindByID loads an order document by id.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return domain.Order{}, errors.New("order id is required")
	}
	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return toDomainOrder(doc.ID, doc.Data), nil
}

// FindByGatewayOrderID locates the order created for a gateway order. Callbacks key on this id.
func (r *OrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (domain.Order, error) {
	if strings.TrimSpace(gatewayOrderID) == "" {
		return domain.Order{}, errors.New("gateway order id is required")
	}

	docs, err := r.query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("razorpayOrderId", "==", gatewayOrderID).Limit(1)
	})
	if err != nil {
		return domain.Order{}, err
	}
	if len(docs) == 0 {
		return domain.Order{}, pfirestore.WrapError("orders.find_by_gateway_order", notFoundError(gatewayOrderID))
	}
	return toDomainOrder(docs[0].ID, docs[0].Data), nil
}

// ListByUser returns the user's orders newest first. When the composite index backing
// the ordered query is unavailable the query is retried unordered and sorted in memory.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user id is required")
	}

	docs, err := r.query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("userId", "==", userID).OrderBy("orderDate", firestore.Desc)
	})
	if err != nil {
		if !isIndexError(err) {
			return nil, err
		}
		docs, err = r.query(ctx, func(q firestore.Query) firestore.Query {
			return q.Where("userId", "==", userID)
		})
		if err != nil {
			return nil, err
		}
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, toDomainOrder(doc.ID, doc.Data))
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
	return orders, nil
}

// List returns orders for the back office, newest first, optionally filtered.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	docs, err := r.query(ctx, func(q firestore.Query) firestore.Query {
		if filter.Status != "" {
			q = q.Where("status", "==", string(filter.Status))
		}
		if filter.PaymentStatus != "" {
			q = q.Where("paymentStatus", "==", string(filter.PaymentStatus))
		}
		q = q.OrderBy("orderDate", firestore.Desc)
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		return q
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, toDomainOrder(doc.ID, doc.Data))
	}
	return orders, nil
}

// UpdatePayment writes only the payment axis of the order.
func (r *OrderRepository) UpdatePayment(ctx context.Context, orderID string, update repositories.PaymentUpdate) error {
	if strings.TrimSpace(orderID) == "" {
		return errors.New("order id is required")
	}

	updates := []firestore.Update{
		{Path: "paymentStatus", Value: string(update.PaymentStatus)},
	}
	if update.GatewayPaymentID != "" {
		updates = append(updates, firestore.Update{Path: "razorpayPaymentId", Value: update.GatewayPaymentID})
	}
	if update.GatewaySignature != "" {
		updates = append(updates, firestore.Update{Path: "razorpaySignature", Value: update.GatewaySignature})
	}
	if update.PaidAt != nil {
		updates = append(updates, firestore.Update{Path: "paidAt", Value: *update.PaidAt})
	}
	_, err := r.base.Update(ctx, orderID, updates)
	return err
}

// UpdateStatus writes the fulfilment status. The reason is stored only for cancellations.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, cancellationReason string) error {
	if strings.TrimSpace(orderID) == "" {
		return errors.New("order id is required")
	}

	updates := []firestore.Update{
		{Path: "status", Value: string(status)},
	}
	if status == domain.OrderStatusCancelled {
		updates = append(updates, firestore.Update{Path: "cancellationReason", Value: cancellationReason})
	}
	_, err := r.base.Update(ctx, orderID, updates)
	return err
}

func isIndexError(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}

type orderDocument struct {
	UserID             string              `firestore:"userId"`
	OrderNumber        string              `firestore:"orderNumber"`
	CustomerInfo       customerInfoDoc     `firestore:"customerInfo"`
	Items              []orderItemDocument `firestore:"items"`
	Subtotal           float64             `firestore:"subtotal"`
	ShippingCost       float64             `firestore:"shippingCost"`
	Total              float64             `firestore:"total"`
	RazorpayOrderID    string              `firestore:"razorpayOrderId,omitempty"`
	RazorpayPaymentID  string              `firestore:"razorpayPaymentId,omitempty"`
	RazorpaySignature  string              `firestore:"razorpaySignature,omitempty"`
	Status             string              `firestore:"status"`
	PaymentStatus      string              `firestore:"paymentStatus"`
	OrderDate          time.Time           `firestore:"orderDate"`
	PaidAt             *time.Time          `firestore:"paidAt,omitempty"`
	CancellationReason string              `firestore:"cancellationReason,omitempty"`
}

type customerInfoDoc struct {
	Name    string `firestore:"name"`
	Phone   string `firestore:"phone"`
	Email   string `firestore:"email,omitempty"`
	Address string `firestore:"address"`
	City    string `firestore:"city"`
	State   string `firestore:"state,omitempty"`
	Pincode string `firestore:"pincode"`
}

type orderItemDocument struct {
	ProductID  string  `firestore:"productId"`
	VariantID  string  `firestore:"variantId,omitempty"`
	Name       string  `firestore:"name"`
	Image      string  `firestore:"image,omitempty"`
	Quantity   int     `firestore:"quantity"`
	Price      float64 `firestore:"price"`
	Discount   float64 `firestore:"discount,omitempty"`
	TotalPrice float64 `firestore:"totalPrice"`
}

func fromDomainOrder(order domain.Order) orderDocument {
	doc := orderDocument{
		UserID:      order.UserID,
		OrderNumber: order.OrderNumber,
		CustomerInfo: customerInfoDoc{
			Name:    order.CustomerInfo.Name,
			Phone:   order.CustomerInfo.Phone,
			Email:   order.CustomerInfo.Email,
			Address: order.CustomerInfo.Address,
			City:    order.CustomerInfo.City,
			State:   order.CustomerInfo.State,
			Pincode: order.CustomerInfo.Pincode,
		},
		Subtotal:           order.Subtotal,
		ShippingCost:       order.ShippingCost,
		Total:              order.Total,
		RazorpayOrderID:    order.RazorpayOrderID,
		RazorpayPaymentID:  order.RazorpayPaymentID,
		RazorpaySignature:  order.RazorpaySignature,
		Status:             string(order.Status),
		PaymentStatus:      string(order.PaymentStatus),
		OrderDate:          order.OrderDate,
		PaidAt:             order.PaidAt,
		CancellationReason: order.CancellationReason,
	}
	doc.Items = make([]orderItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		doc.Items = append(doc.Items, orderItemDocument{
			ProductID:  item.ProductID,
			VariantID:  item.VariantID,
			Name:       item.Name,
			Image:      item.Image,
			Quantity:   item.Quantity,
			Price:      item.Price,
			Discount:   item.Discount,
			TotalPrice: item.TotalPrice,
		})
	}
	return doc
}

func toDomainOrder(id string, doc orderDocument) domain.Order {
	order := domain.Order{
		ID:          id,
		UserID:      doc.UserID,
		OrderNumber: doc.OrderNumber,
		CustomerInfo: domain.CustomerInfo{
			Name:    doc.CustomerInfo.Name,
			Phone:   doc.CustomerInfo.Phone,
			Email:   doc.CustomerInfo.Email,
			Address: doc.CustomerInfo.Address,
			City:    doc.CustomerInfo.City,
			State:   doc.CustomerInfo.State,
			Pincode: doc.CustomerInfo.Pincode,
		},
		Subtotal:           doc.Subtotal,
		ShippingCost:       doc.ShippingCost,
		Total:              doc.Total,
		RazorpayOrderID:    doc.RazorpayOrderID,
		RazorpayPaymentID:  doc.RazorpayPaymentID,
		RazorpaySignature:  doc.RazorpaySignature,
		Status:             domain.OrderStatus(doc.Status),
		PaymentStatus:      domain.PaymentStatus(doc.PaymentStatus),
		OrderDate:          doc.OrderDate,
		PaidAt:             doc.PaidAt,
		CancellationReason: doc.CancellationReason,
	}
	for _, item := range doc.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:  item.ProductID,
			VariantID:  item.VariantID,
			Name:       item.Name,
			Image:      item.Image,
			Quantity:   item.Quantity,
			Price:      item.Price,
			Discount:   item.Discount,
			TotalPrice: item.TotalPrice,
		})
	}
	return order
}
