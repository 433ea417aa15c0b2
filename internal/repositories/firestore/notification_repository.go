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

const notificationCollection = "notifications"

// NotificationRepository records back-office notification entries.
type NotificationRepository struct {
	base *pfirestore.BaseRepository[notificationDocument]
}

// NewNotificationRepository constructs a Firestore-backed notification repository.
func NewNotificationRepository(provider *pfirestore.Provider) (*NotificationRepository, error) {
	if provider == nil {
		return nil, errors.New("notification repository requires firestore provider")
	}
	return &NotificationRepository{
		base: pfirestore.NewBaseRepository[notificationDocument](provider, notificationCollection, nil, nil),
	}, nil
}

// Insert writes the notification document.
func (r *NotificationRepository) Insert(ctx context.Context, notification domain.Notification) error {
	if strings.TrimSpace(notification.ID) == "" {
		return errors.New("notification id is required")
	}
	_, err := r.base.Create(ctx, notification.ID, fromDomainNotification(notification))
	return err
}

// ListByUser returns the user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user id is required")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.Where("userId", "==", userID).OrderBy("createdAt", firestore.Desc)
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q
	})
	if err != nil {
		return nil, err
	}
	return toDomainNotifications(docs), nil
}

// List returns notifications across all users, newest first.
func (r *NotificationRepository) List(ctx context.Context, limit int) ([]domain.Notification, error) {
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.OrderBy("createdAt", firestore.Desc)
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q
	})
	if err != nil {
		return nil, err
	}
	return toDomainNotifications(docs), nil
}

type notificationDocument struct {
	Type      string            `firestore:"type"`
	UserID    string            `firestore:"userId,omitempty"`
	OrderID   string            `firestore:"orderId,omitempty"`
	ProductID string            `firestore:"productId,omitempty"`
	Title     string            `firestore:"title"`
	Message   string            `firestore:"message"`
	Metadata  map[string]any    `firestore:"metadata,omitempty"`
	CreatedAt time.Time         `firestore:"createdAt"`
}

func fromDomainNotification(notification domain.Notification) notificationDocument {
	return notificationDocument{
		Type:      notification.Type,
		UserID:    notification.UserID,
		OrderID:   notification.OrderID,
		ProductID: notification.ProductID,
		Title:     notification.Title,
		Message:   notification.Message,
		Metadata:  notification.Metadata,
		CreatedAt: notification.CreatedAt,
	}
}

func toDomainNotifications(docs []pfirestore.Document[notificationDocument]) []domain.Notification {
	notifications := make([]domain.Notification, 0, len(docs))
	for _, doc := range docs {
		notifications = append(notifications, domain.Notification{
			ID:        doc.ID,
			Type:      doc.Data.Type,
			UserID:    doc.Data.UserID,
			OrderID:   doc.Data.OrderID,
			ProductID: doc.Data.ProductID,
			Title:     doc.Data.Title,
			Message:   doc.Data.Message,
			Metadata:  doc.Data.Metadata,
			CreatedAt: doc.Data.CreatedAt,
		})
	}
	return notifications
}
