package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/rudraksha-store/api/internal/platform/requestctx"
	"github.com/rudraksha-store/api/internal/repositories"
)

// NotificationServiceDeps bundles the dependencies required to construct a notification service instance.
type NotificationServiceDeps struct {
	Notifications repositories.NotificationRepository
	// Publisher is optional. When set, recorded events are also emitted to the bus.
	Publisher   NotificationPublisher
	Clock       func() time.Time
	IDGenerator func() string
}

type notificationService struct {
	notifications repositories.NotificationRepository
	publisher     NotificationPublisher
	clock         func() time.Time
	newID         func() string
}

// NewNotificationService wires dependencies into a concrete NotificationService implementation.
func NewNotificationService(deps NotificationServiceDeps) (NotificationService, error) {
	if deps.Notifications == nil {
		return nil, errors.New("notification service: notification repository is required")
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

	return &notificationService{
		notifications: deps.Notifications,
		publisher:     deps.Publisher,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: newID,
	}, nil
}

// Record appends the event to the notification log and emits it to the event
// bus. Both writes are best effort: failures are logged and swallowed so a
// notification can never fail the order or payment flow that produced it.
func (s *notificationService) Record(ctx context.Context, cmd RecordNotificationCommand) {
	if strings.TrimSpace(cmd.Type) == "" {
		requestctx.Logger(ctx).Warn("notification dropped: missing type")
		return
	}

	notification := Notification{
		ID:        s.newID(),
		Type:      strings.TrimSpace(cmd.Type),
		UserID:    strings.TrimSpace(cmd.UserID),
		OrderID:   strings.TrimSpace(cmd.OrderID),
		ProductID: strings.TrimSpace(cmd.ProductID),
		Title:     strings.TrimSpace(cmd.Title),
		Message:   strings.TrimSpace(cmd.Message),
		Metadata:  cmd.Metadata,
		CreatedAt: s.clock(),
	}

	if err := s.notifications.Insert(ctx, notification); err != nil {
		requestctx.Logger(ctx).Warn("notification write failed",
			zap.String("type", notification.Type),
			zap.String("orderId", notification.OrderID),
			zap.Error(err))
	}

	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.PublishNotification(ctx, notification); err != nil {
		requestctx.Logger(ctx).Warn("notification publish failed",
			zap.String("type", notification.Type),
			zap.String("notificationId", notification.ID),
			zap.Error(err))
	}
}

func (s *notificationService) ListByUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	canonical, err := canonicalUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.notifications.ListByUser(ctx, canonical, limit)
}

func (s *notificationService) ListAll(ctx context.Context, limit int) ([]Notification, error) {
	return s.notifications.List(ctx, limit)
}
