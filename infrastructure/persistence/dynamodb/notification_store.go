package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskboard/application/ports"
	"taskboard/domain/entities"
	"taskboard/infrastructure/config"
	apperrors "taskboard/pkg/errors"
)

// NotificationStore implements ports.NotificationStore on the per-user
// Notifications table, keyed (userId, createdAt).
type NotificationStore struct {
	client   StoreClient
	table    string
	validate *validator.Validate
	logger   *zap.Logger
}

// NewNotificationStore creates a new NotificationStore.
func NewNotificationStore(client StoreClient, cfg *config.Config, logger *zap.Logger) *NotificationStore {
	return &NotificationStore{
		client:   client,
		table:    cfg.NotificationsTable,
		validate: validator.New(),
		logger:   logger,
	}
}

var _ ports.NotificationStore = (*NotificationStore)(nil)

// Create mints an id and timestamps and writes the notification unread.
// The creation timestamp doubles as the sort key: two notifications for
// one user inside the same nanosecond would overwrite each other. Not
// mitigated; the timestamp precision keeps the window negligible.
func (s *NotificationStore) Create(ctx context.Context, in ports.CreateNotificationInput) (*entities.Notification, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	now := nowISO()
	notification := &entities.Notification{
		NotificationID: uuid.NewString(),
		UserID:         in.UserID,
		Message:        in.Message,
		Type:           in.Type,
		Read:           false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	item, err := encodeNotification(notification)
	if err != nil {
		return nil, err
	}
	if err := s.client.Put(ctx, s.table, item); err != nil {
		s.logger.Error("failed to create notification",
			zap.Error(err),
			zap.String("userId", in.UserID),
		)
		return nil, err
	}

	s.logger.Debug("notification created",
		zap.String("notificationId", notification.NotificationID),
		zap.String("userId", notification.UserID),
		zap.String("type", string(notification.Type)),
	)
	return notification, nil
}

// GetByUser returns the user's notifications, most recent first: the sort
// key is the creation timestamp, so a reversed partition query is already
// in reverse chronological order.
func (s *NotificationStore) GetByUser(ctx context.Context, userID string) ([]entities.Notification, error) {
	items, err := s.client.QueryPartition(ctx, s.table, "userId", userID, "createdAt", "", false)
	if err != nil {
		return nil, err
	}
	return decodeNotifications(items)
}

// FindByID resolves a notification by its id with a full-table scan.
// Development-only fallback; the id is not indexed.
func (s *NotificationStore) FindByID(ctx context.Context, notificationID string) (*entities.Notification, error) {
	s.logger.Warn("resolving notification by id via full-table scan", zap.String("notificationId", notificationID))
	items, err := s.client.Scan(ctx, s.table, "notificationId", notificationID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return decodeNotification(items[0])
}

// MarkRead flips one notification to read with a conditional update: a
// missing notification is NOT_FOUND, not an upserted stub.
func (s *NotificationStore) MarkRead(ctx context.Context, userID, createdAt string) (*entities.Notification, error) {
	set := Item{
		"read":      &types.AttributeValueMemberBOOL{Value: true},
		"updatedAt": &types.AttributeValueMemberS{Value: nowISO()},
	}

	newItem, err := s.client.Update(ctx, s.table, notificationKey(userID, createdAt), set, true)
	if err == ErrConditionFailed {
		return nil, apperrors.NewNotFoundError("notification")
	}
	if err != nil {
		return nil, err
	}
	return decodeNotification(newItem)
}

// MarkAllRead reads the user's notifications, keeps the unread ones and
// rewrites each as read. Rewrites are chunked at the transaction bound:
// each chunk is atomic, the whole operation is not, and no chunk is ever
// silently dropped.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID string) error {
	notifications, err := s.GetByUser(ctx, userID)
	if err != nil {
		return err
	}

	now := nowISO()
	var ops []TransactOp
	for i := range notifications {
		if notifications[i].Read {
			continue
		}
		notifications[i].Read = true
		notifications[i].UpdatedAt = now
		item, err := encodeNotification(&notifications[i])
		if err != nil {
			return err
		}
		ops = append(ops, TransactOp{Table: s.table, Put: item})
	}
	if len(ops) == 0 {
		return nil
	}

	for _, chunk := range chunkOps(ops, MaxTransactItems) {
		if err := s.client.TransactWrite(ctx, chunk); err != nil {
			return err
		}
	}

	s.logger.Info("notifications marked read",
		zap.String("userId", userID),
		zap.Int("count", len(ops)),
	)
	return nil
}

// Delete removes one notification by its full key.
func (s *NotificationStore) Delete(ctx context.Context, userID, createdAt string) error {
	return s.client.Delete(ctx, s.table, notificationKey(userID, createdAt))
}
