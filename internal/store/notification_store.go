package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/models"
	"gorm.io/gorm"
)

// unreadLimit caps the unread list returned to clients
const unreadLimit = 50

// NotificationStore persists notifications
type NotificationStore struct {
	db *gorm.DB
}

// NewNotificationStore creates a new NotificationStore
func NewNotificationStore(db *gorm.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Create inserts a notification row
func (s *NotificationStore) Create(ctx context.Context, userID uuid.UUID, notificationType models.NotificationType, title, message string) (*models.Notification, error) {
	notification := &models.Notification{
		UserID:    userID,
		Type:      notificationType,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, classify("create notification", err, nil)
	}
	return notification, nil
}

// ListUnread returns the newest unread notifications of a user
func (s *NotificationStore) ListUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	notifications := make([]models.Notification, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND read = ?", userID, false).
		Order("created_at DESC").
		Limit(unreadLimit).
		Find(&notifications).Error
	if err != nil {
		return nil, classify("list notifications", err, nil)
	}
	return notifications, nil
}

// MarkRead flags one notification; other users' notifications are never touched.
func (s *NotificationStore) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true).Error
	return classify("mark notification read", err, nil)
}

// MarkAllRead flags every unread notification of a user
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	return classify("mark all notifications read", err, nil)
}
