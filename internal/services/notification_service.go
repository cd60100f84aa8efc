/**
 * @description
 * Notification Emitter and Notification Service.
 * The emitter translates domain events (price drops, approvals, split-savings signals)
 * into notification records. Every emit is handed to the Dispatcher, so delivery
 * failures are logged and never reach the triggering price update or comparison.
 *
 * Emitting the same logical event twice creates two notifications; deduplication is
 * left to the notification store.
 *
 * @dependencies
 * - backend/internal/models
 */

package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/groceryscout/backend/internal/logger"
	"github.com/groceryscout/backend/internal/models"
)

// NotificationEmitter is the fire-and-forget side of notifications
type NotificationEmitter struct {
	store      NotificationStore
	dispatcher *Dispatcher
}

// NewNotificationEmitter creates a new NotificationEmitter
func NewNotificationEmitter(store NotificationStore, dispatcher *Dispatcher) *NotificationEmitter {
	return &NotificationEmitter{
		store:      store,
		dispatcher: dispatcher,
	}
}

// Emit queues a notification for creation. It returns immediately.
func (e *NotificationEmitter) Emit(userID uuid.UUID, notificationType models.NotificationType, title, message string) {
	accepted := e.dispatcher.Submit("notification:"+string(notificationType), func(ctx context.Context) error {
		_, err := e.store.Create(ctx, userID, notificationType, title, message)
		return err
	})
	if !accepted {
		logger.Warn("NotificationEmitter: dropped %s notification for user %s", notificationType, userID)
	}
}

// PriceDrop notifies one shopper that a saved product got cheaper
func (e *NotificationEmitter) PriceDrop(userID uuid.UUID, productName string, event models.PriceDropEvent) {
	if productName == "" {
		productName = "A saved product"
	}
	title := fmt.Sprintf("%s dropped %d%%", productName, event.Percent)
	message := fmt.Sprintf("%s is now %s (was %s), saving you %s.",
		productName, event.NewPrice.StringFixed(2), event.OldPrice.StringFixed(2), event.Amount.StringFixed(2))
	e.Emit(userID, models.NotificationTypePriceDrop, title, message)
}

// Approval notifies a vendor or shopper about an approval decision taken elsewhere
func (e *NotificationEmitter) Approval(userID uuid.UUID, subject string, approved bool, reason string) {
	status := "approved"
	if !approved {
		status = "rejected"
	}
	title := fmt.Sprintf("%s %s", subject, status)
	message := fmt.Sprintf("Your %s was %s.", subject, status)
	if reason != "" {
		message = fmt.Sprintf("%s Reason: %s", message, reason)
	}
	e.Emit(userID, models.NotificationTypeApproval, title, message)
}

// SplitSavings tells a shopper that splitting the basket across stores pays off
func (e *NotificationEmitter) SplitSavings(userID uuid.UUID, plan models.AllocationPlan) {
	if plan.Savings == nil {
		return
	}
	title := fmt.Sprintf("Save %d%% by splitting your basket", plan.SavingsPercent)
	message := fmt.Sprintf("Buying across %d stores costs %s, %s less than the best single store.",
		len(plan.StoresUsed), plan.TotalCost.StringFixed(2), plan.Savings.StringFixed(2))
	e.Emit(userID, models.NotificationTypeSplitSavings, title, message)
}

// NotificationService handles the read side of notifications
type NotificationService struct {
	store NotificationStore
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

// GetUnreadNotifications returns unread notifications for a user
func (s *NotificationService) GetUnreadNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	return s.store.ListUnread(ctx, userID)
}

// MarkAsRead marks a specific notification as read
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}

// MarkAllAsRead marks all notifications as read for a user
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.store.MarkAllRead(ctx, userID)
}
