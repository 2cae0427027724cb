package notification

import (
	"fmt"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/broadcast"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"
)

// listLimit caps how many notifications a single list call returns.
const listLimit = 50

// NotificationService manages per-user notifications and pushes new ones to
// the owner's realtime room.
type NotificationService struct {
	store  repository.Store
	events broadcast.Publisher
}

// NewNotificationService creates a new NotificationService instance.
func NewNotificationService(store repository.Store, events broadcast.Publisher) *NotificationService {
	return &NotificationService{
		store:  store,
		events: events,
	}
}

// ListForUser returns the user's notifications, newest first.
func (s *NotificationService) ListForUser(userID string) ([]model.Notification, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidInput)
	}

	out, err := s.store.ListNotificationsByUser(userID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list notifications for user %s: %w", userID, err)
	}
	return out, nil
}

// Create stores a notification and pushes it to the recipient's room. The
// push is best-effort; the stored record is the source of truth.
func (s *NotificationService) Create(userID, content, notifType string) (model.Notification, error) {
	if userID == "" || content == "" {
		return model.Notification{}, fmt.Errorf("service: %w - missing userID or content", auctionerrors.ErrInvalidInput)
	}
	switch notifType {
	case "":
		notifType = model.NotificationTypeSystem
	case model.NotificationTypeSystem, model.NotificationTypeMessage, model.NotificationTypeAlert:
	default:
		return model.Notification{}, fmt.Errorf("service: %w - unknown notification type %q", auctionerrors.ErrInvalidInput, notifType)
	}

	n := model.Notification{
		NotificationID: utils.GenerateID(),
		UserID:         userID,
		Content:        content,
		Status:         model.NotificationStatusUnread,
		Type:           notifType,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateNotification(n); err != nil {
		return model.Notification{}, fmt.Errorf("service: failed to create notification for user %s: %w", userID, err)
	}

	s.events.Publish(userID, broadcast.Event{Name: broadcast.EventNewNotification, Data: n})
	return n, nil
}

// MarkRead transitions a notification to read.
func (s *NotificationService) MarkRead(notificationID string) (model.Notification, error) {
	if notificationID == "" {
		return model.Notification{}, fmt.Errorf("service: %w - empty notification ID", auctionerrors.ErrInvalidInput)
	}

	n, err := s.store.MarkNotificationRead(notificationID)
	if err != nil {
		return model.Notification{}, fmt.Errorf("service: failed to mark notification %s read: %w", notificationID, err)
	}
	return n, nil
}

// Delete removes a notification.
func (s *NotificationService) Delete(notificationID string) error {
	if notificationID == "" {
		return fmt.Errorf("service: %w - empty notification ID", auctionerrors.ErrInvalidInput)
	}

	if err := s.store.DeleteNotification(notificationID); err != nil {
		return fmt.Errorf("service: failed to delete notification %s: %w", notificationID, err)
	}
	return nil
}
