package services

import (
	"errors"
	"fmt"

	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound      = errors.New("notification not found")
	ErrNotificationNotActionable = errors.New("notification is not actionable")
	ErrInvalidNotificationAction = errors.New("invalid notification action")
)

// NotificationService reads a user's notification feed and resolves
// actionable notifications.
type NotificationService struct {
	notifRepo   repository.NotificationRepository
	invitations *InvitationService
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifRepo repository.NotificationRepository, invitations *InvitationService) *NotificationService {
	return &NotificationService{
		notifRepo:   notifRepo,
		invitations: invitations,
	}
}

// List lists the user's notifications newest first.
func (s *NotificationService) List(userID uint64, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error) {
	notifications, total, err := s.notifRepo.ListForUser(userID, unreadOnly, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// UnreadCount counts the user's unread notifications.
func (s *NotificationService) UnreadCount(userID uint64) (int64, error) {
	count, err := s.notifRepo.CountUnread(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications read. A notification
// belonging to someone else is indistinguishable from a missing one.
func (s *NotificationService) MarkRead(id, userID uint64) error {
	if err := s.notifRepo.MarkRead(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks all of the user's notifications read. Idempotent;
// returns how many were newly marked.
func (s *NotificationService) MarkAllRead(userID uint64) (int64, error) {
	count, err := s.notifRepo.MarkAllRead(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return count, nil
}

// RespondToInvitation accepts or declines an invitation through its
// actionable notification. The underlying invitation state machine is
// authoritative; the notification merely carries the reference.
func (s *NotificationService) RespondToInvitation(notificationID, userID uint64, accept bool) (*models.Notification, error) {
	n, err := s.notifRepo.FindByID(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}
	if n.UserID != userID {
		return nil, ErrNotificationNotFound
	}
	if n.Type != models.NotificationInvitation || n.ActionStatus != models.ActionPending {
		return nil, ErrNotificationNotActionable
	}

	invitationID, ok := invitationIDFromActionData(n.ActionData)
	if !ok {
		return nil, ErrNotificationNotActionable
	}

	if accept {
		_, err = s.invitations.Accept(invitationID, userID)
	} else {
		_, err = s.invitations.Decline(invitationID, userID)
	}
	if err != nil {
		return nil, err
	}

	// Accept/Decline resolved the action status on the stored row.
	return s.notifRepo.FindByID(notificationID)
}

// invitationIDFromActionData digs the invitation reference out of the
// stored JSON action data.
func invitationIDFromActionData(data map[string]any) (uint64, bool) {
	raw, ok := data["invitation_id"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return uint64(v), true
	case uint64:
		return v, true
	}
	return 0, false
}
