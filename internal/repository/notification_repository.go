package repository

import (
	"github.com/navflow/navflow-api/internal/database"
	"github.com/navflow/navflow-api/internal/models"
	"gorm.io/gorm"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create creates a notification
func (r *GormNotificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

// CreateBatch creates several notifications at once
func (r *GormNotificationRepository) CreateBatch(ns []models.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return r.db.Create(&ns).Error
}

// FindByID finds a notification by ID
func (r *GormNotificationRepository) FindByID(id uint64) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListForUser lists a user's notifications newest first
func (r *GormNotificationRepository) ListForUser(userID uint64, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.
		Order("created_at DESC").
		Scopes(database.Paginate(page, pageSize))

	var notifications []models.Notification
	if err := listQuery.Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// CountUnread counts a user's unread notifications
func (r *GormNotificationRepository) CountUnread(userID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one of the user's notifications read
func (r *GormNotificationRepository) MarkRead(id, userID uint64) error {
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead marks all of the user's notifications read and returns
// how many rows changed. Calling it again is a no-op.
func (r *GormNotificationRepository) MarkAllRead(userID uint64) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// Update updates a notification
func (r *GormNotificationRepository) Update(n *models.Notification) error {
	return r.db.Save(n).Error
}

// FindInvitationAction finds the user's pending actionable notification
// for an invitation. The invitation ID lives inside the JSON action
// data, so candidates are filtered in memory.
func (r *GormNotificationRepository) FindInvitationAction(userID, invitationID uint64) (*models.Notification, error) {
	var candidates []models.Notification
	if err := r.db.Where(
		"user_id = ? AND type = ? AND action_status = ?",
		userID, models.NotificationInvitation, models.ActionPending,
	).Find(&candidates).Error; err != nil {
		return nil, err
	}

	for i := range candidates {
		raw, ok := candidates[i].ActionData["invitation_id"]
		if !ok {
			continue
		}
		// JSON numbers decode as float64.
		switch v := raw.(type) {
		case float64:
			if uint64(v) == invitationID {
				return &candidates[i], nil
			}
		case uint64:
			if v == invitationID {
				return &candidates[i], nil
			}
		}
	}

	return nil, gorm.ErrRecordNotFound
}
