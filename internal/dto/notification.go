package dto

import (
	"time"

	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/utils"
)

// NotificationDTO represents a notification in API responses
type NotificationDTO struct {
	ID           uint64                  `json:"id"`
	Type         models.NotificationType `json:"type"`
	Title        string                  `json:"title"`
	Message      string                  `json:"message"`
	IsRead       bool                    `json:"is_read"`
	ActionStatus models.ActionStatus     `json:"action_status"`
	ActionData   map[string]any          `json:"action_data,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
}

// NotificationListResponse represents a paginated notification feed
type NotificationListResponse struct {
	Notifications []NotificationDTO        `json:"notifications"`
	UnreadCount   int64                    `json:"unread_count"`
	Pagination    utils.PaginationResponse `json:"pagination"`
}

// ToNotificationDTO converts a Notification model to NotificationDTO
func ToNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:           n.ID,
		Type:         n.Type,
		Title:        n.Title,
		Message:      n.Message,
		IsRead:       n.IsRead,
		ActionStatus: n.ActionStatus,
		ActionData:   n.ActionData,
		CreatedAt:    n.CreatedAt,
	}
}

// ToNotificationListResponse converts notifications to a paginated
// response including the unread counter
func ToNotificationListResponse(ns []models.Notification, unread int64, params utils.PaginationParams, total int64) NotificationListResponse {
	items := make([]NotificationDTO, len(ns))
	for i, n := range ns {
		items[i] = ToNotificationDTO(n)
	}

	return NotificationListResponse{
		Notifications: items,
		UnreadCount:   unread,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	}
}
