package models

import "time"

type NotificationType string

const (
	NotificationInvitation         NotificationType = "invitation"
	NotificationInvitationAccepted NotificationType = "invitation_accepted"
	NotificationInvitationDeclined NotificationType = "invitation_declined"
	NotificationTaskAssigned       NotificationType = "task_assigned"
	NotificationTaskComment        NotificationType = "task_comment"
	NotificationMention            NotificationType = "mention"
	NotificationMemberDeleted      NotificationType = "member_deleted"
)

// ActionStatus tracks the state of an actionable notification, e.g. an
// invitation the recipient can accept or decline in place.
type ActionStatus string

const (
	ActionNone     ActionStatus = "none"
	ActionPending  ActionStatus = "pending"
	ActionAccepted ActionStatus = "accepted"
	ActionDeclined ActionStatus = "declined"
)

// Notification is created by the side-effect pipeline as a consequence
// of another entity's mutation and is never mutated afterwards except
// to flip IsRead or resolve ActionStatus.
type Notification struct {
	ID           uint64           `gorm:"primarykey" json:"id"`
	UserID       uint64           `gorm:"not null;index:idx_notifications_user_read,priority:1" json:"user_id"`
	Type         NotificationType `gorm:"type:varchar(30);not null" json:"type"`
	Title        string           `gorm:"type:varchar(255);not null" json:"title"`
	Message      string           `gorm:"type:text" json:"message"`
	IsRead       bool             `gorm:"not null;default:false;index:idx_notifications_user_read,priority:2" json:"is_read"`
	ActionStatus ActionStatus     `gorm:"type:varchar(20);not null;default:'none'" json:"action_status"`
	ActionData   map[string]any   `gorm:"serializer:json" json:"action_data,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
