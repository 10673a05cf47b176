package models

import "time"

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation asks a user to join an organization with a given role.
// The partial unique index enforces at most one pending invitation per
// (invited user, organization) pair; a duplicate race surfaces as a
// constraint violation.
type Invitation struct {
	ID             uint64           `gorm:"primarykey" json:"id"`
	OrganizationID uint64           `gorm:"not null;index:idx_invitations_org_status,priority:1;uniqueIndex:idx_invitations_one_pending,priority:2,where:status = 'pending'" json:"organization_id"`
	InvitedUserID  uint64           `gorm:"not null;index:idx_invitations_user_status,priority:1;uniqueIndex:idx_invitations_one_pending,priority:1,where:status = 'pending'" json:"invited_user_id"`
	InvitedByID    uint64           `gorm:"not null" json:"invited_by_id"`
	Role           Role             `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Status         InvitationStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_invitations_org_status,priority:2;index:idx_invitations_user_status,priority:2" json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	RespondedAt    *time.Time       `json:"responded_at,omitempty"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	InvitedUser  User         `gorm:"foreignKey:InvitedUserID" json:"invited_user,omitempty"`
	InvitedBy    User         `gorm:"foreignKey:InvitedByID" json:"invited_by,omitempty"`
}
