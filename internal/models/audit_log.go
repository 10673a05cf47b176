package models

import "time"

type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// Audited content-type tags.
const (
	ContentTypeOrganization = "organization"
	ContentTypeProject      = "project"
	ContentTypeProjectRole  = "projectrole"
	ContentTypeTask         = "task"
	ContentTypeSection      = "section"
	ContentTypeLabel        = "label"
	ContentTypeUser         = "user"
	ContentTypeMembership   = "membership"
)

// FieldChange holds the old and new string representations of a field.
type FieldChange [2]string

// ChangeSet maps field names to their old/new values, restricted at
// write time to fields that actually differ.
type ChangeSet map[string]FieldChange

// AuditLog is an append-only record of a state-changing action. Rows
// are never updated or deleted once written. User is null for system
// actions.
type AuditLog struct {
	ID             uint64      `gorm:"primarykey" json:"id"`
	OrganizationID uint64      `gorm:"not null;index:idx_audit_logs_org_time,priority:1" json:"organization_id"`
	UserID         *uint64     `gorm:"index:idx_audit_logs_user_time,priority:1" json:"user_id,omitempty"`
	Action         AuditAction `gorm:"type:varchar(20);not null" json:"action"`
	ContentType    string      `gorm:"type:varchar(50);not null" json:"content_type"`
	ObjectID       uint64      `gorm:"not null" json:"object_id"`
	ObjectName     string      `gorm:"type:varchar(255)" json:"object_name"`
	Changes        ChangeSet   `gorm:"serializer:json" json:"changes"`
	CreatedAt      time.Time   `gorm:"index:idx_audit_logs_org_time,priority:2;index:idx_audit_logs_user_time,priority:2" json:"created_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
