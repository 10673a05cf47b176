package models

import "time"

// ProjectRole binds a user to a project with a role. It is an
// independent role space from the organization Membership; a valid
// ProjectRole additionally requires membership in the project's parent
// organization. The partial unique index admits at most one owner row
// per project.
type ProjectRole struct {
	ProjectID  uint64    `gorm:"primarykey;index:idx_project_roles_project_role,priority:1;uniqueIndex:idx_project_roles_one_owner,where:role = 'owner'" json:"project_id"`
	UserID     uint64    `gorm:"primarykey" json:"user_id"`
	Role       Role      `gorm:"type:varchar(20);not null;default:'member';index:idx_project_roles_project_role,priority:2" json:"role"`
	AssignedAt time.Time `json:"assigned_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
