package models

import "time"

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

type Project struct {
	ID             uint64        `gorm:"primarykey" json:"id"`
	Name           string        `gorm:"type:varchar(255);not null;uniqueIndex:idx_projects_org_name,priority:2" json:"name"`
	Description    string        `gorm:"type:text" json:"description"`
	OrganizationID uint64        `gorm:"not null;uniqueIndex:idx_projects_org_name,priority:1;index:idx_projects_org_status,priority:1" json:"organization_id"`
	CreatedByID    *uint64       `json:"created_by_id,omitempty"`
	Status         ProjectStatus `gorm:"type:varchar(20);not null;default:'active';index:idx_projects_org_status,priority:2" json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	// Relations
	Organization Organization  `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	CreatedBy    *User         `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Roles        []ProjectRole `gorm:"foreignKey:ProjectID" json:"roles,omitempty"`
	Tasks        []Task        `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
	Sections     []TaskSection `gorm:"foreignKey:ProjectID" json:"sections,omitempty"`
	Labels       []TaskLabel   `gorm:"foreignKey:ProjectID" json:"labels,omitempty"`
}
