package models

import "time"

// TaskSection is an ordered, project-scoped workflow stage. Default
// sections are seeded at project creation and cannot be deleted;
// deleting a custom section moves its tasks to the project's first
// default section.
type TaskSection struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	ProjectID uint64    `gorm:"not null;uniqueIndex:idx_sections_project_name,priority:1" json:"project_id"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_sections_project_name,priority:2" json:"name"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	IsDefault bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Tasks   []Task  `gorm:"foreignKey:SectionID" json:"tasks,omitempty"`
}
