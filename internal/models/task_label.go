package models

import "time"

type TaskLabel struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	ProjectID uint64    `gorm:"not null;uniqueIndex:idx_labels_project_name,priority:1" json:"project_id"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_labels_project_name,priority:2" json:"name"`
	Color     string    `gorm:"type:varchar(20)" json:"color"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}
