package models

import "time"

type Organization struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Members  []Membership `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
	Projects []Project    `gorm:"foreignKey:OrganizationID" json:"projects,omitempty"`
}
