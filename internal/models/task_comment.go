package models

import "time"

// TaskComment records a comment on a task. Author identity is
// denormalized at write time and @username mentions are extracted into
// Mentions when the comment is saved.
type TaskComment struct {
	ID             uint64        `gorm:"primarykey" json:"id"`
	TaskID         uint64        `gorm:"not null;index" json:"task_id"`
	AuthorID       *uint64       `json:"author_id,omitempty"`
	AuthorSnapshot ActorSnapshot `gorm:"embedded;embeddedPrefix:author_" json:"author_snapshot"`
	Content        string        `gorm:"type:text;not null" json:"content"`
	Mentions       []string      `gorm:"serializer:json" json:"mentions"`
	CreatedAt      time.Time     `json:"created_at"`

	// Relations
	Task   Task  `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
