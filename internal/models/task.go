package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether s is one of the four workflow statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

type Task struct {
	ID          uint64  `gorm:"primarykey" json:"id"`
	Title       string  `gorm:"type:varchar(255);not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	ProjectID   uint64  `gorm:"not null;index:idx_tasks_project_status_position,priority:1" json:"project_id"`
	SectionID   *uint64 `gorm:"index" json:"section_id,omitempty"`

	AssignedToID       *uint64       `gorm:"index" json:"assigned_to_id,omitempty"`
	AssignedToSnapshot ActorSnapshot `gorm:"embedded;embeddedPrefix:assigned_to_" json:"assigned_to_snapshot"`
	CreatedByID        *uint64       `json:"created_by_id,omitempty"`
	AuthorSnapshot     ActorSnapshot `gorm:"embedded;embeddedPrefix:author_" json:"author_snapshot"`

	Status   TaskStatus   `gorm:"type:varchar(20);not null;default:'todo';index:idx_tasks_project_status_position,priority:2" json:"status"`
	Priority TaskPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Position int          `gorm:"not null;default:0;index:idx_tasks_project_status_position,priority:3" json:"position"`

	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Time tracking. Elapsed time while the timer runs is computed from
	// TimerStartedAt and folded into TimeSpentMinutes on stop; concurrent
	// stop calls are last-write-wins.
	TimeSpentMinutes int        `gorm:"not null;default:0" json:"time_spent_minutes"`
	IsTimerRunning   bool       `gorm:"not null;default:false" json:"is_timer_running"`
	TimerStartedAt   *time.Time `json:"timer_started_at,omitempty"`
	EstimatedHours   *float64   `json:"estimated_hours,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Project    Project      `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Section    *TaskSection `gorm:"foreignKey:SectionID" json:"section,omitempty"`
	AssignedTo *User        `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	CreatedBy  *User        `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Comments   []TaskComment `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
}
