package dto

import (
	"time"

	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/utils"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID               uint64              `json:"id"`
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	ProjectID        uint64              `json:"project_id"`
	SectionID        *uint64             `json:"section_id,omitempty"`
	Status           models.TaskStatus   `json:"status"`
	Priority         models.TaskPriority `json:"priority"`
	Position         int                 `json:"position"`
	AssignedToID     *uint64             `json:"assigned_to_id,omitempty"`
	AssignedTo       *ActorDTO           `json:"assigned_to,omitempty"`
	CreatedByID      *uint64             `json:"created_by_id,omitempty"`
	Author           ActorDTO            `json:"author"`
	DueDate          *time.Time          `json:"due_date,omitempty"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty"`
	TimeSpentMinutes int                 `json:"time_spent_minutes"`
	IsTimerRunning   bool                `json:"is_timer_running"`
	TimerStartedAt   *time.Time          `json:"timer_started_at,omitempty"`
	EstimatedHours   *float64            `json:"estimated_hours,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	Section          *SectionDTO         `json:"section,omitempty"`
}

// CommentDTO represents a task comment in API responses
type CommentDTO struct {
	ID        uint64    `json:"id"`
	TaskID    uint64    `json:"task_id"`
	Author    ActorDTO  `json:"author"`
	Content   string    `json:"content"`
	Mentions  []string  `json:"mentions"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:               task.ID,
		Title:            task.Title,
		Description:      task.Description,
		ProjectID:        task.ProjectID,
		SectionID:        task.SectionID,
		Status:           task.Status,
		Priority:         task.Priority,
		Position:         task.Position,
		AssignedToID:     task.AssignedToID,
		CreatedByID:      task.CreatedByID,
		Author:           ToActorDTO(task.AuthorSnapshot),
		DueDate:          task.DueDate,
		CompletedAt:      task.CompletedAt,
		TimeSpentMinutes: task.TimeSpentMinutes,
		IsTimerRunning:   task.IsTimerRunning,
		TimerStartedAt:   task.TimerStartedAt,
		EstimatedHours:   task.EstimatedHours,
		CreatedAt:        task.CreatedAt,
		UpdatedAt:        task.UpdatedAt,
	}

	if task.AssignedToID != nil {
		assigned := ToActorDTO(task.AssignedToSnapshot)
		dto.AssignedTo = &assigned
	}

	// Include section if preloaded
	if task.Section != nil {
		section := ToSectionDTO(*task.Section)
		dto.Section = &section
	}

	return dto
}

// ToCommentDTO converts a TaskComment model to CommentDTO
func ToCommentDTO(comment models.TaskComment) CommentDTO {
	mentions := comment.Mentions
	if mentions == nil {
		mentions = []string{}
	}
	return CommentDTO{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		Author:    ToActorDTO(comment.AuthorSnapshot),
		Content:   comment.Content,
		Mentions:  mentions,
		CreatedAt: comment.CreatedAt,
	}
}

// ToTaskListResponse converts tasks to a paginated response
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks: items,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	}
}
