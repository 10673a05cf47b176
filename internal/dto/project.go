package dto

import (
	"time"

	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/utils"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID             uint64               `json:"id"`
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	OrganizationID uint64               `json:"organization_id"`
	Status         models.ProjectStatus `json:"status"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// ProjectMemberDTO represents a project role binding in API responses
type ProjectMemberDTO struct {
	User       UserDTO     `json:"user"`
	Role       models.Role `json:"role"`
	AssignedAt time.Time   `json:"assigned_at"`
}

// SectionDTO represents a workflow section in API responses
type SectionDTO struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	IsDefault bool   `json:"is_default"`
}

// LabelDTO represents a task label in API responses
type LabelDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects   []ProjectDTO             `json:"projects"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:             project.ID,
		Name:           project.Name,
		Description:    project.Description,
		OrganizationID: project.OrganizationID,
		Status:         project.Status,
		CreatedAt:      project.CreatedAt,
		UpdatedAt:      project.UpdatedAt,
	}
}

// ToProjectMemberDTO converts a ProjectRole model to ProjectMemberDTO
func ToProjectMemberDTO(role models.ProjectRole) ProjectMemberDTO {
	return ProjectMemberDTO{
		User:       ToUserDTO(role.User),
		Role:       role.Role,
		AssignedAt: role.AssignedAt,
	}
}

// ToSectionDTO converts a TaskSection model to SectionDTO
func ToSectionDTO(section models.TaskSection) SectionDTO {
	return SectionDTO{
		ID:        section.ID,
		Name:      section.Name,
		Position:  section.Position,
		IsDefault: section.IsDefault,
	}
}

// ToLabelDTO converts a TaskLabel model to LabelDTO
func ToLabelDTO(label models.TaskLabel) LabelDTO {
	return LabelDTO{
		ID:    label.ID,
		Name:  label.Name,
		Color: label.Color,
	}
}

// ToProjectListResponse converts projects to a paginated response
func ToProjectListResponse(projects []models.Project, params utils.PaginationParams, total int64) ProjectListResponse {
	items := make([]ProjectDTO, len(projects))
	for i, project := range projects {
		items[i] = ToProjectDTO(project)
	}

	return ProjectListResponse{
		Projects: items,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	}
}
