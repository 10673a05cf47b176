package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/navflow/navflow-api/internal/dto"
	apierrors "github.com/navflow/navflow-api/internal/errors"
	"github.com/navflow/navflow-api/internal/middleware"
	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/repository"
	"github.com/navflow/navflow-api/internal/services"
	"github.com/navflow/navflow-api/internal/utils"
)

// ProjectHandler coordinates project HTTP handlers.
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// Create creates a new project in an organization.
func (h *ProjectHandler) Create(c *gin.Context) {
	type CreateRequest struct {
		OrganizationID uint64 `json:"organization_id" binding:"required"`
		Name           string `json:"name" binding:"required"`
		Description    string `json:"description"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	project, err := h.projectService.CreateProject(services.CreateProjectInput{
		OrganizationID: req.OrganizationID,
		CreatorID:      userID,
		Name:           req.Name,
		Description:    req.Description,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// List lists the caller's projects.
func (h *ProjectHandler) List(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	params := utils.GetPaginationParams(c)

	filter := repository.ProjectFilter{
		Page:     params.Page,
		PageSize: params.Limit,
	}
	if raw := c.Query("organization_id"); raw != "" {
		orgID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid organization ID")
			return
		}
		filter.OrganizationID = &orgID
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ProjectStatus(raw)
		filter.Status = &status
	}

	projects, total, err := h.projectService.ListProjects(userID, filter)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectListResponse(projects, params, total))
}

// Get returns a project the caller can view.
func (h *ProjectHandler) Get(c *gin.Context) {
	projectID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	project, err := h.projectService.GetProject(projectID, userID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// Update changes project settings, including archiving.
func (h *ProjectHandler) Update(c *gin.Context) {
	type UpdateRequest struct {
		Name        *string               `json:"name"`
		Description *string               `json:"description"`
		Status      *models.ProjectStatus `json:"status"`
	}

	projectID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	project, err := h.projectService.UpdateProject(projectID, userID, services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// Delete removes a project and everything under it.
func (h *ProjectHandler) Delete(c *gin.Context) {
	projectID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	if err := h.projectService.DeleteProject(projectID, userID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

// ListMembers lists the project's role bindings.
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	projectID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	roles, err := h.projectService.ListMembers(projectID, userID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	members := make([]dto.ProjectMemberDTO, len(roles))
	for i, role := range roles {
		members[i] = dto.ToProjectMemberDTO(role)
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// AddMember adds an organization member to the project.
func (h *ProjectHandler) AddMember(c *gin.Context) {
	type AddMemberRequest struct {
		UserID uint64      `json:"user_id" binding:"required"`
		Role   models.Role `json:"role" binding:"required"`
	}

	projectID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	binding, err := h.projectService.AddMember(projectID, userID, req.UserID, req.Role)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectMemberDTO(*binding))
}

// UpdateMemberRole changes a project member's role.
func (h *ProjectHandler) UpdateMemberRole(c *gin.Context) {
	type UpdateRoleRequest struct {
		Role models.Role `json:"role" binding:"required"`
	}

	projectID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}
	targetID, ok := middleware.ResourceID(c, "userID")
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	if err := h.projectService.UpdateMemberRole(projectID, userID, targetID, req.Role); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Role updated"})
}

// RemoveMember removes a member from the project.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	projectID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}
	targetID, ok := middleware.ResourceID(c, "userID")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	if err := h.projectService.RemoveMember(projectID, userID, targetID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

// ListSections lists the project's workflow sections.
func (h *ProjectHandler) ListSections(c *gin.Context) {
	projectID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	sections, err := h.projectService.ListSections(projectID, userID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	dtos := make([]dto.SectionDTO, len(sections))
	for i, section := range sections {
		dtos[i] = dto.ToSectionDTO(section)
	}

	c.JSON(http.StatusOK, gin.H{"sections": dtos})
}

// CreateSection adds a custom workflow section.
func (h *ProjectHandler) CreateSection(c *gin.Context) {
	type CreateSectionRequest struct {
		Name     string `json:"name" binding:"required"`
		Position int    `json:"position"`
	}

	projectID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	var req CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	section, err := h.projectService.CreateSection(projectID, userID, req.Name, req.Position)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToSectionDTO(*section))
}

// DeleteSection removes a custom section.
func (h *ProjectHandler) DeleteSection(c *gin.Context) {
	projectID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}
	sectionID, ok := middleware.ResourceID(c, "sectionID")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	if err := h.projectService.DeleteSection(projectID, userID, sectionID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Section deleted"})
}

// ListLabels lists the project's labels.
func (h *ProjectHandler) ListLabels(c *gin.Context) {
	projectID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	labels, err := h.projectService.ListLabels(projectID, userID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	dtos := make([]dto.LabelDTO, len(labels))
	for i, label := range labels {
		dtos[i] = dto.ToLabelDTO(label)
	}

	c.JSON(http.StatusOK, gin.H{"labels": dtos})
}

// CreateLabel adds a label to the project.
func (h *ProjectHandler) CreateLabel(c *gin.Context) {
	type CreateLabelRequest struct {
		Name  string `json:"name" binding:"required"`
		Color string `json:"color"`
	}

	projectID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	var req CreateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	label, err := h.projectService.CreateLabel(projectID, userID, req.Name, req.Color)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToLabelDTO(*label))
}

// DeleteLabel removes a label.
func (h *ProjectHandler) DeleteLabel(c *gin.Context) {
	projectID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}
	labelID, ok := middleware.ResourceID(c, "labelID")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	if err := h.projectService.DeleteLabel(projectID, userID, labelID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Label deleted"})
}

func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidProjectName),
		errors.Is(err, services.ErrInvalidSectionName),
		errors.Is(err, services.ErrInvalidLabelName),
		errors.Is(err, services.ErrInvalidRole):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrDuplicateProjectName),
		errors.Is(err, services.ErrDuplicateSectionName),
		errors.Is(err, services.ErrDuplicateLabelName),
		errors.Is(err, services.ErrDuplicateProjectOwner),
		errors.Is(err, services.ErrProjectMemberExists):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrCannotRemoveProjectOwner),
		errors.Is(err, services.ErrCannotDeleteDefaultSection):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTargetNotOrgMember),
		errors.Is(err, services.ErrProjectMemberNotFound),
		errors.Is(err, services.ErrSectionNotFound),
		errors.Is(err, services.ErrLabelNotFound):
		apierrors.NotFound(c, err.Error())
	// Non-members and members without the capability both see 404.
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrNotProjectMember),
		errors.Is(err, services.ErrNotOrganizationMember),
		errors.Is(err, services.ErrPermissionDenied):
		apierrors.NotFound(c, services.ErrProjectNotFound.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
