package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/navflow/navflow-api/internal/dto"
	apierrors "github.com/navflow/navflow-api/internal/errors"
	"github.com/navflow/navflow-api/internal/middleware"
	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/services"
	"github.com/navflow/navflow-api/internal/utils"
)

// TaskHandler coordinates task HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// Create creates a task in a project.
func (h *TaskHandler) Create(c *gin.Context) {
	type CreateRequest struct {
		ProjectID      uint64              `json:"project_id" binding:"required"`
		Title          string              `json:"title" binding:"required"`
		Description    string              `json:"description"`
		Status         models.TaskStatus   `json:"status"`
		Priority       models.TaskPriority `json:"priority"`
		SectionID      *uint64             `json:"section_id"`
		AssignedToID   *uint64             `json:"assigned_to_id"`
		DueDate        *time.Time          `json:"due_date"`
		EstimatedHours *float64            `json:"estimated_hours"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		ProjectID:      req.ProjectID,
		CreatorID:      userID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		SectionID:      req.SectionID,
		AssignedToID:   req.AssignedToID,
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// List lists a project's tasks visible to the caller.
func (h *TaskHandler) List(c *gin.Context) {
	projectID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	params := utils.GetPaginationParams(c)

	input := services.ListTasksInput{
		ProjectID:      projectID,
		UnassignedOnly: c.Query("unassigned") == "true",
		Page:           params.Page,
		PageSize:       params.Limit,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		input.Status = &status
	}
	if raw := c.Query("priority"); raw != "" {
		priority := models.TaskPriority(raw)
		input.Priority = &priority
	}
	if raw := c.Query("assigned_to"); raw != "" {
		assignedTo, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assignee ID")
			return
		}
		input.AssignedToID = &assignedTo
	}
	if raw := c.Query("section_id"); raw != "" {
		sectionID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid section ID")
			return
		}
		input.SectionID = &sectionID
	}

	tasks, total, err := h.taskService.ListTasks(userID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}

// ListMine lists tasks assigned to the caller across their projects.
func (h *TaskHandler) ListMine(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	params := utils.GetPaginationParams(c)

	var status *models.TaskStatus
	if raw := c.Query("status"); raw != "" {
		s := models.TaskStatus(raw)
		status = &s
	}

	tasks, total, err := h.taskService.ListMyTasks(userID, status, params.Page, params.Limit)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}

// Get returns a task the caller can view.
func (h *TaskHandler) Get(c *gin.Context) {
	taskID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	task, err := h.taskService.GetTask(taskID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// Update changes task fields.
func (h *TaskHandler) Update(c *gin.Context) {
	type UpdateRequest struct {
		Title          *string              `json:"title"`
		Description    *string              `json:"description"`
		Status         *models.TaskStatus   `json:"status"`
		Priority       *models.TaskPriority `json:"priority"`
		SectionID      *uint64              `json:"section_id"`
		DueDate        *time.Time           `json:"due_date"`
		ClearDueDate   bool                 `json:"clear_due_date"`
		EstimatedHours *float64             `json:"estimated_hours"`
	}

	taskID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	task, err := h.taskService.UpdateTask(taskID, userID, services.UpdateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		SectionID:      req.SectionID,
		DueDate:        req.DueDate,
		ClearDueDate:   req.ClearDueDate,
		EstimatedHours: req.EstimatedHours,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// Delete soft-deletes a task.
func (h *TaskHandler) Delete(c *gin.Context) {
	taskID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	if err := h.taskService.DeleteTask(taskID, userID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// Assign changes the task's assignee; a null user ID unassigns.
func (h *TaskHandler) Assign(c *gin.Context) {
	type AssignRequest struct {
		UserID *uint64 `json:"user_id"`
	}

	taskID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	task, err := h.taskService.AssignTask(taskID, userID, req.UserID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// ListComments lists a task's comments oldest first.
func (h *TaskHandler) ListComments(c *gin.Context) {
	taskID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	comments, err := h.taskService.ListComments(taskID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	dtos := make([]dto.CommentDTO, len(comments))
	for i, comment := range comments {
		dtos[i] = dto.ToCommentDTO(comment)
	}

	c.JSON(http.StatusOK, gin.H{"comments": dtos})
}

// AddComment adds a comment to a task.
func (h *TaskHandler) AddComment(c *gin.Context) {
	type CommentRequest struct {
		Content string `json:"content" binding:"required"`
	}

	taskID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	comment, err := h.taskService.AddComment(taskID, userID, req.Content)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// StartTimer starts the task's timer.
func (h *TaskHandler) StartTimer(c *gin.Context) {
	taskID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	task, err := h.taskService.StartTimer(taskID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// StopTimer stops the task's timer and accumulates elapsed time.
func (h *TaskHandler) StopTimer(c *gin.Context) {
	taskID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	task, err := h.taskService.StopTimer(taskID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// AddTime adds minutes to the task's time-spent total.
func (h *TaskHandler) AddTime(c *gin.Context) {
	type AddTimeRequest struct {
		Minutes int `json:"minutes" binding:"required"`
	}

	taskID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	var req AddTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	task, err := h.taskService.AddTime(taskID, userID, req.Minutes)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// Reorder applies a board drag-and-drop atomically.
func (h *TaskHandler) Reorder(c *gin.Context) {
	type ColumnRequest struct {
		Status    models.TaskStatus `json:"status" binding:"required"`
		SectionID *uint64           `json:"section_id"`
		TaskIDs   []uint64          `json:"task_ids"`
	}
	type ReorderRequest struct {
		Columns []ColumnRequest `json:"columns" binding:"required"`
	}

	projectID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	columns := make([]services.ReorderColumn, len(req.Columns))
	for i, col := range req.Columns {
		columns[i] = services.ReorderColumn{
			Status:    col.Status,
			SectionID: col.SectionID,
			TaskIDs:   col.TaskIDs,
		}
	}

	userID, _ := middleware.GetUserID(c)
	if err := h.taskService.ReorderTasks(projectID, userID, columns); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Board reordered"})
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidTaskTitle),
		errors.Is(err, services.ErrInvalidTaskStatus),
		errors.Is(err, services.ErrInvalidTaskPriority),
		errors.Is(err, services.ErrInvalidComment),
		errors.Is(err, services.ErrInvalidTimeSpent):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTimerAlreadyRunning),
		errors.Is(err, services.ErrTimerNotRunning):
		apierrors.InvalidTransition(c, err.Error())
	case errors.Is(err, services.ErrAssigneeNotProjectMember),
		errors.Is(err, services.ErrSectionNotFound):
		apierrors.NotFound(c, err.Error())
	// Hidden, missing, and forbidden tasks are all 404.
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrNotProjectMember),
		errors.Is(err, services.ErrNotOrganizationMember),
		errors.Is(err, services.ErrPermissionDenied):
		apierrors.NotFound(c, services.ErrTaskNotFound.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
