package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/repository"
	"github.com/navflow/navflow-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound             = errors.New("task not found")
	ErrInvalidTaskTitle         = errors.New("task title cannot be empty")
	ErrInvalidTaskStatus        = errors.New("invalid task status")
	ErrInvalidTaskPriority      = errors.New("invalid task priority")
	ErrAssigneeNotProjectMember = errors.New("assignee is not a member of the project")
	ErrInvalidComment           = errors.New("comment cannot be empty")
	ErrTimerAlreadyRunning      = errors.New("timer is already running")
	ErrTimerNotRunning          = errors.New("timer is not running")
	ErrInvalidTimeSpent         = errors.New("time spent must be positive")
)

// TaskService manages tasks, comments, time tracking, and board
// reordering inside a project.
type TaskService struct {
	db          *gorm.DB
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	permissions *PermissionService
	recorder    *Recorder
}

// NewTaskService creates a new TaskService
func NewTaskService(db *gorm.DB, taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, userRepo repository.UserRepository, permissions *PermissionService, recorder *Recorder) *TaskService {
	return &TaskService{
		db:          db,
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		permissions: permissions,
		recorder:    recorder,
	}
}

// CreateTaskInput represents new-task parameters.
type CreateTaskInput struct {
	ProjectID      uint64
	CreatorID      uint64
	Title          string
	Description    string
	Status         models.TaskStatus
	Priority       models.TaskPriority
	SectionID      *uint64
	AssignedToID   *uint64
	DueDate        *time.Time
	EstimatedHours *float64
}

// CreateTask creates a task in a project. Moderator and above, plus
// the organization create_task capability. Unset section defaults to
// the project's first default section; an assignee is snapshotted and
// notified.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrInvalidTaskTitle
	}
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidTaskStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidTaskPriority
	}

	project, role, err := s.resolveProject(input.ProjectID, input.CreatorID)
	if err != nil {
		return nil, err
	}
	if !CanMutateTasks(role) {
		return nil, ErrPermissionDenied
	}
	if err := s.permissions.RequireOrgPermission(project.OrganizationID, input.CreatorID, models.PermCreateTask); err != nil {
		return nil, err
	}

	sectionID := input.SectionID
	if sectionID == nil {
		section, err := s.projectRepo.FirstDefaultSection(project.ID)
		if err == nil {
			sectionID = &section.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to find default section: %w", err)
		}
	} else if err := s.checkSection(project.ID, *sectionID); err != nil {
		return nil, err
	}

	creator, err := s.userRepo.FindByID(input.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find creator: %w", err)
	}

	creatorID := input.CreatorID
	task := &models.Task{
		Title:          title,
		Description:    input.Description,
		ProjectID:      project.ID,
		SectionID:      sectionID,
		CreatedByID:    &creatorID,
		AuthorSnapshot: creator.Snapshot(),
		Status:         input.Status,
		Priority:       input.Priority,
		DueDate:        input.DueDate,
		EstimatedHours: input.EstimatedHours,
	}
	if task.Status == models.TaskStatusDone {
		now := time.Now()
		task.CompletedAt = &now
	}

	var assignee *models.User
	if input.AssignedToID != nil {
		assignee, err = s.resolveAssignee(project.ID, *input.AssignedToID)
		if err != nil {
			return nil, err
		}
		task.AssignedToID = input.AssignedToID
		task.AssignedToSnapshot = assignee.Snapshot()
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewTaskRepository(tx).Create(task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: project.OrganizationID,
			UserID:         &creatorID,
			Action:         models.AuditCreate,
			ContentType:    models.ContentTypeTask,
			ObjectID:       task.ID,
			ObjectName:     task.Title,
		})
	})
	if err != nil {
		return nil, err
	}

	if assignee != nil && assignee.ID != input.CreatorID {
		s.recorder.Notify(s.db, models.Notification{
			UserID:  assignee.ID,
			Type:    models.NotificationTaskAssigned,
			Title:   "Task assigned to you",
			Message: fmt.Sprintf("%s assigned you the task %q in %s", creator.Username, task.Title, project.Name),
		})
	}

	return task, nil
}

// GetTask returns a task the caller can view. A task hidden by the
// visibility rules is indistinguishable from one that does not exist.
func (s *TaskService) GetTask(taskID, userID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Section", "AssignedTo")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	project, _, err := s.resolveProject(task.ProjectID, userID)
	if err != nil {
		if errors.Is(err, ErrNotProjectMember) || errors.Is(err, ErrProjectNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	visible, err := s.canViewTask(task, project.OrganizationID, userID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrTaskNotFound
	}

	return task, nil
}

// ListTasksInput scopes a project-bound task listing.
type ListTasksInput struct {
	ProjectID      uint64
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	AssignedToID   *uint64
	UnassignedOnly bool
	SectionID      *uint64
	Page           int
	PageSize       int
}

// ListTasks lists a project's tasks the caller may see. Without the
// view_all_tasks capability the listing collapses to the caller's own
// tasks; unassigned tasks additionally require view_unassigned_tasks.
func (s *TaskService) ListTasks(userID uint64, input ListTasksInput) ([]models.Task, int64, error) {
	project, _, err := s.resolveProject(input.ProjectID, userID)
	if err != nil {
		return nil, 0, err
	}

	filter := repository.TaskFilter{
		ProjectIDs:     []uint64{project.ID},
		Status:         input.Status,
		Priority:       input.Priority,
		AssignedToID:   input.AssignedToID,
		UnassignedOnly: input.UnassignedOnly,
		SectionID:      input.SectionID,
		Page:           input.Page,
		PageSize:       input.PageSize,
	}

	viewAll, err := s.permissions.HasOrgPermission(project.OrganizationID, userID, models.PermViewAllTasks)
	if err != nil {
		return nil, 0, err
	}
	if input.UnassignedOnly {
		viewUnassigned, err := s.permissions.HasOrgPermission(project.OrganizationID, userID, models.PermViewUnassignedTasks)
		if err != nil {
			return nil, 0, err
		}
		if !viewAll && !viewUnassigned {
			return []models.Task{}, 0, nil
		}
	} else if !viewAll {
		self := userID
		filter.AssignedToID = &self
		filter.UnassignedOnly = false
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// ListMyTasks lists tasks assigned to the caller across every project
// they belong to.
func (s *TaskService) ListMyTasks(userID uint64, status *models.TaskStatus, page, pageSize int) ([]models.Task, int64, error) {
	projectIDs, err := s.projectRepo.ListProjectIDsForUser(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}

	self := userID
	tasks, total, err := s.taskRepo.List(repository.TaskFilter{
		ProjectIDs:   projectIDs,
		Status:       status,
		AssignedToID: &self,
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// UpdateTaskInput represents updatable task fields; nil means leave
// unchanged.
type UpdateTaskInput struct {
	Title          *string
	Description    *string
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	SectionID      *uint64
	DueDate        *time.Time
	ClearDueDate   bool
	EstimatedHours *float64
}

// UpdateTask updates task fields. Moderator and above. Only fields
// that actually changed enter the audit change set; transitioning into
// done stamps CompletedAt and leaving done clears it.
func (s *TaskService) UpdateTask(taskID, actorID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, project, err := s.loadForMutation(taskID, actorID)
	if err != nil {
		return nil, err
	}

	changes := models.ChangeSet{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrInvalidTaskTitle
		}
		diffStr(changes, "title", task.Title, title)
		task.Title = title
	}
	if input.Description != nil {
		diffStr(changes, "description", task.Description, *input.Description)
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidTaskStatus
		}
		diffStr(changes, "status", string(task.Status), string(*input.Status))
		if *input.Status == models.TaskStatusDone && task.Status != models.TaskStatusDone {
			now := time.Now()
			diffTimePtr(changes, "completed_at", task.CompletedAt, &now)
			task.CompletedAt = &now
		} else if *input.Status != models.TaskStatusDone && task.Status == models.TaskStatusDone {
			diffTimePtr(changes, "completed_at", task.CompletedAt, nil)
			task.CompletedAt = nil
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidTaskPriority
		}
		diffStr(changes, "priority", string(task.Priority), string(*input.Priority))
		task.Priority = *input.Priority
	}
	if input.SectionID != nil {
		if err := s.checkSection(project.ID, *input.SectionID); err != nil {
			return nil, err
		}
		diffUintPtr(changes, "section_id", task.SectionID, input.SectionID)
		task.SectionID = input.SectionID
	}
	if input.ClearDueDate {
		diffTimePtr(changes, "due_date", task.DueDate, nil)
		task.DueDate = nil
	} else if input.DueDate != nil {
		diffTimePtr(changes, "due_date", task.DueDate, input.DueDate)
		task.DueDate = input.DueDate
	}
	if input.EstimatedHours != nil {
		old := ""
		if task.EstimatedHours != nil {
			old = fmt.Sprintf("%g", *task.EstimatedHours)
		}
		diffStr(changes, "estimated_hours", old, fmt.Sprintf("%g", *input.EstimatedHours))
		task.EstimatedHours = input.EstimatedHours
	}

	if err := s.saveWithAudit(task, project, actorID, changes); err != nil {
		return nil, err
	}
	return task, nil
}

// AssignTask changes the task's assignee. Requires the assign_task
// capability; a nil assignee unassigns. The new assignee is notified.
func (s *TaskService) AssignTask(taskID, actorID uint64, assigneeID *uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	project, _, err := s.resolveProject(task.ProjectID, actorID)
	if err != nil {
		if errors.Is(err, ErrNotProjectMember) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if err := s.permissions.RequireOrgPermission(project.OrganizationID, actorID, models.PermAssignTask); err != nil {
		return nil, err
	}

	changes := models.ChangeSet{}
	diffUintPtr(changes, "assigned_to_id", task.AssignedToID, assigneeID)

	var assignee *models.User
	if assigneeID == nil {
		task.AssignedToID = nil
		task.AssignedToSnapshot = models.ActorSnapshot{}
	} else {
		assignee, err = s.resolveAssignee(project.ID, *assigneeID)
		if err != nil {
			return nil, err
		}
		diffStr(changes, "assigned_to", task.AssignedToSnapshot.Username, assignee.Username)
		task.AssignedToID = assigneeID
		task.AssignedToSnapshot = assignee.Snapshot()
	}

	if err := s.saveWithAudit(task, project, actorID, changes); err != nil {
		return nil, err
	}

	if assignee != nil && assignee.ID != actorID && len(changes) > 0 {
		actor, err := s.userRepo.FindByID(actorID)
		if err == nil {
			s.recorder.Notify(s.db, models.Notification{
				UserID:  assignee.ID,
				Type:    models.NotificationTaskAssigned,
				Title:   "Task assigned to you",
				Message: fmt.Sprintf("%s assigned you the task %q in %s", actor.Username, task.Title, project.Name),
			})
		}
	}

	return task, nil
}

// DeleteTask soft-deletes a task. Moderator and above, plus the
// organization delete_task capability. The row survives for history;
// listings no longer return it.
func (s *TaskService) DeleteTask(taskID, actorID uint64) error {
	task, project, err := s.loadForMutation(taskID, actorID)
	if err != nil {
		return err
	}
	if err := s.permissions.RequireOrgPermission(project.OrganizationID, actorID, models.PermDeleteTask); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewTaskRepository(tx).SoftDelete(task.ID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: project.OrganizationID,
			UserID:         &actorID,
			Action:         models.AuditDelete,
			ContentType:    models.ContentTypeTask,
			ObjectID:       task.ID,
			ObjectName:     task.Title,
		})
	})
}

// AddComment adds a comment to a task the caller can view. Author
// identity is snapshotted; @username mentions notify mentioned project
// members, and the task's assignee and author hear about the comment.
func (s *TaskService) AddComment(taskID, authorID uint64, content string) (*models.TaskComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrInvalidComment
	}

	task, err := s.GetTask(taskID, authorID)
	if err != nil {
		return nil, err
	}

	author, err := s.userRepo.FindByID(authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find author: %w", err)
	}

	mentions := utils.ExtractMentions(content)
	comment := &models.TaskComment{
		TaskID:         task.ID,
		AuthorID:       &authorID,
		AuthorSnapshot: author.Snapshot(),
		Content:        content,
		Mentions:       mentions,
	}
	if err := s.taskRepo.CreateComment(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.recorder.Notify(s.db, s.commentNotifications(task, author, mentions)...)

	return comment, nil
}

// ListComments lists a task's comments oldest first.
func (s *TaskService) ListComments(taskID, userID uint64) ([]models.TaskComment, error) {
	if _, err := s.GetTask(taskID, userID); err != nil {
		return nil, err
	}
	comments, err := s.taskRepo.ListComments(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// StartTimer starts the task's timer. Requires the manage_timer
// capability.
func (s *TaskService) StartTimer(taskID, actorID uint64) (*models.Task, error) {
	task, project, err := s.loadForTimer(taskID, actorID)
	if err != nil {
		return nil, err
	}
	if task.IsTimerRunning {
		return nil, ErrTimerAlreadyRunning
	}

	now := time.Now()
	changes := models.ChangeSet{
		"is_timer_running": {"false", "true"},
	}
	task.IsTimerRunning = true
	task.TimerStartedAt = &now

	if err := s.saveWithAudit(task, project, actorID, changes); err != nil {
		return nil, err
	}
	return task, nil
}

// StopTimer stops the timer and folds the elapsed minutes into the
// total. Concurrent stops are last-write-wins.
func (s *TaskService) StopTimer(taskID, actorID uint64) (*models.Task, error) {
	task, project, err := s.loadForTimer(taskID, actorID)
	if err != nil {
		return nil, err
	}
	if !task.IsTimerRunning {
		return nil, ErrTimerNotRunning
	}

	changes := models.ChangeSet{
		"is_timer_running": {"true", "false"},
	}
	if task.TimerStartedAt != nil {
		elapsed := int(time.Since(*task.TimerStartedAt).Minutes())
		if elapsed > 0 {
			diffInt(changes, "time_spent_minutes", task.TimeSpentMinutes, task.TimeSpentMinutes+elapsed)
			task.TimeSpentMinutes += elapsed
		}
	}
	task.IsTimerRunning = false
	task.TimerStartedAt = nil

	if err := s.saveWithAudit(task, project, actorID, changes); err != nil {
		return nil, err
	}
	return task, nil
}

// AddTime adds minutes to the task's time-spent total directly.
func (s *TaskService) AddTime(taskID, actorID uint64, minutes int) (*models.Task, error) {
	if minutes <= 0 {
		return nil, ErrInvalidTimeSpent
	}

	task, project, err := s.loadForTimer(taskID, actorID)
	if err != nil {
		return nil, err
	}

	changes := models.ChangeSet{}
	diffInt(changes, "time_spent_minutes", task.TimeSpentMinutes, task.TimeSpentMinutes+minutes)
	task.TimeSpentMinutes += minutes

	if err := s.saveWithAudit(task, project, actorID, changes); err != nil {
		return nil, err
	}
	return task, nil
}

// ReorderColumn describes one board column after a drag-and-drop:
// the tasks now in it, in display order.
type ReorderColumn struct {
	Status    models.TaskStatus
	SectionID *uint64
	TaskIDs   []uint64
}

// ReorderTasks applies a board reorder atomically. Every referenced
// task must exist in the project or the whole batch is rejected.
// Tasks entering done are stamped completed; tasks leaving done are
// unstamped.
func (s *TaskService) ReorderTasks(projectID, actorID uint64, columns []ReorderColumn) error {
	project, role, err := s.resolveProject(projectID, actorID)
	if err != nil {
		return err
	}
	if !CanMutateTasks(role) {
		return ErrPermissionDenied
	}

	for _, col := range columns {
		if !col.Status.Valid() {
			return ErrInvalidTaskStatus
		}
		if col.SectionID != nil {
			if err := s.checkSection(projectID, *col.SectionID); err != nil {
				return err
			}
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := repository.NewTaskRepository(tx)

		var allIDs []uint64
		for _, col := range columns {
			allIDs = append(allIDs, col.TaskIDs...)
		}
		tasks, err := repo.FindAllByIDs(allIDs)
		if err != nil {
			return fmt.Errorf("failed to load tasks: %w", err)
		}
		byID := make(map[uint64]*models.Task, len(tasks))
		for i := range tasks {
			if tasks[i].ProjectID != projectID {
				return ErrTaskNotFound
			}
			byID[tasks[i].ID] = &tasks[i]
		}
		if len(byID) != len(allIDs) {
			return ErrTaskNotFound
		}

		for _, col := range columns {
			for pos, id := range col.TaskIDs {
				task := byID[id]

				changes := models.ChangeSet{}
				diffStr(changes, "status", string(task.Status), string(col.Status))
				if col.Status == models.TaskStatusDone && task.Status != models.TaskStatusDone {
					now := time.Now()
					diffTimePtr(changes, "completed_at", task.CompletedAt, &now)
					task.CompletedAt = &now
				} else if col.Status != models.TaskStatusDone && task.Status == models.TaskStatusDone {
					diffTimePtr(changes, "completed_at", task.CompletedAt, nil)
					task.CompletedAt = nil
				}
				task.Status = col.Status
				if col.SectionID != nil {
					task.SectionID = col.SectionID
				}
				task.Position = pos

				if err := repo.Update(task); err != nil {
					return fmt.Errorf("failed to reorder task: %w", err)
				}
				if err := s.recorder.Record(tx, AuditEntry{
					OrganizationID: project.OrganizationID,
					UserID:         &actorID,
					Action:         models.AuditUpdate,
					ContentType:    models.ContentTypeTask,
					ObjectID:       task.ID,
					ObjectName:     task.Title,
					Changes:        changes,
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// loadForMutation loads a task and checks the caller may mutate it.
// Permission misses surface as not-found for non-members.
func (s *TaskService) loadForMutation(taskID, actorID uint64) (*models.Task, *models.Project, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, fmt.Errorf("failed to find task: %w", err)
	}

	project, role, err := s.resolveProject(task.ProjectID, actorID)
	if err != nil {
		if errors.Is(err, ErrNotProjectMember) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, err
	}
	if !CanMutateTasks(role) {
		return nil, nil, ErrPermissionDenied
	}

	return task, project, nil
}

// loadForTimer loads a task for a time-tracking mutation, which any
// viewer holding manage_timer may perform.
func (s *TaskService) loadForTimer(taskID, actorID uint64) (*models.Task, *models.Project, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, fmt.Errorf("failed to find task: %w", err)
	}

	project, _, err := s.resolveProject(task.ProjectID, actorID)
	if err != nil {
		if errors.Is(err, ErrNotProjectMember) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, err
	}
	if err := s.permissions.RequireOrgPermission(project.OrganizationID, actorID, models.PermManageTimer); err != nil {
		return nil, nil, err
	}

	return task, project, nil
}

// saveWithAudit persists the task and the audit row in one transaction.
func (s *TaskService) saveWithAudit(task *models.Task, project *models.Project, actorID uint64, changes models.ChangeSet) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewTaskRepository(tx).Update(task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: project.OrganizationID,
			UserID:         &actorID,
			Action:         models.AuditUpdate,
			ContentType:    models.ContentTypeTask,
			ObjectID:       task.ID,
			ObjectName:     task.Title,
			Changes:        changes,
		})
	})
}

// resolveProject loads the project and the caller's effective role in
// it. The parent organization's owner passes without a binding.
func (s *TaskService) resolveProject(projectID, userID uint64) (*models.Project, models.Role, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrProjectNotFound
		}
		return nil, "", fmt.Errorf("failed to find project: %w", err)
	}

	role, err := s.permissions.ProjectRole(projectID, userID)
	if err == nil {
		return project, role, nil
	}
	if !errors.Is(err, ErrNotProjectMember) {
		return nil, "", err
	}

	orgRole, orgErr := s.permissions.OrgRole(project.OrganizationID, userID)
	if orgErr == nil && orgRole == models.RoleOwner {
		return project, models.RoleOwner, nil
	}
	return nil, "", ErrNotProjectMember
}

// canViewTask applies the per-task visibility rules: view_all_tasks
// sees everything, otherwise the caller sees their own tasks, and
// unassigned tasks only with view_unassigned_tasks.
func (s *TaskService) canViewTask(task *models.Task, orgID, userID uint64) (bool, error) {
	viewAll, err := s.permissions.HasOrgPermission(orgID, userID, models.PermViewAllTasks)
	if err != nil {
		return false, err
	}
	if viewAll {
		return true, nil
	}
	if task.AssignedToID != nil && *task.AssignedToID == userID {
		return true, nil
	}
	if task.CreatedByID != nil && *task.CreatedByID == userID {
		return true, nil
	}
	if task.AssignedToID == nil {
		return s.permissions.HasOrgPermission(orgID, userID, models.PermViewUnassignedTasks)
	}
	return false, nil
}

// checkSection verifies a section belongs to the project.
func (s *TaskService) checkSection(projectID, sectionID uint64) error {
	section, err := s.projectRepo.FindSection(sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSectionNotFound
		}
		return fmt.Errorf("failed to find section: %w", err)
	}
	if section.ProjectID != projectID {
		return ErrSectionNotFound
	}
	return nil
}

// resolveAssignee verifies the target user is a member of the project.
func (s *TaskService) resolveAssignee(projectID, userID uint64) (*models.User, error) {
	if _, err := s.projectRepo.FindRole(projectID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssigneeNotProjectMember
		}
		return nil, fmt.Errorf("failed to verify project membership: %w", err)
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find assignee: %w", err)
	}
	return user, nil
}

// commentNotifications builds the fan-out for a new comment: one
// mention notification per mentioned project member, and a comment
// notification for the task's assignee and author. Nobody is notified
// about their own comment, and nobody is notified twice.
func (s *TaskService) commentNotifications(task *models.Task, author *models.User, mentions []string) []models.Notification {
	var out []models.Notification
	seen := map[uint64]bool{author.ID: true}

	if len(mentions) > 0 {
		users, err := s.userRepo.FindByUsernames(mentions)
		if err == nil {
			for _, u := range users {
				if seen[u.ID] {
					continue
				}
				if _, err := s.projectRepo.FindRole(task.ProjectID, u.ID); err != nil {
					continue
				}
				seen[u.ID] = true
				out = append(out, models.Notification{
					UserID:  u.ID,
					Type:    models.NotificationMention,
					Title:   "You were mentioned",
					Message: fmt.Sprintf("%s mentioned you in a comment on %q", author.Username, task.Title),
				})
			}
		}
	}

	for _, target := range []*uint64{task.AssignedToID, task.CreatedByID} {
		if target == nil || seen[*target] {
			continue
		}
		seen[*target] = true
		out = append(out, models.Notification{
			UserID:  *target,
			Type:    models.NotificationTaskComment,
			Title:   "New comment",
			Message: fmt.Sprintf("%s commented on %q", author.Username, task.Title),
		})
	}

	return out
}
