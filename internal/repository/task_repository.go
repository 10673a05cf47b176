package repository

import (
	"github.com/navflow/navflow-api/internal/database"
	"github.com/navflow/navflow-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds an active task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// FindByIDUnscoped finds a task by ID, including soft-deleted rows
func (r *GormTaskRepository) FindByIDUnscoped(id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.Unscoped().First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindAllByIDs finds the active tasks matching the given IDs
func (r *GormTaskRepository) FindAllByIDs(ids []uint64) ([]models.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tasks []models.Task
	if err := r.db.Where("id IN ?", ids).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// List retrieves active tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	if len(filter.ProjectIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	query := r.db.Model(&models.Task{}).Where("tasks.project_id IN ?", filter.ProjectIDs)

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.AssignedToID != nil {
		query = query.Where("tasks.assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.UnassignedOnly {
		query = query.Where("tasks.assigned_to_id IS NULL")
	}
	if filter.SectionID != nil {
		query = query.Where("tasks.section_id = ?", *filter.SectionID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.
		Order("tasks.position ASC, tasks.created_at DESC").
		Scopes(database.Paginate(filter.Page, filter.PageSize))

	var tasks []models.Task
	if err := listQuery.Preload("AssignedTo").Preload("Section").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// SoftDelete marks a task deleted without removing the row
func (r *GormTaskRepository) SoftDelete(id uint64) error {
	return r.db.Delete(&models.Task{}, id).Error
}

// MoveSectionTasks moves every task in a section to another section
func (r *GormTaskRepository) MoveSectionTasks(fromSectionID, toSectionID uint64) error {
	return r.db.Model(&models.Task{}).
		Where("section_id = ?", fromSectionID).
		Update("section_id", toSectionID).Error
}

// CreateComment creates a comment on a task
func (r *GormTaskRepository) CreateComment(comment *models.TaskComment) error {
	return r.db.Create(comment).Error
}

// ListComments lists a task's comments oldest first
func (r *GormTaskRepository) ListComments(taskID uint64) ([]models.TaskComment, error) {
	var comments []models.TaskComment
	if err := r.db.Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
