package repository

import (
	"github.com/navflow/navflow-api/internal/database"
	"github.com/navflow/navflow-api/internal/models"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByName finds a project by name within an organization
func (r *GormProjectRepository) FindByName(organizationID uint64, name string) (*models.Project, error) {
	var project models.Project
	if err := r.db.Where("organization_id = ? AND name = ?", organizationID, name).
		First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// List retrieves projects the member can see, with pagination
func (r *GormProjectRepository) List(filter ProjectFilter) ([]models.Project, int64, error) {
	roleSubQuery := r.db.Model(&models.ProjectRole{}).
		Select("1").
		Where("project_roles.project_id = projects.id").
		Where("project_roles.user_id = ?", filter.MemberID)

	query := r.db.Model(&models.Project{}).Where("EXISTS (?)", roleSubQuery)

	if filter.OrganizationID != nil {
		query = query.Where("projects.organization_id = ?", *filter.OrganizationID)
	}
	if filter.Status != nil {
		query = query.Where("projects.status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.
		Order("projects.created_at DESC").
		Scopes(database.Paginate(filter.Page, filter.PageSize))

	var projects []models.Project
	if err := listQuery.Preload("Organization").Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// Update updates a project
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

// Delete deletes a project and all related data in a transaction
func (r *GormProjectRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint64
		if err := tx.Unscoped().Model(&models.Task{}).Where("project_id = ?", id).
			Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskComment{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("id IN ?", taskIDs).Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.TaskSection{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.TaskLabel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectRole{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Project{}, id).Error
	})
}

// AddRole adds a project role binding
func (r *GormProjectRepository) AddRole(role *models.ProjectRole) error {
	return r.db.Create(role).Error
}

// FindRole finds a user's role in a project
func (r *GormProjectRepository) FindRole(projectID, userID uint64) (*models.ProjectRole, error) {
	var role models.ProjectRole
	if err := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// UpdateRole changes a user's role in a project
func (r *GormProjectRepository) UpdateRole(projectID, userID uint64, role models.Role) error {
	return r.db.Model(&models.ProjectRole{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Update("role", role).Error
}

// RemoveRole removes a user's role binding from a project
func (r *GormProjectRepository) RemoveRole(projectID, userID uint64) error {
	return r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectRole{}).Error
}

// ListRoles lists all role bindings of a project
func (r *GormProjectRepository) ListRoles(projectID uint64) ([]models.ProjectRole, error) {
	var roles []models.ProjectRole
	if err := r.db.Preload("User").
		Where("project_id = ?", projectID).
		Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// ListProjectIDsForUser lists the IDs of projects the user belongs to
func (r *GormProjectRepository) ListProjectIDsForUser(userID uint64) ([]uint64, error) {
	var ids []uint64
	if err := r.db.Model(&models.ProjectRole{}).
		Where("user_id = ?", userID).
		Pluck("project_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CountOwners counts role bindings with the owner role
func (r *GormProjectRepository) CountOwners(projectID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.ProjectRole{}).
		Where("project_id = ? AND role = ?", projectID, models.RoleOwner).
		Count(&count).Error
	return count, err
}

// CreateSection creates a task section
func (r *GormProjectRepository) CreateSection(section *models.TaskSection) error {
	return r.db.Create(section).Error
}

// FindSection finds a section by ID
func (r *GormProjectRepository) FindSection(id uint64) (*models.TaskSection, error) {
	var section models.TaskSection
	if err := r.db.First(&section, id).Error; err != nil {
		return nil, err
	}
	return &section, nil
}

// ListSections lists a project's sections ordered by position
func (r *GormProjectRepository) ListSections(projectID uint64) ([]models.TaskSection, error) {
	var sections []models.TaskSection
	if err := r.db.Where("project_id = ?", projectID).
		Order("position ASC").
		Find(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

// DeleteSection removes a section
func (r *GormProjectRepository) DeleteSection(id uint64) error {
	return r.db.Delete(&models.TaskSection{}, id).Error
}

// FirstDefaultSection returns the project's first default section
func (r *GormProjectRepository) FirstDefaultSection(projectID uint64) (*models.TaskSection, error) {
	var section models.TaskSection
	if err := r.db.Where("project_id = ? AND is_default = ?", projectID, true).
		Order("position ASC").
		First(&section).Error; err != nil {
		return nil, err
	}
	return &section, nil
}

// CreateLabel creates a task label
func (r *GormProjectRepository) CreateLabel(label *models.TaskLabel) error {
	return r.db.Create(label).Error
}

// FindLabel finds a label by ID
func (r *GormProjectRepository) FindLabel(id uint64) (*models.TaskLabel, error) {
	var label models.TaskLabel
	if err := r.db.First(&label, id).Error; err != nil {
		return nil, err
	}
	return &label, nil
}

// ListLabels lists a project's labels
func (r *GormProjectRepository) ListLabels(projectID uint64) ([]models.TaskLabel, error) {
	var labels []models.TaskLabel
	if err := r.db.Where("project_id = ?", projectID).
		Order("name ASC").
		Find(&labels).Error; err != nil {
		return nil, err
	}
	return labels, nil
}

// DeleteLabel removes a label
func (r *GormProjectRepository) DeleteLabel(id uint64) error {
	return r.db.Delete(&models.TaskLabel{}, id).Error
}
