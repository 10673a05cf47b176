package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound            = errors.New("project not found")
	ErrInvalidProjectName         = errors.New("project name cannot be empty")
	ErrDuplicateProjectName       = errors.New("project name already taken in this organization")
	ErrProjectMemberNotFound      = errors.New("project member not found")
	ErrProjectMemberExists        = errors.New("user is already a member of this project")
	ErrTargetNotOrgMember         = errors.New("user is not a member of the parent organization")
	ErrDuplicateProjectOwner      = errors.New("project already has an owner")
	ErrCannotRemoveProjectOwner   = errors.New("cannot remove the project owner")
	ErrSectionNotFound            = errors.New("section not found")
	ErrInvalidSectionName         = errors.New("section name cannot be empty")
	ErrDuplicateSectionName       = errors.New("section name already taken in this project")
	ErrCannotDeleteDefaultSection = errors.New("default sections cannot be deleted")
	ErrLabelNotFound              = errors.New("label not found")
	ErrInvalidLabelName           = errors.New("label name cannot be empty")
	ErrDuplicateLabelName         = errors.New("label name already taken in this project")
)

// defaultSections are seeded into every new project, in order.
var defaultSections = []string{"To Do", "In Progress", "Review", "Done"}

// ProjectService manages projects, their role bindings, sections, and
// labels inside an organization.
type ProjectService struct {
	db          *gorm.DB
	projectRepo repository.ProjectRepository
	orgRepo     repository.OrganizationRepository
	userRepo    repository.UserRepository
	permissions *PermissionService
	recorder    *Recorder
}

// NewProjectService creates a new ProjectService
func NewProjectService(db *gorm.DB, projectRepo repository.ProjectRepository, orgRepo repository.OrganizationRepository, userRepo repository.UserRepository, permissions *PermissionService, recorder *Recorder) *ProjectService {
	return &ProjectService{
		db:          db,
		projectRepo: projectRepo,
		orgRepo:     orgRepo,
		userRepo:    userRepo,
		permissions: permissions,
		recorder:    recorder,
	}
}

// CreateProjectInput represents new-project parameters.
type CreateProjectInput struct {
	OrganizationID uint64
	CreatorID      uint64
	Name           string
	Description    string
}

// CreateProject creates a project, binds the creator as project owner,
// and seeds the default workflow sections.
func (s *ProjectService) CreateProject(input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidProjectName
	}

	if err := s.permissions.RequireOrgPermission(input.OrganizationID, input.CreatorID, models.PermCreateProject); err != nil {
		return nil, err
	}

	creatorID := input.CreatorID
	project := &models.Project{
		Name:           name,
		Description:    input.Description,
		OrganizationID: input.OrganizationID,
		CreatedByID:    &creatorID,
		Status:         models.ProjectActive,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := repository.NewProjectRepository(tx)
		if err := repo.Create(project); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrDuplicateProjectName
			}
			return fmt.Errorf("failed to create project: %w", err)
		}

		if err := repo.AddRole(&models.ProjectRole{
			ProjectID:  project.ID,
			UserID:     input.CreatorID,
			Role:       models.RoleOwner,
			AssignedAt: time.Now(),
		}); err != nil {
			return fmt.Errorf("failed to bind project owner: %w", err)
		}

		for i, sectionName := range defaultSections {
			if err := repo.CreateSection(&models.TaskSection{
				ProjectID: project.ID,
				Name:      sectionName,
				Position:  i,
				IsDefault: true,
			}); err != nil {
				return fmt.Errorf("failed to seed default sections: %w", err)
			}
		}

		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: input.OrganizationID,
			UserID:         &creatorID,
			Action:         models.AuditCreate,
			ContentType:    models.ContentTypeProject,
			ObjectID:       project.ID,
			ObjectName:     project.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	return project, nil
}

// GetProject returns a project the caller can view.
func (s *ProjectService) GetProject(projectID, userID uint64) (*models.Project, error) {
	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.effectiveRole(project, userID); err != nil {
		return nil, err
	}
	return project, nil
}

// ListProjects lists the projects the caller belongs to, optionally
// scoped to one organization or status.
func (s *ProjectService) ListProjects(userID uint64, filter repository.ProjectFilter) ([]models.Project, int64, error) {
	filter.MemberID = userID
	projects, total, err := s.projectRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// UpdateProjectInput represents updatable project fields; nil means
// leave unchanged.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Status      *models.ProjectStatus
}

// UpdateProject updates project settings. Owner or admin of the
// project. Status covers archiving and restoring.
func (s *ProjectService) UpdateProject(projectID, actorID uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}

	role, err := s.effectiveRole(project, actorID)
	if err != nil {
		return nil, err
	}
	if !CanAdministerProject(role) {
		return nil, ErrPermissionDenied
	}

	changes := models.ChangeSet{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidProjectName
		}
		diffStr(changes, "name", project.Name, name)
		project.Name = name
	}
	if input.Description != nil {
		diffStr(changes, "description", project.Description, *input.Description)
		project.Description = *input.Description
	}
	if input.Status != nil {
		if *input.Status != models.ProjectActive && *input.Status != models.ProjectArchived {
			return nil, fmt.Errorf("invalid project status %q", *input.Status)
		}
		diffStr(changes, "status", string(project.Status), string(*input.Status))
		project.Status = *input.Status
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewProjectRepository(tx).Update(project); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrDuplicateProjectName
			}
			return fmt.Errorf("failed to update project: %w", err)
		}
		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: project.OrganizationID,
			UserID:         &actorID,
			Action:         models.AuditUpdate,
			ContentType:    models.ContentTypeProject,
			ObjectID:       project.ID,
			ObjectName:     project.Name,
			Changes:        changes,
		})
	})
	if err != nil {
		return nil, err
	}

	return project, nil
}

// DeleteProject deletes a project and everything under it. Project
// owner only, and the organization must grant delete_project.
func (s *ProjectService) DeleteProject(projectID, actorID uint64) error {
	project, err := s.findProject(projectID)
	if err != nil {
		return err
	}

	role, err := s.effectiveRole(project, actorID)
	if err != nil {
		return err
	}
	if !IsProjectOwner(role) {
		return ErrPermissionDenied
	}
	if err := s.permissions.RequireOrgPermission(project.OrganizationID, actorID, models.PermDeleteProject); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.recorder.Record(tx, AuditEntry{
			OrganizationID: project.OrganizationID,
			UserID:         &actorID,
			Action:         models.AuditDelete,
			ContentType:    models.ContentTypeProject,
			ObjectID:       project.ID,
			ObjectName:     project.Name,
		}); err != nil {
			return err
		}
		if err := repository.NewProjectRepository(tx).Delete(project.ID); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		return nil
	})
}

// AddMember binds an organization member to the project with a role.
// Owners may grant any role, admins any role but owner; a second owner
// is rejected, with the partial unique owner index as the final
// arbiter for concurrent grants.
func (s *ProjectService) AddMember(projectID, actorID, userID uint64, role models.Role) (*models.ProjectRole, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}

	actorRole, err := s.effectiveRole(project, actorID)
	if err != nil {
		return nil, err
	}
	if !CanAssignProjectRole(actorRole, role) {
		return nil, ErrPermissionDenied
	}

	if _, err := s.orgRepo.FindMember(project.OrganizationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTargetNotOrgMember
		}
		return nil, fmt.Errorf("failed to verify organization membership: %w", err)
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	binding := &models.ProjectRole{
		ProjectID:  projectID,
		UserID:     userID,
		Role:       role,
		AssignedAt: time.Now(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := repository.NewProjectRepository(tx)

		if role == models.RoleOwner {
			count, err := repo.CountOwners(projectID)
			if err != nil {
				return fmt.Errorf("failed to count project owners: %w", err)
			}
			if count > 0 {
				return ErrDuplicateProjectOwner
			}
		}

		if err := repo.AddRole(binding); err != nil {
			if repository.IsUniqueViolationOn(err, "idx_project_roles_one_owner", "project_roles.project_id") {
				return ErrDuplicateProjectOwner
			}
			if repository.IsUniqueViolation(err) {
				return ErrProjectMemberExists
			}
			return fmt.Errorf("failed to add project member: %w", err)
		}

		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: project.OrganizationID,
			UserID:         &actorID,
			Action:         models.AuditCreate,
			ContentType:    models.ContentTypeProjectRole,
			ObjectID:       userID,
			ObjectName:     user.Username,
			Changes: models.ChangeSet{
				"role": {"", string(role)},
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return binding, nil
}

// UpdateMemberRole changes a project member's role. The owner binding
// is immutable through this path; promotion to owner is rejected while
// an owner exists.
func (s *ProjectService) UpdateMemberRole(projectID, actorID, userID uint64, role models.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}

	project, err := s.findProject(projectID)
	if err != nil {
		return err
	}

	actorRole, err := s.effectiveRole(project, actorID)
	if err != nil {
		return err
	}
	if !CanAssignProjectRole(actorRole, role) {
		return ErrPermissionDenied
	}

	binding, err := s.projectRepo.FindRole(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectMemberNotFound
		}
		return fmt.Errorf("failed to find project member: %w", err)
	}
	if binding.Role == role {
		return nil
	}
	if binding.Role == models.RoleOwner {
		return ErrCannotRemoveProjectOwner
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := repository.NewProjectRepository(tx)

		if role == models.RoleOwner {
			count, err := repo.CountOwners(projectID)
			if err != nil {
				return fmt.Errorf("failed to count project owners: %w", err)
			}
			if count > 0 {
				return ErrDuplicateProjectOwner
			}
		}

		if err := repo.UpdateRole(projectID, userID, role); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrDuplicateProjectOwner
			}
			return fmt.Errorf("failed to update project role: %w", err)
		}

		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: project.OrganizationID,
			UserID:         &actorID,
			Action:         models.AuditUpdate,
			ContentType:    models.ContentTypeProjectRole,
			ObjectID:       userID,
			ObjectName:     user.Username,
			Changes: models.ChangeSet{
				"role": {string(binding.Role), string(role)},
			},
		})
	})
}

// RemoveMember removes a role binding. The project owner may remove
// anyone but themselves; any member may leave on their own.
func (s *ProjectService) RemoveMember(projectID, actorID, userID uint64) error {
	project, err := s.findProject(projectID)
	if err != nil {
		return err
	}

	actorRole, err := s.effectiveRole(project, actorID)
	if err != nil {
		return err
	}
	if actorID != userID && !IsProjectOwner(actorRole) {
		return ErrPermissionDenied
	}

	binding, err := s.projectRepo.FindRole(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectMemberNotFound
		}
		return fmt.Errorf("failed to find project member: %w", err)
	}
	if binding.Role == models.RoleOwner {
		return ErrCannotRemoveProjectOwner
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewProjectRepository(tx).RemoveRole(projectID, userID); err != nil {
			return fmt.Errorf("failed to remove project member: %w", err)
		}
		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: project.OrganizationID,
			UserID:         &actorID,
			Action:         models.AuditDelete,
			ContentType:    models.ContentTypeProjectRole,
			ObjectID:       userID,
			ObjectName:     user.Username,
			Changes: models.ChangeSet{
				"role": {string(binding.Role), ""},
			},
		})
	})
}

// ListMembers lists the project's role bindings.
func (s *ProjectService) ListMembers(projectID, userID uint64) ([]models.ProjectRole, error) {
	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.effectiveRole(project, userID); err != nil {
		return nil, err
	}
	roles, err := s.projectRepo.ListRoles(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	return roles, nil
}

// CreateSection adds a custom workflow section. Moderator and above.
func (s *ProjectService) CreateSection(projectID, actorID uint64, name string, position int) (*models.TaskSection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidSectionName
	}

	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}

	role, err := s.effectiveRole(project, actorID)
	if err != nil {
		return nil, err
	}
	if !CanMutateTasks(role) {
		return nil, ErrPermissionDenied
	}

	section := &models.TaskSection{
		ProjectID: projectID,
		Name:      name,
		Position:  position,
		IsDefault: false,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewProjectRepository(tx).CreateSection(section); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrDuplicateSectionName
			}
			return fmt.Errorf("failed to create section: %w", err)
		}
		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: project.OrganizationID,
			UserID:         &actorID,
			Action:         models.AuditCreate,
			ContentType:    models.ContentTypeSection,
			ObjectID:       section.ID,
			ObjectName:     section.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	return section, nil
}

// ListSections lists the project's sections ordered by position.
func (s *ProjectService) ListSections(projectID, userID uint64) ([]models.TaskSection, error) {
	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.effectiveRole(project, userID); err != nil {
		return nil, err
	}
	sections, err := s.projectRepo.ListSections(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	return sections, nil
}

// DeleteSection removes a custom section, moving its tasks to the
// project's first default section. Default sections cannot be deleted.
func (s *ProjectService) DeleteSection(projectID, actorID, sectionID uint64) error {
	project, err := s.findProject(projectID)
	if err != nil {
		return err
	}

	role, err := s.effectiveRole(project, actorID)
	if err != nil {
		return err
	}
	if !CanMutateTasks(role) {
		return ErrPermissionDenied
	}

	section, err := s.projectRepo.FindSection(sectionID)
	if err != nil || section.ProjectID != projectID {
		if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSectionNotFound
		}
		return fmt.Errorf("failed to find section: %w", err)
	}
	if section.IsDefault {
		return ErrCannotDeleteDefaultSection
	}

	fallback, err := s.projectRepo.FirstDefaultSection(projectID)
	if err != nil {
		return fmt.Errorf("failed to find default section: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewTaskRepository(tx).MoveSectionTasks(section.ID, fallback.ID); err != nil {
			return fmt.Errorf("failed to move section tasks: %w", err)
		}
		if err := repository.NewProjectRepository(tx).DeleteSection(section.ID); err != nil {
			return fmt.Errorf("failed to delete section: %w", err)
		}
		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: project.OrganizationID,
			UserID:         &actorID,
			Action:         models.AuditDelete,
			ContentType:    models.ContentTypeSection,
			ObjectID:       section.ID,
			ObjectName:     section.Name,
		})
	})
}

// CreateLabel adds a label to the project. Requires the organization
// create_label capability and project visibility.
func (s *ProjectService) CreateLabel(projectID, actorID uint64, name, color string) (*models.TaskLabel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidLabelName
	}

	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.effectiveRole(project, actorID); err != nil {
		return nil, err
	}
	if err := s.permissions.RequireOrgPermission(project.OrganizationID, actorID, models.PermCreateLabel); err != nil {
		return nil, err
	}

	label := &models.TaskLabel{
		ProjectID: projectID,
		Name:      name,
		Color:     color,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewProjectRepository(tx).CreateLabel(label); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrDuplicateLabelName
			}
			return fmt.Errorf("failed to create label: %w", err)
		}
		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: project.OrganizationID,
			UserID:         &actorID,
			Action:         models.AuditCreate,
			ContentType:    models.ContentTypeLabel,
			ObjectID:       label.ID,
			ObjectName:     label.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	return label, nil
}

// ListLabels lists the project's labels.
func (s *ProjectService) ListLabels(projectID, userID uint64) ([]models.TaskLabel, error) {
	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.effectiveRole(project, userID); err != nil {
		return nil, err
	}
	labels, err := s.projectRepo.ListLabels(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return labels, nil
}

// DeleteLabel removes a label. Requires the organization delete_label
// capability.
func (s *ProjectService) DeleteLabel(projectID, actorID, labelID uint64) error {
	project, err := s.findProject(projectID)
	if err != nil {
		return err
	}
	if _, err := s.effectiveRole(project, actorID); err != nil {
		return err
	}
	if err := s.permissions.RequireOrgPermission(project.OrganizationID, actorID, models.PermDeleteLabel); err != nil {
		return err
	}

	label, err := s.projectRepo.FindLabel(labelID)
	if err != nil || label.ProjectID != projectID {
		if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLabelNotFound
		}
		return fmt.Errorf("failed to find label: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewProjectRepository(tx).DeleteLabel(label.ID); err != nil {
			return fmt.Errorf("failed to delete label: %w", err)
		}
		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: project.OrganizationID,
			UserID:         &actorID,
			Action:         models.AuditDelete,
			ContentType:    models.ContentTypeLabel,
			ObjectID:       label.ID,
			ObjectName:     label.Name,
		})
	})
}

// findProject loads a project or maps the miss to ErrProjectNotFound.
func (s *ProjectService) findProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// effectiveRole resolves the caller's role for a project: their
// explicit binding, or an implicit owner role for the parent
// organization's owner.
func (s *ProjectService) effectiveRole(project *models.Project, userID uint64) (models.Role, error) {
	role, err := s.permissions.ProjectRole(project.ID, userID)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, ErrNotProjectMember) {
		return "", err
	}

	orgRole, orgErr := s.permissions.OrgRole(project.OrganizationID, userID)
	if orgErr == nil && orgRole == models.RoleOwner {
		return models.RoleOwner, nil
	}
	return "", ErrNotProjectMember
}
