package services

import (
	"errors"
	"fmt"

	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrNotOrganizationMember = errors.New("user is not a member of the organization")
	ErrNotProjectMember      = errors.New("user is not a member of the project")
	ErrPermissionDenied      = errors.New("user does not have permission to perform this action")
)

// PermissionService resolves "can user U perform action A on resource R"
// for both role scopes. Organization capabilities are customizable per
// role through OrgPermissions; project checks are fixed role-rank rules.
type PermissionService struct {
	orgRepo     repository.OrganizationRepository
	projectRepo repository.ProjectRepository
}

// NewPermissionService creates a new PermissionService
func NewPermissionService(orgRepo repository.OrganizationRepository, projectRepo repository.ProjectRepository) *PermissionService {
	return &PermissionService{
		orgRepo:     orgRepo,
		projectRepo: projectRepo,
	}
}

// OrgRole resolves the caller's organization role. Resolved once at the
// top of each mutation and threaded through the operation so one
// consistent view of the caller's privilege is used throughout.
func (s *PermissionService) OrgRole(orgID, userID uint64) (models.Role, error) {
	member, err := s.orgRepo.FindMember(orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotOrganizationMember
		}
		return "", fmt.Errorf("failed to resolve organization role: %w", err)
	}
	return member.Role, nil
}

// ProjectRole resolves the caller's project role.
func (s *PermissionService) ProjectRole(projectID, userID uint64) (models.Role, error) {
	role, err := s.projectRepo.FindRole(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotProjectMember
		}
		return "", fmt.Errorf("failed to resolve project role: %w", err)
	}
	return role.Role, nil
}

// Matrix returns the organization's effective permission matrix,
// lazily creating the override record with the documented defaults on
// first use. A losing race on the creation falls back to re-reading
// the winner's row.
func (s *PermissionService) Matrix(orgID uint64) (models.PermissionMatrix, error) {
	perms, err := s.orgRepo.FindPermissions(orgID)
	if err == nil {
		return models.DefaultPermissionMatrix().Merge(perms.Grants), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load organization permissions: %w", err)
	}

	created := &models.OrgPermissions{
		OrganizationID: orgID,
		Grants:         models.DefaultPermissionMatrix(),
	}
	if createErr := s.orgRepo.CreatePermissions(created); createErr != nil {
		if !repository.IsUniqueViolation(createErr) {
			return nil, fmt.Errorf("failed to create default permissions: %w", createErr)
		}
		perms, err = s.orgRepo.FindPermissions(orgID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload organization permissions: %w", err)
		}
		return models.DefaultPermissionMatrix().Merge(perms.Grants), nil
	}

	return created.Grants, nil
}

// HasOrgPermission implements the organization-scope permission check:
// owners pass unconditionally, any other role consults the effective
// matrix, and anything unset resolves to false.
func (s *PermissionService) HasOrgPermission(orgID, userID uint64, perm models.Permission) (bool, error) {
	role, err := s.OrgRole(orgID, userID)
	if err != nil {
		return false, err
	}
	if role == models.RoleOwner {
		return true, nil
	}

	matrix, err := s.Matrix(orgID)
	if err != nil {
		return false, err
	}
	return matrix.Granted(role, perm), nil
}

// RequireOrgPermission is HasOrgPermission folded into an error:
// non-members get ErrNotOrganizationMember, members without the grant
// get ErrPermissionDenied.
func (s *PermissionService) RequireOrgPermission(orgID, userID uint64, perm models.Permission) error {
	ok, err := s.HasOrgPermission(orgID, userID, perm)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

// Project-scope rules are coarser and not customizable.

// CanViewProject reports whether the role may read project content.
// Any project member can view.
func CanViewProject(role models.Role) bool {
	return role.Valid()
}

// CanMutateTasks reports whether the role may create, update, or
// delete tasks and sections. Moderator and above.
func CanMutateTasks(role models.Role) bool {
	return role.AtLeast(models.RoleModerator)
}

// CanAssignProjectRole reports whether actorRole may grant targetRole.
// Owners may grant anything; admins may grant anything except owner.
func CanAssignProjectRole(actorRole, targetRole models.Role) bool {
	if actorRole == models.RoleOwner {
		return true
	}
	if actorRole == models.RoleAdmin {
		return targetRole != models.RoleOwner
	}
	return false
}

// CanAdministerProject reports whether the role may change project
// settings. Owner or admin.
func CanAdministerProject(role models.Role) bool {
	return role.AtLeast(models.RoleAdmin)
}

// IsProjectOwner reports whether the role is the project owner, the
// only role allowed to delete the project or remove members.
func IsProjectOwner(role models.Role) bool {
	return role == models.RoleOwner
}
