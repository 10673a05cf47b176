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
	ErrOrganizationNotFound       = errors.New("organization not found")
	ErrInvalidOrganizationName    = errors.New("organization name cannot be empty")
	ErrDuplicateOrganizationName  = errors.New("organization name already taken")
	ErrOrganizationMemberNotFound = errors.New("organization member not found")
	ErrCannotRemoveYourself       = errors.New("cannot remove yourself from the organization")
	ErrCannotRemoveOwner          = errors.New("cannot remove the organization owner")
	ErrDuplicateOwner             = errors.New("organization already has an owner")
	ErrInvalidRole                = errors.New("invalid role")
	ErrInvalidPermission          = errors.New("invalid permission")
)

// OrganizationService provides business logic for organizations,
// memberships, and permission overrides.
type OrganizationService struct {
	db          *gorm.DB
	orgRepo     repository.OrganizationRepository
	userRepo    repository.UserRepository
	permissions *PermissionService
	recorder    *Recorder
}

// NewOrganizationService creates a new OrganizationService
func NewOrganizationService(db *gorm.DB, orgRepo repository.OrganizationRepository, userRepo repository.UserRepository, permissions *PermissionService, recorder *Recorder) *OrganizationService {
	return &OrganizationService{
		db:          db,
		orgRepo:     orgRepo,
		userRepo:    userRepo,
		permissions: permissions,
		recorder:    recorder,
	}
}

// CreateOrganizationInput represents parameters to create a new organization.
type CreateOrganizationInput struct {
	Name        string
	Description string
	OwnerID     uint64
}

// CreateOrganization creates a new organization and makes the creator
// its owner in the same transaction.
func (s *OrganizationService) CreateOrganization(input CreateOrganizationInput) (*models.Organization, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidOrganizationName
	}

	org := &models.Organization{
		Name:        name,
		Description: input.Description,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := repository.NewOrganizationRepository(tx)
		if err := repo.Create(org); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrDuplicateOrganizationName
			}
			return fmt.Errorf("failed to create organization: %w", err)
		}

		member := &models.Membership{
			OrganizationID: org.ID,
			UserID:         input.OwnerID,
			Role:           models.RoleOwner,
			JoinedAt:       time.Now(),
		}
		if err := repo.AddMember(member); err != nil {
			return fmt.Errorf("failed to add owner to organization: %w", err)
		}

		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: org.ID,
			UserID:         &input.OwnerID,
			Action:         models.AuditCreate,
			ContentType:    models.ContentTypeOrganization,
			ObjectID:       org.ID,
			ObjectName:     org.Name,
			Changes: models.ChangeSet{
				"name": {"", org.Name},
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return org, nil
}

// ListOrganizationsForUser returns organizations the user belongs to.
func (s *OrganizationService) ListOrganizationsForUser(userID uint64) ([]models.Membership, error) {
	memberships, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return memberships, nil
}

// GetOrganizationWithMembers returns an organization and all of its members.
func (s *OrganizationService) GetOrganizationWithMembers(orgID uint64) (*models.Organization, []models.Membership, error) {
	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrganizationNotFound
		}
		return nil, nil, fmt.Errorf("failed to find organization: %w", err)
	}

	members, err := s.orgRepo.ListMembers(orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list organization members: %w", err)
	}

	return org, members, nil
}

// UpdateOrganizationInput carries the updatable organization fields.
// Nil means "not provided".
type UpdateOrganizationInput struct {
	Name        *string
	Description *string
}

// UpdateOrganization updates an organization's name or description.
// Requires admin or owner.
func (s *OrganizationService) UpdateOrganization(orgID, actorID uint64, input UpdateOrganizationInput) (*models.Organization, error) {
	role, err := s.permissions.OrgRole(orgID, actorID)
	if err != nil {
		return nil, err
	}
	if !role.AtLeast(models.RoleAdmin) {
		return nil, ErrPermissionDenied
	}

	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	changes := models.ChangeSet{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidOrganizationName
		}
		diffStr(changes, "name", org.Name, name)
		org.Name = name
	}
	if input.Description != nil {
		diffStr(changes, "description", org.Description, *input.Description)
		org.Description = *input.Description
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewOrganizationRepository(tx).Update(org); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrDuplicateOrganizationName
			}
			return fmt.Errorf("failed to update organization: %w", err)
		}
		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: org.ID,
			UserID:         &actorID,
			Action:         models.AuditUpdate,
			ContentType:    models.ContentTypeOrganization,
			ObjectID:       org.ID,
			ObjectName:     org.Name,
			Changes:        changes,
		})
	})
	if err != nil {
		return nil, err
	}

	return org, nil
}

// DeleteOrganization removes an organization and everything under it.
// Owner only.
func (s *OrganizationService) DeleteOrganization(orgID, actorID uint64) error {
	role, err := s.permissions.OrgRole(orgID, actorID)
	if err != nil {
		return err
	}
	if role != models.RoleOwner {
		return ErrPermissionDenied
	}

	if _, err := s.orgRepo.FindByID(orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to find organization: %w", err)
	}

	if err := s.orgRepo.Delete(orgID); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	return nil
}

// ChangeMemberRole changes an organization member's role. Requires the
// change_member_roles capability. The owner's role is immutable through
// this path: demotion would leave the organization ownerless, promotion
// a second owner. The partial unique owner index is the final arbiter
// for concurrent promotions.
func (s *OrganizationService) ChangeMemberRole(orgID, actorID, targetID uint64, newRole models.Role) (*models.Membership, error) {
	if !newRole.Valid() {
		return nil, ErrInvalidRole
	}

	if err := s.permissions.RequireOrgPermission(orgID, actorID, models.PermChangeMemberRoles); err != nil {
		return nil, err
	}

	member, err := s.orgRepo.FindMember(orgID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationMemberNotFound
		}
		return nil, fmt.Errorf("failed to find organization member: %w", err)
	}

	if member.Role == newRole {
		return member, nil
	}
	if member.Role == models.RoleOwner {
		return nil, ErrCannotRemoveOwner
	}

	oldRole := member.Role
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := repository.NewOrganizationRepository(tx)

		if newRole == models.RoleOwner {
			owners, err := repo.CountOwners(orgID)
			if err != nil {
				return fmt.Errorf("failed to count owners: %w", err)
			}
			if owners > 0 {
				return ErrDuplicateOwner
			}
		}

		if err := repo.UpdateMemberRole(orgID, targetID, newRole); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrDuplicateOwner
			}
			return fmt.Errorf("failed to update member role: %w", err)
		}

		target, err := repository.NewUserRepository(tx).FindByID(targetID)
		if err != nil {
			return fmt.Errorf("failed to load member user: %w", err)
		}

		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: orgID,
			UserID:         &actorID,
			Action:         models.AuditUpdate,
			ContentType:    models.ContentTypeMembership,
			ObjectID:       targetID,
			ObjectName:     target.Username,
			Changes: models.ChangeSet{
				"role": {string(oldRole), string(newRole)},
			},
		})
	})
	if err != nil {
		return nil, err
	}

	member.Role = newRole
	return member, nil
}

// RemoveMember removes a member from the organization and drops their
// project roles under it. Owners cannot be removed, and callers cannot
// remove themselves.
func (s *OrganizationService) RemoveMember(orgID, actorID, targetID uint64) error {
	if targetID == actorID {
		return ErrCannotRemoveYourself
	}

	if err := s.permissions.RequireOrgPermission(orgID, actorID, models.PermRemoveMembers); err != nil {
		return err
	}

	member, err := s.orgRepo.FindMember(orgID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationMemberNotFound
		}
		return fmt.Errorf("failed to find organization member: %w", err)
	}

	if member.Role == models.RoleOwner {
		return ErrCannotRemoveOwner
	}

	target, err := s.userRepo.FindByID(targetID)
	if err != nil {
		return fmt.Errorf("failed to load member user: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var projectIDs []uint64
		if err := tx.Model(&models.Project{}).
			Where("organization_id = ?", orgID).
			Pluck("id", &projectIDs).Error; err != nil {
			return fmt.Errorf("failed to list organization projects: %w", err)
		}
		if len(projectIDs) > 0 {
			if err := tx.Where("user_id = ? AND project_id IN ?", targetID, projectIDs).
				Delete(&models.ProjectRole{}).Error; err != nil {
				return fmt.Errorf("failed to remove project roles: %w", err)
			}
		}

		if err := repository.NewOrganizationRepository(tx).RemoveMember(orgID, targetID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}

		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: orgID,
			UserID:         &actorID,
			Action:         models.AuditDelete,
			ContentType:    models.ContentTypeMembership,
			ObjectID:       targetID,
			ObjectName:     target.Username,
			Changes: models.ChangeSet{
				"role": {string(member.Role), ""},
			},
		})
	})
}

// GetPermissionMatrix returns the organization's effective permission
// matrix. Any member can view it.
func (s *OrganizationService) GetPermissionMatrix(orgID, actorID uint64) (models.PermissionMatrix, error) {
	if _, err := s.permissions.OrgRole(orgID, actorID); err != nil {
		return nil, err
	}
	return s.permissions.Matrix(orgID)
}

// UpdatePermissionMatrix overwrites grants for the non-owner roles.
// Owner only; the owner role itself is implicit and never stored.
func (s *OrganizationService) UpdatePermissionMatrix(orgID, actorID uint64, grants models.PermissionMatrix) (models.PermissionMatrix, error) {
	role, err := s.permissions.OrgRole(orgID, actorID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleOwner {
		return nil, ErrPermissionDenied
	}

	known := map[models.Permission]bool{}
	for _, p := range models.AllPermissions {
		known[p] = true
	}
	for grantRole, perms := range grants {
		if grantRole == models.RoleOwner || !grantRole.Valid() {
			return nil, ErrInvalidRole
		}
		for perm := range perms {
			if !known[perm] {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPermission, perm)
			}
		}
	}

	current, err := s.permissions.Matrix(orgID)
	if err != nil {
		return nil, err
	}
	merged := current.Merge(grants)

	changes := models.ChangeSet{}
	for grantRole, perms := range grants {
		for perm, granted := range perms {
			old := current.Granted(grantRole, perm)
			if old != granted {
				key := fmt.Sprintf("%s.%s", grantRole, perm)
				changes[key] = models.FieldChange{fmt.Sprintf("%t", old), fmt.Sprintf("%t", granted)}
			}
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := repository.NewOrganizationRepository(tx)
		perms, err := repo.FindPermissions(orgID)
		if err != nil {
			return fmt.Errorf("failed to load organization permissions: %w", err)
		}
		perms.Grants = merged
		if err := repo.UpdatePermissions(perms); err != nil {
			return fmt.Errorf("failed to update organization permissions: %w", err)
		}

		org, err := repo.FindByID(orgID)
		if err != nil {
			return fmt.Errorf("failed to find organization: %w", err)
		}
		return s.recorder.Record(tx, AuditEntry{
			OrganizationID: orgID,
			UserID:         &actorID,
			Action:         models.AuditUpdate,
			ContentType:    models.ContentTypeOrganization,
			ObjectID:       orgID,
			ObjectName:     org.Name,
			Changes:        changes,
		})
	})
	if err != nil {
		return nil, err
	}

	return merged, nil
}
