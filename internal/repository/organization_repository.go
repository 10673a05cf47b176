package repository

import (
	"github.com/navflow/navflow-api/internal/models"
	"gorm.io/gorm"
)

// GormOrganizationRepository is a GORM implementation of OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// Create creates a new organization
func (r *GormOrganizationRepository) Create(org *models.Organization) error {
	return r.db.Create(org).Error
}

// FindByID finds an organization by ID
func (r *GormOrganizationRepository) FindByID(id uint64) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.First(&org, id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// Update updates an organization
func (r *GormOrganizationRepository) Update(org *models.Organization) error {
	return r.db.Save(org).Error
}

// Delete deletes an organization and all related data in a transaction
func (r *GormOrganizationRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var projectIDs []uint64
		if err := tx.Model(&models.Project{}).Where("organization_id = ?", id).
			Pluck("id", &projectIDs).Error; err != nil {
			return err
		}

		if len(projectIDs) > 0 {
			var taskIDs []uint64
			if err := tx.Unscoped().Model(&models.Task{}).Where("project_id IN ?", projectIDs).
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
			if err := tx.Where("project_id IN ?", projectIDs).Delete(&models.TaskSection{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id IN ?", projectIDs).Delete(&models.TaskLabel{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id IN ?", projectIDs).Delete(&models.ProjectRole{}).Error; err != nil {
				return err
			}
			if err := tx.Where("organization_id = ?", id).Delete(&models.Project{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("organization_id = ?", id).Delete(&models.Invitation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("organization_id = ?", id).Delete(&models.OrgPermissions{}).Error; err != nil {
			return err
		}
		if err := tx.Where("organization_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
			return err
		}
		// Audit rows are append-only everywhere else; the cascade here
		// keeps referential integrity when the owning tenant goes away.
		if err := tx.Where("organization_id = ?", id).Delete(&models.AuditLog{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Organization{}, id).Error
	})
}

// AddMember adds a member to an organization
func (r *GormOrganizationRepository) AddMember(member *models.Membership) error {
	return r.db.Create(member).Error
}

// RemoveMember removes a member from an organization
func (r *GormOrganizationRepository) RemoveMember(organizationID, userID uint64) error {
	return r.db.Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Delete(&models.Membership{}).Error
}

// FindMember finds a specific organization member
func (r *GormOrganizationRepository) FindMember(organizationID, userID uint64) (*models.Membership, error) {
	var member models.Membership
	if err := r.db.Where("organization_id = ? AND user_id = ?", organizationID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateMemberRole changes a member's role
func (r *GormOrganizationRepository) UpdateMemberRole(organizationID, userID uint64, role models.Role) error {
	return r.db.Model(&models.Membership{}).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Update("role", role).Error
}

// ListMembers lists all members of an organization
func (r *GormOrganizationRepository) ListMembers(organizationID uint64) ([]models.Membership, error) {
	var members []models.Membership
	if err := r.db.Preload("User").
		Where("organization_id = ?", organizationID).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListMembersByUserID lists all organizations a user is a member of
func (r *GormOrganizationRepository) ListMembersByUserID(userID uint64) ([]models.Membership, error) {
	var memberships []models.Membership
	if err := r.db.Preload("Organization").
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListMembersWithRoles lists members of an organization holding any of
// the given roles
func (r *GormOrganizationRepository) ListMembersWithRoles(organizationID uint64, roles []models.Role) ([]models.Membership, error) {
	var members []models.Membership
	if err := r.db.Where("organization_id = ? AND role IN ?", organizationID, roles).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// CountOwners counts members with the owner role
func (r *GormOrganizationRepository) CountOwners(organizationID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Membership{}).
		Where("organization_id = ? AND role = ?", organizationID, models.RoleOwner).
		Count(&count).Error
	return count, err
}

// FindPermissions finds the organization's permission overrides
func (r *GormOrganizationRepository) FindPermissions(organizationID uint64) (*models.OrgPermissions, error) {
	var perms models.OrgPermissions
	if err := r.db.Where("organization_id = ?", organizationID).First(&perms).Error; err != nil {
		return nil, err
	}
	return &perms, nil
}

// CreatePermissions creates a permission override record
func (r *GormOrganizationRepository) CreatePermissions(perms *models.OrgPermissions) error {
	return r.db.Create(perms).Error
}

// UpdatePermissions updates a permission override record
func (r *GormOrganizationRepository) UpdatePermissions(perms *models.OrgPermissions) error {
	return r.db.Save(perms).Error
}
