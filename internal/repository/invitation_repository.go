package repository

import (
	"github.com/navflow/navflow-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvitationRepository is a GORM implementation of InvitationRepository
type GormInvitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new InvitationRepository
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &GormInvitationRepository{db: db}
}

// Create creates a new invitation
func (r *GormInvitationRepository) Create(inv *models.Invitation) error {
	return r.db.Create(inv).Error
}

// FindByID finds an invitation by ID with relations preloaded
func (r *GormInvitationRepository) FindByID(id uint64) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.db.Preload("Organization").Preload("InvitedUser").Preload("InvitedBy").
		First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// FindPending finds the pending invitation for a user in an organization
func (r *GormInvitationRepository) FindPending(organizationID, userID uint64) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.db.Where(
		"organization_id = ? AND invited_user_id = ? AND status = ?",
		organizationID, userID, models.InvitationPending,
	).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// Update updates an invitation without touching preloaded relations
func (r *GormInvitationRepository) Update(inv *models.Invitation) error {
	return r.db.Omit(clause.Associations).Save(inv).Error
}

// ListForUser lists invitations received by a user
func (r *GormInvitationRepository) ListForUser(userID uint64, status *models.InvitationStatus) ([]models.Invitation, error) {
	query := r.db.Preload("Organization").Preload("InvitedBy").
		Where("invited_user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var invitations []models.Invitation
	if err := query.Order("created_at DESC").Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

// ListForOrganization lists invitations sent within an organization
func (r *GormInvitationRepository) ListForOrganization(organizationID uint64, status *models.InvitationStatus) ([]models.Invitation, error) {
	query := r.db.Preload("InvitedUser").Preload("InvitedBy").
		Where("organization_id = ?", organizationID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var invitations []models.Invitation
	if err := query.Order("created_at DESC").Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}
