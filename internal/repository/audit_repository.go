package repository

import (
	"github.com/navflow/navflow-api/internal/database"
	"github.com/navflow/navflow-api/internal/models"
	"gorm.io/gorm"
)

// GormAuditLogRepository is a GORM implementation of AuditLogRepository
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Create appends an audit log row
func (r *GormAuditLogRepository) Create(entry *models.AuditLog) error {
	return r.db.Create(entry).Error
}

// List retrieves audit logs newest first with filtering and pagination
func (r *GormAuditLogRepository) List(filter AuditFilter) ([]models.AuditLog, int64, error) {
	if len(filter.OrganizationIDs) == 0 {
		return []models.AuditLog{}, 0, nil
	}

	query := r.db.Model(&models.AuditLog{}).
		Where("audit_logs.organization_id IN ?", filter.OrganizationIDs)

	if filter.UserID != nil {
		query = query.Where("audit_logs.user_id = ?", *filter.UserID)
	}
	if filter.Action != nil {
		query = query.Where("audit_logs.action = ?", *filter.Action)
	}
	if filter.ContentType != nil {
		query = query.Where("audit_logs.content_type = ?", *filter.ContentType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.
		Order("audit_logs.created_at DESC, audit_logs.id DESC").
		Scopes(database.Paginate(filter.Page, filter.PageSize))

	var logs []models.AuditLog
	if err := listQuery.Preload("User").Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
