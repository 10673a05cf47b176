package services

import (
	"fmt"

	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/repository"
)

// AuditService reads the append-only audit trail. Writes go through
// the Recorder inside mutation transactions; this service only lists.
type AuditService struct {
	auditRepo   repository.AuditLogRepository
	orgRepo     repository.OrganizationRepository
	permissions *PermissionService
}

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo repository.AuditLogRepository, orgRepo repository.OrganizationRepository, permissions *PermissionService) *AuditService {
	return &AuditService{
		auditRepo:   auditRepo,
		orgRepo:     orgRepo,
		permissions: permissions,
	}
}

// AuditListInput holds caller-facing audit listing options.
type AuditListInput struct {
	UserID      *uint64
	Action      *models.AuditAction
	ContentType *string
	Page        int
	PageSize    int
}

// ListForOrganization lists an organization's audit trail newest
// first. Admin and above.
func (s *AuditService) ListForOrganization(orgID, actorID uint64, input AuditListInput) ([]models.AuditLog, int64, error) {
	role, err := s.permissions.OrgRole(orgID, actorID)
	if err != nil {
		return nil, 0, err
	}
	if !role.AtLeast(models.RoleAdmin) {
		return nil, 0, ErrPermissionDenied
	}

	logs, total, err := s.auditRepo.List(repository.AuditFilter{
		OrganizationIDs: []uint64{orgID},
		UserID:          input.UserID,
		Action:          input.Action,
		ContentType:     input.ContentType,
		Page:            input.Page,
		PageSize:        input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}

// ListMine lists the caller's own recorded actions across every
// organization they belong to.
func (s *AuditService) ListMine(userID uint64, page, pageSize int) ([]models.AuditLog, int64, error) {
	memberships, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list memberships: %w", err)
	}
	orgIDs := make([]uint64, 0, len(memberships))
	for _, m := range memberships {
		orgIDs = append(orgIDs, m.OrganizationID)
	}
	if len(orgIDs) == 0 {
		return []models.AuditLog{}, 0, nil
	}

	self := userID
	logs, total, err := s.auditRepo.List(repository.AuditFilter{
		OrganizationIDs: orgIDs,
		UserID:          &self,
		Page:            page,
		PageSize:        pageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}
