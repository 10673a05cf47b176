package dto

import (
	"time"

	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/utils"
)

// AuditLogDTO represents an audit log row in API responses
type AuditLogDTO struct {
	ID             uint64             `json:"id"`
	OrganizationID uint64             `json:"organization_id"`
	UserID         *uint64            `json:"user_id,omitempty"`
	User           *UserDTO           `json:"user,omitempty"`
	Action         models.AuditAction `json:"action"`
	ContentType    string             `json:"content_type"`
	ObjectID       uint64             `json:"object_id"`
	ObjectName     string             `json:"object_name"`
	Changes        models.ChangeSet   `json:"changes"`
	CreatedAt      time.Time          `json:"created_at"`
}

// AuditListResponse represents a paginated audit trail
type AuditListResponse struct {
	Logs       []AuditLogDTO            `json:"logs"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToAuditLogDTO converts an AuditLog model to AuditLogDTO
func ToAuditLogDTO(log models.AuditLog) AuditLogDTO {
	dto := AuditLogDTO{
		ID:             log.ID,
		OrganizationID: log.OrganizationID,
		UserID:         log.UserID,
		Action:         log.Action,
		ContentType:    log.ContentType,
		ObjectID:       log.ObjectID,
		ObjectName:     log.ObjectName,
		Changes:        log.Changes,
		CreatedAt:      log.CreatedAt,
	}

	if log.User != nil && log.User.ID != 0 {
		user := ToUserDTO(*log.User)
		dto.User = &user
	}

	return dto
}

// ToAuditListResponse converts audit logs to a paginated response
func ToAuditListResponse(logs []models.AuditLog, params utils.PaginationParams, total int64) AuditListResponse {
	items := make([]AuditLogDTO, len(logs))
	for i, log := range logs {
		items[i] = ToAuditLogDTO(log)
	}

	return AuditListResponse{
		Logs: items,
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	}
}
