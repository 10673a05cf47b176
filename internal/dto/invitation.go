package dto

import (
	"time"

	"github.com/navflow/navflow-api/internal/models"
)

// InvitationDTO represents an invitation in API responses
type InvitationDTO struct {
	ID           uint64                  `json:"id"`
	Organization *OrganizationDTO        `json:"organization,omitempty"`
	InvitedUser  *UserDTO                `json:"invited_user,omitempty"`
	InvitedBy    *UserDTO                `json:"invited_by,omitempty"`
	Role         models.Role             `json:"role"`
	Status       models.InvitationStatus `json:"status"`
	CreatedAt    time.Time               `json:"created_at"`
	RespondedAt  *time.Time              `json:"responded_at,omitempty"`
}

// ToInvitationDTO converts an Invitation model to InvitationDTO
func ToInvitationDTO(inv models.Invitation) InvitationDTO {
	dto := InvitationDTO{
		ID:          inv.ID,
		Role:        inv.Role,
		Status:      inv.Status,
		CreatedAt:   inv.CreatedAt,
		RespondedAt: inv.RespondedAt,
	}

	if inv.Organization.ID != 0 {
		org := ToOrganizationDTO(inv.Organization)
		dto.Organization = &org
	}
	if inv.InvitedUser.ID != 0 {
		user := ToUserDTO(inv.InvitedUser)
		dto.InvitedUser = &user
	}
	if inv.InvitedBy.ID != 0 {
		user := ToUserDTO(inv.InvitedBy)
		dto.InvitedBy = &user
	}

	return dto
}

// ToInvitationDTOs converts a slice of invitations
func ToInvitationDTOs(invitations []models.Invitation) []InvitationDTO {
	dtos := make([]InvitationDTO, len(invitations))
	for i, inv := range invitations {
		dtos[i] = ToInvitationDTO(inv)
	}
	return dtos
}
