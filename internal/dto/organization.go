package dto

import (
	"time"

	"github.com/navflow/navflow-api/internal/models"
)

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrganizationWithRoleDTO represents an organization with the user's role
type OrganizationWithRoleDTO struct {
	OrganizationDTO
	Role models.Role `json:"role"`
}

// MemberDTO represents a member in an organization
type MemberDTO struct {
	User     UserDTO     `json:"user"`
	Role     models.Role `json:"role"`
	JoinedAt time.Time   `json:"joined_at"`
}

// OrganizationDetailDTO represents detailed organization information
type OrganizationDetailDTO struct {
	OrganizationDTO
	Members  []MemberDTO `json:"members"`
	YourRole models.Role `json:"your_role"`
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO
func ToOrganizationDTO(org models.Organization) OrganizationDTO {
	return OrganizationDTO{
		ID:          org.ID,
		Name:        org.Name,
		Description: org.Description,
		CreatedAt:   org.CreatedAt,
	}
}

// ToOrganizationWithRoleDTO converts a membership to DTO with role
func ToOrganizationWithRoleDTO(member models.Membership) OrganizationWithRoleDTO {
	return OrganizationWithRoleDTO{
		OrganizationDTO: ToOrganizationDTO(member.Organization),
		Role:            member.Role,
	}
}

// ToMemberDTO converts a membership to DTO
func ToMemberDTO(member models.Membership) MemberDTO {
	return MemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToOrganizationDetailDTO converts an organization with members to
// detailed DTO
func ToOrganizationDetailDTO(org models.Organization, members []models.Membership, yourRole models.Role) OrganizationDetailDTO {
	memberDTOs := make([]MemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToMemberDTO(member)
	}

	return OrganizationDetailDTO{
		OrganizationDTO: ToOrganizationDTO(org),
		Members:         memberDTOs,
		YourRole:        yourRole,
	}
}
