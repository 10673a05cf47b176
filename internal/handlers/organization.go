package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/navflow/navflow-api/internal/dto"
	apierrors "github.com/navflow/navflow-api/internal/errors"
	"github.com/navflow/navflow-api/internal/middleware"
	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/services"
)

// OrganizationHandler coordinates organization HTTP handlers.
type OrganizationHandler struct {
	orgService *services.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(orgService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
	}
}

// Create creates a new organization owned by the caller.
func (h *OrganizationHandler) Create(c *gin.Context) {
	type CreateRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	org, err := h.orgService.CreateOrganization(services.CreateOrganizationInput{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     userID,
	})
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToOrganizationDTO(*org))
}

// List lists the caller's organizations with their role in each.
func (h *OrganizationHandler) List(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	memberships, err := h.orgService.ListOrganizationsForUser(userID)
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	orgs := make([]dto.OrganizationWithRoleDTO, len(memberships))
	for i, m := range memberships {
		orgs[i] = dto.ToOrganizationWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{"organizations": orgs})
}

// Get returns an organization with its member list. Members only; a
// non-member cannot tell the organization exists.
func (h *OrganizationHandler) Get(c *gin.Context) {
	orgID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	org, members, err := h.orgService.GetOrganizationWithMembers(orgID)
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	var yourRole models.Role
	for _, m := range members {
		if m.UserID == userID {
			yourRole = m.Role
			break
		}
	}
	if yourRole == "" {
		apierrors.NotFound(c, services.ErrOrganizationNotFound.Error())
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDetailDTO(*org, members, yourRole))
}

// Update changes organization settings. Admin and above.
func (h *OrganizationHandler) Update(c *gin.Context) {
	type UpdateRequest struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}

	orgID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	org, err := h.orgService.UpdateOrganization(orgID, userID, services.UpdateOrganizationInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org))
}

// Delete removes an organization and everything in it. Owner only.
func (h *OrganizationHandler) Delete(c *gin.Context) {
	orgID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	if err := h.orgService.DeleteOrganization(orgID, userID); err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Organization deleted"})
}

// ChangeMemberRole changes an organization member's role.
func (h *OrganizationHandler) ChangeMemberRole(c *gin.Context) {
	type ChangeRoleRequest struct {
		Role models.Role `json:"role" binding:"required"`
	}

	orgID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}
	targetID, ok := middleware.ResourceID(c, "userID")
	if !ok {
		return
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	member, err := h.orgService.ChangeMemberRole(orgID, userID, targetID, req.Role)
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMemberDTO(*member))
}

// RemoveMember removes a member from the organization.
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	orgID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}
	targetID, ok := middleware.ResourceID(c, "userID")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	if err := h.orgService.RemoveMember(orgID, userID, targetID); err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

// GetPermissions returns the organization's effective permission
// matrix. Any member.
func (h *OrganizationHandler) GetPermissions(c *gin.Context) {
	orgID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	matrix, err := h.orgService.GetPermissionMatrix(orgID, userID)
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": matrix})
}

// UpdatePermissions replaces per-role permission grants. Owner only;
// the owner's own capabilities are implicit and not part of the matrix.
func (h *OrganizationHandler) UpdatePermissions(c *gin.Context) {
	type UpdatePermissionsRequest struct {
		Permissions models.PermissionMatrix `json:"permissions" binding:"required"`
	}

	orgID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	var req UpdatePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	matrix, err := h.orgService.UpdatePermissionMatrix(orgID, userID, req.Permissions)
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": matrix})
}

func respondOrganizationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidOrganizationName),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidPermission):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrDuplicateOrganizationName),
		errors.Is(err, services.ErrDuplicateOwner):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrCannotRemoveYourself),
		errors.Is(err, services.ErrCannotRemoveOwner):
		apierrors.Forbidden(c, err.Error())
	// Membership and permission misses collapse to 404 so organization
	// existence never leaks to outsiders.
	case errors.Is(err, services.ErrOrganizationNotFound),
		errors.Is(err, services.ErrOrganizationMemberNotFound),
		errors.Is(err, services.ErrNotOrganizationMember),
		errors.Is(err, services.ErrPermissionDenied):
		apierrors.NotFound(c, services.ErrOrganizationNotFound.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
