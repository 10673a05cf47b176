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

// InvitationHandler coordinates invitation HTTP handlers.
type InvitationHandler struct {
	invitationService *services.InvitationService
}

// NewInvitationHandler creates a new InvitationHandler.
func NewInvitationHandler(invitationService *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{
		invitationService: invitationService,
	}
}

// Create invites a user to an organization by username.
func (h *InvitationHandler) Create(c *gin.Context) {
	type CreateRequest struct {
		Username string      `json:"username" binding:"required"`
		Role     models.Role `json:"role" binding:"required"`
	}

	orgID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	inv, err := h.invitationService.CreateInvitation(services.CreateInvitationInput{
		OrganizationID: orgID,
		InviterID:      userID,
		Username:       req.Username,
		Role:           req.Role,
	})
	if err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInvitationDTO(*inv))
}

// ListForOrganization lists an organization's invitations.
func (h *InvitationHandler) ListForOrganization(c *gin.Context) {
	orgID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	invitations, err := h.invitationService.ListForOrganization(orgID, userID, statusFilter(c))
	if err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invitations": dto.ToInvitationDTOs(invitations)})
}

// ListMine lists invitations received by the caller.
func (h *InvitationHandler) ListMine(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	invitations, err := h.invitationService.ListForUser(userID, statusFilter(c))
	if err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invitations": dto.ToInvitationDTOs(invitations)})
}

// Accept accepts a pending invitation and joins the organization.
func (h *InvitationHandler) Accept(c *gin.Context) {
	invID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	inv, err := h.invitationService.Accept(invID, userID)
	if err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvitationDTO(*inv))
}

// Decline declines a pending invitation.
func (h *InvitationHandler) Decline(c *gin.Context) {
	invID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	inv, err := h.invitationService.Decline(invID, userID)
	if err != nil {
		respondInvitationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvitationDTO(*inv))
}

func statusFilter(c *gin.Context) *models.InvitationStatus {
	raw := c.Query("status")
	if raw == "" {
		return nil
	}
	status := models.InvitationStatus(raw)
	return &status
}

func respondInvitationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrCannotInviteAsOwner),
		errors.Is(err, services.ErrCannotInviteYourself):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrDuplicatePendingInvitation):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvitationAlreadyResponded):
		apierrors.InvalidTransition(c, err.Error())
	case errors.Is(err, services.ErrInvitedUserNotFound):
		apierrors.NotFound(c, err.Error())
	// Another user's invitation looks like a missing one.
	case errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrNotInvitedUser),
		errors.Is(err, services.ErrNotOrganizationMember),
		errors.Is(err, services.ErrPermissionDenied):
		apierrors.NotFound(c, "")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
