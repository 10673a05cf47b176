package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/navflow/navflow-api/internal/dto"
	apierrors "github.com/navflow/navflow-api/internal/errors"
	"github.com/navflow/navflow-api/internal/middleware"
	"github.com/navflow/navflow-api/internal/models"
	"github.com/navflow/navflow-api/internal/services"
	"github.com/navflow/navflow-api/internal/utils"
)

// AuditHandler coordinates audit trail HTTP handlers.
type AuditHandler struct {
	auditService *services.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

// ListForOrganization returns an organization's audit trail newest
// first. Admin and above.
func (h *AuditHandler) ListForOrganization(c *gin.Context) {
	orgID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	params := utils.GetPaginationParams(c)

	input := services.AuditListInput{
		Page:     params.Page,
		PageSize: params.Limit,
	}
	if raw := c.Query("user_id"); raw != "" {
		actorID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid user ID")
			return
		}
		input.UserID = &actorID
	}
	if raw := c.Query("action"); raw != "" {
		action := models.AuditAction(raw)
		input.Action = &action
	}
	if raw := c.Query("content_type"); raw != "" {
		input.ContentType = &raw
	}

	logs, total, err := h.auditService.ListForOrganization(orgID, userID, input)
	if err != nil {
		respondAuditError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAuditListResponse(logs, params, total))
}

// ListMine returns the caller's recorded actions across their
// organizations.
func (h *AuditHandler) ListMine(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	params := utils.GetPaginationParams(c)

	logs, total, err := h.auditService.ListMine(userID, params.Page, params.Limit)
	if err != nil {
		respondAuditError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAuditListResponse(logs, params, total))
}

func respondAuditError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotOrganizationMember),
		errors.Is(err, services.ErrPermissionDenied):
		apierrors.NotFound(c, services.ErrOrganizationNotFound.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
