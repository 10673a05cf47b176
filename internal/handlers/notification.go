package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/navflow/navflow-api/internal/dto"
	apierrors "github.com/navflow/navflow-api/internal/errors"
	"github.com/navflow/navflow-api/internal/middleware"
	"github.com/navflow/navflow-api/internal/services"
	"github.com/navflow/navflow-api/internal/utils"
)

// NotificationHandler coordinates notification HTTP handlers.
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// List returns the caller's notification feed with the unread counter.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	params := utils.GetPaginationParams(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, total, err := h.notificationService.List(userID, unreadOnly, params.Page, params.Limit)
	if err != nil {
		respondNotificationError(c, err)
		return
	}

	unread, err := h.notificationService.UnreadCount(userID)
	if err != nil {
		respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToNotificationListResponse(notifications, unread, params, total))
}

// UnreadCount returns only the unread counter, for badge polling.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	count, err := h.notificationService.UnreadCount(userID)
	if err != nil {
		respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// MarkRead marks one notification read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notifID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(c)
	if err := h.notificationService.MarkRead(notifID, userID); err != nil {
		respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked read"})
}

// MarkAllRead marks every notification read. Safe to repeat.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	count, err := h.notificationService.MarkAllRead(userID)
	if err != nil {
		respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked_read": count})
}

// RespondToInvitation accepts or declines an invitation through its
// actionable notification.
func (h *NotificationHandler) RespondToInvitation(c *gin.Context) {
	type RespondRequest struct {
		Accept *bool `json:"accept" binding:"required"`
	}

	notifID, ok := middleware.ResourceID(c, "id")
	if !ok {
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserID(c)
	n, err := h.notificationService.RespondToInvitation(notifID, userID, *req.Accept)
	if err != nil {
		respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToNotificationDTO(*n))
}

func respondNotificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotificationNotActionable),
		errors.Is(err, services.ErrInvitationAlreadyResponded):
		apierrors.InvalidTransition(c, err.Error())
	case errors.Is(err, services.ErrAlreadyMember):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrNotInvitedUser):
		apierrors.NotFound(c, services.ErrNotificationNotFound.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
