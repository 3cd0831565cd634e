package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/josephowusu/bizcore/internal/features"
	"github.com/josephowusu/bizcore/internal/models"
	"github.com/josephowusu/bizcore/internal/services"
	apperrors "github.com/josephowusu/bizcore/pkg/errors"
	"github.com/josephowusu/bizcore/pkg/response"
)

// DispatchCapability is the default-module flag a user must hold to dispatch
// explicit-recipient notifications.
const DispatchCapability = "sendNotification"

type NotificationHandler struct {
	notifications *services.NotificationService
	privileges    *services.PrivilegeService
}

func NewNotificationHandler(notifications *services.NotificationService, privileges *services.PrivilegeService) (*NotificationHandler, error) {
	if notifications == nil {
		return nil, errors.New("notification handler: notification service is required")
	}
	if privileges == nil {
		return nil, errors.New("notification handler: privilege service is required")
	}
	return &NotificationHandler{notifications: notifications, privileges: privileges}, nil
}

// GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	sctx, handle, ok := requireSession(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("per_page", "25"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	items, unread, err := h.notifications.ListForUser(requestContext(c), handle, services.ListNotificationsInput{
		UserID: sctx.UserID,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{
		Page:    page,
		PerPage: limit,
		Unread:  unread,
	})
}

// POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	sctx, handle, ok := requireSession(c)
	if !ok {
		return
	}

	dto, err := h.notifications.MarkRead(requestContext(c), handle, sctx.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, dto)
}

type dispatchRequest struct {
	Title      string                    `json:"title"`
	Message    string                    `json:"message"`
	AlertType  string                    `json:"alert_type"`
	EntityName string                    `json:"entity_name"`
	EntityID   string                    `json:"entity_id"`
	Recipients []string                  `json:"recipients"`
	Filter     *services.PrivilegeFilter `json:"filter"`
}

// POST /api/notifications/dispatch
//
// The entry point entity controllers call after a business mutation. Filtered
// dispatches require the caller to hold the capability being targeted;
// explicit dispatches require the default-module send capability.
func (h *NotificationHandler) Dispatch(c *gin.Context) {
	sctx, handle, ok := requireSession(c)
	if !ok {
		return
	}

	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid request payload"))
		return
	}

	caps, err := h.privileges.ResolveCurrent(requestContext(c), handle, sctx.UserID, sctx.BusinessCode)
	if err != nil {
		response.Error(c, err)
		return
	}

	if req.Filter != nil {
		err = h.privileges.Check(caps, req.Filter.Feature, req.Filter.Capability)
	} else {
		err = h.privileges.Check(caps, features.Default, DispatchCapability)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	dto, err := h.notifications.Dispatch(requestContext(c), handle, services.DispatchInput{
		ActorUserID: sctx.UserID,
		SessionID:   sctx.SessionID,
		Title:       req.Title,
		Message:     req.Message,
		AlertType:   models.AlertType(req.AlertType),
		EntityName:  req.EntityName,
		EntityID:    req.EntityID,
		Recipients:  req.Recipients,
		Filter:      req.Filter,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, dto)
}
