package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/josephowusu/bizcore/internal/services"
	apperrors "github.com/josephowusu/bizcore/pkg/errors"
	"github.com/josephowusu/bizcore/pkg/response"
)

type SettingsHandler struct {
	settings *services.NotificationSettingsService
}

func NewSettingsHandler(settings *services.NotificationSettingsService) (*SettingsHandler, error) {
	if settings == nil {
		return nil, errors.New("settings handler: settings service is required")
	}
	return &SettingsHandler{settings: settings}, nil
}

// GET /api/notification-settings
func (h *SettingsHandler) Get(c *gin.Context) {
	sctx, handle, ok := requireSession(c)
	if !ok {
		return
	}

	settings, err := h.settings.Get(requestContext(c), handle, sctx.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, settings)
}

type setFlagRequest struct {
	Enabled *bool `json:"enabled"`
}

// PUT /api/notification-settings/:flag
func (h *SettingsHandler) SetFlag(c *gin.Context) {
	sctx, handle, ok := requireSession(c)
	if !ok {
		return
	}

	var req setFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		response.Error(c, apperrors.NewBadRequest("enabled flag is required"))
		return
	}

	settings, err := h.settings.SetFlag(requestContext(c), handle, sctx.UserID, c.Param("flag"), *req.Enabled)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, settings)
}
