package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/josephowusu/bizcore/internal/services"
	"github.com/josephowusu/bizcore/pkg/response"
)

type CapabilityHandler struct {
	privileges *services.PrivilegeService
}

func NewCapabilityHandler(privileges *services.PrivilegeService) (*CapabilityHandler, error) {
	if privileges == nil {
		return nil, errors.New("capability handler: privilege service is required")
	}
	return &CapabilityHandler{privileges: privileges}, nil
}

// GET /api/capabilities
func (h *CapabilityHandler) Get(c *gin.Context) {
	sctx, handle, ok := requireSession(c)
	if !ok {
		return
	}

	caps, err := h.privileges.ResolveCurrent(requestContext(c), handle, sctx.UserID, sctx.BusinessCode)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"capabilities": caps})
}
