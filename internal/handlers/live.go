package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/josephowusu/bizcore/internal/realtime"
)

type LiveHandler struct {
	hub *realtime.Hub
}

func NewLiveHandler(hub *realtime.Hub) (*LiveHandler, error) {
	if hub == nil {
		return nil, errors.New("live handler: hub is required")
	}
	return &LiveHandler{hub: hub}, nil
}

// GET /api/live
//
// Runs behind the auth middleware, so the upgrade only happens for a session
// that already resolved to a tenant and user.
func (h *LiveHandler) Attach(c *gin.Context) {
	sctx, _, ok := requireSession(c)
	if !ok {
		return
	}

	h.hub.Serve(sctx.Schema, sctx.UserID, c.Writer, c.Request)
}
