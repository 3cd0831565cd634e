package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	iauth "github.com/josephowusu/bizcore/internal/auth"
	"github.com/josephowusu/bizcore/internal/middleware"
	"github.com/josephowusu/bizcore/internal/tenant"
	apperrors "github.com/josephowusu/bizcore/pkg/errors"
	"github.com/josephowusu/bizcore/pkg/response"
)

func requestContext(c *gin.Context) context.Context {
	return c.Request.Context()
}

// requireSession pulls the authenticated identity and tenant handle placed by
// the auth middleware. A missing pair means the route was mounted without
// Auth; the request is rejected the same way an expired session would be.
func requireSession(c *gin.Context) (*iauth.SessionContext, *tenant.Handle, bool) {
	sctx, ok := middleware.SessionFrom(c)
	if !ok {
		response.Error(c, apperrors.ErrSessionExpired)
		c.Abort()
		return nil, nil, false
	}
	handle, ok := middleware.TenantFrom(c)
	if !ok {
		response.Error(c, apperrors.ErrSessionExpired)
		c.Abort()
		return nil, nil, false
	}
	return sctx, handle, true
}
