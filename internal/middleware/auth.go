package middleware

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/josephowusu/bizcore/internal/auth"
	"github.com/josephowusu/bizcore/internal/tenant"
	"github.com/josephowusu/bizcore/pkg/response"
)

// Request headers carrying the session triple.
const (
	HeaderDeviceFingerprint = "X-Device-Fingerprint"
	HeaderTenantSchema      = "X-Tenant-Schema"
	HeaderSessionID         = "X-Session-ID"
)

// Gin context keys populated after authentication.
const (
	CtxSessionKey = "sessionContext"
	CtxTenantKey  = "tenantHandle"
)

// Auth authenticates the device fingerprint, tenant schema and session id
// headers against the tenant's session table and attaches the resolved
// identity and tenant handle to the request context.
func Auth(sessions *iauth.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sctx, handle, err := sessions.Authenticate(
			c.Request.Context(),
			c.GetHeader(HeaderDeviceFingerprint),
			c.GetHeader(HeaderTenantSchema),
			c.GetHeader(HeaderSessionID),
		)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(CtxSessionKey, sctx)
		c.Set(CtxTenantKey, handle)

		c.Next()
	}
}

// SessionFrom extracts the authenticated session context placed by Auth.
func SessionFrom(c *gin.Context) (*iauth.SessionContext, bool) {
	value, ok := c.Get(CtxSessionKey)
	if !ok {
		return nil, false
	}
	sctx, ok := value.(*iauth.SessionContext)
	return sctx, ok
}

// TenantFrom extracts the tenant handle placed by Auth.
func TenantFrom(c *gin.Context) (*tenant.Handle, bool) {
	value, ok := c.Get(CtxTenantKey)
	if !ok {
		return nil, false
	}
	handle, ok := value.(*tenant.Handle)
	return handle, ok
}
