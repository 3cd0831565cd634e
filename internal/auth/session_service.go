package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/josephowusu/bizcore/internal/models"
	"github.com/josephowusu/bizcore/internal/tenant"
	apperrors "github.com/josephowusu/bizcore/pkg/errors"
	"github.com/josephowusu/bizcore/pkg/metrics"
)

// SessionContext is the authenticated identity attached to a request after
// the session row, device fingerprint and tenant schema all match.
type SessionContext struct {
	UserID       string
	BusinessCode string
	SessionID    string
	Schema       tenant.Schema
}

// SessionConfig describes tunable behaviour for the SessionService.
type SessionConfig struct {
	Clock func() time.Time
}

// SessionService validates inbound sessions against their tenant's session
// table. It is read-only: sessions are created by the external login flow and
// invalidated by logout or expiry.
type SessionService struct {
	tenants *tenant.Registry
	now     func() time.Time
	log     *zap.Logger
}

// NewSessionService constructs a session resolver over the tenant registry.
func NewSessionService(tenants *tenant.Registry, log *zap.Logger, cfg SessionConfig) (*SessionService, error) {
	if tenants == nil {
		return nil, errors.New("session service: tenant registry is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionService{
		tenants: tenants,
		now:     clock,
		log:     log,
	}, nil
}

// Authenticate resolves the active session for a device within a tenant
// schema. Missing inputs fail fast with MissingParameter before any storage
// access. Every other failure - unknown schema, unknown session, fingerprint
// or schema mismatch, revocation, expiry - collapses into the single
// SessionExpired outcome so the response never reveals which sessions exist.
func (s *SessionService) Authenticate(ctx context.Context, fingerprint, schemaName, sessionID string) (*SessionContext, *tenant.Handle, error) {
	fingerprint = strings.TrimSpace(fingerprint)
	schemaName = strings.TrimSpace(schemaName)
	sessionID = strings.TrimSpace(sessionID)

	if fingerprint == "" || schemaName == "" || sessionID == "" {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, nil, apperrors.ErrMissingParameter
	}

	handle, err := s.tenants.Resolve(schemaName)
	if err != nil {
		s.log.Debug("schema resolution failed", zap.String("schema", schemaName), zap.Error(err))
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, nil, apperrors.ErrSessionExpired
	}

	var session models.Session
	err = handle.DB().WithContext(ctx).
		Where("id = ?", sessionID).
		Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, nil, apperrors.ErrSessionExpired
	}
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, nil, fmt.Errorf("session service: load session: %w", err)
	}

	now := s.now()
	valid := session.DeviceFingerprint == fingerprint &&
		session.SchemaName == handle.Schema().String() &&
		session.RevokedAt == nil &&
		!session.ExpiresAt.Before(now)
	if !valid {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, nil, apperrors.ErrSessionExpired
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &SessionContext{
		UserID:       session.UserID,
		BusinessCode: session.BusinessCode,
		SessionID:    session.ID,
		Schema:       handle.Schema(),
	}, handle, nil
}

// CleanupExpired removes expired and revoked sessions for one tenant and
// returns the number of rows deleted.
func (s *SessionService) CleanupExpired(ctx context.Context, handle *tenant.Handle) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if handle == nil {
		return 0, errors.New("session service: tenant handle is required")
	}

	result := handle.DB().WithContext(ctx).
		Where("expires_at < ?", s.now()).
		Or("revoked_at IS NOT NULL").
		Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("session service: cleanup expired sessions: %w", result.Error)
	}

	return result.RowsAffected, nil
}
