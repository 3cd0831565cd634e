package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/josephowusu/bizcore/internal/features"
	"github.com/josephowusu/bizcore/internal/models"
	"github.com/josephowusu/bizcore/internal/tenant"
	apperrors "github.com/josephowusu/bizcore/pkg/errors"
	"github.com/josephowusu/bizcore/pkg/metrics"
)

// PrivilegeService aggregates per-feature privilege records into the
// capability object the rest of the system consumes.
type PrivilegeService struct {
	subscriptions *SubscriptionService
	now           func() time.Time
	log           *zap.Logger
}

// PrivilegeConfig describes tunable behaviour for the PrivilegeService.
type PrivilegeConfig struct {
	// Clock decides the instant subscriptions are evaluated against for
	// ResolveCurrent. Defaults to time.Now.
	Clock func() time.Time
}

// NewPrivilegeService constructs a PrivilegeService.
func NewPrivilegeService(subscriptions *SubscriptionService, log *zap.Logger, cfg PrivilegeConfig) (*PrivilegeService, error) {
	if subscriptions == nil {
		return nil, errors.New("privilege service: subscription service is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &PrivilegeService{subscriptions: subscriptions, now: now, log: log}, nil
}

// ResolveCurrent resolves capabilities as of the service clock. Request
// handlers use this; ResolveCapabilities stays available for callers that
// need to pin the instant themselves.
func (s *PrivilegeService) ResolveCurrent(ctx context.Context, handle *tenant.Handle, userID, businessCode string) (features.Capabilities, error) {
	return s.ResolveCapabilities(ctx, handle, userID, businessCode, s.now())
}

// ResolveCapabilities builds the capability object for one user within one
// tenant: the subscription catalog decides which features are active, then
// each active feature's privilege table contributes at most one record.
//
// A lookup failure for one feature never aborts the others. The failed slot
// resolves to an empty flag set - which denies everything - and the failure
// is logged and counted. This is a deliberate policy: degrading one module to
// deny-all is safer than failing the whole request, and an empty slot can
// never grant access.
func (s *PrivilegeService) ResolveCapabilities(ctx context.Context, handle *tenant.Handle, userID, businessCode string, asOf time.Time) (features.Capabilities, error) {
	ctx = ensureContext(ctx)
	if handle == nil {
		return nil, errors.New("privilege service: tenant handle is required")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" || strings.TrimSpace(businessCode) == "" {
		return nil, apperrors.ErrMissingParameter
	}

	active, err := s.subscriptions.ActiveFeatures(ctx, businessCode, asOf)
	if err != nil {
		return nil, fmt.Errorf("privilege service: resolve active features: %w", err)
	}

	caps := make(features.Capabilities, len(active))
	var partial error
	for _, feature := range active {
		flags, err := s.loadFlags(ctx, handle, feature, userID)
		if err != nil {
			metrics.PartialResolutions.Inc()
			partial = multierr.Append(partial, fmt.Errorf("%s: %w", feature, err))
			caps[feature] = features.Flags{}
			continue
		}
		caps[feature] = flags
	}

	if partial != nil {
		s.log.Warn("privilege resolution degraded to empty capabilities",
			zap.String("user_id", userID),
			zap.String("schema", handle.Schema().String()),
			zap.Error(partial),
		)
	}

	return caps, nil
}

func (s *PrivilegeService) loadFlags(ctx context.Context, handle *tenant.Handle, feature features.Feature, userID string) (features.Flags, error) {
	var record models.PrivilegeRecord
	err := handle.DB().WithContext(ctx).
		Table(feature.PrivilegeTable()).
		Where("user_id = ? AND status = ?", userID, models.PrivilegeStatusActive).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// No record for this feature means no capabilities for it.
		return features.Flags{}, nil
	}
	if err != nil {
		return nil, err
	}

	flags := make(features.Flags, len(record.Flags))
	for name, value := range record.Flags {
		if text, ok := value.(string); ok {
			flags[name] = text
		}
	}
	return flags, nil
}

// Check gates one operation on a capability flag. Anything other than an
// explicit "yes" denies.
func (s *PrivilegeService) Check(caps features.Capabilities, feature features.Feature, capability string) error {
	if caps.Allows(feature, capability) {
		metrics.PrivilegeChecks.WithLabelValues(feature.String(), "allow").Inc()
		return nil
	}
	metrics.PrivilegeChecks.WithLabelValues(feature.String(), "deny").Inc()
	return apperrors.ErrInsufficientPrivilege
}
