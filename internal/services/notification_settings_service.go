package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/josephowusu/bizcore/internal/models"
	"github.com/josephowusu/bizcore/internal/tenant"
	apperrors "github.com/josephowusu/bizcore/pkg/errors"
)

// NotificationSettingsService manages the per-user category by channel
// opt-in matrix. Rows are created lazily with in-app and email enabled the
// first time a user's settings are needed.
type NotificationSettingsService struct {
	log *zap.Logger
}

// NewNotificationSettingsService constructs a NotificationSettingsService.
func NewNotificationSettingsService(log *zap.Logger) (*NotificationSettingsService, error) {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationSettingsService{log: log}, nil
}

// EnsureDefaults returns the user's settings row, creating it with the
// default flag matrix when absent. The call is idempotent: repeated calls
// return the same row and never create a second one.
func (s *NotificationSettingsService) EnsureDefaults(ctx context.Context, handle *tenant.Handle, userID string) (*models.NotificationSettings, error) {
	ctx = ensureContext(ctx)
	if handle == nil {
		return nil, errors.New("notification settings: tenant handle is required")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.ErrMissingParameter
	}

	var settings models.NotificationSettings
	err := handle.DB().WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("notification settings: load settings: %w", err)
	}

	settings = models.NotificationSettings{
		UserID: userID,
		Flags:  models.DefaultSettingsFlags(),
	}
	if err := handle.DB().WithContext(ctx).Create(&settings).Error; err != nil {
		if isUniqueConstraintError(err) {
			// A concurrent request created the row between our read and
			// write; the existing row wins.
			var existing models.NotificationSettings
			if fetchErr := handle.DB().WithContext(ctx).
				Where("user_id = ?", userID).
				Take(&existing).Error; fetchErr == nil {
				return &existing, nil
			}
		}
		return nil, fmt.Errorf("notification settings: create settings: %w", err)
	}

	return &settings, nil
}

// Get returns the effective settings for a user, defaulting them on first use.
func (s *NotificationSettingsService) Get(ctx context.Context, handle *tenant.Handle, userID string) (*models.NotificationSettings, error) {
	return s.EnsureDefaults(ctx, handle, userID)
}

// SetFlag updates one "category.channel" flag. Defaults are ensured first, so
// a flag change can never target a missing row.
func (s *NotificationSettingsService) SetFlag(ctx context.Context, handle *tenant.Handle, userID, flag string, enabled bool) (*models.NotificationSettings, error) {
	ctx = ensureContext(ctx)
	flag = strings.TrimSpace(flag)
	if !models.ValidSettingsFlag(flag) {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown notification flag %q", flag))
	}

	settings, err := s.EnsureDefaults(ctx, handle, userID)
	if err != nil {
		return nil, err
	}

	if settings.Flags == nil {
		settings.Flags = models.DefaultSettingsFlags()
	}
	settings.Flags[flag] = enabled

	if err := handle.DB().WithContext(ctx).
		Model(settings).
		Update("flags", settings.Flags).Error; err != nil {
		return nil, fmt.Errorf("notification settings: update flag: %w", err)
	}

	return settings, nil
}
