package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/josephowusu/bizcore/internal/models"
)

func newTestSettingsService(t *testing.T) *NotificationSettingsService {
	t.Helper()

	svc, err := NewNotificationSettingsService(zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestEnsureDefaultsCreatesRowOnce(t *testing.T) {
	svc := newTestSettingsService(t)
	handle := newTestTenant(t, "acme_corp")

	first, err := svc.EnsureDefaults(context.Background(), handle, "user-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", first.UserID)

	// The default matrix: in-app and email on, SMS off, every category.
	for _, category := range models.NotificationCategories() {
		require.Equal(t, true, first.Flags[models.SettingsFlagKey(category, models.ChannelInApp)])
		require.Equal(t, false, first.Flags[models.SettingsFlagKey(category, models.ChannelSMS)])
		require.Equal(t, true, first.Flags[models.SettingsFlagKey(category, models.ChannelEmail)])
	}

	second, err := svc.EnsureDefaults(context.Background(), handle, "user-1")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, handle.DB().Model(&models.NotificationSettings{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestSetFlagUpdatesSingleEntry(t *testing.T) {
	svc := newTestSettingsService(t)
	handle := newTestTenant(t, "acme_corp")

	flag := models.SettingsFlagKey(models.CategoryChat, models.ChannelSMS)
	updated, err := svc.SetFlag(context.Background(), handle, "user-1", flag, true)
	require.NoError(t, err)
	require.Equal(t, true, updated.Flags[flag])

	// Neighbouring flags keep their defaults.
	require.Equal(t, true, updated.Flags[models.SettingsFlagKey(models.CategoryChat, models.ChannelInApp)])

	reloaded, err := svc.Get(context.Background(), handle, "user-1")
	require.NoError(t, err)
	require.Equal(t, true, reloaded.Flags[flag])
}

func TestSetFlagRejectsUnknownPairings(t *testing.T) {
	svc := newTestSettingsService(t)
	handle := newTestTenant(t, "acme_corp")

	for _, flag := range []string{"", "chatAlert", "chatAlert.fax", "bogus.inApp", "chatAlert.inApp.extra"} {
		_, err := svc.SetFlag(context.Background(), handle, "user-1", flag, true)
		require.Error(t, err, "flag %q", flag)
	}
}

func TestAnyChannelEnabledReflectsFlags(t *testing.T) {
	svc := newTestSettingsService(t)
	handle := newTestTenant(t, "acme_corp")

	settings, err := svc.Get(context.Background(), handle, "user-1")
	require.NoError(t, err)
	require.True(t, settings.AnyChannelEnabled())

	// Switch everything off.
	for _, category := range models.NotificationCategories() {
		for _, channel := range models.NotificationChannels() {
			settings, err = svc.SetFlag(context.Background(), handle, "user-1", models.SettingsFlagKey(category, channel), false)
			require.NoError(t, err)
		}
	}
	require.False(t, settings.AnyChannelEnabled())
}
