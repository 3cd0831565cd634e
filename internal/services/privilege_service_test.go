package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/josephowusu/bizcore/internal/features"
	"github.com/josephowusu/bizcore/internal/models"
	"github.com/josephowusu/bizcore/internal/tenant"
	apperrors "github.com/josephowusu/bizcore/pkg/errors"
)

func newTestPrivilegeService(t *testing.T) (*PrivilegeService, *SubscriptionService, *tenant.Handle) {
	t.Helper()

	handle := newTestTenant(t, "acme_corp")

	subs := newTestSubscriptionService(t)
	svc, err := NewPrivilegeService(subs, zap.NewNop(), PrivilegeConfig{})
	require.NoError(t, err)

	return svc, subs, handle
}

// ResolveCurrent evaluates subscriptions against the injected clock, not the
// wall clock.
func TestResolveCurrentUsesServiceClock(t *testing.T) {
	handle := newTestTenant(t, "acme_corp")
	subs := newTestSubscriptionService(t)

	// The package lapsed long before the wall clock's today; a service pinned
	// before the end date must still see the feature as active.
	end := time.Date(2020, 6, 2, 0, 0, 0, 0, time.UTC)
	seedPackage(t, subs, "BIZ-001", []string{"AppDefault"}, end)
	seedPrivilege(t, handle, features.Default, models.PrivilegeRecord{
		UserID: "user-1",
		Status: models.PrivilegeStatusActive,
		Flags:  datatypes.JSONMap{"addNewDepartment": "yes"},
	})

	pinned := end.AddDate(0, 0, -1)
	svc, err := NewPrivilegeService(subs, zap.NewNop(), PrivilegeConfig{
		Clock: func() time.Time { return pinned },
	})
	require.NoError(t, err)

	caps, err := svc.ResolveCurrent(context.Background(), handle, "user-1", "BIZ-001")
	require.NoError(t, err)
	require.Equal(t, "yes", caps[features.Default]["addNewDepartment"])

	lapsed, err := NewPrivilegeService(subs, zap.NewNop(), PrivilegeConfig{
		Clock: func() time.Time { return end.AddDate(0, 0, 1) },
	})
	require.NoError(t, err)

	caps, err = lapsed.ResolveCurrent(context.Background(), handle, "user-1", "BIZ-001")
	require.NoError(t, err)
	require.Empty(t, caps)
}

func TestResolveCapabilitiesCollectsActiveFeatureFlags(t *testing.T) {
	svc, subs, handle := newTestPrivilegeService(t)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	seedPackage(t, subs, "BIZ-001", []string{"AppDefault", "Inventory"}, now.AddDate(0, 6, 0))

	seedPrivilege(t, handle, features.Default, models.PrivilegeRecord{
		UserID: "user-1",
		Status: models.PrivilegeStatusActive,
		Flags:  datatypes.JSONMap{"addNewDepartment": "yes", "deleteDepartment": "no"},
	})
	seedPrivilege(t, handle, features.Inventory, models.PrivilegeRecord{
		UserID: "user-1",
		Status: models.PrivilegeStatusActive,
		Flags:  datatypes.JSONMap{"adjustStock": "yes"},
	})
	// POS is not subscribed, so this record must never surface.
	seedPrivilege(t, handle, features.POS, models.PrivilegeRecord{
		UserID: "user-1",
		Status: models.PrivilegeStatusActive,
		Flags:  datatypes.JSONMap{"openRegister": "yes"},
	})

	caps, err := svc.ResolveCapabilities(context.Background(), handle, "user-1", "BIZ-001", now)
	require.NoError(t, err)
	require.Len(t, caps, 2)
	require.Equal(t, "yes", caps[features.Default]["addNewDepartment"])
	require.Equal(t, "no", caps[features.Default]["deleteDepartment"])
	require.Equal(t, "yes", caps[features.Inventory]["adjustStock"])
	require.NotContains(t, caps, features.POS)
}

// No active subscription means an empty capability object, which denies every
// check.
func TestResolveCapabilitiesEmptyWithoutSubscription(t *testing.T) {
	svc, _, handle := newTestPrivilegeService(t)

	seedPrivilege(t, handle, features.Default, models.PrivilegeRecord{
		UserID: "user-1",
		Status: models.PrivilegeStatusActive,
		Flags:  datatypes.JSONMap{"addNewDepartment": "yes"},
	})

	caps, err := svc.ResolveCapabilities(context.Background(), handle, "user-1", "BIZ-001", time.Now())
	require.NoError(t, err)
	require.Empty(t, caps)

	for _, feature := range features.All() {
		require.ErrorIs(t, svc.Check(caps, feature, "addNewDepartment"), apperrors.ErrInsufficientPrivilege)
	}
}

func TestResolveCapabilitiesIgnoresInactiveRecords(t *testing.T) {
	svc, subs, handle := newTestPrivilegeService(t)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	seedPackage(t, subs, "BIZ-001", []string{"AppDefault"}, now.AddDate(0, 6, 0))
	seedPrivilege(t, handle, features.Default, models.PrivilegeRecord{
		UserID: "user-1",
		Status: models.PrivilegeStatusInactive,
		Flags:  datatypes.JSONMap{"addNewDepartment": "yes"},
	})

	caps, err := svc.ResolveCapabilities(context.Background(), handle, "user-1", "BIZ-001", now)
	require.NoError(t, err)
	require.Empty(t, caps[features.Default])
}

// A feature whose privilege table cannot be read degrades to an empty flag
// set while the remaining features still resolve.
func TestResolveCapabilitiesDegradesFailedFeatureToDenyAll(t *testing.T) {
	svc, subs, handle := newTestPrivilegeService(t)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	seedPackage(t, subs, "BIZ-001", []string{"AppDefault", "HumanResource"}, now.AddDate(0, 6, 0))
	seedPrivilege(t, handle, features.Default, models.PrivilegeRecord{
		UserID: "user-1",
		Status: models.PrivilegeStatusActive,
		Flags:  datatypes.JSONMap{"addNewDepartment": "yes"},
	})

	require.NoError(t, handle.DB().Migrator().DropTable(features.HR.PrivilegeTable()))

	caps, err := svc.ResolveCapabilities(context.Background(), handle, "user-1", "BIZ-001", now)
	require.NoError(t, err)
	require.Equal(t, "yes", caps[features.Default]["addNewDepartment"])
	require.Empty(t, caps[features.HR])
	require.False(t, caps.Allows(features.HR, "approveLeave"))
}

func TestResolveCapabilitiesRequiresIdentity(t *testing.T) {
	svc, _, handle := newTestPrivilegeService(t)

	_, err := svc.ResolveCapabilities(context.Background(), handle, "", "BIZ-001", time.Now())
	require.ErrorIs(t, err, apperrors.ErrMissingParameter)

	_, err = svc.ResolveCapabilities(context.Background(), handle, "user-1", " ", time.Now())
	require.ErrorIs(t, err, apperrors.ErrMissingParameter)
}

func TestCheckDeniesAnythingButExplicitYes(t *testing.T) {
	svc, _, _ := newTestPrivilegeService(t)

	caps := features.Capabilities{
		features.Default: features.Flags{
			"addNewDepartment": "yes",
			"deleteDepartment": "no",
			"renameDepartment": "maybe",
		},
	}

	require.NoError(t, svc.Check(caps, features.Default, "addNewDepartment"))
	require.ErrorIs(t, svc.Check(caps, features.Default, "deleteDepartment"), apperrors.ErrInsufficientPrivilege)
	require.ErrorIs(t, svc.Check(caps, features.Default, "renameDepartment"), apperrors.ErrInsufficientPrivilege)
	require.ErrorIs(t, svc.Check(caps, features.Default, "neverGranted"), apperrors.ErrInsufficientPrivilege)
	require.ErrorIs(t, svc.Check(caps, features.POS, "openRegister"), apperrors.ErrInsufficientPrivilege)
}
