package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	iauth "github.com/josephowusu/bizcore/internal/auth"
	"github.com/josephowusu/bizcore/internal/database/testutil"
	"github.com/josephowusu/bizcore/internal/models"
	"github.com/josephowusu/bizcore/internal/tenant"
)

func newTestSweeper(t *testing.T, now time.Time) (*Sweeper, *tenant.Handle, *tenant.Handle) {
	t.Helper()

	registry, err := tenant.NewRegistry(testutil.MustOpenCatalogDB(t))
	require.NoError(t, err)

	alpha, err := registry.Register("alpha_corp", testutil.MustOpenTenantDB(t))
	require.NoError(t, err)
	beta, err := registry.Register("beta_corp", testutil.MustOpenTenantDB(t))
	require.NoError(t, err)

	sessions, err := iauth.NewSessionService(registry, zap.NewNop(), iauth.SessionConfig{
		Clock: func() time.Time { return now },
	})
	require.NoError(t, err)

	// The session service owns the expiry clock; the sweeper has none.
	sweeper, err := NewSweeper(registry, sessions)
	require.NoError(t, err)

	return sweeper, alpha, beta
}

func seedSessions(t *testing.T, handle *tenant.Handle, schema string, now time.Time) {
	t.Helper()

	require.NoError(t, handle.DB().Create(&models.Session{
		ID:                "live-" + schema,
		DeviceFingerprint: "fp",
		UserID:            "user-1",
		BusinessCode:      "BIZ-001",
		SchemaName:        schema,
		ExpiresAt:         now.Add(time.Hour),
	}).Error)
	require.NoError(t, handle.DB().Create(&models.Session{
		ID:                "stale-" + schema,
		DeviceFingerprint: "fp",
		UserID:            "user-1",
		BusinessCode:      "BIZ-001",
		SchemaName:        schema,
		ExpiresAt:         now.Add(-time.Hour),
	}).Error)
}

func TestRunOnceSweepsEveryTenant(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sweeper, alpha, beta := newTestSweeper(t, now)

	seedSessions(t, alpha, "alpha_corp", now)
	seedSessions(t, beta, "beta_corp", now)

	require.NoError(t, sweeper.RunOnce(context.Background()))

	for _, handle := range []*tenant.Handle{alpha, beta} {
		var remaining int64
		require.NoError(t, handle.DB().Model(&models.Session{}).Count(&remaining).Error)
		require.EqualValues(t, 1, remaining)
	}
}

// A tenant whose session table is unreadable must not stop the sweep for the
// remaining tenants.
func TestRunOnceContinuesPastFailingTenant(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sweeper, alpha, beta := newTestSweeper(t, now)

	seedSessions(t, beta, "beta_corp", now)
	require.NoError(t, alpha.DB().Migrator().DropTable(&models.Session{}))

	err := sweeper.RunOnce(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "alpha_corp")

	var remaining int64
	require.NoError(t, beta.DB().Model(&models.Session{}).Count(&remaining).Error)
	require.EqualValues(t, 1, remaining)
}

func TestSweeperStartStop(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sweeper, _, _ := newTestSweeper(t, now)

	require.NoError(t, sweeper.Start())
	<-sweeper.Stop().Done()
}
