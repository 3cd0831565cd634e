package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/josephowusu/bizcore/internal/database/testutil"
	"github.com/josephowusu/bizcore/internal/models"
	"github.com/josephowusu/bizcore/internal/tenant"
	apperrors "github.com/josephowusu/bizcore/pkg/errors"
)

func newTestSessionService(t *testing.T, now time.Time) (*SessionService, *tenant.Handle) {
	t.Helper()

	registry, err := tenant.NewRegistry(testutil.MustOpenCatalogDB(t))
	require.NoError(t, err)

	handle, err := registry.Register("acme_corp", testutil.MustOpenTenantDB(t))
	require.NoError(t, err)

	svc, err := NewSessionService(registry, zap.NewNop(), SessionConfig{
		Clock: func() time.Time { return now },
	})
	require.NoError(t, err)

	return svc, handle
}

func seedSession(t *testing.T, handle *tenant.Handle, session models.Session) models.Session {
	t.Helper()
	require.NoError(t, handle.DB().Create(&session).Error)
	return session
}

func TestAuthenticateSuccess(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, handle := newTestSessionService(t, now)

	session := seedSession(t, handle, models.Session{
		ID:                "sess-1",
		DeviceFingerprint: "aa:bb:cc:dd:ee:ff",
		UserID:            "user-1",
		BusinessCode:      "BIZ-001",
		SchemaName:        "acme_corp",
		IssuedAt:          now.Add(-time.Hour),
		ExpiresAt:         now.Add(time.Hour),
	})

	sctx, resolved, err := svc.Authenticate(context.Background(), "aa:bb:cc:dd:ee:ff", "acme_corp", session.ID)
	require.NoError(t, err)
	require.Equal(t, "user-1", sctx.UserID)
	require.Equal(t, "BIZ-001", sctx.BusinessCode)
	require.Equal(t, session.ID, sctx.SessionID)
	require.Equal(t, handle, resolved)
}

func TestAuthenticateMissingParameters(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, _ := newTestSessionService(t, now)

	cases := [][3]string{
		{"", "acme_corp", "sess-1"},
		{"aa:bb:cc:dd:ee:ff", "", "sess-1"},
		{"aa:bb:cc:dd:ee:ff", "acme_corp", ""},
	}

	for _, tc := range cases {
		_, _, err := svc.Authenticate(context.Background(), tc[0], tc[1], tc[2])
		require.ErrorIs(t, err, apperrors.ErrMissingParameter)
	}
}

// Every mismatch yields the identical SessionExpired outcome: wrong
// fingerprint, wrong schema, and true expiry must be indistinguishable.
func TestAuthenticateMismatchesAreUndifferentiated(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, handle := newTestSessionService(t, now)

	session := seedSession(t, handle, models.Session{
		ID:                "sess-2",
		DeviceFingerprint: "aa:bb:cc:dd:ee:ff",
		UserID:            "user-1",
		BusinessCode:      "BIZ-001",
		SchemaName:        "acme_corp",
		IssuedAt:          now.Add(-time.Hour),
		ExpiresAt:         now.Add(time.Hour),
	})

	expired := seedSession(t, handle, models.Session{
		ID:                "sess-3",
		DeviceFingerprint: "aa:bb:cc:dd:ee:ff",
		UserID:            "user-1",
		BusinessCode:      "BIZ-001",
		SchemaName:        "acme_corp",
		IssuedAt:          now.Add(-48 * time.Hour),
		ExpiresAt:         now.Add(-time.Hour),
	})

	// Wrong fingerprint.
	_, _, err := svc.Authenticate(context.Background(), "11:22:33:44:55:66", "acme_corp", session.ID)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)

	// Unknown schema.
	_, _, err = svc.Authenticate(context.Background(), "aa:bb:cc:dd:ee:ff", "other_corp", session.ID)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)

	// Expired session.
	_, _, err = svc.Authenticate(context.Background(), "aa:bb:cc:dd:ee:ff", "acme_corp", expired.ID)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)

	// Session that never existed reads the same as all of the above.
	_, _, err = svc.Authenticate(context.Background(), "aa:bb:cc:dd:ee:ff", "acme_corp", "no-such-session")
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)
}

func TestAuthenticateRejectsSchemaMismatchOnSessionRow(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, handle := newTestSessionService(t, now)

	// A session row whose recorded schema differs from the tenant it was
	// stored under must not authenticate.
	session := seedSession(t, handle, models.Session{
		ID:                "sess-4",
		DeviceFingerprint: "aa:bb:cc:dd:ee:ff",
		UserID:            "user-1",
		BusinessCode:      "BIZ-001",
		SchemaName:        "beta_corp",
		IssuedAt:          now.Add(-time.Hour),
		ExpiresAt:         now.Add(time.Hour),
	})

	_, _, err := svc.Authenticate(context.Background(), "aa:bb:cc:dd:ee:ff", "acme_corp", session.ID)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)
}

func TestCleanupExpiredDeletesOnlyStaleSessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc, handle := newTestSessionService(t, now)

	seedSession(t, handle, models.Session{
		ID:                "live",
		DeviceFingerprint: "fp",
		UserID:            "user-1",
		BusinessCode:      "BIZ-001",
		SchemaName:        "acme_corp",
		ExpiresAt:         now.Add(time.Hour),
	})
	seedSession(t, handle, models.Session{
		ID:                "stale",
		DeviceFingerprint: "fp",
		UserID:            "user-1",
		BusinessCode:      "BIZ-001",
		SchemaName:        "acme_corp",
		ExpiresAt:         now.Add(-time.Hour),
	})

	removed, err := svc.CleanupExpired(context.Background(), handle)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var remaining int64
	require.NoError(t, handle.DB().Model(&models.Session{}).Count(&remaining).Error)
	require.EqualValues(t, 1, remaining)
}
