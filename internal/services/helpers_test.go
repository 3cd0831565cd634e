package services

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/josephowusu/bizcore/internal/database/testutil"
	"github.com/josephowusu/bizcore/internal/features"
	"github.com/josephowusu/bizcore/internal/models"
	"github.com/josephowusu/bizcore/internal/realtime"
	"github.com/josephowusu/bizcore/internal/tenant"
)

func newTestTenant(t *testing.T, schema string) *tenant.Handle {
	t.Helper()

	registry, err := tenant.NewRegistry(testutil.MustOpenCatalogDB(t))
	require.NoError(t, err)

	handle, err := registry.Register(schema, testutil.MustOpenTenantDB(t))
	require.NoError(t, err)
	return handle
}

func seedPackage(t *testing.T, svc *SubscriptionService, businessCode string, featureNames []string, endOfSubscription time.Time) {
	t.Helper()

	raw, err := json.Marshal(featureNames)
	require.NoError(t, err)

	pkg := models.SubscriptionPackage{
		BusinessCode:      businessCode,
		Features:          datatypes.JSON(raw),
		EndOfSubscription: endOfSubscription,
	}
	require.NoError(t, svc.catalog.Create(&pkg).Error)
}

func seedPrivilege(t *testing.T, handle *tenant.Handle, feature features.Feature, record models.PrivilegeRecord) models.PrivilegeRecord {
	t.Helper()
	require.NoError(t, handle.DB().Table(feature.PrivilegeTable()).Create(&record).Error)
	return record
}

func seedUser(t *testing.T, handle *tenant.Handle, user models.User) models.User {
	t.Helper()
	require.NoError(t, handle.DB().Create(&user).Error)
	return user
}

type pushedEvent struct {
	schema tenant.Schema
	userID string
	event  realtime.Event
}

// fakeHub records pushes so tests can assert on fan-out without sockets.
type fakeHub struct {
	mu     sync.Mutex
	pushes []pushedEvent
}

func (f *fakeHub) PushToUser(schema tenant.Schema, userID string, event realtime.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, pushedEvent{schema: schema, userID: userID, event: event})
}

func (f *fakeHub) pushedTo(userID string) []realtime.Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	var events []realtime.Event
	for _, push := range f.pushes {
		if push.userID == userID {
			events = append(events, push.event)
		}
	}
	return events
}

func (f *fakeHub) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []string
	for _, push := range f.pushes {
		ids = append(ids, push.userID)
	}
	return ids
}
