package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/hostbill/internal/clock"
	hostingdomain "github.com/smallbiznis/hostbill/internal/hosting/domain"
	"github.com/smallbiznis/hostbill/internal/hosting/repository"
	"github.com/smallbiznis/hostbill/internal/migration"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var hostingTestSeq int

func newLifecycleFixture(t *testing.T) (hostingdomain.LifecycleService, *gorm.DB, *snowflake.Node) {
	t.Helper()

	hostingTestSeq++
	dsn := fmt.Sprintf("file:hostingtest%d?mode=memory&cache=shared", hostingTestSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(8)
	require.NoError(t, err)

	svc := NewService(ServiceParams{
		Logger:     zap.NewNop(),
		DB:         db,
		Clock:      clock.NewFakeClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)),
		Repository: repository.Provide(),
	})
	return svc, db, node
}

func seedService(t *testing.T, db *gorm.DB, node *snowflake.Node, status hostingdomain.ServiceStatus) hostingdomain.Service {
	t.Helper()
	service := hostingdomain.Service{
		ID:             node.Generate(),
		CustomerID:     node.Generate(),
		PlanID:         node.Generate(),
		Name:           "web-01",
		UnitPriceCents: 1999,
		Currency:       "MXN",
		BillingCycle:   "monthly",
		Status:         status,
		NextDueAt:      time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&service).Error)
	return service
}

func TestSuspendActiveService(t *testing.T) {
	svc, db, node := newLifecycleFixture(t)
	seeded := seedService(t, db, node, hostingdomain.StatusActive)

	updated, err := svc.Suspend(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, hostingdomain.StatusSuspended, updated.Status)
	require.NotNil(t, updated.SuspendedAt)

	var stored hostingdomain.Service
	require.NoError(t, db.Raw(`SELECT * FROM services WHERE id = ?`, seeded.ID).Scan(&stored).Error)
	require.Equal(t, hostingdomain.StatusSuspended, stored.Status)
}

func TestSuspendIsIdempotent(t *testing.T) {
	svc, db, node := newLifecycleFixture(t)
	seeded := seedService(t, db, node, hostingdomain.StatusSuspended)

	updated, err := svc.Suspend(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, hostingdomain.StatusSuspended, updated.Status)
}

func TestReactivateClearsSuspension(t *testing.T) {
	svc, db, node := newLifecycleFixture(t)
	seeded := seedService(t, db, node, hostingdomain.StatusActive)

	_, err := svc.Suspend(context.Background(), seeded.ID)
	require.NoError(t, err)

	updated, err := svc.Reactivate(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, hostingdomain.StatusActive, updated.Status)
	require.Nil(t, updated.SuspendedAt)
}

func TestCancellationIsTerminal(t *testing.T) {
	svc, db, node := newLifecycleFixture(t)
	seeded := seedService(t, db, node, hostingdomain.StatusActive)

	canceled, err := svc.Cancel(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, hostingdomain.StatusCanceled, canceled.Status)
	require.NotNil(t, canceled.CanceledAt)

	_, err = svc.Reactivate(context.Background(), seeded.ID)
	require.ErrorIs(t, err, hostingdomain.ErrInvalidTransition)

	_, err = svc.Suspend(context.Background(), seeded.ID)
	require.ErrorIs(t, err, hostingdomain.ErrInvalidTransition)
}

func TestTransitionUnknownService(t *testing.T) {
	svc, _, node := newLifecycleFixture(t)

	_, err := svc.Suspend(context.Background(), node.Generate())
	require.ErrorIs(t, err, hostingdomain.ErrNotFound)
}

func TestListFiltersByStatus(t *testing.T) {
	svc, db, node := newLifecycleFixture(t)
	seedService(t, db, node, hostingdomain.StatusActive)
	seedService(t, db, node, hostingdomain.StatusSuspended)

	resp, err := svc.List(context.Background(), hostingdomain.ListServicesRequest{Status: "suspended"})
	require.NoError(t, err)
	require.Len(t, resp.Services, 1)
	require.Equal(t, hostingdomain.StatusSuspended, resp.Services[0].Status)

	_, err = svc.List(context.Background(), hostingdomain.ListServicesRequest{Status: "bogus"})
	require.ErrorIs(t, err, hostingdomain.ErrInvalidStatus)
}
