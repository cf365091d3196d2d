package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/stagecast/encore/internal/account/domain"
	accountrepository "github.com/stagecast/encore/internal/account/repository"
	"github.com/stagecast/encore/internal/clock"
	"github.com/stagecast/encore/internal/config"
	"github.com/stagecast/encore/internal/platform"
	"github.com/stagecast/encore/internal/refresh/domain"
	snapshotdomain "github.com/stagecast/encore/internal/snapshot/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type refreshStub struct {
	mu      sync.Mutex
	calls   []string
	failFor platform.Platform
}

func (r *refreshStub) GetMetrics(ctx context.Context, req domain.GetMetricsRequest) (domain.Report, error) {
	return nil, errors.New("not used")
}

func (r *refreshStub) Refresh(ctx context.Context, profileID snowflake.ID, p platform.Platform) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, profileID.String()+"|"+p.String())
	if p == r.failFor {
		return errors.New("upstream down")
	}
	return nil
}

func (r *refreshStub) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func setupWorker(t *testing.T, fake *clock.FakeClock, stub *refreshStub) (*Worker, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&accountdomain.LinkedAccount{}, &snapshotdomain.MetricSnapshot{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	worker := NewWorker(Params{
		DB:          db,
		Log:         zap.NewNop(),
		Cfg:         config.Config{Social: config.SocialConfig{SnapshotTTL: 24 * time.Hour}},
		Clock:       fake,
		AccountRepo: accountrepository.Provide(),
		Refresh:     stub,
	})
	return worker, db, node
}

func seedAccountWithSnapshot(t *testing.T, db *gorm.DB, node *snowflake.Node, p platform.Platform, fetchedAt *time.Time) accountdomain.LinkedAccount {
	t.Helper()

	now := time.Now().UTC()
	account := accountdomain.LinkedAccount{
		ID:        node.Generate(),
		ProfileID: node.Generate(),
		Platform:  p,
		Username:  "performer",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&account).Error)

	if fetchedAt != nil {
		snapshot := snapshotdomain.MetricSnapshot{
			ID:         node.Generate(),
			AccountID:  account.ID,
			ProfileID:  account.ProfileID,
			Platform:   p,
			Provenance: snapshotdomain.ProvenancePublicScrape,
			FetchedAt:  *fetchedAt,
			CreatedAt:  *fetchedAt,
		}
		require.NoError(t, db.Create(&snapshot).Error)
	}
	return account
}

func TestRunOnceRefreshesStaleAccounts(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	stub := &refreshStub{}
	worker, db, node := setupWorker(t, fake, stub)

	staleAt := fake.Now().Add(-48 * time.Hour)
	freshAt := fake.Now().Add(-time.Hour)

	stale := seedAccountWithSnapshot(t, db, node, platform.Instagram, &staleAt)
	never := seedAccountWithSnapshot(t, db, node, platform.TikTok, nil)
	seedAccountWithSnapshot(t, db, node, platform.YouTube, &freshAt)

	require.NoError(t, worker.RunOnce(context.Background()))

	calls := stub.Calls()
	assert.Len(t, calls, 2, "fresh accounts are left alone")
	assert.Contains(t, calls, stale.ProfileID.String()+"|instagram")
	assert.Contains(t, calls, never.ProfileID.String()+"|tiktok", "accounts with no snapshot count as stale")
}

func TestRunOnceContinuesPastFailures(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	stub := &refreshStub{failFor: platform.Instagram}
	worker, db, node := setupWorker(t, fake, stub)

	staleAt := fake.Now().Add(-48 * time.Hour)
	seedAccountWithSnapshot(t, db, node, platform.Instagram, &staleAt)
	seedAccountWithSnapshot(t, db, node, platform.TikTok, &staleAt)

	require.NoError(t, worker.RunOnce(context.Background()), "one failed account does not fail the sweep")
	assert.Len(t, stub.Calls(), 2)
}

func TestRunOnceEmptySweep(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	stub := &refreshStub{}
	worker, _, _ := setupWorker(t, fake, stub)

	require.NoError(t, worker.RunOnce(context.Background()))
	assert.Empty(t, stub.Calls())
}
