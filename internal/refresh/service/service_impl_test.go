package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/stagecast/encore/internal/account/domain"
	accountrepository "github.com/stagecast/encore/internal/account/repository"
	"github.com/stagecast/encore/internal/clock"
	"github.com/stagecast/encore/internal/config"
	"github.com/stagecast/encore/internal/fetcher"
	fetcherdomain "github.com/stagecast/encore/internal/fetcher/domain"
	notificationdomain "github.com/stagecast/encore/internal/notification/domain"
	notificationrepository "github.com/stagecast/encore/internal/notification/repository"
	notificationservice "github.com/stagecast/encore/internal/notification/service"
	"github.com/stagecast/encore/internal/platform"
	"github.com/stagecast/encore/internal/refresh/domain"
	rosterdomain "github.com/stagecast/encore/internal/roster/domain"
	rosterrepository "github.com/stagecast/encore/internal/roster/repository"
	snapshotdomain "github.com/stagecast/encore/internal/snapshot/domain"
	snapshotrepository "github.com/stagecast/encore/internal/snapshot/repository"
	snapshotservice "github.com/stagecast/encore/internal/snapshot/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeAdapter counts fetches and can block or fail on demand.
type fakeAdapter struct {
	platform  platform.Platform
	followers atomic.Int64
	calls     atomic.Int64
	err       error
	gate      chan struct{}
	entered   chan struct{}
	enterOnce sync.Once
}

func (f *fakeAdapter) Platform() platform.Platform {
	return f.platform
}

func (f *fakeAdapter) Fetch(ctx context.Context, username string) (fetcherdomain.Result, error) {
	f.calls.Add(1)
	if f.entered != nil {
		f.enterOnce.Do(func() { close(f.entered) })
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return fetcherdomain.Result{}, f.err
	}
	return fetcherdomain.Result{
		Bag: snapshotdomain.NewFollowerBag(snapshotdomain.FollowerMetrics{
			Followers: f.followers.Load(),
		}),
		Provenance: snapshotdomain.ProvenancePublicScrape,
	}, nil
}

type refreshFixture struct {
	service domain.Service
	db      *gorm.DB
	node    *snowflake.Node
	clock   *clock.FakeClock
	profile rosterdomain.Profile
}

func setupRefreshService(t *testing.T, adapters ...*fakeAdapter) *refreshFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&rosterdomain.Profile{},
		&accountdomain.LinkedAccount{},
		&snapshotdomain.MetricSnapshot{},
		&notificationdomain.Notification{},
		&notificationdomain.EvaluatedSnapshot{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	cfg := config.Config{
		Social: config.SocialConfig{
			SnapshotTTL:        24 * time.Hour,
			MilestoneLadder:    []int64{1000, 10000},
			GrowthPct:          5,
			DropPct:            5,
			EngagementDeltaPts: 1,
		},
	}

	snapshotSvc := snapshotservice.New(snapshotservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fake,
		Repo:        snapshotrepository.Provide(),
		AccountRepo: accountrepository.Provide(),
	})
	notificationSvc := notificationservice.New(notificationservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Cfg:   cfg,
		Repo:  notificationrepository.Provide(),
	})

	now := fake.Now()
	profile := rosterdomain.Profile{
		ID:          node.Generate(),
		DisplayName: "Touring Act",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, db.Create(&profile).Error)

	registered := make([]fetcherdomain.Adapter, 0, len(adapters))
	for _, adapter := range adapters {
		registered = append(registered, adapter)
		account := accountdomain.LinkedAccount{
			ID:        node.Generate(),
			ProfileID: profile.ID,
			Platform:  adapter.platform,
			Username:  "touringact",
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, db.Create(&account).Error)
	}

	service := New(Params{
		DB:            db,
		Log:           zap.NewNop(),
		Cfg:           cfg,
		Clock:         fake,
		RosterRepo:    rosterrepository.Provide(),
		AccountRepo:   accountrepository.Provide(),
		Snapshots:     snapshotSvc,
		Notifications: notificationSvc,
		Registry:      fetcher.NewRegistry(registered...),
	})

	return &refreshFixture{
		service: service,
		db:      db,
		node:    node,
		clock:   fake,
		profile: profile,
	}
}

func TestGetMetricsFetchesWhenEmpty(t *testing.T) {
	adapter := &fakeAdapter{platform: platform.Instagram}
	adapter.followers.Store(2500)
	f := setupRefreshService(t, adapter)

	report, err := f.service.GetMetrics(context.Background(), domain.GetMetricsRequest{
		ProfileID: f.profile.ID.String(),
	})
	require.NoError(t, err)
	require.Len(t, report, 1)

	entry := report[platform.Instagram]
	require.NotNil(t, entry.Snapshot)
	assert.True(t, entry.Refreshed)
	assert.False(t, entry.Unavailable)
	assert.Equal(t, int64(2500), entry.Snapshot.Metrics().Audience())
	assert.Equal(t, int64(1), adapter.calls.Load())
}

func TestGetMetricsServesFreshFromCache(t *testing.T) {
	adapter := &fakeAdapter{platform: platform.Instagram}
	adapter.followers.Store(2500)
	f := setupRefreshService(t, adapter)
	ctx := context.Background()

	_, err := f.service.GetMetrics(ctx, domain.GetMetricsRequest{ProfileID: f.profile.ID.String()})
	require.NoError(t, err)
	require.Equal(t, int64(1), adapter.calls.Load())

	// One hour later the snapshot is well within its TTL.
	f.clock.Advance(time.Hour)
	report, err := f.service.GetMetrics(ctx, domain.GetMetricsRequest{ProfileID: f.profile.ID.String()})
	require.NoError(t, err)

	entry := report[platform.Instagram]
	assert.False(t, entry.Refreshed)
	assert.Equal(t, int64(1), adapter.calls.Load(), "fresh snapshot must not trigger a fetch")
}

func TestGetMetricsForceRefresh(t *testing.T) {
	adapter := &fakeAdapter{platform: platform.Instagram}
	adapter.followers.Store(2500)
	f := setupRefreshService(t, adapter)
	ctx := context.Background()

	_, err := f.service.GetMetrics(ctx, domain.GetMetricsRequest{ProfileID: f.profile.ID.String()})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	adapter.followers.Store(2600)
	report, err := f.service.GetMetrics(ctx, domain.GetMetricsRequest{
		ProfileID:    f.profile.ID.String(),
		ForceRefresh: true,
	})
	require.NoError(t, err)

	entry := report[platform.Instagram]
	assert.True(t, entry.Refreshed)
	assert.Equal(t, int64(2600), entry.Snapshot.Metrics().Audience())
	assert.Equal(t, int64(2), adapter.calls.Load())
}

func TestGetMetricsStaleIfError(t *testing.T) {
	adapter := &fakeAdapter{platform: platform.Instagram}
	adapter.followers.Store(2500)
	f := setupRefreshService(t, adapter)
	ctx := context.Background()

	_, err := f.service.GetMetrics(ctx, domain.GetMetricsRequest{ProfileID: f.profile.ID.String()})
	require.NoError(t, err)

	// The snapshot ages past its TTL and every upstream tier starts failing.
	f.clock.Advance(25 * time.Hour)
	adapter.err = fetcherdomain.Unavailable(platform.Instagram, "touringact", errors.New("blocked"))

	report, err := f.service.GetMetrics(ctx, domain.GetMetricsRequest{ProfileID: f.profile.ID.String()})
	require.NoError(t, err, "a failed refresh must not fail the read")

	entry := report[platform.Instagram]
	require.NotNil(t, entry.Snapshot, "last snapshot is served as fallback")
	assert.True(t, entry.Stale)
	assert.True(t, entry.Unavailable)
	assert.NotEmpty(t, entry.FetchError)
	assert.Equal(t, int64(2500), entry.Snapshot.Metrics().Audience())
}

func TestConcurrentRefreshesCoalesce(t *testing.T) {
	adapter := &fakeAdapter{
		platform: platform.Instagram,
		gate:     make(chan struct{}),
		entered:  make(chan struct{}),
	}
	adapter.followers.Store(2500)
	f := setupRefreshService(t, adapter)
	ctx := context.Background()

	const readers = 5
	var wg sync.WaitGroup
	errs := make([]error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.service.Refresh(ctx, f.profile.ID, platform.Instagram)
		}(i)
	}

	// Hold the first fetch open until every reader has had a chance to join
	// the in-flight call, then let it finish.
	<-adapter.entered
	time.Sleep(50 * time.Millisecond)
	close(adapter.gate)
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "reader %d", i)
	}
	assert.Equal(t, int64(1), adapter.calls.Load(), "concurrent refreshes of one pair share one fetch")
}

func TestGetMetricsErrors(t *testing.T) {
	adapter := &fakeAdapter{platform: platform.Instagram}
	f := setupRefreshService(t, adapter)
	ctx := context.Background()

	_, err := f.service.GetMetrics(ctx, domain.GetMetricsRequest{ProfileID: "bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidProfileID)

	_, err = f.service.GetMetrics(ctx, domain.GetMetricsRequest{ProfileID: f.node.Generate().String()})
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	_, err = f.service.GetMetrics(ctx, domain.GetMetricsRequest{
		ProfileID: f.profile.ID.String(),
		Platform:  "spotify",
	})
	assert.ErrorIs(t, err, domain.ErrNotLinked)
}

func TestGetMetricsPartialFailure(t *testing.T) {
	instagram := &fakeAdapter{
		platform: platform.Instagram,
		err:      fetcherdomain.Unavailable(platform.Instagram, "touringact", errors.New("blocked")),
	}
	tiktok := &fakeAdapter{platform: platform.TikTok}
	tiktok.followers.Store(7000)
	f := setupRefreshService(t, instagram, tiktok)

	report, err := f.service.GetMetrics(context.Background(), domain.GetMetricsRequest{
		ProfileID: f.profile.ID.String(),
	})
	require.NoError(t, err, "one failing platform never fails the whole read")
	require.Len(t, report, 2)

	igEntry := report[platform.Instagram]
	assert.True(t, igEntry.Unavailable)
	assert.Nil(t, igEntry.Snapshot, "no prior snapshot to fall back to")
	assert.NotEmpty(t, igEntry.FetchError)

	ttEntry := report[platform.TikTok]
	require.NotNil(t, ttEntry.Snapshot)
	assert.True(t, ttEntry.Refreshed)
	assert.Equal(t, int64(7000), ttEntry.Snapshot.Metrics().Audience())
}

func TestWaitForPeerWithoutSnapshotIsUnavailable(t *testing.T) {
	adapter := &fakeAdapter{platform: platform.Instagram}
	adapter.followers.Store(2500)
	f := setupRefreshService(t, adapter)
	ctx := context.Background()

	svc := f.service.(*Service)
	svc.peerWait = 40 * time.Millisecond
	svc.peerPoll = 10 * time.Millisecond

	account := &accountdomain.LinkedAccount{
		ProfileID: f.profile.ID,
		Platform:  platform.Instagram,
		Username:  "touringact",
	}

	// No row ever appears: the deadline must surface an unavailable fetch,
	// not a nil snapshot.
	snapshot, err := svc.waitForPeer(ctx, account)
	require.Error(t, err)
	assert.ErrorIs(t, err, fetcherdomain.ErrUnavailable)
	assert.Nil(t, snapshot)

	// With a stored row the deadline settles for it.
	require.NoError(t, f.service.Refresh(ctx, f.profile.ID, platform.Instagram))
	snapshot, err = svc.waitForPeer(ctx, account)
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, int64(2500), snapshot.Metrics().Audience())
}

func TestRefreshEmitsNotifications(t *testing.T) {
	adapter := &fakeAdapter{platform: platform.Instagram}
	adapter.followers.Store(900)
	f := setupRefreshService(t, adapter)
	ctx := context.Background()

	require.NoError(t, f.service.Refresh(ctx, f.profile.ID, platform.Instagram))

	f.clock.Advance(time.Hour)
	adapter.followers.Store(1050)
	require.NoError(t, f.service.Refresh(ctx, f.profile.ID, platform.Instagram))

	var notifications []notificationdomain.Notification
	require.NoError(t, f.db.Where("profile_id = ?", f.profile.ID).Find(&notifications).Error)
	require.NotEmpty(t, notifications)

	var sawMilestone bool
	for _, n := range notifications {
		if n.Category == notificationdomain.CategoryMilestone {
			sawMilestone = true
		}
	}
	assert.True(t, sawMilestone, "crossing 1K emits a milestone")
}
