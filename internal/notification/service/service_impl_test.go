package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stagecast/encore/internal/config"
	"github.com/stagecast/encore/internal/notification/domain"
	"github.com/stagecast/encore/internal/notification/repository"
	"github.com/stagecast/encore/internal/platform"
	snapshotdomain "github.com/stagecast/encore/internal/snapshot/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupNotificationService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.Notification{}, &domain.EvaluatedSnapshot{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{
		Social: config.SocialConfig{
			MilestoneLadder:    []int64{1000, 10000, 100000, 1000000},
			GrowthPct:          5,
			DropPct:            5,
			EngagementDeltaPts: 1,
		},
	}

	service := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Cfg:   cfg,
		Repo:  repository.Provide(),
	})
	return service, db, node
}

func followerSnapshot(node *snowflake.Node, profileID, accountID snowflake.ID, followers int64, rate *float64, at time.Time) snapshotdomain.MetricSnapshot {
	return snapshotdomain.MetricSnapshot{
		ID:         node.Generate(),
		AccountID:  accountID,
		ProfileID:  profileID,
		Platform:   platform.Instagram,
		Provenance: snapshotdomain.ProvenancePublicScrape,
		Bag: datatypes.NewJSONType(snapshotdomain.NewFollowerBag(snapshotdomain.FollowerMetrics{
			Followers:      followers,
			EngagementRate: rate,
		})),
		FetchedAt: at,
		CreatedAt: at,
	}
}

func TestEvaluateTransitionMilestone(t *testing.T) {
	service, _, node := setupNotificationService(t)
	profileID := node.Generate()
	accountID := node.Generate()
	now := time.Now().UTC()

	previous := followerSnapshot(node, profileID, accountID, 900, nil, now.Add(-time.Hour))
	current := followerSnapshot(node, profileID, accountID, 1050, nil, now)

	notifications, err := service.EvaluateTransition(context.Background(), &previous, current)
	require.NoError(t, err)
	require.Len(t, notifications, 2, "milestone plus growth")

	var categories []domain.Category
	for _, n := range notifications {
		categories = append(categories, n.Category)
	}
	assert.Contains(t, categories, domain.CategoryMilestone)
	assert.Contains(t, categories, domain.CategoryGrowth)

	for _, n := range notifications {
		if n.Category == domain.CategoryMilestone {
			assert.Contains(t, n.Message, "1K")
		}
	}
}

func TestEvaluateTransitionHighestMilestoneOnly(t *testing.T) {
	service, _, node := setupNotificationService(t)
	profileID := node.Generate()
	accountID := node.Generate()
	now := time.Now().UTC()

	// Jumping over several ladder levels fires one milestone, the highest.
	previous := followerSnapshot(node, profileID, accountID, 500, nil, now.Add(-time.Hour))
	current := followerSnapshot(node, profileID, accountID, 150000, nil, now)

	notifications, err := service.EvaluateTransition(context.Background(), &previous, current)
	require.NoError(t, err)

	milestones := 0
	for _, n := range notifications {
		if n.Category == domain.CategoryMilestone {
			milestones++
			assert.Contains(t, n.Message, "100K")
		}
	}
	assert.Equal(t, 1, milestones)
}

func TestEvaluateTransitionExactlyOnce(t *testing.T) {
	service, db, node := setupNotificationService(t)
	profileID := node.Generate()
	accountID := node.Generate()
	now := time.Now().UTC()

	previous := followerSnapshot(node, profileID, accountID, 900, nil, now.Add(-time.Hour))
	current := followerSnapshot(node, profileID, accountID, 1050, nil, now)
	ctx := context.Background()

	first, err := service.EvaluateTransition(ctx, &previous, current)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Re-evaluating the same snapshot is a silent no-op.
	second, err := service.EvaluateTransition(ctx, &previous, current)
	require.NoError(t, err)
	assert.Nil(t, second)

	var count int64
	require.NoError(t, db.Model(&domain.Notification{}).Where("snapshot_id = ?", current.ID).Count(&count).Error)
	assert.Equal(t, int64(len(first)), count)
}

func TestEvaluateTransitionNoBaseline(t *testing.T) {
	service, _, node := setupNotificationService(t)
	current := followerSnapshot(node, node.Generate(), node.Generate(), 5000, nil, time.Now().UTC())

	notifications, err := service.EvaluateTransition(context.Background(), nil, current)
	require.NoError(t, err)
	assert.Empty(t, notifications, "no previous snapshot means no baseline to compare")
}

func TestEvaluateTransitionDropWarning(t *testing.T) {
	service, _, node := setupNotificationService(t)
	profileID := node.Generate()
	accountID := node.Generate()
	now := time.Now().UTC()

	previous := followerSnapshot(node, profileID, accountID, 10000, nil, now.Add(-time.Hour))
	current := followerSnapshot(node, profileID, accountID, 9000, nil, now)

	notifications, err := service.EvaluateTransition(context.Background(), &previous, current)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.CategoryWarning, notifications[0].Category)
	assert.Equal(t, domain.PriorityHigh, notifications[0].Priority)
}

func TestEvaluateTransitionEngagementDelta(t *testing.T) {
	service, _, node := setupNotificationService(t)
	profileID := node.Generate()
	accountID := node.Generate()
	now := time.Now().UTC()

	prevRate := 2.0
	currRate := 3.5
	previous := followerSnapshot(node, profileID, accountID, 5000, &prevRate, now.Add(-time.Hour))
	current := followerSnapshot(node, profileID, accountID, 5000, &currRate, now)

	notifications, err := service.EvaluateTransition(context.Background(), &previous, current)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.CategoryImprovement, notifications[0].Category)
}

func TestListAndLifecycle(t *testing.T) {
	service, _, node := setupNotificationService(t)
	profileID := node.Generate()
	accountID := node.Generate()
	now := time.Now().UTC()
	ctx := context.Background()

	previous := followerSnapshot(node, profileID, accountID, 900, nil, now.Add(-time.Hour))
	current := followerSnapshot(node, profileID, accountID, 1050, nil, now)

	emitted, err := service.EvaluateTransition(ctx, &previous, current)
	require.NoError(t, err)
	require.NotEmpty(t, emitted)

	listed, err := service.List(ctx, domain.ListRequest{ProfileID: profileID.String(), UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, listed, len(emitted))

	require.NoError(t, service.MarkRead(ctx, emitted[0].ID.String()))

	unread, err := service.List(ctx, domain.ListRequest{ProfileID: profileID.String(), UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread, len(emitted)-1)

	require.NoError(t, service.MarkAllRead(ctx, profileID.String()))
	unread, err = service.List(ctx, domain.ListRequest{ProfileID: profileID.String(), UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread)

	// Dismissed rows disappear from every listing.
	require.NoError(t, service.Dismiss(ctx, emitted[0].ID.String()))
	all, err := service.List(ctx, domain.ListRequest{ProfileID: profileID.String()})
	require.NoError(t, err)
	assert.Len(t, all, len(emitted)-1)

	assert.ErrorIs(t, service.MarkRead(ctx, "bogus"), domain.ErrInvalidID)
	assert.ErrorIs(t, service.MarkRead(ctx, node.Generate().String()), domain.ErrNotFound)
}

func TestListLimit(t *testing.T) {
	service, db, node := setupNotificationService(t)
	profileID := node.Generate()
	accountID := node.Generate()
	now := time.Now().UTC()
	ctx := context.Background()

	rows := make([]domain.Notification, 0, 3)
	for i := 0; i < 3; i++ {
		rows = append(rows, domain.Notification{
			ID:         node.Generate(),
			ProfileID:  profileID,
			AccountID:  accountID,
			SnapshotID: node.Generate(),
			Platform:   platform.Instagram,
			Category:   domain.CategoryGrowth,
			Priority:   domain.PriorityNormal,
			Message:    fmt.Sprintf("growth %d", i),
			CreatedAt:  now.Add(time.Duration(i) * time.Minute),
		})
	}
	require.NoError(t, db.Create(&rows).Error)

	listed, err := service.List(ctx, domain.ListRequest{ProfileID: profileID.String(), Limit: 2})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, rows[2].ID, listed[0].ID, "newest first")
	assert.Equal(t, rows[1].ID, listed[1].ID)

	all, err := service.List(ctx, domain.ListRequest{ProfileID: profileID.String()})
	require.NoError(t, err)
	assert.Len(t, all, 3, "zero limit means no cap")
}
