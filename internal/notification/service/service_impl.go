package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/stagecast/encore/internal/config"
	"github.com/stagecast/encore/internal/notification/domain"
	obsmetrics "github.com/stagecast/encore/internal/observability/metrics"
	snapshotdomain "github.com/stagecast/encore/internal/snapshot/domain"
	"github.com/stagecast/encore/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Cfg     config.Config
	Repo    domain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	cfg     config.SocialConfig
	repo    domain.Repository
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("notification.service"),
		genID:   p.GenID,
		cfg:     p.Cfg.Social,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// EvaluateTransition runs the alert rules for current against previous. The
// evaluated_snapshots marker is claimed inside the same transaction as the
// notification rows, so a snapshot is evaluated exactly once even when two
// replicas race: the loser hits the unique key and backs off with no rows
// written.
func (s *Service) EvaluateTransition(ctx context.Context, previous *snapshotdomain.MetricSnapshot, current snapshotdomain.MetricSnapshot) ([]domain.Notification, error) {
	notifications := s.evaluate(previous, current)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		marker := domain.EvaluatedSnapshot{SnapshotID: current.ID, CreatedAt: current.CreatedAt}
		if err := s.repo.InsertMarker(ctx, tx, &marker); err != nil {
			return err
		}
		return s.repo.InsertAll(ctx, tx, notifications)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, nil
		}
		return nil, err
	}

	for _, notification := range notifications {
		s.metrics.RecordNotification(ctx, string(notification.Category), string(notification.Priority))
		s.log.Info("notification emitted",
			zap.String("profile_id", notification.ProfileID.String()),
			zap.String("platform", notification.Platform.String()),
			zap.String("category", string(notification.Category)),
			zap.String("priority", string(notification.Priority)),
		)
	}
	return notifications, nil
}

// evaluate is the pure rule pass. No previous snapshot means no baseline, so
// nothing fires; the marker above still records the evaluation.
func (s *Service) evaluate(previous *snapshotdomain.MetricSnapshot, current snapshotdomain.MetricSnapshot) []domain.Notification {
	if previous == nil {
		return nil
	}

	prevBag := previous.Metrics()
	currBag := current.Metrics()
	prevAudience := prevBag.Audience()
	currAudience := currBag.Audience()

	var notifications []domain.Notification
	emit := func(category domain.Category, priority domain.Priority, message string) {
		notifications = append(notifications, domain.Notification{
			ID:         s.genID.Generate(),
			ProfileID:  current.ProfileID,
			AccountID:  current.AccountID,
			SnapshotID: current.ID,
			Platform:   current.Platform,
			Category:   category,
			Priority:   priority,
			Message:    message,
			CreatedAt:  current.CreatedAt,
		})
	}

	if level, crossed := highestCrossed(s.cfg.MilestoneLadder, prevAudience, currAudience); crossed {
		emit(domain.CategoryMilestone, domain.PriorityNormal,
			fmt.Sprintf("%s audience passed %s", current.Platform, formatCount(level)))
	}

	if prevAudience > 0 {
		changePct := float64(currAudience-prevAudience) / float64(prevAudience) * 100
		switch {
		case changePct >= s.cfg.GrowthPct:
			emit(domain.CategoryGrowth, domain.PriorityNormal,
				fmt.Sprintf("%s audience grew %.1f%% since the last check", current.Platform, changePct))
		case -changePct >= s.cfg.DropPct:
			emit(domain.CategoryWarning, domain.PriorityHigh,
				fmt.Sprintf("%s audience dropped %.1f%% since the last check", current.Platform, -changePct))
		}
	}

	if prevRate, currRate := prevBag.Engagement(), currBag.Engagement(); prevRate != nil && currRate != nil {
		delta := *currRate - *prevRate
		switch {
		case delta >= s.cfg.EngagementDeltaPts:
			emit(domain.CategoryImprovement, domain.PriorityNormal,
				fmt.Sprintf("%s engagement rate rose %.2f points to %.2f%%", current.Platform, delta, *currRate))
		case -delta >= s.cfg.EngagementDeltaPts:
			emit(domain.CategoryWarning, domain.PriorityHigh,
				fmt.Sprintf("%s engagement rate fell %.2f points to %.2f%%", current.Platform, -delta, *currRate))
		}
	}

	return notifications
}

// highestCrossed returns the largest ladder level with prev < level <= curr.
// Only one milestone fires per transition even when several levels are
// crossed at once.
func highestCrossed(ladder []int64, prev, curr int64) (int64, bool) {
	var best int64
	found := false
	for _, level := range ladder {
		if prev < level && curr >= level && level > best {
			best = level
			found = true
		}
	}
	return best, found
}

func formatCount(n int64) string {
	switch {
	case n >= 1_000_000 && n%1_000_000 == 0:
		return fmt.Sprintf("%dM", n/1_000_000)
	case n >= 1_000 && n%1_000 == 0:
		return fmt.Sprintf("%dK", n/1_000)
	}
	return fmt.Sprintf("%d", n)
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Notification, error) {
	profileID, err := snowflake.ParseString(req.ProfileID)
	if err != nil {
		return nil, domain.ErrInvalidProfileID
	}

	notifications, err := s.repo.ListByProfile(ctx, s.db, profileID, req.UnreadOnly, req.Limit)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	return notifications, nil
}

func (s *Service) MarkRead(ctx context.Context, id string) error {
	notificationID, err := snowflake.ParseString(id)
	if err != nil {
		return domain.ErrInvalidID
	}

	existing, err := s.repo.FindByID(ctx, s.db, notificationID)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}
	return s.repo.MarkRead(ctx, s.db, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, profileID string) error {
	id, err := snowflake.ParseString(profileID)
	if err != nil {
		return domain.ErrInvalidProfileID
	}
	return s.repo.MarkAllRead(ctx, s.db, id)
}

func (s *Service) Dismiss(ctx context.Context, id string) error {
	notificationID, err := snowflake.ParseString(id)
	if err != nil {
		return domain.ErrInvalidID
	}

	existing, err := s.repo.FindByID(ctx, s.db, notificationID)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}
	return s.repo.Dismiss(ctx, s.db, notificationID)
}
