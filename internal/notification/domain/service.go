package domain

import (
	"context"
	"errors"

	snapshotdomain "github.com/stagecast/encore/internal/snapshot/domain"
)

type ListRequest struct {
	ProfileID  string
	UnreadOnly bool
	Limit      int
}

// Service derives notifications from snapshot transitions and manages their
// read/dismissed lifecycle. EvaluateTransition is exactly-once per snapshot:
// re-evaluating the same snapshot id is a no-op.
type Service interface {
	EvaluateTransition(ctx context.Context, previous *snapshotdomain.MetricSnapshot, current snapshotdomain.MetricSnapshot) ([]Notification, error)
	List(ctx context.Context, req ListRequest) ([]Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, profileID string) error
	Dismiss(ctx context.Context, id string) error
}

var (
	ErrInvalidID        = errors.New("invalid_notification_id")
	ErrInvalidProfileID = errors.New("invalid_profile_id")
	ErrNotFound         = errors.New("notification_not_found")
)
