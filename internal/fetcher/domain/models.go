package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/stagecast/encore/internal/platform"
	snapshotdomain "github.com/stagecast/encore/internal/snapshot/domain"
)

// Result is a successful fetch: a normalized bag plus the tier that produced it.
type Result struct {
	Bag        snapshotdomain.MetricBag
	Provenance snapshotdomain.Provenance
}

// Adapter retrieves and normalizes public metrics for one platform. Each
// implementation tries progressively less-rich sources in a fixed order and
// records the tier that succeeded.
type Adapter interface {
	Platform() platform.Platform
	Fetch(ctx context.Context, username string) (Result, error)
}

// ErrUnavailable marks a fetch where every tier failed.
var ErrUnavailable = errors.New("platform_unavailable")

// UnavailableError carries the platform and username of a failed fetch.
type UnavailableError struct {
	Platform platform.Platform
	Username string
	Cause    error
}

func (e *UnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s unavailable for %q: %v", e.Platform, e.Username, e.Cause)
	}
	return fmt.Sprintf("%s unavailable for %q", e.Platform, e.Username)
}

func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// Unavailable wraps cause into an UnavailableError for (platform, username).
func Unavailable(p platform.Platform, username string, cause error) error {
	return &UnavailableError{Platform: p, Username: username, Cause: cause}
}
