package metricsource

import (
	"context"
	"errors"
	"time"

	"github.com/perflens/bottleneck-analyzer/pkg/model"
)

var (
	// ErrUnavailable marks a metrics-source failure; callers degrade to a
	// per-detector gap, never a crash
	ErrUnavailable = errors.New("metrics source unavailable")
	// ErrDecode marks a response that does not fit the expected schema
	ErrDecode = errors.New("metrics source returned unexpected data")
)

// Source is the pull-style query API of the external metrics backend
type Source interface {
	// QueryInstant evaluates the query now; found is false when the
	// backend has no data for it
	QueryInstant(ctx context.Context, query string) (value float64, found bool, err error)
	// QueryRange fetches an ordered (oldest to newest) series per label set
	QueryRange(ctx context.Context, query string, start, end time.Time, stepSeconds int) ([]model.MetricsSeries, error)
}
