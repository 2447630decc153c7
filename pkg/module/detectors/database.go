package detectors

import (
	"context"
	"fmt"
	"sync"

	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/logger/log"
	"github.com/perflens/bottleneck-analyzer/pkg/metricsource"
	"github.com/perflens/bottleneck-analyzer/pkg/model"
	"github.com/perflens/bottleneck-analyzer/pkg/module/baseline"
)

const (
	dbQueryLatencyMetric = "query_latency_p95_ms"
	dbPoolMetric         = "pool_utilization"
	dbLockWaitMetric     = "lock_wait_ms"
	dbDeadlockMetric     = "deadlocks_total"

	dbQueryLatencyQuery = `histogram_quantile(0.95, sum(rate(db_query_duration_seconds_bucket[5m])) by (le)) * 1000`
	dbPoolQuery         = `db_pool_connections_in_use / db_pool_connections_max`
	dbLockWaitQuery     = `rate(db_lock_wait_seconds_total[5m]) * 1000`
	dbDeadlockQuery     = `db_deadlocks_total`
)

// DatabaseDetector watches query latency, connection-pool saturation,
// lock contention and deadlocks
type DatabaseDetector struct {
	cfg       *config.Config
	baselines *baseline.Manager

	mu            sync.Mutex
	lastDeadlocks float64
	deadlocksSeen bool
}

func NewDatabaseDetector(cfg *config.Config, baselines *baseline.Manager) *DatabaseDetector {
	return &DatabaseDetector{cfg: cfg, baselines: baselines}
}

func (d *DatabaseDetector) Name() string {
	return "database-detector"
}

func (d *DatabaseDetector) Component() string {
	return model.ComponentDatabase
}

func (d *DatabaseDetector) BaselineMetrics() map[string]string {
	return map[string]string{
		dbQueryLatencyMetric: dbQueryLatencyQuery,
		dbPoolMetric:         dbPoolQuery,
		dbLockWaitMetric:     dbLockWaitQuery,
	}
}

func (d *DatabaseDetector) Detect(ctx context.Context, source metricsource.Source, thresholds config.ThresholdConfig) ([]model.BottleneckResult, error) {
	var results []model.BottleneckResult

	latency, found, err := fetchInstant(ctx, source, d.Component(), dbQueryLatencyQuery)
	if err != nil {
		return nil, err
	}
	if found {
		if severity, breached := classify(latency, thresholds.Database.QueryLatencyP95Ms); breached {
			result := newResult(model.BottleneckDBQuerySlow, d.Component(), dbQueryLatencyMetric, severity, latency,
				fmt.Sprintf("p95 query latency %.1fms exceeds %s threshold", latency, severity))
			attachBaseline(ctx, d.baselines, &result)
			results = append(results, result)
		}
	}

	utilization, found, err := fetchInstant(ctx, source, d.Component(), dbPoolQuery)
	if err != nil {
		return nil, err
	}
	if found {
		if severity, breached := classify(utilization, thresholds.Database.GetPoolUtilization()); breached {
			result := newResult(model.BottleneckDBPoolSaturated, d.Component(), dbPoolMetric, severity, utilization,
				fmt.Sprintf("connection pool %.0f%% utilized", utilization*100))
			attachBaseline(ctx, d.baselines, &result)
			results = append(results, result)
		}
	}

	lockWait, found, err := fetchInstant(ctx, source, d.Component(), dbLockWaitQuery)
	if err != nil {
		return nil, err
	}
	if found {
		if severity, breached := classify(lockWait, thresholds.Database.LockWaitMs); breached {
			result := newResult(model.BottleneckDBLockContention, d.Component(), dbLockWaitMetric, severity, lockWait,
				fmt.Sprintf("lock wait time %.1fms exceeds %s threshold", lockWait, severity))
			attachBaseline(ctx, d.baselines, &result)
			results = append(results, result)
		}
	}

	deadlocks, found, err := fetchInstant(ctx, source, d.Component(), dbDeadlockQuery)
	if err != nil {
		return nil, err
	}
	if found {
		if delta := d.deadlockDelta(deadlocks); delta > 0 {
			results = append(results, newResult(model.BottleneckDBDeadlock, d.Component(), dbDeadlockMetric,
				model.SeverityCritical, delta, fmt.Sprintf("%.0f deadlock(s) since last pass", delta)))
			log.WithContext(ctx).Warnf("Detected %.0f new deadlock(s), counter now %.0f", delta, deadlocks)
		}
	}

	return results, nil
}

// deadlockDelta tracks the counter across passes; the first observation
// only seeds the state. A counter reset (restart) reads as zero delta.
func (d *DatabaseDetector) deadlockDelta(current float64) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.deadlocksSeen {
		d.deadlocksSeen = true
		d.lastDeadlocks = current
		return 0
	}
	delta := current - d.lastDeadlocks
	d.lastDeadlocks = current
	if delta < 0 {
		return 0
	}
	return delta
}
