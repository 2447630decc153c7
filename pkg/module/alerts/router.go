package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/database"
	dbmodel "github.com/perflens/bottleneck-analyzer/pkg/database/model"
	"github.com/perflens/bottleneck-analyzer/pkg/logger/log"
	"github.com/perflens/bottleneck-analyzer/pkg/metrics"
	"github.com/perflens/bottleneck-analyzer/pkg/model"
)

var dispatchCounter = metrics.NewCounterVec("alert_dispatch_total",
	"Alert dispatch attempts partitioned by channel and outcome", []string{"channel", "outcome"})

// DispatchOutcome is the per-result, per-channel delivery verdict
type DispatchOutcome struct {
	ResultID  string `json:"result_id"`
	Component string `json:"component"`
	Metric    string `json:"metric"`
	Severity  string `json:"severity"`
	Channel   string `json:"channel"`
	Outcome   string `json:"outcome"`
	Attempts  int    `json:"attempts"`
	Error     string `json:"error,omitempty"`
}

// Router deduplicates qualifying results against the cooldown window and
// dispatches them to every configured channel independently. Channel
// failures are retried with backoff, then recorded, never raised.
type Router struct {
	channels []Channel
	cooldown *gocache.Cache
	window   time.Duration
}

// NewRouter builds the router and its channels from configuration
func NewRouter(cfg config.AlertsConfig) (*Router, error) {
	window := cfg.GetCooldown()
	channels := make([]Channel, 0, len(cfg.Channels))
	for _, channelCfg := range cfg.Channels {
		channel, err := NewChannel(channelCfg, cfg.GetRetryCount(), cfg.GetRetryWait())
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return &Router{
		channels: channels,
		cooldown: gocache.New(window, 2*window),
		window:   window,
	}, nil
}

// SendAlerts dispatches every bottleneck in the report. The returned
// outcomes cover each (result, channel) pair, suppressed included.
func (r *Router) SendAlerts(ctx context.Context, report *model.Report) []DispatchOutcome {
	var outcomes []DispatchOutcome
	for _, result := range report.Bottlenecks {
		for _, channel := range r.channels {
			outcomes = append(outcomes, r.dispatch(ctx, report.RunID, result, channel))
		}
	}
	return outcomes
}

func (r *Router) dispatch(ctx context.Context, runID string, result model.BottleneckResult, channel Channel) DispatchOutcome {
	outcome := DispatchOutcome{
		ResultID:  result.ID,
		Component: result.Component,
		Metric:    result.Metric,
		Severity:  result.Severity,
		Channel:   channel.Name(),
	}

	if !r.acquire(ctx, result, channel.Name()) {
		outcome.Outcome = dbmodel.DispatchOutcomeSuppressed
		dispatchCounter.Inc(channel.Name(), outcome.Outcome)
		row := newDispatchRow(runID, result, channel.Name())
		row.Outcome = outcome.Outcome
		if err := database.GetFacade().GetDispatch().CreateAlertDispatches(ctx, row); err != nil {
			log.WithContext(ctx).Errorf("Failed to record alert dispatch: %v", err)
		}
		return outcome
	}

	// open a pending row before delivery so a crash mid-send leaves a trace
	row := r.openDispatch(ctx, runID, result, channel.Name())

	payload := NewPayload(result)
	attempts, err := channel.Send(ctx, payload)
	outcome.Attempts = attempts
	if err != nil {
		// drop the cooldown hold so the next pass may retry delivery
		r.cooldown.Delete(cooldownKey(result, channel.Name()))
		outcome.Outcome = dbmodel.DispatchOutcomeFailed
		outcome.Error = err.Error()
		log.WithContext(ctx).Errorf("Alert delivery to %s failed for %s/%s: %v",
			channel.Name(), result.Component, result.Metric, err)
	} else {
		outcome.Outcome = dbmodel.DispatchOutcomeSent
		log.WithContext(ctx).Infof("Alert sent to %s: %s %s/%s",
			channel.Name(), result.Severity, result.Component, result.Metric)
	}
	dispatchCounter.Inc(channel.Name(), outcome.Outcome)
	r.closeDispatch(ctx, runID, row, result, outcome)
	return outcome
}

// acquire performs the atomic check-and-set on the cooldown key so two
// concurrent passes cannot both decide to send. The persisted dispatch
// history extends the window across restarts.
func (r *Router) acquire(ctx context.Context, result model.BottleneckResult, channel string) bool {
	key := cooldownKey(result, channel)
	if err := r.cooldown.Add(key, time.Now(), r.window); err != nil {
		return false
	}

	last, err := database.GetFacade().GetDispatch().GetLastSentDispatch(ctx,
		result.Component, result.Metric, result.Severity, channel)
	if err != nil {
		log.WithContext(ctx).Warnf("Dispatch history lookup failed for %s: %v", key, err)
		return true
	}
	if last != nil && time.Since(last.SentAt) < r.window {
		return false
	}
	return true
}

func newDispatchRow(runID string, result model.BottleneckResult, channel string) *dbmodel.AlertDispatches {
	return &dbmodel.AlertDispatches{
		ResultID:   result.ID,
		RunID:      runID,
		Component:  result.Component,
		MetricName: result.Metric,
		Severity:   result.Severity,
		Channel:    channel,
	}
}

// openDispatch records the delivery attempt as pending; a nil row means the
// store rejected it and the final outcome falls back to a fresh insert
func (r *Router) openDispatch(ctx context.Context, runID string, result model.BottleneckResult, channel string) *dbmodel.AlertDispatches {
	row := newDispatchRow(runID, result, channel)
	row.Outcome = dbmodel.DispatchOutcomePending
	if err := database.GetFacade().GetDispatch().CreateAlertDispatches(ctx, row); err != nil {
		log.WithContext(ctx).Errorf("Failed to record pending alert dispatch: %v", err)
		return nil
	}
	return row
}

// closeDispatch settles the pending row with the delivery verdict
func (r *Router) closeDispatch(ctx context.Context, runID string, row *dbmodel.AlertDispatches, result model.BottleneckResult, outcome DispatchOutcome) {
	fresh := row == nil
	if fresh {
		row = newDispatchRow(runID, result, outcome.Channel)
	}
	row.Outcome = outcome.Outcome
	row.Attempts = outcome.Attempts
	row.ErrorMessage = outcome.Error
	if outcome.Outcome == dbmodel.DispatchOutcomeSent {
		row.SentAt = time.Now()
		row.Payload = dbmodel.ExtType{
			"description":    result.Description,
			"observed_value": fmt.Sprintf("%f", result.ObservedValue),
			"runbook_ref":    result.RunbookRef,
		}
	}
	var err error
	if fresh {
		err = database.GetFacade().GetDispatch().CreateAlertDispatches(ctx, row)
	} else {
		err = database.GetFacade().GetDispatch().UpdateAlertDispatches(ctx, row)
	}
	if err != nil {
		log.WithContext(ctx).Errorf("Failed to record alert dispatch: %v", err)
	}
}

func cooldownKey(result model.BottleneckResult, channel string) string {
	return strings.Join([]string{result.Component, result.Metric, result.Severity, channel}, "/")
}
