package metricsource

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/logger/log"
	"github.com/perflens/bottleneck-analyzer/pkg/model"
	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	promModel "github.com/prometheus/common/model"
)

// Client queries a Prometheus-compatible backend over its HTTP API.
// Every call is bounded by the configured per-call timeout.
type Client struct {
	api     v1.API
	timeout time.Duration
}

// NewClient creates a metrics source client from configuration
func NewClient(cfg config.MetricsSourceConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("metrics source endpoint not configured")
	}
	promClient, err := api.NewClient(api.Config{Address: cfg.Endpoint})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics source client: %w", err)
	}
	return &Client{
		api:     v1.NewAPI(promClient),
		timeout: cfg.GetQueryTimeout(),
	}, nil
}

func (c *Client) QueryInstant(ctx context.Context, query string) (float64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, warnings, err := c.api.Query(ctx, query, time.Now())
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(warnings) > 0 {
		log.Warnf("Metrics query warnings for %s: %v", query, warnings)
	}

	vectorVal, ok := result.(promModel.Vector)
	if !ok {
		return 0, false, fmt.Errorf("%w: instant query %s returned %T", ErrDecode, query, result)
	}
	if len(vectorVal) == 0 {
		return 0, false, nil
	}

	value := float64(vectorVal[0].Value)
	if math.IsNaN(value) || math.IsInf(value, 0) {
		// division by a zero-valued rate yields NaN, treat it as no data
		return 0, false, nil
	}
	return value, true, nil
}

func (c *Client) QueryRange(ctx context.Context, query string, start, end time.Time, stepSeconds int) ([]model.MetricsSeries, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rangeQuery := v1.Range{
		Start: start,
		End:   end,
		Step:  time.Duration(stepSeconds) * time.Second,
	}

	result, warnings, err := c.api.QueryRange(ctx, query, rangeQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(warnings) > 0 {
		log.Warnf("Metrics range query warnings for %s: %v", query, warnings)
	}

	matrixVal, ok := result.(promModel.Matrix)
	if !ok {
		return nil, fmt.Errorf("%w: range query %s returned %T", ErrDecode, query, result)
	}
	if len(matrixVal) == 0 {
		log.Debugf("No data returned for query: %s", query)
		return []model.MetricsSeries{}, nil
	}

	results := make([]model.MetricsSeries, 0, len(matrixVal))
	for _, stream := range matrixVal {
		samples := make([]model.Sample, 0, len(stream.Values))
		for _, point := range stream.Values {
			value := float64(point.Value)
			if math.IsNaN(value) || math.IsInf(value, 0) {
				continue
			}
			samples = append(samples, model.Sample{
				Timestamp: point.Timestamp.Unix(),
				Value:     value,
			})
		}
		labels := make(map[string]string, len(stream.Metric))
		for name, value := range stream.Metric {
			labels[string(name)] = string(value)
		}
		results = append(results, model.MetricsSeries{
			Labels:  labels,
			Samples: samples,
		})
	}
	return results, nil
}
