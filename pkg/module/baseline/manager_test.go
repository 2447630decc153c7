package baseline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perflens/bottleneck-analyzer/pkg/database"
	"github.com/perflens/bottleneck-analyzer/pkg/model"
)

func makeSamples(values ...float64) []model.Sample {
	samples := make([]model.Sample, len(values))
	for i, v := range values {
		samples[i] = model.Sample{Timestamp: int64(i * 30), Value: v}
	}
	return samples
}

func TestComputeBaseline(t *testing.T) {
	manager := NewManager(5)

	baseline, err := manager.ComputeBaseline(model.ComponentDatabase, "query_latency_p95_ms",
		makeSamples(10, 12, 11, 13, 10))
	require.NoError(t, err)

	assert.InDelta(t, 11.2, baseline.Mean, 0.0001)
	assert.InDelta(t, 1.1662, baseline.StdDev, 0.001)
	assert.Equal(t, 5, baseline.SampleCount)
	assert.Equal(t, float64(11), baseline.P50)
	assert.Equal(t, float64(13), baseline.P95)
	assert.Equal(t, float64(13), baseline.P99)
}

func TestComputeBaselineDeterministic(t *testing.T) {
	manager := NewManager(5)
	samples := makeSamples(42, 40, 45, 41, 44, 43)

	first, err := manager.ComputeBaseline(model.ComponentCPU, "used_percent", samples)
	require.NoError(t, err)
	second, err := manager.ComputeBaseline(model.ComponentCPU, "used_percent", samples)
	require.NoError(t, err)

	assert.Equal(t, first.Mean, second.Mean)
	assert.Equal(t, first.StdDev, second.StdDev)
	assert.Equal(t, first.P50, second.P50)
	assert.Equal(t, first.P95, second.P95)
	assert.Equal(t, first.P99, second.P99)
}

func TestComputeBaselineInsufficientSamples(t *testing.T) {
	manager := NewManager(5)

	_, err := manager.ComputeBaseline(model.ComponentMemory, "used_percent",
		makeSamples(80, 81, 82))
	assert.ErrorIs(t, err, ErrInsufficientSamples)
}

func TestCompare(t *testing.T) {
	baseline := &model.Baseline{Mean: 11.2, StdDev: 1.1662}

	comparison := Compare(baseline, 20)
	assert.InDelta(t, 8.8, comparison.Delta, 0.0001)
	assert.InDelta(t, 7.546, comparison.ZScore, 0.01)
	assert.False(t, comparison.Extreme)
}

func TestCompareZeroStdDev(t *testing.T) {
	baseline := &model.Baseline{Mean: 50, StdDev: 0}

	same := Compare(baseline, 50)
	assert.False(t, same.Extreme)
	assert.Equal(t, float64(0), same.ZScore)

	deviating := Compare(baseline, 51)
	assert.True(t, deviating.Extreme)
	assert.Equal(t, float64(0), deviating.ZScore)
	assert.Equal(t, float64(1), deviating.Delta)
}

func TestCompareToBaselineNotStored(t *testing.T) {
	database.SetFacade(database.NewMockFacade())

	manager := NewManager(5)
	_, err := manager.CompareToBaseline(context.Background(), model.ComponentNetwork, "dep_latency_ms", 12)
	assert.ErrorIs(t, err, ErrNoBaseline)
}

func TestComputeAndStoreRoundTrip(t *testing.T) {
	database.SetFacade(database.NewMockFacade())

	manager := NewManager(5)
	ctx := context.Background()
	_, err := manager.ComputeAndStore(ctx, model.ComponentDatabase, "pool_utilization",
		makeSamples(0.5, 0.55, 0.52, 0.51, 0.54))
	require.NoError(t, err)

	stored, err := manager.GetBaseline(ctx, model.ComponentDatabase, "pool_utilization")
	require.NoError(t, err)
	assert.InDelta(t, 0.524, stored.Mean, 0.0001)
	assert.Equal(t, 5, stored.SampleCount)
}
