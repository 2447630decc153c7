package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perflens/bottleneck-analyzer/pkg/model"
)

func TestFindCoOccurring(t *testing.T) {
	results := []model.BottleneckResult{
		{Component: model.ComponentCPU, Severity: model.SeverityWarning},
		{Component: model.ComponentMemory, Severity: model.SeverityCritical},
	}

	findings := FindCoOccurring(results)
	require.Len(t, findings, 1)
	assert.Equal(t, []string{model.ComponentCPU, model.ComponentMemory}, findings[0].Components)
}

func TestFindCoOccurringBothPairs(t *testing.T) {
	results := []model.BottleneckResult{
		{Component: model.ComponentCPU},
		{Component: model.ComponentMemory},
		{Component: model.ComponentNetwork},
		{Component: model.ComponentDatabase},
	}
	assert.Len(t, FindCoOccurring(results), 2)
}

func TestFindCoOccurringSingleComponent(t *testing.T) {
	results := []model.BottleneckResult{
		{Component: model.ComponentCPU},
		{Component: model.ComponentCPU},
	}
	assert.Empty(t, FindCoOccurring(results))
}

func TestFindCoOccurringEmpty(t *testing.T) {
	assert.Empty(t, FindCoOccurring(nil))
}
