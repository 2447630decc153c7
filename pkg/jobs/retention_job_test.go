package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perflens/bottleneck-analyzer/pkg/database"
	"github.com/perflens/bottleneck-analyzer/pkg/database/model"
)

func TestRetentionJobPrunesOldRows(t *testing.T) {
	mock := database.NewMockFacade()
	database.SetFacade(mock)
	defer database.SetFacade(nil)

	now := time.Now()
	mock.ReportMock.Reports = []*model.AnalysisReports{
		{RunID: "old", StartedAt: now.Add(-45 * 24 * time.Hour)},
		{RunID: "fresh", StartedAt: now.Add(-time.Hour)},
	}
	mock.DispatchMock.Dispatches = []*model.AlertDispatches{
		{Component: "cpu", CreatedAt: now.Add(-45 * 24 * time.Hour)},
		{Component: "memory", CreatedAt: now.Add(-time.Hour)},
	}

	job := NewRetentionJob()
	assert.Equal(t, "@daily", job.Schedule())
	require.NoError(t, job.Run(context.Background()))

	require.Len(t, mock.ReportMock.Reports, 1)
	assert.Equal(t, "fresh", mock.ReportMock.Reports[0].RunID)
	require.Len(t, mock.DispatchMock.Dispatches, 1)
	assert.Equal(t, "memory", mock.DispatchMock.Dispatches[0].Component)
}
