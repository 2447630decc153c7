package jobs

import (
	"context"
	"time"

	"github.com/perflens/bottleneck-analyzer/pkg/database"
	"github.com/perflens/bottleneck-analyzer/pkg/logger/log"
)

const retentionWindow = 30 * 24 * time.Hour

// RetentionJob prunes aged report history and dispatch records
type RetentionJob struct{}

func NewRetentionJob() *RetentionJob {
	return &RetentionJob{}
}

func (j *RetentionJob) Schedule() string {
	return "@daily"
}

func (j *RetentionJob) Run(ctx context.Context) error {
	before := time.Now().Add(-retentionWindow)
	facade := database.GetFacade()

	if err := facade.GetReport().DeleteOldAnalysisReportss(ctx, before); err != nil {
		log.Errorf("RetentionJob: failed to prune reports: %v", err)
		return err
	}
	if err := facade.GetDispatch().DeleteOldAlertDispatchess(ctx, before); err != nil {
		log.Errorf("RetentionJob: failed to prune dispatches: %v", err)
		return err
	}
	log.Infof("RetentionJob: pruned records older than %s", before.Format(time.RFC3339))
	return nil
}
