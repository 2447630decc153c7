package database

import (
	"github.com/perflens/bottleneck-analyzer/pkg/database/model"
	"github.com/perflens/bottleneck-analyzer/pkg/errors"
	"github.com/perflens/bottleneck-analyzer/pkg/sql"
)

// AutoMigrate creates or updates the schema for all persisted models.
// An unreachable or unwritable baseline store is fatal to the run.
func AutoMigrate() error {
	db := sql.GetDefaultDB()
	if db == nil {
		return errors.NewError().
			WithCode(errors.CodeDatabaseError).
			WithMessage("database not initialized")
	}
	err := db.AutoMigrate(
		&model.MetricBaselines{},
		&model.AlertDispatches{},
		&model.AnalysisReports{},
	)
	if err != nil {
		return errors.NewError().
			WithCode(errors.CodeDatabaseError).
			WithMessage("schema migration failed").
			WithError(err)
	}
	return nil
}
