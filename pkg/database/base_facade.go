package database

import (
	"github.com/perflens/bottleneck-analyzer/pkg/sql"
	"gorm.io/gorm"
)

// BaseFacade is the base structure for all facades, providing DB access
type BaseFacade struct{}

func (f *BaseFacade) getDB() *gorm.DB {
	return sql.GetDefaultDB()
}
