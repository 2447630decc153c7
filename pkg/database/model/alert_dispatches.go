package model

import (
	"time"
)

const TableNameAlertDispatches = "alert_dispatches"

// Dispatch outcomes
const (
	DispatchOutcomePending    = "pending"
	DispatchOutcomeSent       = "sent"
	DispatchOutcomeFailed     = "failed"
	DispatchOutcomeSuppressed = "suppressed"
)

// AlertDispatches records every delivery attempt so repeated passes can be
// deduplicated within the cooldown window and audited afterwards
type AlertDispatches struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	ResultID     string    `gorm:"column:result_id;not null;index" json:"result_id"`
	RunID        string    `gorm:"column:run_id;index" json:"run_id"`
	Component    string    `gorm:"column:component;not null" json:"component"`
	MetricName   string    `gorm:"column:metric_name;not null" json:"metric_name"`
	Severity     string    `gorm:"column:severity;not null" json:"severity"`
	Channel      string    `gorm:"column:channel;not null" json:"channel"`
	Outcome      string    `gorm:"column:outcome;not null;default:pending" json:"outcome"`
	Attempts     int       `gorm:"column:attempts;not null;default:0" json:"attempts"`
	ErrorMessage string    `gorm:"column:error_message" json:"error_message"`
	Payload      ExtType   `gorm:"column:payload" json:"payload"`
	SentAt       time.Time `gorm:"column:sent_at" json:"sent_at"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
}

func (*AlertDispatches) TableName() string {
	return TableNameAlertDispatches
}
