package model

import (
	"time"

	"gorm.io/datatypes"
)

// Transition triggers.
const (
	TriggerScheduler = "scheduler"
	TriggerManual    = "manual"
)

// Transition log statuses.
const (
	TransitionSuccess = "success"
	TransitionNoop    = "noop"
	TransitionFailed  = "failed"
)

// PhaseTransitionLog audit row for one phase apply (phase_transition_logs table).
// A successful apply writes one row per target phase that received processes;
// ProcessIDs lists them.
type PhaseTransitionLog struct {
	ID          uint           `gorm:"primaryKey"                             json:"id"`
	FromPhaseID int            `gorm:"not null;index"                         json:"from_phase_id"`
	ToPhaseID   *int           `json:"to_phase_id,omitempty"`
	Trigger     string         `gorm:"type:varchar(20);not null"              json:"trigger"`
	Advanced    int            `gorm:"not null;default:0"                     json:"advanced"`
	Skipped     int            `gorm:"not null;default:0"                     json:"skipped"`
	Status      string         `gorm:"type:varchar(20);not null"              json:"status"`
	Error       string         `gorm:"type:varchar(1000);not null;default:''" json:"error,omitempty"`
	ProcessIDs  datatypes.JSON `json:"process_ids,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime"                json:"created_at"`
}

func (PhaseTransitionLog) TableName() string { return "phase_transition_logs" }
