package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// GenerationRunStatus represents lifecycle phases for a generation run.
type GenerationRunStatus string

const (
	GenerationRunStatusPending   GenerationRunStatus = "PENDING"
	GenerationRunStatusRunning   GenerationRunStatus = "RUNNING"
	GenerationRunStatusCompleted GenerationRunStatus = "COMPLETED"
	GenerationRunStatusFailed    GenerationRunStatus = "FAILED"
)

// GenerationRun records one invocation of the timetable generator, including
// the serialized summary once the run completes.
type GenerationRun struct {
	ID           string              `db:"id" json:"id"`
	Stream       string              `db:"stream" json:"stream"`
	Semester     int                 `db:"semester" json:"semester"`
	AcademicYear string              `db:"academic_year" json:"academic_year"`
	Status       GenerationRunStatus `db:"status" json:"status"`
	Summary      types.JSONText      `db:"summary" json:"summary,omitempty"`
	FailReason   *string             `db:"fail_reason" json:"fail_reason,omitempty"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `db:"updated_at" json:"updated_at"`
}
