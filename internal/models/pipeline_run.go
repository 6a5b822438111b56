package models

import "time"

// PipelineRun represents one execution of the survey normalization job
type PipelineRun struct {
	ID int64 `json:"id" db:"id"`

	Trigger string `json:"trigger" db:"trigger"` // cli, api, startup
	Status  string `json:"status" db:"status"`   // pending, running, completed, failed

	// Inputs
	RawPath        string `json:"raw_path" db:"raw_path"`
	ModalitiesPath string `json:"modalities_path" db:"modalities_path"`

	// Counts
	InputRows         int `json:"input_rows" db:"input_rows"`
	OutputRows        int `json:"output_rows" db:"output_rows"`
	DroppedDuplicates int `json:"dropped_duplicates" db:"dropped_duplicates"`
	DroppedIncomplete int `json:"dropped_incomplete" db:"dropped_incomplete"`
	DroppedUnmapped   int `json:"dropped_unmapped" db:"dropped_unmapped"`

	// Results
	OutputPath     string `json:"output_path,omitempty" db:"output_path"`
	OutputChecksum string `json:"output_checksum,omitempty" db:"output_checksum"` // sha256 hex
	ErrorMessage   string `json:"error_message,omitempty" db:"error_message"`

	StartTime int64 `json:"start_time,omitempty" db:"start_time"` // Unix timestamp
	EndTime   int64 `json:"end_time,omitempty" db:"end_time"`     // Unix timestamp

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Run trigger constants
const (
	RunTriggerCLI     = "cli"
	RunTriggerAPI     = "api"
	RunTriggerStartup = "startup"
)

// Run status constants
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)
