package models

import (
	"time"

	"github.com/google/uuid"
)

type IngestJob struct {
	ID             uuid.UUID `json:"id"`
	URL            string    `json:"url"`
	UpdateExisting bool      `json:"update_existing"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}

// IngestEvent types published on the status feed.
const (
	IngestEventStatus    = "status_update"
	IngestEventCompleted = "completed"
	IngestEventError     = "error"
)

type IngestEvent struct {
	Type         string       `json:"type"`
	JobID        uuid.UUID    `json:"job_id"`
	URL          string       `json:"url"`
	StepName     string       `json:"step_name,omitempty"`
	Stats        *IngestStats `json:"stats,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// IngestStats counts what happened to the chunks of one page.
type IngestStats struct {
	Chunks   int `json:"chunks"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}
