package ingest

import (
	"time"
)

const (
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Run reports one bulk import.
type Run struct {
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
	Requested  int
	Added      int
	Duplicates int
	Failed     []Failure
	Error      string
}

// Failure is one ISBN that could not be added.
type Failure struct {
	ISBN   string
	Reason string
}
