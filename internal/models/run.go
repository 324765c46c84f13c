package models

import (
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of a [Run].
type RunStatus string

const (
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunFailed      RunStatus = "failed"      // a work unit reported failure and the run halted
	RunInterrupted RunStatus = "interrupted" // the caller cancelled between lines
	RunErrored     RunStatus = "error"       // input or progress store failure
)

// Valid reports whether s is a known status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunRunning, RunCompleted, RunFailed, RunInterrupted, RunErrored:
		return true
	}
	return false
}

// RunStats are the counters collected while a run walks its file.
type RunStats struct {
	TotalLines  int
	StartCursor int
	EndCursor   int
	Attempted   int
	Succeeded   int
	Skipped     int
}

// Run is the persisted history record of one pass over one title file.
type Run struct {
	id           string
	sequence     int
	path         string
	status       RunStatus
	stats        RunStats
	failedLine   *int
	failedTitle  string
	errorMessage string
	startedAt    time.Time
	completedAt  *time.Time
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

var _ Model = (*Run)(nil)

// NewRun creates a running [Run] for path starting at the given cursor.
func NewRun(sequence int, path string, totalLines, startCursor int) *Run {
	now := time.Now()
	return &Run{
		sequence: sequence,
		path:     path,
		status:   RunRunning,
		stats: RunStats{
			TotalLines:  totalLines,
			StartCursor: startCursor,
			EndCursor:   startCursor,
		},
		startedAt: now,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *Run) ID() string              { return r.id }
func (r *Run) Sequence() int           { return r.sequence }
func (r *Run) Path() string            { return r.path }
func (r *Run) Status() RunStatus       { return r.status }
func (r *Run) Stats() RunStats         { return r.stats }
func (r *Run) FailedLine() *int        { return r.failedLine }
func (r *Run) FailedTitle() string     { return r.failedTitle }
func (r *Run) ErrorMessage() string    { return r.errorMessage }
func (r *Run) StartedAt() time.Time    { return r.startedAt }
func (r *Run) CompletedAt() *time.Time { return r.completedAt }
func (r *Run) CreatedAt() time.Time    { return r.createdAt }
func (r *Run) UpdatedAt() time.Time    { return r.updatedAt }
func (r *Run) DeletedAt() *time.Time   { return r.deletedAt }

func (r *Run) SetID(id string)               { r.id = id }
func (r *Run) SetSequence(seq int)           { r.sequence = seq }
func (r *Run) SetStatus(s RunStatus)         { r.status = s }
func (r *Run) SetStats(s RunStats)           { r.stats = s }
func (r *Run) SetStartedAt(t time.Time)      { r.startedAt = t }
func (r *Run) SetCompletedAt(t *time.Time)   { r.completedAt = t }
func (r *Run) SetCreatedAt(t time.Time)      { r.createdAt = t }
func (r *Run) SetUpdatedAt(t time.Time)      { r.updatedAt = t }
func (r *Run) SetDeletedAt(t *time.Time)     { r.deletedAt = t }
func (r *Run) SetErrorMessage(msg string)    { r.errorMessage = msg }
func (r *Run) SetFailure(line int, t string) { r.failedLine, r.failedTitle = &line, t }

// Finish moves the run to a terminal status and stamps its completion time.
func (r *Run) Finish(status RunStatus, stats RunStats) {
	now := time.Now()
	r.status = status
	r.stats = stats
	r.completedAt = &now
	r.updatedAt = now
}

// Validate checks if the run's data is valid.
func (r *Run) Validate() error {
	if r.path == "" {
		return fmt.Errorf("run path is required")
	}
	if !r.status.Valid() {
		return fmt.Errorf("invalid run status %q", r.status)
	}
	if r.stats.StartCursor < 0 || r.stats.EndCursor < 0 {
		return fmt.Errorf("run cursors must not be negative")
	}
	if r.stats.EndCursor < r.stats.StartCursor {
		return fmt.Errorf("run end cursor %d precedes start cursor %d", r.stats.EndCursor, r.stats.StartCursor)
	}
	if r.status == RunFailed && r.failedLine == nil {
		return fmt.Errorf("failed run must record the failed line")
	}
	return nil
}
