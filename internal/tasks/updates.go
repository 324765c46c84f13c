package tasks

import (
	"fmt"

	"github.com/desertthunder/kwdl/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // 1-based line number within the file (0 before the first line)
	Total   int    // Total lines in the file
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadFile Phase = iota
	Resume
	PerformLine
	SkipLine
	LineDone
	LineFailed
	Halted
	Interrupted
	Complete
)

func (p Phase) String() string {
	switch p {
	case LoadFile:
		return "load_file"
	case Resume:
		return "resume"
	case PerformLine:
		return "perform_line"
	case SkipLine:
		return "skip_line"
	case LineDone:
		return "line_done"
	case LineFailed:
		return "line_failed"
	case Halted:
		return "halted"
	case Interrupted:
		return "interrupted"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func loadFileUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadFile,
		Message: fmt.Sprintf("Reading %s...", path),
	}
}

func resumeUpdate(cursor, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Resume,
		Step:    cursor,
		Total:   total,
		Message: fmt.Sprintf("File has %d lines, starting at line %d", total, cursor+1),
	}
}

func performUpdate(line Line, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PerformLine,
		Step:    line.Index + 1,
		Total:   total,
		Message: fmt.Sprintf("Processing line %d: %s", line.Index+1, line.Title),
		Data:    line,
	}
}

func skipUpdate(index, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SkipLine,
		Step:    index + 1,
		Total:   total,
		Message: fmt.Sprintf("Skipping blank line %d", index+1),
	}
}

func lineDoneUpdate(outcome LineOutcome, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LineDone,
		Step:    outcome.Index + 1,
		Total:   total,
		Message: fmt.Sprintf("Done: %s", outcome.Title),
		Data:    outcome,
	}
}

func lineFailedUpdate(outcome LineOutcome, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LineFailed,
		Step:    outcome.Index + 1,
		Total:   total,
		Message: fmt.Sprintf("Failed: %s (%v)", outcome.Title, outcome.Err),
		Data:    outcome,
	}
}

func finishedUpdate(result *RunResult) ProgressUpdate {
	u := ProgressUpdate{
		Step:  result.EndCursor,
		Total: result.TotalLines,
		Data:  result,
	}
	switch {
	case result.Failed != nil:
		u.Phase = Halted
		u.Message = fmt.Sprintf("Halted at line %d: %s", result.Failed.Index+1, result.Failed.Title)
	case result.Status == models.RunInterrupted:
		u.Phase = Interrupted
		u.Message = fmt.Sprintf("Interrupted before line %d", result.EndCursor+1)
	default:
		u.Phase = Complete
		u.Message = "File processing complete"
	}
	return u
}
