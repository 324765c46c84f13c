package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/kwdl/internal/formatter"
	"github.com/desertthunder/kwdl/internal/shared"
	"github.com/desertthunder/kwdl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// runSummary is the --json shape of a [tasks.RunResult].
type runSummary struct {
	RunID       string      `json:"run_id,omitempty"`
	Path        string      `json:"path"`
	Status      string      `json:"status"`
	TotalLines  int         `json:"total_lines"`
	StartCursor int         `json:"start_cursor"`
	EndCursor   int         `json:"end_cursor"`
	Attempted   int         `json:"attempted"`
	Succeeded   int         `json:"succeeded"`
	Skipped     int         `json:"skipped"`
	Failed      *failedLine `json:"failed,omitempty"`
	Error       string      `json:"error,omitempty"`
}

type failedLine struct {
	Line   int    `json:"line"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

func newRunSummary(result *tasks.RunResult, runErr error) runSummary {
	s := runSummary{
		RunID:       result.RunID,
		Path:        result.Path,
		Status:      string(result.Status),
		TotalLines:  result.TotalLines,
		StartCursor: result.StartCursor,
		EndCursor:   result.EndCursor,
		Attempted:   result.Attempted,
		Succeeded:   result.Succeeded,
		Skipped:     result.Skipped,
	}
	if f := result.Failed; f != nil {
		s.Failed = &failedLine{Line: f.Index + 1, Title: f.Title}
		if f.Err != nil {
			s.Failed.Reason = f.Err.Error()
		}
	}
	if runErr != nil {
		s.Error = runErr.Error()
	}
	return s
}

// Run processes a title file from its saved cursor.
//
// A failing title halts the run but is not an error: the summary says where to pick up and the
// command exits 0. Unreadable input, a failed cursor write or a held lock are returned as errors.
// The dryrun performer only previews the queue and never moves the cursor.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	file := cmd.StringArg("file")
	if file == "" {
		return fmt.Errorf("%w: title file is required", shared.ErrMissingArgument)
	}
	path, err := shared.AbsPath(file)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInputFile, err)
	}

	processor, err := r.newProcessor(cmd.String("store"), cmd.String("performer"))
	if err != nil {
		return err
	}

	if cmd.Bool("dry-run") {
		return r.preview(ctx, processor, path)
	}
	// the dryrun performer never advances the cursor
	if r.dryRunPerformer(cmd.String("performer")) {
		r.logger.Warn("performer is dryrun, previewing without saving progress", "path", path)
		return r.preview(ctx, processor, path)
	}

	lock, err := shared.AcquireFileLock(r.config.Progress.LockDir, path)
	if err != nil {
		return err
	}
	defer lock.Release()

	asJSON := cmd.Bool("json")
	r.logger.Info("starting run", "path", path, "lock", lock.Path())

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if asJSON {
				continue
			}
			switch update.Phase {
			case tasks.Resume:
				r.writePlain("📄 %s\n\n", update.Message)
			case tasks.PerformLine:
				r.writePlain("▶ [%d/%d] %s\n", update.Step, update.Total, update.Message)
			case tasks.LineDone:
				r.writePlain("  ✓ %s\n", update.Message)
			case tasks.LineFailed:
				r.writePlain("  ✗ %s\n", update.Message)
			}
		}
	}()

	result, runErr := processor.Process(ctx, path, progressCh)
	close(progressCh)
	<-done

	if result == nil {
		return runErr
	}

	interrupted := errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)

	if asJSON {
		if err := r.writeJSON(newRunSummary(result, runErr), true); err != nil {
			return err
		}
	} else {
		summary, err := formatter.RunText(result)
		if err != nil {
			return err
		}
		r.writePlain("\n")
		switch {
		case result.Failed != nil:
			r.writePlainHeader(fmt.Sprintf("Halted at line %d", result.Failed.Index+1))
		case interrupted:
			r.writePlainHeader("Interrupted")
		case runErr != nil:
			r.writePlainHeader("Run Aborted")
		default:
			r.writePlainHeader("File Processing Complete!")
		}
		r.writePlain("%s", summary)
	}

	if result.Failed != nil && !asJSON {
		r.writePlainln("Line %d is not retried automatically. To retry it: kwdl progress set %s %d", result.Failed.Index+1, path, result.Failed.Index)
	}
	if interrupted {
		r.logger.Warn("run interrupted", "next_line", result.EndCursor+1)
		return nil
	}
	return runErr
}

// preview lists the titles a run would perform without touching the cursor.
func (r *Runner) preview(ctx context.Context, processor *tasks.BatchProcessor, path string) error {
	pending, cursor, err := processor.Pending(ctx, path)
	if err != nil {
		return err
	}

	r.writePlainHeader("Dry Run")
	r.writePlain("File: %s\n", path)
	r.writePlain("Starting at line: %d\n", cursor+1)
	r.writePlain("Pending titles: %d\n\n", len(pending))

	for _, line := range pending {
		r.writePlain("%5d  %s\n", line.Index+1, line.Title)
	}
	return nil
}
