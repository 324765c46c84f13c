package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/kwdl/internal/repositories"
	"github.com/desertthunder/kwdl/internal/shared"
	"github.com/urfave/cli/v3"
)

const timeLayout = "2006-01-02 15:04"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

// fileArg resolves a file argument to the absolute path cursors are keyed by.
func fileArg(cmd *cli.Command) (string, error) {
	file := cmd.StringArg("file")
	if file == "" {
		return "", fmt.Errorf("%w: file is required", shared.ErrMissingArgument)
	}
	return shared.AbsPath(file)
}

// ProgressList prints every saved cursor.
func (r *Runner) ProgressList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.progressStore(cmd.String("store"))
	if err != nil {
		return err
	}

	cursors, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(cursors) == 0 {
		r.writePlain("No saved progress.\n")
		return nil
	}

	rows := make([][]string, 0, len(cursors))
	for _, c := range cursors {
		rows = append(rows, []string{c.Path, strconv.Itoa(c.Line + 1), formatTime(c.UpdatedAt)})
	}
	r.writePlain("%s\n", renderTable(
		[]string{"File", "Next Line", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft},
	))
	return nil
}

// ProgressShow prints the cursor for a single file.
func (r *Runner) ProgressShow(ctx context.Context, cmd *cli.Command) error {
	path, err := fileArg(cmd)
	if err != nil {
		return err
	}
	store, err := r.progressStore(cmd.String("store"))
	if err != nil {
		return err
	}

	cursor, err := store.Load(ctx, path)
	if err != nil {
		return err
	}
	r.writePlain("File: %s\n", path)
	r.writePlain("Cursor: %d\n", cursor)
	r.writePlain("Next line: %d\n", cursor+1)
	return nil
}

// ProgressSet overwrites the cursor for a file. n is the 0-based index of the next line to process.
func (r *Runner) ProgressSet(ctx context.Context, cmd *cli.Command) error {
	path, err := fileArg(cmd)
	if err != nil {
		return err
	}

	raw := cmd.StringArg("n")
	if raw == "" {
		return fmt.Errorf("%w: cursor value is required", shared.ErrMissingArgument)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fmt.Errorf("%w: cursor must be a non-negative integer, got %q", shared.ErrInvalidArgument, raw)
	}

	store, err := r.progressStore(cmd.String("store"))
	if err != nil {
		return err
	}
	if err := store.Save(ctx, path, n); err != nil {
		return err
	}

	r.logger.Info("cursor set", "path", path, "cursor", n)
	r.writePlain("✓ %s will resume at line %d\n", filepath.Base(path), n+1)
	return nil
}

// ProgressReset removes the cursor for a file.
func (r *Runner) ProgressReset(ctx context.Context, cmd *cli.Command) error {
	path, err := fileArg(cmd)
	if err != nil {
		return err
	}
	store, err := r.progressStore(cmd.String("store"))
	if err != nil {
		return err
	}
	if err := store.Reset(ctx, path); err != nil {
		return err
	}

	r.logger.Info("cursor reset", "path", path)
	r.writePlain("✓ %s will start from line 1\n", filepath.Base(path))
	return nil
}

// ProgressHistory lists recorded runs, newest first.
func (r *Runner) ProgressHistory(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	criteria := map[string]any{"limit": cmd.Int("limit")}
	if cmd.String("file") != "" {
		path, err := shared.AbsPath(cmd.String("file"))
		if err != nil {
			return err
		}
		criteria["path"] = path
	}

	runs, err := repositories.NewRunRepository(db).List(criteria)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		r.writePlain("No runs recorded.\n")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		stats := run.Stats()
		failed := "-"
		if line := run.FailedLine(); line != nil {
			failed = fmt.Sprintf("%d: %s", *line+1, run.FailedTitle())
		} else if msg := run.ErrorMessage(); msg != "" {
			failed = msg
		}
		rows = append(rows, []string{
			"#" + strconv.Itoa(run.Sequence()),
			formatTime(run.StartedAt()),
			filepath.Base(run.Path()),
			string(run.Status()),
			fmt.Sprintf("%d → %d / %d", stats.StartCursor, stats.EndCursor, stats.TotalLines),
			strconv.Itoa(stats.Succeeded),
			failed,
		})
	}
	r.writePlain("%s\n", renderTable(
		[]string{"Run", "Started", "File", "Status", "Cursor", "Done", "Failed"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}
