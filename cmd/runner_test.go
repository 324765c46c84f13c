package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/desertthunder/kwdl/internal/repositories"
	"github.com/desertthunder/kwdl/internal/shared"
	tu "github.com/desertthunder/kwdl/internal/testing"
	"github.com/urfave/cli/v3"
)

// newTestRunner returns a runner backed by an in-memory database, with the JSON store and locks in a temp dir.
func newTestRunner(t *testing.T, performer *tu.RecordingPerformer) (*Runner, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	config := shared.DefaultConfig()
	config.Progress.JSONPath = filepath.Join(dir, "progress.json")
	config.Progress.LockDir = filepath.Join(dir, "locks")
	config.Dedupe.Output = filepath.Join(dir, "deduplicated.txt")

	output := &bytes.Buffer{}
	opts := RunnerOpts{Config: config, Output: output, DB: db}
	if performer != nil {
		opts.Performer = performer
	}
	return NewRunner(opts), output
}

func runApp(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "kwdl", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"kwdl"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			performer := &tu.RecordingPerformer{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				Performer:  performer,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.performer != performer {
				t.Error("expected performer to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("database is opened lazily", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.db != nil {
				t.Error("expected no database before first use")
			}
			if err := runner.Close(); err != nil {
				t.Errorf("Close without a database should be a no-op, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln surrounds with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("next %d", 1); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "\nnext 1\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		var names []string
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names = append(names, cmd.Name)
		}

		want := []string{"setup", "dedupe", "run", "progress", "tui"}
		if !reflect.DeepEqual(names, want) {
			t.Errorf("registered %q, want %q", names, want)
		}
	})

	t.Run("storeKind", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		if kind, err := runner.storeKind(""); err != nil || kind != runner.config.Progress.Store {
			t.Errorf("storeKind(\"\") = %q, %v", kind, err)
		}
		if kind, err := runner.storeKind("json"); err != nil || kind != "json" {
			t.Errorf("storeKind(json) = %q, %v", kind, err)
		}
		if _, err := runner.storeKind("redis"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestDedupeCommand(t *testing.T) {
	t.Run("writes list, report and suggestions", func(t *testing.T) {
		runner, output := newTestRunner(t, nil)
		dir := t.TempDir()
		input := tu.WriteLines(t, dir, "songs.txt", "A (Movie X)", "A", "", "B")
		out := filepath.Join(dir, "out.txt")
		report := filepath.Join(dir, "report.md")

		if err := runApp(t, runner, "dedupe", "-o", out, "--report", report, "--suggest", "1", input); err != nil {
			t.Fatalf("dedupe failed: %v", err)
		}

		if got := tu.MustReadFile(t, out); got != "A\nB\n" {
			t.Errorf("deduplicated list = %q", got)
		}
		tu.AssertFileExists(t, report)

		text := output.String()
		for _, want := range []string{
			"Original list contains 3 songs",
			"2 songs left after deduplication",
			"Result saved to " + out,
			"Report saved to " + report,
			"Possible near-duplicates",
		} {
			if !strings.Contains(text, want) {
				t.Errorf("output missing %q, got:\n%s", want, text)
			}
		}
	})

	t.Run("defaults output from config", func(t *testing.T) {
		runner, _ := newTestRunner(t, nil)
		input := tu.WriteLines(t, t.TempDir(), "songs.txt", "x", "x")

		if err := runApp(t, runner, "dedupe", input); err != nil {
			t.Fatalf("dedupe failed: %v", err)
		}
		if got := tu.MustReadFile(t, runner.config.Dedupe.Output); got != "x\n" {
			t.Errorf("deduplicated list = %q", got)
		}
	})

	t.Run("missing input", func(t *testing.T) {
		runner, _ := newTestRunner(t, nil)
		err := runApp(t, runner, "dedupe", filepath.Join(t.TempDir(), "nope.txt"))
		if !errors.Is(err, shared.ErrInputFile) {
			t.Fatalf("expected ErrInputFile, got %v", err)
		}
	})

	t.Run("no input argument", func(t *testing.T) {
		runner, _ := newTestRunner(t, nil)
		if err := runApp(t, runner, "dedupe"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Fatalf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestRunCommand(t *testing.T) {
	t.Run("halts on failure and resumes after it", func(t *testing.T) {
		performer := &tu.RecordingPerformer{Fail: map[string]bool{"b": true}}
		runner, output := newTestRunner(t, performer)
		file := tu.WriteLines(t, t.TempDir(), "titles.txt", "a", "", "b", "c")

		if err := runApp(t, runner, "run", "--store", "json", file); err != nil {
			t.Fatalf("a failing title should not be a command error, got %v", err)
		}
		if !strings.Contains(output.String(), "Halted at line 3") {
			t.Errorf("expected halt header, got:\n%s", output.String())
		}
		if !strings.Contains(output.String(), "kwdl progress set "+file+" 2") {
			t.Errorf("expected retry hint, got:\n%s", output.String())
		}

		output.Reset()
		if err := runApp(t, runner, "run", "--store", "json", file); err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		if !strings.Contains(output.String(), "File Processing Complete!") {
			t.Errorf("expected completion header, got:\n%s", output.String())
		}
		if got, want := performer.Calls(), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
			t.Errorf("calls = %q, want %q", got, want)
		}
	})

	t.Run("sqlite store records history", func(t *testing.T) {
		runner, output := newTestRunner(t, &tu.RecordingPerformer{})
		file := tu.WriteLines(t, t.TempDir(), "titles.txt", "晴天", "稻香")

		if err := runApp(t, runner, "run", "--store", "sqlite", file); err != nil {
			t.Fatalf("run failed: %v", err)
		}

		output.Reset()
		if err := runApp(t, runner, "progress", "history"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		for _, want := range []string{"#1", "titles.txt", "completed"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("history missing %q, got:\n%s", want, output.String())
			}
		}
	})

	t.Run("json summary", func(t *testing.T) {
		runner, output := newTestRunner(t, &tu.RecordingPerformer{})
		file := tu.WriteLines(t, t.TempDir(), "titles.txt", "a")

		if err := runApp(t, runner, "run", "--store", "json", "--json", file); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		for _, want := range []string{`"status": "completed"`, `"end_cursor": 1`} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("summary missing %q, got:\n%s", want, output.String())
			}
		}
	})

	t.Run("dry run performs nothing", func(t *testing.T) {
		performer := &tu.RecordingPerformer{}
		runner, output := newTestRunner(t, performer)
		file := tu.WriteLines(t, t.TempDir(), "titles.txt", "a", "", "b")

		if err := runApp(t, runner, "run", "--store", "json", "--dry-run", file); err != nil {
			t.Fatalf("dry run failed: %v", err)
		}
		if !strings.Contains(output.String(), "Pending titles: 2") {
			t.Errorf("unexpected preview:\n%s", output.String())
		}
		if len(performer.Calls()) != 0 {
			t.Errorf("dry run performed %q", performer.Calls())
		}
	})

	t.Run("dryrun performer leaves the cursor alone", func(t *testing.T) {
		for _, args := range [][]string{
			{"run", "--store", "json"},
			{"run", "--store", "json", "--performer", "dryrun"},
		} {
			runner, output := newTestRunner(t, nil)
			if runner.config.Performer.Kind != "dryrun" {
				t.Fatalf("expected dryrun as the default kind, got %q", runner.config.Performer.Kind)
			}
			file := tu.WriteLines(t, t.TempDir(), "titles.txt", "a", "b", "c")

			if err := runApp(t, runner, append(args, file)...); err != nil {
				t.Fatalf("%v failed: %v", args, err)
			}
			if !strings.Contains(output.String(), "Pending titles: 3") {
				t.Errorf("%v: expected a preview, got:\n%s", args, output.String())
			}

			store := repositories.NewFileProgressStore(runner.config.Progress.JSONPath, nil)
			cursor, err := store.Load(context.Background(), file)
			if err != nil {
				t.Fatalf("failed to load cursor: %v", err)
			}
			if cursor != 0 {
				t.Errorf("%v: expected cursor 0, got %d", args, cursor)
			}
			tu.AssertFileNotExists(t, runner.config.Progress.JSONPath)
		}
	})

	t.Run("tui refuses the dryrun performer", func(t *testing.T) {
		runner, _ := newTestRunner(t, nil)
		file := tu.WriteLines(t, t.TempDir(), "titles.txt", "a")
		if err := runApp(t, runner, "tui", "--store", "json", file); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("lock held by another run", func(t *testing.T) {
		runner, _ := newTestRunner(t, &tu.RecordingPerformer{})
		file := tu.WriteLines(t, t.TempDir(), "titles.txt", "a")

		lock, err := shared.AcquireFileLock(runner.config.Progress.LockDir, file)
		if err != nil {
			t.Fatalf("failed to take lock: %v", err)
		}
		defer lock.Release()

		if err := runApp(t, runner, "run", "--store", "json", file); !errors.Is(err, shared.ErrRunInProgress) {
			t.Fatalf("expected ErrRunInProgress, got %v", err)
		}
	})

	t.Run("missing file is fatal", func(t *testing.T) {
		runner, _ := newTestRunner(t, &tu.RecordingPerformer{})
		err := runApp(t, runner, "run", "--store", "json", filepath.Join(t.TempDir(), "nope.txt"))
		if !errors.Is(err, shared.ErrInputFile) {
			t.Fatalf("expected ErrInputFile, got %v", err)
		}
	})

	t.Run("unknown performer", func(t *testing.T) {
		runner, _ := newTestRunner(t, nil)
		file := tu.WriteLines(t, t.TempDir(), "titles.txt", "a")
		err := runApp(t, runner, "run", "--store", "json", "--performer", "keyboard", file)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestProgressCommands(t *testing.T) {
	for _, store := range []string{"json", "sqlite"} {
		t.Run(store, func(t *testing.T) {
			runner, output := newTestRunner(t, nil)
			file := tu.WriteLines(t, t.TempDir(), "titles.txt", "a", "b", "c", "d", "e")

			if err := runApp(t, runner, "progress", "list", "--store", store); err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if !strings.Contains(output.String(), "No saved progress.") {
				t.Errorf("expected empty list, got:\n%s", output.String())
			}

			output.Reset()
			if err := runApp(t, runner, "progress", "set", "--store", store, file, "4"); err != nil {
				t.Fatalf("set failed: %v", err)
			}
			if !strings.Contains(output.String(), "titles.txt will resume at line 5") {
				t.Errorf("unexpected set output:\n%s", output.String())
			}

			output.Reset()
			if err := runApp(t, runner, "progress", "show", "--store", store, file); err != nil {
				t.Fatalf("show failed: %v", err)
			}
			if !strings.Contains(output.String(), "Cursor: 4") {
				t.Errorf("unexpected show output:\n%s", output.String())
			}

			output.Reset()
			if err := runApp(t, runner, "progress", "list", "--store", store); err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if !strings.Contains(output.String(), file) || !strings.Contains(output.String(), "Next Line") {
				t.Errorf("unexpected list output:\n%s", output.String())
			}

			output.Reset()
			if err := runApp(t, runner, "progress", "reset", "--store", store, file); err != nil {
				t.Fatalf("reset failed: %v", err)
			}
			output.Reset()
			if err := runApp(t, runner, "progress", "show", "--store", store, file); err != nil {
				t.Fatalf("show failed: %v", err)
			}
			if !strings.Contains(output.String(), "Cursor: 0") {
				t.Errorf("expected cursor 0 after reset, got:\n%s", output.String())
			}
		})
	}

	t.Run("set rejects non-numeric cursor", func(t *testing.T) {
		runner, _ := newTestRunner(t, nil)
		err := runApp(t, runner, "progress", "set", "--store", "json", "titles.txt", "abc")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("history without runs", func(t *testing.T) {
		runner, output := newTestRunner(t, nil)
		if err := runApp(t, runner, "progress", "history", "--limit", "5"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(output.String(), "No runs recorded.") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})
}

func TestSetupDatabase(t *testing.T) {
	dir := t.TempDir()
	wd := tu.MustGetwd(t)
	tu.MustChdir(t, dir)
	defer tu.MustChdir(t, wd)

	runner, output := newTestRunner(t, nil)
	configPath := filepath.Join(dir, "config.toml")

	if err := runApp(t, runner, "setup", "-c", configPath); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	tu.AssertFileExists(t, configPath)
	tu.AssertFileExists(t, filepath.Join(dir, "kwdl.db"))
	if !strings.Contains(output.String(), "Setup complete") {
		t.Errorf("unexpected output:\n%s", output.String())
	}

	// a second setup reuses the existing config
	if err := runApp(t, runner, "setup", "-c", configPath); err != nil {
		t.Fatalf("second setup failed: %v", err)
	}
}

func TestRenderTable(t *testing.T) {
	if got := renderTable(nil, [][]string{{"x"}}, nil); got != "" {
		t.Errorf("expected empty table without headers, got %q", got)
	}

	got := renderTable(
		[]string{"Title", "Edits"},
		[][]string{{"晴天", "1"}, {"short row"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	for _, want := range []string{"Title", "Edits", "晴天", "short row"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
	for _, upper := range []string{"TITLE", "EDITS"} {
		if strings.Contains(got, upper) {
			t.Errorf("header rendered as %q, want it as written:\n%s", upper, got)
		}
	}
	if lines := strings.Split(got, "\n"); len(lines) != 6 {
		t.Errorf("expected 6 rendered lines (borders, header, 2 rows), got %d:\n%s", len(lines), got)
	}
}
