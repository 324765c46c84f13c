package shared

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestAbsPath(t *testing.T) {
	t.Run("relative path is resolved", func(t *testing.T) {
		got, err := AbsPath("songs.txt")
		if err != nil {
			t.Fatalf("AbsPath() error = %v", err)
		}
		if !filepath.IsAbs(got) {
			t.Errorf("AbsPath() = %s, want absolute path", got)
		}
	})

	t.Run("equivalent paths collapse", func(t *testing.T) {
		dir := t.TempDir()
		a, _ := AbsPath(filepath.Join(dir, "x", "..", "songs.txt"))
		b, _ := AbsPath(filepath.Join(dir, "songs.txt"))
		if a != b {
			t.Errorf("AbsPath() gave %s and %s for the same file", a, b)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if _, err := AbsPath(""); !errors.Is(err, ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestFileLock(t *testing.T) {
	t.Run("second acquire fails while held", func(t *testing.T) {
		dir := t.TempDir()

		first, err := AcquireFileLock(dir, "/music/songs.txt")
		if err != nil {
			t.Fatalf("AcquireFileLock() error = %v", err)
		}

		if _, err := AcquireFileLock(dir, "/music/songs.txt"); !errors.Is(err, ErrRunInProgress) {
			t.Errorf("expected ErrRunInProgress, got %v", err)
		}

		if err := first.Release(); err != nil {
			t.Fatalf("Release() error = %v", err)
		}

		again, err := AcquireFileLock(dir, "/music/songs.txt")
		if err != nil {
			t.Fatalf("AcquireFileLock() after release error = %v", err)
		}
		again.Release()
	})

	t.Run("different files do not contend", func(t *testing.T) {
		dir := t.TempDir()
		a, err := AcquireFileLock(dir, "/music/a.txt")
		if err != nil {
			t.Fatalf("AcquireFileLock(a) error = %v", err)
		}
		defer a.Release()

		b, err := AcquireFileLock(dir, "/music/b.txt")
		if err != nil {
			t.Fatalf("AcquireFileLock(b) error = %v", err)
		}
		defer b.Release()

		if a.Path() == b.Path() {
			t.Error("expected distinct lock files")
		}
	})

	t.Run("nil release", func(t *testing.T) {
		var l *FileLock
		if err := l.Release(); err != nil {
			t.Errorf("nil Release() error = %v", err)
		}
	})
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := WithLogger(NewLogger(&buf), "run", "abc")
	logger.Info("started")

	if !strings.Contains(buf.String(), "run=abc") {
		t.Errorf("expected child logger fields in output, got %q", buf.String())
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "kwdl.log")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	logger.Info("hello")
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b || len(a) != 36 {
		t.Errorf("unexpected ids %q %q", a, b)
	}
}
