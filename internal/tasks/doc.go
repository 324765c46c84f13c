// Package tasks runs title files through an external work unit, one line at a time, with real-time progress reporting.
//
// # Core Operations
//
// [BatchProcessor] exposes two operations:
//
//  1. [BatchProcessor.Process] : Resumable run over a title file
//     - Loads the stored cursor for the file path (0 when absent)
//     - Hands every non-blank line at or past the cursor to the [Performer]
//     - Persists cursor = index+1 after each line, including blank ones
//     - Halts on the first failure; the failed line is not retried on the next run
//
//  2. [BatchProcessor.Pending] : Preview of what a run would perform
//     - Reads the file and cursor without invoking or persisting anything
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, line counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Run History
//
// The optional [RunRecorder] interface persists one record per run (repositories.RunRepository).
// Recorder errors are logged and never interrupt a run.
//
// # Implementation
//
// [BatchProcessor] depends on:
//   - [ProgressStore] : Cursor persistence (repositories.ProgressRepository or repositories.FileProgressStore)
//   - [Performer] : The per-title work unit (see package automation)
//   - [RunRecorder] : Optional run history
package tasks
