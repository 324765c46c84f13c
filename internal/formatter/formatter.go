// package formatter renders deduplication results and run summaries as CSV, Markdown, or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/kwdl/internal/dedupe"
	"github.com/desertthunder/kwdl/internal/shared"
	"github.com/desertthunder/kwdl/internal/tasks"
)

// variantSep joins variants inside a single CSV cell.
const variantSep = " | "

// DedupeCSV converts a deduplication result to CSV with columns: Key, Kept, Variants, Removed
func DedupeCSV(result *dedupe.Result) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Key", "Kept", "Variants", "Removed"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, g := range result.Groups {
		record := []string{
			g.Key,
			g.Kept,
			strings.Join(g.Variants, variantSep),
			strconv.Itoa(len(g.Removed())),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// DedupeMarkdown converts a deduplication result to Markdown, listing only groups that merged variants
func DedupeMarkdown(result *dedupe.Result) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Deduplication Report\n\n")
	buf.WriteString(fmt.Sprintf("**Original**: %d\n", result.Original))
	buf.WriteString(fmt.Sprintf("**Kept**: %d\n", result.Kept()))
	buf.WriteString(fmt.Sprintf("**Removed**: %d\n\n", result.Removed()))

	merged := 0
	for _, g := range result.Groups {
		removed := g.Removed()
		if len(removed) == 0 {
			continue
		}
		if merged == 0 {
			buf.WriteString("## Merged\n\n")
		}
		merged++

		buf.WriteString(fmt.Sprintf("%d. **%s**\n", merged, g.Kept))
		for _, r := range removed {
			buf.WriteString(fmt.Sprintf("   - ~~%s~~\n", r))
		}
	}

	if merged == 0 {
		buf.WriteString("No duplicates found.\n")
	}

	return buf.Bytes(), nil
}

// DedupeText renders the counts block printed after deduplicating; target is where the titles were written.
func DedupeText(result *dedupe.Result, target string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Original list contains %d songs\n", result.Original))
	buf.WriteString(fmt.Sprintf("%d songs left after deduplication\n", result.Kept()))
	buf.WriteString(fmt.Sprintf("Removed %d duplicate or similar entries\n", result.Removed()))
	if target != "" {
		buf.WriteString(fmt.Sprintf("Result saved to %s\n", target))
	}

	return buf.Bytes(), nil
}

// RunText renders a run summary
func RunText(result *tasks.RunResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("File: %s\n", result.Path))
	buf.WriteString(fmt.Sprintf("Total lines: %d\n", result.TotalLines))
	buf.WriteString(fmt.Sprintf("Started at line: %d\n", result.StartCursor+1))
	buf.WriteString(fmt.Sprintf("Attempted: %d\n", result.Attempted))
	buf.WriteString(fmt.Sprintf("Succeeded: %d\n", result.Succeeded))
	buf.WriteString(fmt.Sprintf("Skipped blank: %d\n", result.Skipped))

	if result.Failed != nil {
		buf.WriteString(fmt.Sprintf("Failed at line %d: %s\n", result.Failed.Index+1, result.Failed.Title))
		if result.Failed.Err != nil {
			buf.WriteString(fmt.Sprintf("Reason: %v\n", result.Failed.Err))
		}
		buf.WriteString(fmt.Sprintf("Next run resumes at line %d\n", result.EndCursor+1))
	}
	buf.WriteString(fmt.Sprintf("Status: %s\n", result.Status))

	return buf.Bytes(), nil
}

// WriteDedupeReport writes a deduplication report, choosing the format from the file extension
// (.csv, .md or .txt).
func WriteDedupeReport(result *dedupe.Result, path, target string) error {
	var (
		data []byte
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		data, err = DedupeCSV(result)
	case ".md", ".markdown":
		data, err = DedupeMarkdown(result)
	case ".txt":
		data, err = DedupeText(result, target)
	default:
		return fmt.Errorf("%w: unsupported report format %q (use .csv, .md or .txt)", shared.ErrInvalidArgument, ext)
	}
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}
