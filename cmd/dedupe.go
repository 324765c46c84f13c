package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/kwdl/internal/dedupe"
	"github.com/desertthunder/kwdl/internal/formatter"
	"github.com/desertthunder/kwdl/internal/shared"
	"github.com/urfave/cli/v3"
)

// Dedupe reads a title list, keeps one canonical title per song and writes the reduced list.
func (r *Runner) Dedupe(ctx context.Context, cmd *cli.Command) error {
	input := cmd.StringArg("input")
	if input == "" {
		return fmt.Errorf("%w: input file is required", shared.ErrMissingArgument)
	}

	output := cmd.String("output")
	if output == "" {
		output = r.config.Dedupe.Output
	}
	if output == "" {
		return fmt.Errorf("%w: --output is required when dedupe.output is unset", shared.ErrMissingArgument)
	}

	distance := cmd.Int("suggest")
	if distance < 0 {
		distance = r.config.Dedupe.SuggestDistance
	}

	r.logger.Info("deduplicating", "input", input, "output", output)

	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInputFile, err)
	}
	titles, err := dedupe.ReadTitles(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInputFile, err)
	}

	result := dedupe.Group(titles)

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := dedupe.WriteTitles(out, result.Titles()); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	r.logger.Debug("deduplicated", "original", result.Original, "kept", result.Kept(), "removed", result.Removed())

	summary, err := formatter.DedupeText(result, output)
	if err != nil {
		return err
	}
	r.writePlain("%s", summary)

	if report := cmd.String("report"); report != "" {
		if err := formatter.WriteDedupeReport(result, report, output); err != nil {
			return err
		}
		r.writePlain("Report saved to %s\n", report)
	}

	if suggestions := dedupe.Similar(result.Groups, distance); len(suggestions) > 0 {
		r.writePlainln("Possible near-duplicates (review by hand):")
		rows := make([][]string, 0, len(suggestions))
		for _, s := range suggestions {
			rows = append(rows, []string{s.A, s.B, strconv.Itoa(s.Distance)})
		}
		r.writePlain("%s\n", renderTable(
			[]string{"Title", "Similar To", "Edits"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight},
		))
	}

	return nil
}
