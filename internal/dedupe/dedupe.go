package dedupe

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TitleGroup is every raw title sharing one normalized key, plus the one currently kept.
type TitleGroup struct {
	Key      string   // Normalized form shared by all variants
	Kept     string   // Canonical representative
	Variants []string // Every raw title seen for Key, in input order (Kept included)
}

// Removed returns the variants that lost to Kept. Identical repeats are listed once per occurrence.
func (g TitleGroup) Removed() []string {
	removed := make([]string, 0, len(g.Variants))
	skipped := false
	for _, v := range g.Variants {
		if v == g.Kept && !skipped {
			skipped = true
			continue
		}
		removed = append(removed, v)
	}
	return removed
}

// Result is the outcome of grouping a title list.
type Result struct {
	Groups   []TitleGroup // One group per key, in order of first encounter
	Original int          // Number of input titles
}

// Titles returns the canonical titles in first-encounter order.
func (r *Result) Titles() []string {
	titles := make([]string, len(r.Groups))
	for i, g := range r.Groups {
		titles[i] = g.Kept
	}
	return titles
}

// Kept is the number of titles left after deduplication.
func (r *Result) Kept() int { return len(r.Groups) }

// Removed is the number of titles dropped as duplicates or near-duplicates.
func (r *Result) Removed() int { return r.Original - len(r.Groups) }

// Group buckets titles by [Normalize] and picks each bucket's representative with [IsBetter].
//
// A later title replaces the kept one only when IsBetter says so. Group order is the order in
// which each key first appeared, regardless of which variant ends up kept.
func Group(titles []string) *Result {
	index := make(map[string]int, len(titles))
	result := &Result{Groups: make([]TitleGroup, 0, len(titles)), Original: len(titles)}

	for _, title := range titles {
		key := Normalize(title)

		i, seen := index[key]
		if !seen {
			index[key] = len(result.Groups)
			result.Groups = append(result.Groups, TitleGroup{Key: key, Kept: title, Variants: []string{title}})
			continue
		}

		g := &result.Groups[i]
		g.Variants = append(g.Variants, title)
		if IsBetter(title, g.Kept) {
			g.Kept = title
		}
	}

	return result
}

// Deduplicate returns one canonical title per normalized key, in first-encounter order.
//
// It is a pure function of titles: the same slice always yields the same output.
func Deduplicate(titles []string) []string {
	return Group(titles).Titles()
}

// ReadTitles reads one title per line, trimming whitespace and dropping blank lines.
func ReadTitles(r io.Reader) ([]string, error) {
	var titles []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			titles = append(titles, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read titles: %w", err)
	}
	return titles, nil
}

// WriteTitles writes titles one per line.
func WriteTitles(w io.Writer, titles []string) error {
	bw := bufio.NewWriter(w)
	for _, t := range titles {
		if _, err := bw.WriteString(t + "\n"); err != nil {
			return fmt.Errorf("failed to write title: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush titles: %w", err)
	}
	return nil
}
