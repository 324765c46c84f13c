package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/kwdl/internal/shared"
)

// sequenced lists the tables that own a single-row <table>_sequence counter.
var sequenced = map[string]bool{"runs": true}

// NextSequence increments and returns the counter for table in one statement.
//
// Sequence numbers give runs a short, human-readable handle (run #42) used by `progress history`.
func NextSequence(db *sql.DB, table string) (int, error) {
	if !sequenced[table] {
		return 0, fmt.Errorf("%w: no sequence for table %q", shared.ErrInvalidArgument, table)
	}

	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)

	var sequence int
	if err := db.QueryRow(query).Scan(&sequence); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("sequence for %s is not initialized", table)
		}
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	return sequence, nil
}
