package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/squadify/internal/shared"
)

// sequenceTables maps entity tables to their sequence tables. Table names are never taken from input.
var sequenceTables = map[string]string{
	"runs": "runs_sequence",
}

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers give runs a short, human-readable handle (run #7) next to their UUIDs.
// The table must have a matching {table}_sequence table with a single row.
func NextSequence(db *sql.DB, table string) (int, error) {
	sequenceTable, ok := sequenceTables[table]
	if !ok {
		return 0, fmt.Errorf("%w: no sequence for table %q", shared.ErrInvalidArgument, table)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var sequence int
	err = tx.QueryRow("UPDATE " + sequenceTable + " SET value = value + 1 WHERE id = 1 RETURNING value").Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}
