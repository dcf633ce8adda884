package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/squadify/internal/collab"
	"github.com/desertthunder/squadify/internal/models"
	"github.com/desertthunder/squadify/internal/shared"
)

const runColumns = `id, sequence, squad, seed, max_collab_size, min_frequency, min_share_factor, share_below_floor, member_count, created_at, updated_at, deleted_at`

// RunRepository implements models.Repository[*models.Run] for the compile archive.
//
// Runs are immutable once created; Delete is a soft delete.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run and its tracks with a generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cfg := run.Config()
	_, err = tx.Exec(`
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`,
		id,
		sequence,
		run.Squad(),
		run.SeedString(),
		cfg.MaxCollabSize,
		cfg.MinFrequency,
		cfg.MinShareFactor,
		cfg.ShareBelowFloor,
		run.MemberCount(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_tracks (run_id, position, external_id, title, artists, frequency, members, phase)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare track insert: %w", err)
	}
	defer stmt.Close()

	for _, track := range run.Tracks() {
		artists, err := json.Marshal(track.Artists)
		if err != nil {
			return fmt.Errorf("failed to encode artists: %w", err)
		}
		members, err := json.Marshal(track.Members)
		if err != nil {
			return fmt.Errorf("failed to encode members: %w", err)
		}

		if _, err := stmt.Exec(id, track.Position, track.ExternalID, track.Title, string(artists), track.Frequency, string(members), track.Phase); err != nil {
			return fmt.Errorf("failed to insert track %d: %w", track.Position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

// Get retrieves a run and its tracks by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ? AND deleted_at IS NULL`

	run, err := r.scanOne(r.db.QueryRow(query, id), id)
	if err != nil {
		return nil, err
	}
	return run, r.loadTracks(run)
}

// GetBySequence retrieves a run by its sequence number
func (r *RunRepository) GetBySequence(sequence int) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE sequence = ? AND deleted_at IS NULL`

	run, err := r.scanOne(r.db.QueryRow(query, sequence), fmt.Sprintf("#%d", sequence))
	if err != nil {
		return nil, err
	}
	return run, r.loadTracks(run)
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	now := time.Now()

	result, err := r.db.Exec(`UPDATE runs SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}

	return nil
}

// List retrieves runs matching the given criteria, newest first, excluding soft-deleted runs.
//
// Supported criteria: "squad" (string) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE deleted_at IS NULL`
	args := []any{}

	if squad, ok := criteria["squad"].(string); ok && squad != "" {
		query += " AND squad = ?"
		args = append(args, squad)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	// tracks are loaded after the cursor is closed so a single-connection pool does not block
	for _, run := range runs {
		if err := r.loadTracks(run); err != nil {
			return nil, err
		}
	}

	return runs, nil
}

func (r *RunRepository) loadTracks(run *models.Run) error {
	rows, err := r.db.Query(`
		SELECT position, external_id, title, artists, frequency, members, phase
		FROM run_tracks
		WHERE run_id = ?
		ORDER BY position ASC
	`, run.ID())
	if err != nil {
		return fmt.Errorf("failed to query run tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.RunTrack
	for rows.Next() {
		var (
			track            models.RunTrack
			artists, members string
		)
		if err := rows.Scan(&track.Position, &track.ExternalID, &track.Title, &artists, &track.Frequency, &members, &track.Phase); err != nil {
			return fmt.Errorf("failed to scan run track: %w", err)
		}
		if err := json.Unmarshal([]byte(artists), &track.Artists); err != nil {
			return fmt.Errorf("failed to decode artists of track %d: %w", track.Position, err)
		}
		if err := json.Unmarshal([]byte(members), &track.Members); err != nil {
			return fmt.Errorf("failed to decode members of track %d: %w", track.Position, err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}

	run.SetTracks(tracks)
	return nil
}

// scanOne scans a single row into a [models.Run]
func (r *RunRepository) scanOne(row *sql.Row, ref string) (*models.Run, error) {
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, ref)
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a runs row from either [sql.Row] or [sql.Rows]
func scanRun(s scanner) (*models.Run, error) {
	var (
		id          string
		sequence    int
		squad       string
		seed        string
		cfg         collab.Config
		memberCount int
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := s.Scan(&id, &sequence, &squad, &seed, &cfg.MaxCollabSize, &cfg.MinFrequency, &cfg.MinShareFactor, &cfg.ShareBelowFloor, &memberCount, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewRun(sequence, squad, 0, cfg, nil)
	if err := run.SetSeedString(seed); err != nil {
		return nil, err
	}
	run.SetID(id)
	run.SetMemberCount(memberCount)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}
