package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/imgmatch/internal/models"
	"github.com/desertthunder/imgmatch/internal/shared"
)

var _ models.Repository[*models.MatchRun] = (*MatchRunRepository)(nil)

// MatchRunRepository implements models.Repository[*models.MatchRun] for submission history.
type MatchRunRepository struct {
	db *sql.DB
}

// NewMatchRunRepository creates a new MatchRunRepository with the given database connection
func NewMatchRunRepository(db *sql.DB) *MatchRunRepository {
	return &MatchRunRepository{db: db}
}

// Record stores a finished run.
//
// Satisfies tasks.RunRecorder.
func (r *MatchRunRepository) Record(run *models.MatchRun) error {
	return r.Create(run)
}

// Create inserts a new match run
func (r *MatchRunRepository) Create(run *models.MatchRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	gallery, err := encodeRefs(run.Gallery)
	if err != nil {
		return err
	}
	matches, err := encodeRefs(run.Matches)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO match_runs (id, reference_url, gallery_urls, matched_urls, state, error, elapsed_ms, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		run.ID(),
		string(run.Reference),
		gallery,
		matches,
		run.State.String(),
		run.Error,
		run.ElapsedMS,
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert match run: %w", err)
	}

	return nil
}

// Get retrieves a match run by ID
func (r *MatchRunRepository) Get(id string) (*models.MatchRun, error) {
	query := `
		SELECT id, reference_url, gallery_urls, matched_urls, state, error, elapsed_ms, created_at, updated_at
		FROM match_runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	return run, err
}

// Update rewrites the mutable fields of a match run
func (r *MatchRunRepository) Update(run *models.MatchRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	matches, err := encodeRefs(run.Matches)
	if err != nil {
		return err
	}

	run.Touch()

	result, err := r.db.Exec(`
		UPDATE match_runs
		SET matched_urls = ?, state = ?, error = ?, elapsed_ms = ?, updated_at = ?
		WHERE id = ?
	`, matches, run.State.String(), run.Error, run.ElapsedMS, run.UpdatedAt(), run.ID())
	if err != nil {
		return fmt.Errorf("failed to update match run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, run.ID())
	}

	return nil
}

// Delete removes a match run
func (r *MatchRunRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM match_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete match run: %w", err)
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

// List returns runs newest first.
//
// Supported criteria: "state" (string or [models.WorkflowState]) and "limit" (int).
func (r *MatchRunRepository) List(criteria map[string]any) ([]*models.MatchRun, error) {
	query := `
		SELECT id, reference_url, gallery_urls, matched_urls, state, error, elapsed_ms, created_at, updated_at
		FROM match_runs
	`
	var where []string
	var args []any

	if v, ok := criteria["state"]; ok {
		switch st := v.(type) {
		case string:
			where = append(where, "state = ?")
			args = append(args, st)
		case models.WorkflowState:
			where = append(where, "state = ?")
			args = append(args, st.String())
		default:
			return nil, fmt.Errorf("%w: state criteria must be a string or WorkflowState", shared.ErrInvalidInput)
		}
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	if v, ok := criteria["limit"]; ok {
		limit, ok := v.(int)
		if !ok || limit < 0 {
			return nil, fmt.Errorf("%w: limit must be a non-negative int", shared.ErrInvalidInput)
		}
		if limit > 0 {
			query += " LIMIT ?"
			args = append(args, limit)
		}
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list match runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.MatchRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate match runs: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.MatchRun, error) {
	var (
		id, reference, gallery, matches, state, errMsg string
		elapsed                                        float64
		createdAt, updatedAt                           time.Time
	)

	if err := s.Scan(&id, &reference, &gallery, &matches, &state, &errMsg, &elapsed, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan match run: %w", err)
	}

	run := models.RestoreMatchRun(id, createdAt, updatedAt)
	run.Reference = models.ImageReference(reference)
	run.Error = errMsg
	run.ElapsedMS = elapsed

	var err error
	if run.Gallery, err = decodeRefs(gallery); err != nil {
		return nil, err
	}
	if run.Matches, err = decodeRefs(matches); err != nil {
		return nil, err
	}
	if run.State, err = models.ParseWorkflowState(state); err != nil {
		return nil, err
	}

	return run, nil
}
