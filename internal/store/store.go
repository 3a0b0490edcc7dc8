// Package store keeps a sqlite ledger of cross-match runs: one row per run,
// the matches it produced, and the outcome of each rendered figure.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps the run ledger database.
type Store struct {
	*sql.DB
}

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA temp_store = MEMORY",
	"PRAGMA foreign_keys = ON",
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	s := &Store{db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Run summarises one invocation of the pipeline.
type Run struct {
	ID                string
	CreatedAt         time.Time
	CataloguePath     string
	MatchRadiusArcsec float64
	CatalogueRows     int
	Detections        int
	Matched           int
}

// MatchRecord is one row of a run's match table.
type MatchRecord struct {
	Position         int
	FullName         string
	RA               float64
	Dec              float64
	SeparationArcsec float64
}

// RenderRecord is the outcome of drawing one figure. Error is empty on
// success.
type RenderRecord struct {
	Position   int
	FullName   string
	RadioImage string
	FigurePath string
	Error      string
}

// BeginRun inserts r with a fresh id and returns the id. CreatedAt defaults
// to now.
func (s *Store) BeginRun(ctx context.Context, r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.ExecContext(ctx, `
		INSERT INTO runs (run_id, created_at_ms, catalogue_path, match_radius_arcsec, catalogue_rows, detections, matched)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UnixMilli(), r.CataloguePath, r.MatchRadiusArcsec, r.CatalogueRows, r.Detections, r.Matched)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return r.ID, nil
}

// RecordMatches stores the match table of a run in one transaction.
func (s *Store) RecordMatches(ctx context.Context, runID string, rows []MatchRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO matches (run_id, position, full_name, ra, dec, separation_arcsec)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, m := range rows {
			if _, err := stmt.ExecContext(ctx, runID, m.Position, m.FullName, m.RA, m.Dec, m.SeparationArcsec); err != nil {
				return fmt.Errorf("failed to insert match %d: %w", m.Position, err)
			}
		}
		return nil
	})
}

// RecordRenders stores figure outcomes, replacing earlier outcomes for the
// same positions.
func (s *Store) RecordRenders(ctx context.Context, runID string, rows []RenderRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO renders (run_id, position, full_name, radio_image, figure_path, error)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, runID, r.Position, r.FullName, r.RadioImage, r.FigurePath, r.Error); err != nil {
				return fmt.Errorf("failed to insert render %d: %w", r.Position, err)
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Runs lists runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT run_id, created_at_ms, catalogue_path, match_radius_arcsec, catalogue_rows, detections, matched
		FROM runs ORDER BY created_at_ms DESC, run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var ms int64
		if err := rows.Scan(&r.ID, &ms, &r.CataloguePath, &r.MatchRadiusArcsec, &r.CatalogueRows, &r.Detections, &r.Matched); err != nil {
			return nil, err
		}
		r.CreatedAt = time.UnixMilli(ms)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Matches returns the match table of a run in position order.
func (s *Store) Matches(ctx context.Context, runID string) ([]MatchRecord, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT position, full_name, ra, dec, separation_arcsec
		FROM matches WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MatchRecord
	for rows.Next() {
		var m MatchRecord
		if err := rows.Scan(&m.Position, &m.FullName, &m.RA, &m.Dec, &m.SeparationArcsec); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Renders returns the figure outcomes of a run in position order.
func (s *Store) Renders(ctx context.Context, runID string) ([]RenderRecord, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT position, full_name, radio_image, figure_path, error
		FROM renders WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RenderRecord
	for rows.Next() {
		var r RenderRecord
		if err := rows.Scan(&r.Position, &r.FullName, &r.RadioImage, &r.FigurePath, &r.Error); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
