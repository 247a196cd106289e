package duckdb

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// RunParams are the analysis settings recorded with a run.
type RunParams struct {
	Version        string
	PoolMode       string
	MinR           float64
	MaxFDR         float64
	Direction      string
	Alpha          float64
	UniversePolicy string
}

// Run is a stored analysis run.
type Run struct {
	ID        string
	CreatedAt time.Time
	Params    RunParams
}

// Input is a file recorded against a run.
type Input struct {
	Role string
	FileFingerprint
}

// NewRun registers a run and returns its id.
func (s *Store) NewRun(params RunParams) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), params.Version, params.PoolMode,
		params.MinR, params.MaxFDR, params.Direction, params.Alpha, params.UniversePolicy)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// RecordInput records an input file used by a run under the given role
// (e.g. "expression", "annotation", "ontology").
func (s *Store) RecordInput(runID, role string, fp FileFingerprint) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO run_inputs VALUES (?, ?, ?, ?, ?)`,
		runID, role, fp.Path, fp.Size, fp.ModTime.UTC())
	if err != nil {
		return fmt.Errorf("insert run input: %w", err)
	}
	return nil
}

// Runs lists stored runs, newest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT
		run_id, created_at, version, pool_mode, min_r, max_fdr,
		direction, alpha, universe_policy
		FROM runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		p := &r.Params
		if err := rows.Scan(&r.ID, &r.CreatedAt, &p.Version, &p.PoolMode, &p.MinR, &p.MaxFDR,
			&p.Direction, &p.Alpha, &p.UniversePolicy); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Inputs returns the files recorded for a run, ordered by role and path.
func (s *Store) Inputs(runID string) ([]Input, error) {
	rows, err := s.db.Query(`SELECT role, path, size, mod_time
		FROM run_inputs WHERE run_id=? ORDER BY role, path`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run inputs: %w", err)
	}
	defer rows.Close()

	var inputs []Input
	for rows.Next() {
		var in Input
		if err := rows.Scan(&in.Role, &in.Path, &in.Size, &in.ModTime); err != nil {
			return nil, fmt.Errorf("scan run input: %w", err)
		}
		inputs = append(inputs, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run inputs: %w", err)
	}
	return inputs, nil
}
