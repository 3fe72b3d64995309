package store

import (
	"context"
	"fmt"
	"time"
)

// Run is one recorded scenario run.
type Run struct {
	ID         string        `json:"id"`
	Scenario   string        `json:"scenario"`
	Verdict    string        `json:"verdict"` // "PASSED" or "FAILED"
	ConfigHash string        `json:"config_hash,omitempty"`
	Artifact   string        `json:"artifact,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// RecordRun inserts a run. Recording the same id twice is a no-op.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, scenario, verdict, config_hash, artifact, error, started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Scenario,
		run.Verdict,
		run.ConfigHash,
		run.Artifact,
		run.Error,
		run.StartedAt.UnixNano(),
		int64(run.Duration),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// ListRuns returns runs newest first. An empty scenario lists every
// scenario; limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, scenario string, limit int) ([]Run, error) {
	query := `
		SELECT id, scenario, verdict, config_hash, artifact, error, started_at, duration_ns
		FROM runs`
	var args []any
	if scenario != "" {
		query += " WHERE scenario = ?"
		args = append(args, scenario)
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			r          Run
			startedAt  int64
			durationNS int64
		)
		if err := rows.Scan(&r.ID, &r.Scenario, &r.Verdict, &r.ConfigHash, &r.Artifact, &r.Error, &startedAt, &durationNS); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		r.StartedAt = time.Unix(0, startedAt).UTC()
		r.Duration = time.Duration(durationNS)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// LastPassed returns the most recent passing run of scenario. ok is false if
// the scenario never passed.
func (s *Store) LastPassed(ctx context.Context, scenario string) (run Run, ok bool, err error) {
	runs, err := s.ListRuns(ctx, scenario, 0)
	if err != nil {
		return Run{}, false, err
	}
	for _, r := range runs {
		if r.Verdict == "PASSED" {
			return r, true, nil
		}
	}
	return Run{}, false, nil
}
