package store

import (
	"path/filepath"
	"testing"
	"time"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run with minimal required fields.
func createTestRun(id, scenario, verdict string, startedAt time.Time) Run {
	return Run{
		ID:         id,
		Scenario:   scenario,
		Verdict:    verdict,
		ConfigHash: "hash-" + id,
		StartedAt:  startedAt,
		Duration:   1500 * time.Millisecond,
	}
}
