package harness

import (
	"time"

	"github.com/etamimi93/openmc/internal/tally"
)

// State is a step of the scenario state machine.
type State string

const (
	StateBuilding   State = "BUILDING"
	StateConfigured State = "CONFIGURED"
	StateRunning    State = "RUNNING"
	StateCompleted  State = "COMPLETED"
	StatePassed     State = "PASSED"
	StateFailed     State = "FAILED"
	StateCleaned    State = "CLEANED"
)

// Transition is one recorded state change.
type Transition struct {
	Seq  int64 `json:"seq"`
	From State `json:"from,omitempty"`
	To   State `json:"to"`
}

// Builder populates a specification for one scenario.
type Builder interface {
	Build(spec *tally.Specification) error
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(spec *tally.Specification) error

// Build implements Builder.
func (f BuilderFunc) Build(spec *tally.Specification) error {
	return f(spec)
}

// Result is the outcome of one scenario run.
type Result struct {
	Scenario string `json:"scenario"`
	RunID    string `json:"run_id"`

	// Pass is true only for a PASSED verdict.
	Pass    bool  `json:"pass"`
	Verdict State `json:"verdict"`

	// Transitions lists every state change in order, ending with CLEANED.
	Transitions []Transition `json:"transitions"`

	// ConfigHash identifies the serialized configuration.
	ConfigHash string `json:"config_hash,omitempty"`

	// Artifact is the result artifact that was compared.
	Artifact string `json:"artifact,omitempty"`

	// Updated is set when the run regenerated the reference instead of
	// comparing against it.
	Updated bool `json:"updated,omitempty"`

	// Removed lists the artifacts deleted during cleanup.
	Removed []string `json:"removed,omitempty"`

	// Errors holds human-readable failure messages.
	Errors []string `json:"errors,omitempty"`

	// Err is the failure cause of a FAILED verdict.
	Err error `json:"-"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

func newResult(scenario, runID string) *Result {
	return &Result{
		Scenario:    scenario,
		RunID:       runID,
		Transitions: []Transition{},
		Errors:      []string{},
		StartedAt:   time.Now(),
	}
}

// State returns the current state.
func (r *Result) State() State {
	if len(r.Transitions) == 0 {
		return ""
	}
	return r.Transitions[len(r.Transitions)-1].To
}

func (r *Result) enter(s State) {
	r.Transitions = append(r.Transitions, Transition{
		Seq:  int64(len(r.Transitions) + 1),
		From: r.State(),
		To:   s,
	})
}

func (r *Result) fail(err error) {
	r.Pass = false
	r.Verdict = StateFailed
	r.Err = err
	r.Errors = append(r.Errors, err.Error())
	r.enter(StateFailed)
}

func (r *Result) pass() {
	r.Pass = true
	r.Verdict = StatePassed
	r.enter(StatePassed)
}

// Visited reports whether the run ever entered s.
func (r *Result) Visited(s State) bool {
	for _, t := range r.Transitions {
		if t.To == s {
			return true
		}
	}
	return false
}
