// Package pipeline runs an ordered list of table steps, separating failures
// that end the run from failures that are logged and skipped.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/KaramelBytes/cohortscope/internal/dataset"
)

// Tier decides what a failing step does to the run.
type Tier int

const (
	// Terminal failures stop the run.
	Terminal Tier = iota
	// Recoverable failures are reported and the run continues.
	Recoverable
)

func (t Tier) String() string {
	if t == Terminal {
		return "terminal"
	}
	return "recoverable"
}

// Status is the result of one step.
type Status string

const (
	StatusOK          Status = "ok"
	StatusRecoverable Status = "recoverable"
	StatusFatal       Status = "fatal"
)

// Step transforms the table. A nil table with a nil error keeps the input.
type Step struct {
	Name string
	Tier Tier
	Run  func(ctx context.Context, t *dataset.Table) (*dataset.Table, error)
}

// Outcome records how a step ended.
type Outcome struct {
	Step     string        `json:"step"`
	Tier     string        `json:"tier"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"-"`
}

// Summary lists every executed step in order.
type Summary struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Outcomes []Outcome
}

// Failures returns the outcomes that did not succeed.
func (s Summary) Failures() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if o.Status != StatusOK {
			out = append(out, o)
		}
	}
	return out
}

// StepError is returned when a terminal step fails.
type StepError struct {
	Step string
	Tier Tier
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Runner executes steps in order.
type Runner struct {
	runID string
	log   *zap.Logger
	out   io.Writer
}

// NewRunner creates a runner. Recoverable failures are reported on out.
func NewRunner(runID string, log *zap.Logger, out io.Writer) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &Runner{runID: runID, log: log, out: out}
}

// Run threads t through steps. It stops at the first terminal failure or when
// ctx is done, returning the table produced so far.
func (r *Runner) Run(ctx context.Context, steps []Step, t *dataset.Table) (*dataset.Table, Summary, error) {
	sum := Summary{RunID: r.runID, Started: time.Now()}

	warn := color.New(color.FgYellow)
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			sum.Finished = time.Now()
			return t, sum, &StepError{Step: s.Name, Tier: Terminal, Err: err}
		}
		log := r.log.With(zap.String("step", s.Name), zap.Stringer("tier", s.Tier))
		log.Debug("step started")

		start := time.Now()
		next, err := invoke(ctx, s, t)
		o := Outcome{Step: s.Name, Tier: s.Tier.String(), Status: StatusOK, Duration: time.Since(start)}
		if err == nil {
			if next != nil {
				t = next
			}
			sum.Outcomes = append(sum.Outcomes, o)
			log.Info("step finished", zap.Duration("duration", o.Duration), zap.Int("rows", rows(t)))
			continue
		}

		o.Message = err.Error()
		if s.Tier == Terminal {
			o.Status = StatusFatal
			sum.Outcomes = append(sum.Outcomes, o)
			log.Error("step failed", zap.Error(err))
			sum.Finished = time.Now()
			return t, sum, &StepError{Step: s.Name, Tier: s.Tier, Err: err}
		}
		o.Status = StatusRecoverable
		sum.Outcomes = append(sum.Outcomes, o)
		log.Warn("step failed, continuing", zap.Error(err))
		warn.Fprintf(r.out, "⚠ Warning: %s failed: %v\n", s.Name, err)
	}
	sum.Finished = time.Now()
	return t, sum, nil
}

func invoke(ctx context.Context, s Step, t *dataset.Table) (out *dataset.Table, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()
	return s.Run(ctx, t)
}

func rows(t *dataset.Table) int {
	if t == nil {
		return 0
	}
	return t.Len()
}
