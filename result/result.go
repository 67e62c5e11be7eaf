// Package result holds the outcome types a run produces: per-step and
// per-scenario results, the feature tree, and the aggregated summary.
package result

import (
	"time"
)

// Status is the outcome of a step or, aggregated, of a scenario,
// feature, or run.
type Status int

const (
	Passed Status = iota
	Skipped
	Pending
	Undefined
	Failed
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	case Undefined:
		return "undefined"
	case Pending:
		return "pending"
	default:
		return "unknown"
	}
}

// Worst returns the more severe of two statuses. Severity order is
// Failed > Undefined > Pending > Skipped > Passed.
func Worst(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}

// Attachment is a piece of evidence a handler attached to a step.
// URL-only attachments reference external content.
type Attachment struct {
	Name      string
	MediaType string
	Body      []byte
	URL       string
}

// StepResult is the recorded outcome of a single step of one attempt.
type StepResult struct {
	Keyword     string
	Text        string
	Status      Status
	Err         error
	Duration    time.Duration
	Attachments []Attachment
}

// ScenarioResult is the recorded outcome of one scenario. When the
// scenario was retried, it reflects the last attempt only.
type ScenarioResult struct {
	Name     string
	URI      string
	Line     int
	Tags     []string
	Steps    []StepResult
	Status   Status
	// Err carries scenario-level failure detail that is not tied to a
	// single step, such as a failing before-case hook.
	Err      error
	Attempts int
	Retried  bool
	Duration time.Duration
}

// StepsStatus folds an ordered step result list with the worst-of rule.
// An empty list counts as Passed.
func StepsStatus(steps []StepResult) Status {
	st := Passed
	for _, s := range steps {
		st = Worst(st, s.Status)
	}
	return st
}

// FeatureResult groups scenario results under their source feature,
// preserving source order.
type FeatureResult struct {
	Name      string
	URI       string
	Scenarios []*ScenarioResult
	Status    Status
	Duration  time.Duration
}

// Summary holds the aggregate scenario counters of a run.
type Summary struct {
	Total     int
	Passed    int
	Failed    int
	Undefined int
	Pending   int
	Skipped   int
	Retried   int
}

// RunResult is the complete outcome of a run.
type RunResult struct {
	ID        string
	Features  []*FeatureResult
	Summary   Summary
	StartedAt time.Time
	Duration  time.Duration
}

// Ok reports whether the run is clean: no failed, undefined,
// or pending scenarios.
func (r *RunResult) Ok() bool {
	return r.Summary.Failed == 0 && r.Summary.Undefined == 0 && r.Summary.Pending == 0
}

// Collect recomputes feature statuses and the run summary
// from the scenario results. Nil scenario entries are slots whose
// dispatch was aborted before any attempt ran; they count toward
// nothing.
func (r *RunResult) Collect() {
	r.Summary = Summary{}
	for _, f := range r.Features {
		f.Status = Passed
		f.Duration = 0
		for _, sc := range f.Scenarios {
			if sc == nil {
				continue
			}
			f.Status = Worst(f.Status, sc.Status)
			f.Duration += sc.Duration
			r.Summary.Total++
			if sc.Retried {
				r.Summary.Retried++
			}
			switch sc.Status {
			case Passed:
				r.Summary.Passed++
			case Failed:
				r.Summary.Failed++
			case Undefined:
				r.Summary.Undefined++
			case Pending:
				r.Summary.Pending++
			case Skipped:
				r.Summary.Skipped++
			}
		}
	}
}
