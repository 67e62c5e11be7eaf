// Package errors defines the error hierarchy produced by a cuke run:
// step-level sentinels, structured hook failures, and the aggregates
// raised by the failing entry points.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrPending is returned by a step handler to declare itself
// not implemented yet. It is a distinct outcome, not a failure.
var ErrPending = stderrors.New("step implementation is pending")

// HookPhase identifies one of the six hook slots.
type HookPhase string

const (
	BeforeRun  HookPhase = "before_run"
	AfterRun   HookPhase = "after_run"
	BeforeCase HookPhase = "before_case"
	AfterCase  HookPhase = "after_case"
	BeforeStep HookPhase = "before_step"
	AfterStep  HookPhase = "after_step"
)

// StepError wraps a step handler failure with the step it came from.
type StepError struct {
	Keyword string
	Text    string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Text, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// UndefinedError marks a step with no matching definition. It carries a
// generated handler snippet and nearest-pattern suggestions so formatters
// can tell the user what to do about it.
type UndefinedError struct {
	Keyword     string
	Text        string
	Snippet     string
	Suggestions []string
}

func (e *UndefinedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "step %q is not defined", e.Text)
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, " (did you mean %q?)", e.Suggestions[0])
	}
	return b.String()
}

// HookError records a hook failure. It is delivered to the paired
// after-hook and folded into the owning scenario's result; it never
// aborts hooks of unrelated scenarios.
type HookError struct {
	Phase    HookPhase
	Scenario string
	Step     string
	Err      error
}

func (e *HookError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("%s hook failed on step %q: %v", e.Phase, e.Step, e.Err)
	}
	if e.Scenario != "" {
		return fmt.Sprintf("%s hook failed on scenario %q: %v", e.Phase, e.Scenario, e.Err)
	}
	return fmt.Sprintf("%s hook failed: %v", e.Phase, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// ScenarioError aggregates everything that went wrong in one scenario.
type ScenarioError struct {
	Scenario string
	URI      string
	Errs     []error
}

func (e *ScenarioError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario %q (%s):", e.Scenario, e.URI)
	for _, err := range e.Errs {
		fmt.Fprintf(&b, "\n  %v", err)
	}
	return b.String()
}

func (e *ScenarioError) Unwrap() []error { return e.Errs }

// RunError is raised by the failing entry points when a run finishes
// with failed, undefined, or pending scenarios. It names every offender.
type RunError struct {
	Scenarios []*ScenarioError
}

func (e *RunError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run failed: %d scenario(s) did not pass", len(e.Scenarios))
	for _, sc := range e.Scenarios {
		fmt.Fprintf(&b, "\n%v", sc)
	}
	return b.String()
}

func (e *RunError) Unwrap() []error {
	errs := make([]error, len(e.Scenarios))
	for i, sc := range e.Scenarios {
		errs[i] = sc
	}
	return errs
}
