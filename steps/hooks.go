package steps

import (
	"context"

	"github.com/tomatool/cuke/feature"
)

// RunHook brackets the whole selected scenario set.
type RunHook func(ctx context.Context) error

// CaseHook runs immediately before the first step of a scenario attempt.
type CaseHook func(c *Ctx) error

// AfterCaseHook runs after the last step of an attempt. failure carries
// the attempt's failure detail (step error or hook error), nil when the
// attempt passed.
type AfterCaseHook func(c *Ctx, failure error) error

// StepHook runs before each individual step.
type StepHook func(c *Ctx, st *feature.Step) error

// AfterStepHook runs after each individual step regardless of its
// outcome, so diagnostic and cleanup hooks are reliable.
type AfterStepHook func(c *Ctx, st *feature.Step, failure error) error

// BeforeRun appends a run-level before hook.
func (r *Registry) BeforeRun(h RunHook) { r.beforeRun = append(r.beforeRun, h) }

// AfterRun appends a run-level after hook.
func (r *Registry) AfterRun(h RunHook) { r.afterRun = append(r.afterRun, h) }

// BeforeCase appends a scenario-level before hook.
func (r *Registry) BeforeCase(h CaseHook) { r.beforeCase = append(r.beforeCase, h) }

// AfterCase appends a scenario-level after hook.
func (r *Registry) AfterCase(h AfterCaseHook) { r.afterCase = append(r.afterCase, h) }

// BeforeStep appends a step-level before hook.
func (r *Registry) BeforeStep(h StepHook) { r.beforeStep = append(r.beforeStep, h) }

// AfterStep appends a step-level after hook.
func (r *Registry) AfterStep(h AfterStepHook) { r.afterStep = append(r.afterStep, h) }

// Hooks exposes the six hook slots to the runner, each in registration
// order.
type Hooks struct {
	BeforeRun  []RunHook
	AfterRun   []RunHook
	BeforeCase []CaseHook
	AfterCase  []AfterCaseHook
	BeforeStep []StepHook
	AfterStep  []AfterStepHook
}

// Hooks returns the registered hooks. The slices are shared, not
// copied; the runner treats them as read-only.
func (r *Registry) Hooks() Hooks {
	return Hooks{
		BeforeRun:  r.beforeRun,
		AfterRun:   r.afterRun,
		BeforeCase: r.beforeCase,
		AfterCase:  r.afterCase,
		BeforeStep: r.beforeStep,
		AfterStep:  r.afterStep,
	}
}
