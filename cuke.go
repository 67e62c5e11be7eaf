// Package cuke is a behavior-driven-test orchestration engine. Users
// register step handlers and lifecycle hooks against a steps.Registry,
// point a run at parsed feature sources, and get a structured result
// plus a live stream of progress events.
//
// A minimal run:
//
//	reg := steps.NewRegistry()
//	reg.Given("a calculator", func(c *steps.Ctx, args ...any) error {
//		return nil
//	})
//
//	res, err := cuke.RunPaths(ctx, reg, cuke.RunOptions{}, "./features")
package cuke

import (
	"context"

	"github.com/tomatool/cuke/feature"
	"github.com/tomatool/cuke/result"
	"github.com/tomatool/cuke/runner"
	"github.com/tomatool/cuke/steps"
)

// RunOptions configures a run. The zero value runs everything
// sequentially with no retries.
type RunOptions = runner.Options

// Run executes the given features and returns the run result
// unconditionally, for programmatic inspection. The error is non-nil
// only for engine-level failures (invalid options, a failing
// before-run hook), never for scenario outcomes.
func Run(ctx context.Context, reg *steps.Registry, features []*feature.Feature, opts RunOptions) (*result.RunResult, error) {
	r, err := runner.New(reg, opts)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, features)
}

// RunPaths loads every .feature file under the given paths and runs
// them. A malformed file is fatal for that file only: the features
// that did parse still execute, and the per-file errors come back
// alongside the result. The run is skipped only when nothing parsed.
func RunPaths(ctx context.Context, reg *steps.Registry, opts RunOptions, paths ...string) (*result.RunResult, error) {
	features, loadErr := feature.Load(paths...)
	if loadErr != nil && len(features) == 0 {
		return nil, loadErr
	}
	res, err := Run(ctx, reg, features, opts)
	if err != nil {
		return res, err
	}
	return res, loadErr
}

// RunOrFail executes the features and converts any non-clean summary
// (failed, undefined, or pending scenarios) into an aggregate error
// naming every offending scenario and step.
func RunOrFail(ctx context.Context, reg *steps.Registry, features []*feature.Feature, opts RunOptions) error {
	res, err := Run(ctx, reg, features, opts)
	if err != nil {
		return err
	}
	return runner.AggregateError(res)
}
