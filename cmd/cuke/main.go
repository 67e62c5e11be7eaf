package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/tomatool/cuke"
	"github.com/tomatool/cuke/config"
	"github.com/tomatool/cuke/feature"
	"github.com/tomatool/cuke/formatter"
	"github.com/tomatool/cuke/runner"
	"github.com/tomatool/cuke/steps"
	"github.com/tomatool/cuke/version"
)

func main() {
	app := &cli.App{
		Name:    "cuke",
		Usage:   "behavior-driven test runner",
		Version: version.Print(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log.level",
				Usage:   "log level (debug, info, warn, error)",
				Value:   "warn",
				EnvVars: []string{"CUKE_LOG_LEVEL"},
			},
		},
		Before: func(ctx *cli.Context) error {
			level, err := zerolog.ParseLevel(ctx.String("log.level"))
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			return nil
		},
		Commands: []*cli.Command{
			runCmd,
			checkCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

var runFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config.file",
		Aliases: []string{"c"},
		Usage:   "configuration file path",
		Value:   "cuke.yml",
	},
	&cli.StringFlag{
		Name:    "tags",
		Aliases: []string{"t"},
		Usage:   "tag expression, e.g. '@smoke and not @wip'",
	},
	&cli.StringFlag{
		Name:    "scenario",
		Aliases: []string{"s"},
		Usage:   "run only scenarios whose name contains the substring",
	},
	&cli.IntFlag{
		Name:    "parallel",
		Aliases: []string{"p"},
		Usage:   "max concurrent scenarios (0 = sequential)",
	},
	&cli.IntFlag{
		Name:    "retries",
		Aliases: []string{"r"},
		Usage:   "retry failing scenarios up to N times",
	},
	&cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "output format (console, events, messages)",
	},
}

var runCmd = &cli.Command{
	Name:      "run",
	Usage:     "run feature files",
	ArgsUsage: "[feature paths]",
	Flags:     runFlags,
	Action: func(ctx *cli.Context) error {
		return run(ctx, false)
	},
}

var checkCmd = &cli.Command{
	Name:      "check",
	Usage:     "validate step wiring without executing handlers (dry run)",
	ArgsUsage: "[feature paths]",
	Flags:     runFlags,
	Action: func(ctx *cli.Context) error {
		return run(ctx, true)
	},
}

func run(ctx *cli.Context, dryRun bool) error {
	opts, paths, err := buildOptions(ctx, dryRun)
	if err != nil {
		return err
	}

	// Malformed feature files are fatal for themselves only: the rest of
	// the sources still run, and the parse errors surface in the exit
	// status alongside any scenario failures.
	features, loadErr := feature.Load(paths...)
	if loadErr != nil && len(features) == 0 {
		return loadErr
	}

	reg := steps.NewRegistry()
	res, err := cuke.Run(ctx.Context, reg, features, opts)
	if err != nil {
		return err
	}
	return errors.Join(loadErr, runner.AggregateError(res))
}

func buildOptions(ctx *cli.Context, dryRun bool) (cuke.RunOptions, []string, error) {
	opts := runner.Options{}
	paths := []string{"./features"}
	format := "console"

	cfg, err := config.Load(ctx.String("config.file"))
	switch {
	case err == nil:
		opts = cfg.Options()
		paths = cfg.Features.Paths
		format = cfg.Settings.Output
	case errors.Is(err, fs.ErrNotExist) && !ctx.IsSet("config.file"):
		// No cuke.yml is fine when running purely from flags.
	default:
		return opts, nil, err
	}

	if ctx.Args().Len() > 0 {
		paths = ctx.Args().Slice()
	}
	if ctx.IsSet("tags") {
		opts.Tags = ctx.String("tags")
	}
	if ctx.IsSet("scenario") {
		opts.NameFilter = ctx.String("scenario")
	}
	if ctx.IsSet("retries") {
		opts.Retries = ctx.Int("retries")
	}
	if n := ctx.Int("parallel"); n > 0 {
		opts.Parallel = true
		opts.MaxConcurrent = n
	}
	if dryRun {
		opts.DryRun = true
	}
	if ctx.IsSet("format") {
		format = ctx.String("format")
	}
	if err := addSink(&opts, format); err != nil {
		return opts, nil, err
	}

	return opts, paths, nil
}

func addSink(opts *runner.Options, format string) error {
	factory, err := formatter.Find(format)
	if err != nil {
		return err
	}
	opts.Sinks = append(opts.Sinks, factory(os.Stdout))
	return nil
}
