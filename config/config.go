// Package config loads the cuke.yml run configuration and turns it
// into runner options. Malformed configuration is fatal here, before
// any scenario runs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tomatool/cuke/runner"
	"github.com/tomatool/cuke/tags"
)

// Config represents the cuke.yml configuration.
type Config struct {
	Version  int      `yaml:"version"`
	Features Features `yaml:"features"`
	Settings Settings `yaml:"settings"`
}

type Features struct {
	Paths []string `yaml:"paths"`
	// Tags is a boolean tag expression, e.g. "@smoke and not @wip".
	Tags string `yaml:"tags"`
	// Scenario keeps only scenarios whose name contains the substring.
	Scenario string `yaml:"scenario"`
}

type Settings struct {
	Parallel      bool     `yaml:"parallel"`
	MaxConcurrent int      `yaml:"max_concurrent"`
	Retries       int      `yaml:"retries"`
	DryRun        bool     `yaml:"dry_run"`
	SkipTags      []string `yaml:"skip_tags"`
	Output        string   `yaml:"output"`
}

// Load reads and parses the configuration file, expanding ${ENV}
// references before unmarshalling.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if len(c.Features.Paths) == 0 {
		c.Features.Paths = []string{"./features"}
	}
	if c.Settings.Output == "" {
		c.Settings.Output = "console"
	}
	if c.Settings.SkipTags == nil {
		c.Settings.SkipTags = runner.DefaultSkipTags
	}
	if c.Settings.Retries < 0 {
		c.Settings.Retries = 0
	}
	if c.Settings.Parallel && c.Settings.MaxConcurrent < 1 {
		c.Settings.MaxConcurrent = runner.DefaultMaxConcurrent
	}
}

func (c *Config) validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version: %d (expected 1)", c.Version)
	}
	if _, err := tags.Parse(c.Features.Tags); err != nil {
		return err
	}
	for _, t := range c.Settings.SkipTags {
		if len(t) < 2 || t[0] != '@' {
			return fmt.Errorf("invalid skip tag %q: tags start with '@'", t)
		}
	}
	return nil
}

// Options maps the configuration onto runner options. Event sinks and
// the world factory are wired by the caller.
func (c *Config) Options() runner.Options {
	return runner.Options{
		Parallel:      c.Settings.Parallel,
		MaxConcurrent: c.Settings.MaxConcurrent,
		Retries:       c.Settings.Retries,
		Tags:          c.Features.Tags,
		NameFilter:    c.Features.Scenario,
		DryRun:        c.Settings.DryRun,
		SkipTags:      c.Settings.SkipTags,
	}
}
