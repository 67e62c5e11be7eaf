package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tomatool/cuke/runner"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cuke.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(write(t, "version: 1\n"))
	require.NoError(t, err)

	require.Equal(t, 1, cfg.Version)
	require.Equal(t, []string{"./features"}, cfg.Features.Paths)
	require.Equal(t, "console", cfg.Settings.Output)
	require.Equal(t, runner.DefaultSkipTags, cfg.Settings.SkipTags)
	require.False(t, cfg.Settings.Parallel)
}

func TestLoadFull(t *testing.T) {
	cfg, err := Load(write(t, `
version: 1

features:
  paths:
    - ./features/api
    - ./features/web
  tags: "@smoke and not @wip"
  scenario: checkout

settings:
  parallel: true
  max_concurrent: 8
  retries: 2
  dry_run: true
  skip_tags: ["@manual"]
  output: events
`))
	require.NoError(t, err)

	require.Equal(t, []string{"./features/api", "./features/web"}, cfg.Features.Paths)
	require.Equal(t, "events", cfg.Settings.Output)

	opts := cfg.Options()
	require.Equal(t, runner.Options{
		Parallel:      true,
		MaxConcurrent: 8,
		Retries:       2,
		Tags:          "@smoke and not @wip",
		NameFilter:    "checkout",
		DryRun:        true,
		SkipTags:      []string{"@manual"},
	}, opts)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("FEATURES_DIR", "/tmp/features")
	cfg, err := Load(write(t, `
version: 1
features:
  paths:
    - ${FEATURES_DIR}
`))
	require.NoError(t, err)
	require.Equal(t, []string{"/tmp/features"}, cfg.Features.Paths)
}

func TestLoadParallelDefaultsConcurrency(t *testing.T) {
	cfg, err := Load(write(t, `
version: 1
settings:
  parallel: true
`))
	require.NoError(t, err)
	require.Equal(t, runner.DefaultMaxConcurrent, cfg.Settings.MaxConcurrent)
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	_, err := Load(write(t, "version: 2\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported config version")
}

func TestLoadRejectsMalformedTags(t *testing.T) {
	_, err := Load(write(t, `
version: 1
features:
  tags: "(@a and"
`))
	require.Error(t, err)
}

func TestLoadRejectsBadSkipTags(t *testing.T) {
	_, err := Load(write(t, `
version: 1
settings:
  skip_tags: ["skip"]
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid skip tag")
}

func TestLoadRejectsBadYAML(t *testing.T) {
	_, err := Load(write(t, "version: [1\n"))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}
