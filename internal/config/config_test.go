package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  address: ":9000"
  link_base: "https://files.example.com"
storage:
  directory: /var/lib/dropit/blobs
database:
  backend: sqlite
  sqlite:
    path: /var/lib/dropit/dropit.db
origin:
  mode: ip
thresholds:
  - size_max: 1048576
    default_seconds: 3600
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "text", cfg.Logging.Format)
	require.Equal(t, 60_000_000_000, int(cfg.Reaper.Interval))
	require.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadRejectsMissingThresholds(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9000"
  link_base: "https://files.example.com"
storage:
  directory: /var/lib/dropit/blobs
database:
  backend: sqlite
origin:
  mode: ip
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBadOriginMode(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9000"
  link_base: "https://files.example.com"
storage:
  directory: /var/lib/dropit/blobs
database:
  backend: sqlite
origin:
  mode: carrier-pigeon
thresholds:
  - size_max: 1048576
    default_seconds: 3600
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestExpirationThresholdsConvertsAllowedPointer(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9000"
  link_base: "https://files.example.com"
storage:
  directory: /var/lib/dropit/blobs
database:
  backend: sqlite
origin:
  mode: ip
thresholds:
  - size_max: 1048576
    default_seconds: 3600
    allowed_seconds: 7200
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	thresholds := cfg.ExpirationThresholds()
	require.Len(t, thresholds, 1)
	require.NotNil(t, thresholds[0].Allowed)
	require.Equal(t, int64(7200), int64(*thresholds[0].Allowed/1e9))
}
