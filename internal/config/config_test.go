package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrrpnya/pageshelf/internal/config"
)

const sampleYAML = `
name: example
home_host: home.example
page_hosts: ["pages.example"]
upstream:
  url: https://forge.example
  target_branches: ["pages"]
  poll_interval_seconds: 120
cache:
  enabled: true
  address: redis.internal
  port: 6379
  ttl_seconds: 300
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesFileValues(t *testing.T) {
	path := writeTemp(t, sampleYAML)

	s, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "example", s.Name)
	assert.Equal(t, "home.example", s.HomeHost)
	assert.Equal(t, []string{"pages.example"}, s.PageHosts)
	assert.Equal(t, "https://forge.example", s.Upstream.URL)
	assert.True(t, s.Cache.Enabled)
	assert.Equal(t, "redis.internal", s.Cache.Address)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTemp(t, "name: minimal\n")

	s, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultServerPort, s.Port)
	assert.Equal(t, config.DefaultAdminPort, s.AdminPort)
	assert.Equal(t, config.DefaultDefaultBranch, s.DefaultBranch)
	assert.Equal(t, config.DefaultDefaultRepo, s.DefaultRepo)
	assert.Equal(t, []string{"pages"}, s.Upstream.TargetBranches)
}

func TestEnvOverlayOverridesFile(t *testing.T) {
	path := writeTemp(t, sampleYAML)

	t.Setenv("PAGE_NAME", "from-env")
	t.Setenv("PAGE_CACHE_ENABLED", "false")

	s, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", s.Name)
	assert.False(t, s.Cache.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
