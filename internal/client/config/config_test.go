package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"portalctl"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	orig := lookupEnv
	lookupEnv = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	t.Cleanup(func() { lookupEnv = orig })
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:3000", c.ServerURL)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Empty(t, c.AdminSecret)
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	b, err := json.Marshal(map[string]any{"server_url": "http://json:1", "request_timeout": "30s"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))

	withArgs(t, "-c", path, "-a", "http://flag:2")
	withEnv(t, map[string]string{"PORTAL_SERVER_URL": "http://env:3", "PORTAL_ADMIN_SECRET": "s3cret"})

	got := LoadConfig()
	want := &Config{ServerURL: "http://flag:2", AdminSecret: "s3cret", RequestTimeout: 30 * time.Second}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJson(t *testing.T) {
	dir := t.TempDir()

	t.Run("no file leaves values", func(t *testing.T) {
		withArgs(t)
		cfg := &Config{ServerURL: "http://defaults"}
		parseJson(cfg)
		assert.Equal(t, "http://defaults", cfg.ServerURL)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ nope`), 0o600))
		withArgs(t, "-config", bad)
		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		withArgs(t, "-c", filepath.Join(dir, "missing.json"))
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}

func TestParseFlags_TimeoutSeconds(t *testing.T) {
	withArgs(t, "-t", "3", "-unknown", "x")
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
}
