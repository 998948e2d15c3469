package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-backend/storage"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 2048, cfg.Scoring.KeySize)
}

func TestLoadFormats(t *testing.T) {
	cases := map[string]string{
		"server.toml": `
[server]
addr = ":9090"
request_timeout = "5s"

[scoring]
workers = 2
queue_size = 8
`,
		"server.yaml": `
server:
  addr: ":9090"
  requestTimeout: 5s
scoring:
  workers: 2
  queueSize: 8
`,
		"server.json": `{"server":{"addr":":9090","requestTimeout":"5s"},"scoring":{"workers":2,"queueSize":8}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, name, body))
			require.NoError(t, err)
			assert.Equal(t, ":9090", cfg.Server.Addr)
			assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout.D())
			assert.Equal(t, 2, cfg.Scoring.Workers)
			assert.Equal(t, 8, cfg.Scoring.QueueSize)
			// untouched fields keep their defaults
			assert.Equal(t, 2048, cfg.Scoring.KeySize)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "server.ini", "addr=:1"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "server.json", "{"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCORING_ADDR", ":7070")
	t.Setenv("SCORING_WORKERS", "6")
	t.Setenv("SCORING_ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("SCORING_CLIENT_TIMEOUT", "3s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 6, cfg.Scoring.Workers)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.Client.Timeout.D())

	t.Setenv("SCORING_WORKERS", "many")
	_, err = Load("")
	assert.Error(t, err)
}

func TestParseFlagsOverrideFileAndEnv(t *testing.T) {
	path := writeFile(t, "server.toml", "[scoring]\nworkers = 2\nkey_size = 1024\n")
	t.Setenv("SCORING_WORKERS", "3")

	cfg, rest, err := Parse("test", []string{"-config", path, "-workers", "5", "-delay", "10ms", "-cors-origins", "http://x.example", "1,2,3"})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Scoring.Workers)
	assert.Equal(t, 1024, cfg.Scoring.KeySize)
	assert.Equal(t, 10*time.Millisecond, cfg.Scoring.ProcessingDelay.D())
	assert.Equal(t, []string{"http://x.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, []string{"1,2,3"}, rest)

	cfg, _, err = Parse("test", []string{"-config", path})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Scoring.Workers)
}

func TestParseRejectsInvalid(t *testing.T) {
	_, _, err := Parse("test", []string{"-workers", "0"})
	assert.Error(t, err)

	_, _, err = Parse("test", []string{"-key-size", "128"})
	assert.Error(t, err)

	_, _, err = Parse("test", []string{"-delay", "soon"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scoring.Scheme = "bfv"
	cfg.Client.KeyStore = storage.BackendSealed
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheme")
	assert.Contains(t, err.Error(), "PASSPHRASE")

	cfg = DefaultConfig()
	cfg.Client.KeyStore = storage.BackendMemory
	cfg.Client.KeyStorePath = ""
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, storage.Options{Backend: storage.BackendMemory}, cfg.StorageOptions())
}

func TestLoadModel(t *testing.T) {
	m, err := LoadModel("")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", m.Version)

	path := writeFile(t, "model.yaml", `
version: "2.0.0"
description: test model
scale: 1
intercept: 0
weights: [1, 1, 1, 1, 1, 1, 1, 1, 1]
thresholds: [10, 20, 30]
confidenceMargin: 5
`)
	m, err = LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", m.Version)
	assert.Equal(t, []string{"No", "Low", "Mild", "High"}, m.Labels)

	path = writeFile(t, "model.toml", "version = \"x\"\nscale = 1\nweights = [1.0]\nthresholds = [3.0, 1.0]\nconfidence_margin = 1.0\n")
	_, err = LoadModel(path)
	assert.Error(t, err)
}
