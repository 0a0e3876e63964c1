package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches to dir for the duration of the test (t.Chdir needs Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadEnvDefaults(t *testing.T) {
	chdir(t, t.TempDir()) // no config.yaml in reach
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("CLASSIFIER_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "https://api.deepseek.com", cfg.BaseURL)
	assert.Equal(t, "deepseek-chat", cfg.Model)
	assert.Equal(t, 5, cfg.MaxConcurrency)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.MinInterval())
	assert.Equal(t, 500*time.Millisecond, cfg.BackoffBase())
	assert.Equal(t, 8*time.Second, cfg.BackoffCap())
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 0.5, cfg.AbortFailureRate)
	assert.True(t, cfg.AbortOnAuthFailure)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "pws_chatbot_qa_feedbacks.csv", cfg.FeedbackFile)
}

func TestLoadMissingAPIKey(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("CLASSIFIER_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLASSIFIER_API_KEY")
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "api_key: file-key\nmax_concurrency: 2\nmin_request_interval: 0.5\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("MAX_CONCURRENT_REQUESTS", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, 7, cfg.MaxConcurrency, "env overrides yaml")
	assert.Equal(t, 500*time.Millisecond, cfg.MinInterval())
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := Config{APIKey: "k", BaseURL: "https://api.example.com", MaxConcurrency: 5, MaxAttempts: 3, MinIntervalSec: 1, AbortFailureRate: 0.5}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero concurrency", func(c *Config) { c.MaxConcurrency = 0 }},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }},
		{"negative interval", func(c *Config) { c.MinIntervalSec = -1 }},
		{"failure rate above one", func(c *Config) { c.AbortFailureRate = 1.5 }},
		{"empty base url", func(c *Config) { c.BaseURL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	ok := base
	assert.NoError(t, ok.Validate())
}
