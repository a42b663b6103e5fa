package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9001
  read_timeout: 30s
groq:
  api_key: test-key
  model: llama-3.1-8b-instant
generator:
  section_word_limit: 90
session:
  ttl: 2h
storage:
  type: disk
  data_dir: /tmp/sessions
client:
  base_url: http://localhost:9001
  seasonal:
    enabled: true
    message: Happy holidays!
    start_date: "12-20"
    end_date: "01-05"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "test-key", cfg.Groq.APIKey)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Groq.Model)
	assert.Equal(t, 90, cfg.Generator.SectionWordLimit)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "disk", cfg.Storage.Type)
	assert.Equal(t, "http://localhost:9001", cfg.Client.BaseURL)
	assert.True(t, cfg.Client.Seasonal.Enabled)
	assert.Equal(t, "12-20", cfg.Client.Seasonal.StartDate)

	assert.Same(t, cfg, Get())
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9001
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Groq.BaseURL)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Groq.Model)
	assert.Equal(t, 110, cfg.Generator.SectionWordLimit)
	assert.Equal(t, 8, cfg.Generator.ReferenceCount)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, time.Hour, cfg.Session.CleanupInterval)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, "uploads", cfg.Paths.UploadDir)
	assert.Equal(t, "outputs", cfg.Paths.OutputDir)
	assert.Equal(t, 5*time.Minute, cfg.Client.Timeout)
}

func TestLoadAPIKeyFromEnv(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "env-key")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9001\n"))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Groq.APIKey)
}

func TestLoadConfigKeyWinsOverEnv(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "env-key")

	cfg, err := Load(writeConfig(t, "groq:\n  api_key: file-key\n"))
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Groq.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
