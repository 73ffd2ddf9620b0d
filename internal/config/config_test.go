package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes to dir for the duration of the test, like t.Chdir in Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "ollama", cfg.Client)
	assert.Equal(t, "codellama", cfg.Model)
	assert.Equal(t, "standard", cfg.PromptType)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "high", cfg.FailOn)
	assert.True(t, cfg.Chunking)
	assert.Equal(t, 500, cfg.MaxChunkLines)
	assert.True(t, cfg.Cache.Enabled)
	assert.True(t, cfg.Privacy.RedactSecrets)
	assert.Contains(t, cfg.Privacy.RedactPaths, "**/.env")
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoConfigFile(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinel.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"client": "groq",
		"model": "llama-3.3-70b-versatile",
		"failOn": "medium",
		"cache": {"enabled": false},
		"privacy": {"redactSecrets": false}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "groq", cfg.Client)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Model)
	assert.Equal(t, "medium", cfg.FailOn)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Privacy.RedactSecrets)
	// Unset fields keep their defaults.
	assert.Equal(t, "standard", cfg.PromptType)
	assert.True(t, cfg.Chunking)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoad_FindsConfigUpTheTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, configFileName), []byte(`{"model": "mistral"}`), 0o644))
	nested := filepath.Join(root, "src", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	chdir(t, nested)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mistral", cfg.Model)
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad client", func(c *Config) { c.Client = "openai" }, "unknown client"},
		{"bad format", func(c *Config) { c.Format = "xml" }, "unknown format"},
		{"bad threshold", func(c *Config) { c.FailOn = "severe" }, "unknown failOn threshold"},
		{"bad prompt type", func(c *Config) { c.PromptType = "verbose" }, "unknown prompt type"},
		{"hf alias ok", func(c *Config) { c.Client = "hf" }, ""},
		{"none threshold ok", func(c *Config) { c.FailOn = "none" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
