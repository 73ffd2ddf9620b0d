package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config represents the sentinel configuration.
type Config struct {
	Client        string        `json:"client"`
	Model         string        `json:"model"`
	PromptType    string        `json:"promptType"`
	Format        string        `json:"format"`
	FailOn        string        `json:"failOn"`
	Chunking      bool          `json:"chunking"`
	MaxChunkLines int           `json:"maxChunkLines"`
	Extensions    []string      `json:"extensions,omitempty"`
	Ignore        []string      `json:"ignore,omitempty"`
	Cache         CacheConfig   `json:"cache"`
	Privacy       PrivacyConfig `json:"privacy"`
}

// CacheConfig controls result caching.
type CacheConfig struct {
	Enabled bool   `json:"enabled"`
	Dir     string `json:"dir,omitempty"`
}

// PrivacyConfig controls redaction of secrets before code is sent to a
// model backend.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Client:        "ollama",
		Model:         "codellama",
		PromptType:    "standard",
		Format:        "text",
		FailOn:        "high",
		Chunking:      true,
		MaxChunkLines: 500,
		Cache: CacheConfig{
			Enabled: true,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

// configFileName is searched in the working directory and its parents.
const configFileName = ".sentinel.json"

// Load reads configuration, starting from defaults. API keys in a local
// .env file are loaded into the environment first. An explicit path must
// exist; otherwise the nearest .sentinel.json up the tree is optional.
func Load(path string) (Config, error) {
	// Missing .env is fine; only explicit keys matter.
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		found, err := findConfigFile()
		if err != nil || found == "" {
			return cfg, nil
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func findConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch c.Client {
	case "ollama", "groq", "huggingface", "hf":
	default:
		return fmt.Errorf("unknown client: %s", c.Client)
	}
	switch c.Format {
	case "text", "json", "html":
	default:
		return fmt.Errorf("unknown format: %s", c.Format)
	}
	switch c.FailOn {
	case "", "none", "critical", "high", "medium", "low", "info":
	default:
		return fmt.Errorf("unknown failOn threshold: %s", c.FailOn)
	}
	switch c.PromptType {
	case "", "standard", "detailed", "quick":
	default:
		return fmt.Errorf("unknown prompt type: %s", c.PromptType)
	}
	return nil
}
