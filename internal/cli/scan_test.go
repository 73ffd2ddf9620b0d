package cli

import (
	"os"
	"testing"
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

func resetScanFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		flagConfig = ""
		flagClient = ""
		flagModel = ""
		flagPrompt = ""
		flagFormat = ""
		flagOut = ""
		flagFailOn = ""
		flagNoCache = false
		flagCacheDir = ""
		flagNoChunk = false
		flagNoRedact = false
	})
}

func TestLoadScanConfig_Defaults(t *testing.T) {
	resetScanFlags(t)
	chdir(t, t.TempDir())

	cfg, err := loadScanConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Client != "ollama" || cfg.Model != "codellama" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadScanConfig_FlagOverrides(t *testing.T) {
	resetScanFlags(t)
	chdir(t, t.TempDir())

	flagClient = "groq"
	flagModel = "llama-3.3-70b-versatile"
	flagPrompt = "quick"
	flagFormat = "json"
	flagFailOn = "low"
	flagNoCache = true
	flagNoChunk = true
	flagNoRedact = true

	cfg, err := loadScanConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Client != "groq" || cfg.Model != "llama-3.3-70b-versatile" {
		t.Errorf("client/model override lost: %+v", cfg)
	}
	if cfg.PromptType != "quick" || cfg.Format != "json" || cfg.FailOn != "low" {
		t.Errorf("prompt/format/threshold override lost: %+v", cfg)
	}
	if cfg.Cache.Enabled || cfg.Chunking || cfg.Privacy.RedactSecrets {
		t.Errorf("no-cache/no-chunk/no-redact not applied: %+v", cfg)
	}
}

func TestLoadScanConfig_RejectsInvalidFlag(t *testing.T) {
	resetScanFlags(t)
	chdir(t, t.TempDir())

	flagFormat = "xml"
	if _, err := loadScanConfig(); err == nil {
		t.Error("expected validation error for unknown format")
	}
}
