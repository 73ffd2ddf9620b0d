package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/sentinel/internal/cache"
	"github.com/dshills/sentinel/internal/config"
	"github.com/dshills/sentinel/internal/discover"
	"github.com/dshills/sentinel/internal/output"
	"github.com/dshills/sentinel/internal/providers"
	"github.com/dshills/sentinel/internal/scan"
)

var (
	flagConfig   string
	flagClient   string
	flagModel    string
	flagPrompt   string
	flagFormat   string
	flagOut      string
	flagFailOn   string
	flagNoCache  bool
	flagCacheDir string
	flagNoChunk  bool
	flagNoRedact bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Scan a file or directory for vulnerabilities",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitCode = runScan(cmd.Context(), args[0])
	},
}

func init() {
	scanCmd.Flags().StringVar(&flagConfig, "config", "", "Config file path (default: nearest .sentinel.json)")
	scanCmd.Flags().StringVar(&flagClient, "client", "", "AI client type (ollama, groq, huggingface)")
	scanCmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	scanCmd.Flags().StringVar(&flagPrompt, "prompt", "", "Prompt template type (standard, detailed, quick)")
	scanCmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, html)")
	scanCmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	scanCmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, low, medium, high, critical)")
	scanCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Disable the result cache")
	scanCmd.Flags().StringVar(&flagCacheDir, "cache-dir", "", "Result cache directory")
	scanCmd.Flags().BoolVar(&flagNoChunk, "no-chunk", false, "Disable chunking of oversized files")
	scanCmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction before code is sent to the model")
}

func loadScanConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagClient != "" {
		cfg.Client = flagClient
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagPrompt != "" {
		cfg.PromptType = flagPrompt
	}
	if flagFormat != "" {
		cfg.Format = flagFormat
	}
	if flagFailOn != "" {
		cfg.FailOn = flagFailOn
	}
	if flagNoCache {
		cfg.Cache.Enabled = false
	}
	if flagCacheDir != "" {
		cfg.Cache.Dir = flagCacheDir
	}
	if flagNoChunk {
		cfg.Chunking = false
	}
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
	}
	return cfg, cfg.Validate()
}

func runScan(ctx context.Context, path string) int {
	cfg, err := loadScanConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitUsageError
	}

	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: path does not exist: %s\n", path)
		return ExitUsageError
	}

	client, err := providers.New(cfg.Client, cfg.Model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitUsageError
	}

	// Refuse to start at all when the service is unreachable.
	if !client.TestConnection(ctx) {
		fmt.Fprintf(os.Stderr, "Error: failed to connect to %s service\n", client.Name())
		return ExitRuntimeError
	}

	resultCache, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitRuntimeError
	}

	var engineCache scan.ResultCache
	if resultCache.Enabled() {
		engineCache = resultCache
	}

	engine := scan.NewEngine(client, cfg.Model, scan.Options{
		PromptType:    cfg.PromptType,
		MaxChunkLines: cfg.MaxChunkLines,
		Chunking:      cfg.Chunking,
		Cache:         engineCache,
		Walker:        discover.NewWalker(cfg.Extensions, cfg.Ignore),
		RedactSecrets: cfg.Privacy.RedactSecrets,
		RedactPaths:   cfg.Privacy.RedactPaths,
	})

	results, err := engine.ScanPath(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitRuntimeError
	}

	if err := writeResults(cfg.Format, results); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitRuntimeError
	}

	for _, r := range results {
		if !r.Success {
			return ExitFindings
		}
	}
	failOn := cfg.FailOn
	if failOn == "" {
		failOn = "high"
	}
	if scan.HasAtOrAbove(results, failOn) {
		return ExitFindings
	}
	return ExitSuccess
}

func writeResults(format string, results []scan.ScanResult) error {
	writer, err := output.New(format)
	if err != nil {
		return err
	}

	var dst io.Writer = os.Stdout
	if flagOut != "" {
		f, err := os.Create(flagOut)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		dst = f
	}
	return writer.Write(dst, results)
}
