package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/sentinel/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the scan result cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Run: func(cmd *cobra.Command, args []string) {
		c, err := cache.New(true, flagCacheDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
		stats, err := c.GetStats()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
		fmt.Printf("Cache directory: %s\n", c.Dir())
		fmt.Printf("Entries: %d\n", stats.Entries)
		fmt.Printf("Scan time saved: %.2fs\n", stats.TimeSavedSec)
		fmt.Printf("Size: %.2f MB\n", float64(stats.TotalBytes)/(1024*1024))
		for model, n := range stats.ByModel {
			fmt.Printf("  %s: %d\n", model, n)
		}
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cache entries",
	Run: func(cmd *cobra.Command, args []string) {
		c, err := cache.New(true, flagCacheDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
		if err := c.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
		fmt.Println("Cache cleared.")
	},
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "Result cache directory")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
