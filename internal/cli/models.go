package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/sentinel/internal/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the local Ollama server",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := providers.NewOllama("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return
		}
		models, err := client.ListModels(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v (is ollama serve running?)\n", err)
			exitCode = ExitRuntimeError
			return
		}
		if len(models) == 0 {
			fmt.Println("No models installed.")
			return
		}
		for _, m := range models {
			fmt.Println(m)
		}
	},
}
