package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deckfoundry/cardforge/internal/llm"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the supported language models",
	Long: `Models prints the built-in model catalog, which provider each model
belongs to, and whether a credential for that provider is configured.
The model marked with * is the one the current configuration selects.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		creds := llm.Credentials{
			GeminiAPIKey: cfg.Providers.GeminiAPIKey,
			OpenAIAPIKey: cfg.Providers.OpenAIAPIKey,
		}

		active := ""
		name := modelFlag
		if name == "" {
			name = cfg.Generation.Model
		}
		if spec, err := llm.Lookup(name); err == nil {
			active = spec.Name
		}

		out := cmd.OutOrStdout()
		for _, spec := range llm.Registry() {
			marker := " "
			if spec.Name == active {
				marker = "*"
			}
			status := "ready"
			if _, err := creds.For(spec.Provider); err != nil {
				status = "missing credential"
			}
			fmt.Fprintf(out, "%s %-18s %-8s %-20s %s\n",
				marker, spec.Name, spec.Provider, status, spec.Description)
		}
		fmt.Fprintln(out, "\n* selected by the current configuration")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
