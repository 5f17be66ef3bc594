package main

import (
	"github.com/spf13/cobra"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/api"
	"github.com/MRenAIAgent/math-content-engine-sub000/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "mathengine",
	Short: "Math animation engine with LLM-generated and templated Manim scenes",
	Long: `Mathengine turns math topics and questions into rendered Manim
animations.

Two paths produce video:
  - generate: an LLM writes Manim source for a free-text topic, gated
    by a static validator and a bounded render-retry loop
  - answer: a deterministic template engine resolves concrete
    questions ("Solve 3x + 5 = 14") without any LLM involvement

Optional narration muxes synthesized speech over finished videos, and
worksheet ingest OCRs scanned PDFs into topics to animate.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.mathengine/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "mathengine home directory (default: ~/.mathengine)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
