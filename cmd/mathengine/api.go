package main

import (
	"github.com/spf13/cobra"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running mathengine server via HTTP.

These commands require a running server (mathengine serve).
Use --server to specify a custom server URL.

Examples:
  mathengine api health                       # Check server health
  mathengine api generate "chain rule"        # Generate an animation
  mathengine api answer "Solve 3x + 5 = 14"   # Answer via templates
  mathengine api results                      # List stored results`,
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	for _, ep := range endpoints.All() {
		apiCmd.AddCommand(ep.Command(getServerURL))
	}

	rootCmd.AddCommand(apiCmd)
}
