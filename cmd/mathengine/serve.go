package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/config"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/home"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mathengine server",
	Long: `Start the mathengine HTTP server.

The server loads provider configuration from the config file (with
hot-reload on changes) and exposes the generation, answer, template,
result, narration, and ingest APIs.

Examples:
  mathengine serve                    # Start on default port 8080
  mathengine serve --port 3000        # Start on custom port
  mathengine serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Load configuration with hot-reload
		path := cfgFile
		if path == "" && h.ConfigExists() {
			path = h.ConfigPath()
		}
		configMgr, err := config.NewManager(path)
		if err != nil {
			return err
		}
		configMgr.WatchConfig()

		// Create server
		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			Home:          h,
			ConfigManager: configMgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
