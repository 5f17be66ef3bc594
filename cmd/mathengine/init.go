package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/config"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/home"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the mathengine home directory",
	Long: `Create the home directory layout and write a default config file.

The default config references API keys through ${ENV_VAR} placeholders;
set ANTHROPIC_API_KEY (and optionally OPENAI_API_KEY, MISTRAL_API_KEY)
in your shell before running the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		if h.ConfigExists() && !initForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", h.ConfigPath())
		}
		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}

		fmt.Printf("Initialized %s\n", h.Path())
		fmt.Printf("Config written to %s\n", h.ConfigPath())
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
