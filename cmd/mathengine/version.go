package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MRenAIAgent/math-content-engine-sub000/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mathengine %s\n", version.GitRelease)
		fmt.Printf("  Commit: %s\n", version.GitCommit)
	},
}
