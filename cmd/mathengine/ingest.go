package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/api"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/ingest"
)

var ingestTitle string

var ingestCmd = &cobra.Command{
	Use:   "ingest <pdf-file>",
	Short: "OCR a worksheet PDF into topic suggestions (no server needed)",
	Long: `Ingest a scanned worksheet PDF: render each page, OCR it to
markdown, and suggest topics to animate from the recovered headings.

Requires pdftoppm (poppler-utils) on PATH and a configured OCR
provider.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pdfPath, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		env, err := newLocalEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		ocr, err := env.Registry.GetOCR(env.Config.Defaults.OCRProvider)
		if err != nil {
			return err
		}
		ing, err := ingest.NewIngestor(ocr, env.Home, env.Logger)
		if err != nil {
			return err
		}

		result, err := ing.Ingest(cmd.Context(), ingest.Request{
			PDFPath: pdfPath,
			Title:   ingestTitle,
		})
		if err != nil {
			return err
		}
		return api.Output(result)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "Document title (default: derived from the filename)")

	rootCmd.AddCommand(ingestCmd)
}
