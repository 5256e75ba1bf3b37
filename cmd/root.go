package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocr-dataset-builder",
		Short: "OCR training data builder with Gemini-powered text extraction",
		Long: `ocr-dataset-builder turns page images into OCR ground-truth datasets.

Draw bounding boxes over regions of text, extract the text with Gemini
vision models, review and correct the results, and export matched
image/ground-truth pairs for training. Nepali, Hindi, and English text
are supported.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newExtractCmd())

	return cmd
}
