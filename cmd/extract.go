package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/devkota-labs/ocr-dataset-builder/internal/batch"
	"github.com/devkota-labs/ocr-dataset-builder/internal/config"
	"github.com/devkota-labs/ocr-dataset-builder/internal/export"
	"github.com/devkota-labs/ocr-dataset-builder/internal/gemini"
	"github.com/devkota-labs/ocr-dataset-builder/internal/ocr"
	"github.com/spf13/cobra"
)

func newExtractCmd() *cobra.Command {
	var boxesPath string
	var outputDir string
	var settingsPath string
	var noManifest bool

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract text from pre-annotated regions without the web interface",
		Long: `Runs the extraction pipeline headlessly over a boxes file.

The boxes file is YAML listing image files and the regions to extract
from each:

  images:
    - file: page1.png
      boxes:
        - {x: 10, y: 20, width: 100, height: 40}
    - file: page2.png
      boxes:
        - {x: 5, y: 5, width: 200, height: 60}

Every extracted record is treated as approved and exported as a matched
image/ground-truth pair, plus a parquet manifest of the whole run.`,
		Example: `  # Extract regions listed in boxes.yaml into ./dataset
  ocr-dataset-builder extract --boxes boxes.yaml --output dataset`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if settingsPath == "" {
				settingsPath = config.DefaultPath()
			}
			settings, err := config.NewStore(settingsPath)
			if err != nil {
				return err
			}
			apiKey := settings.APIKey()
			if apiKey == "" {
				return fmt.Errorf("no API key configured: set it in settings or the GEMINI_API_KEY environment variable")
			}

			spec, err := batch.LoadSpec(boxesPath)
			if err != nil {
				return err
			}

			svc := ocr.NewService(gemini.New(apiKey))
			records, err := batch.Run(cmd.Context(), svc, spec, filepath.Dir(boxesPath))
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no records extracted")
			}

			exporter := export.NewService(export.DirSink{Dir: outputDir})
			pairs, err := exporter.ExportApproved(cmd.Context(), records)
			if err != nil {
				return err
			}

			if !noManifest {
				manifest := filepath.Join(outputDir, "manifest.parquet")
				if err := export.WriteManifest(manifest, pairs, records); err != nil {
					return err
				}
			}

			slog.Info("Batch extraction complete", "records", len(records), "pairs", len(pairs), "output", outputDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&boxesPath, "boxes", "", "Path to YAML boxes file (required)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "dataset", "Directory for exported pairs")
	cmd.Flags().StringVar(&settingsPath, "settings", "", "Path to settings file (default: user config directory)")
	cmd.Flags().BoolVar(&noManifest, "no-manifest", false, "Skip writing the parquet manifest")

	if err := cmd.MarkFlagRequired("boxes"); err != nil {
		slog.Error("Unable to mark flag required", "err", err)
	}

	return cmd
}
