package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/devkota-labs/ocr-dataset-builder/internal/config"
	"github.com/devkota-labs/ocr-dataset-builder/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var settingsPath string
	var exportDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the annotation interface",
		Long: `Starts the annotation web interface on the specified port.

The interface walks each uploaded image through annotation, extraction,
and review, then exports approved records as image/ground-truth pairs.`,
		Example: `  # Start server on default port 8888
  ocr-dataset-builder serve

  # Start server on custom port with a dedicated export directory
  ocr-dataset-builder serve --port 3000 --export-dir ./dataset`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if settingsPath == "" {
				settingsPath = config.DefaultPath()
			}
			settings, err := config.NewStore(settingsPath)
			if err != nil {
				return err
			}
			handler := handlers.New(settings, exportDir)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/sessions", handler.HandleListSessions)
			mux.HandleFunc("POST /api/sessions", handler.HandleCreateSession)
			mux.HandleFunc("GET /api/sessions/{id}", handler.HandleGetSession)
			mux.HandleFunc("DELETE /api/sessions/{id}", handler.HandleDeleteSession)
			mux.HandleFunc("POST /api/sessions/{id}/boxes", handler.HandleAddBox)
			mux.HandleFunc("DELETE /api/sessions/{id}/boxes/{boxID}", handler.HandleRemoveBox)
			mux.HandleFunc("POST /api/sessions/{id}/viewport", handler.HandleViewport)
			mux.HandleFunc("POST /api/sessions/{id}/next-image", handler.HandleNextImage)
			mux.HandleFunc("POST /api/sessions/{id}/extract", handler.HandleExtract)
			mux.HandleFunc("POST /api/sessions/{id}/review", handler.HandleReview)
			mux.HandleFunc("GET /api/sessions/{id}/records/{recordID}/image", handler.HandleRecordImage)
			mux.HandleFunc("POST /api/sessions/{id}/export", handler.HandleExport)
			mux.HandleFunc("POST /api/sessions/{id}/keys", handler.HandleKey)
			mux.HandleFunc("GET /api/settings", handler.HandleGetSettings)
			mux.HandleFunc("PUT /api/settings", handler.HandleUpdateSettings)
			mux.HandleFunc("/", handler.HandleStatic)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Annotation interface available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&settingsPath, "settings", "", "Path to settings file (default: user config directory)")
	cmd.Flags().StringVar(&exportDir, "export-dir", "exports", "Directory for exported dataset pairs")

	return cmd
}
