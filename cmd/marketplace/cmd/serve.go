package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/maltedev/marketplace-scraper/internal/api"
)

var serveFlags struct {
	in string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest run as cards and detail records over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		in := cfg.Marketplace.OutputFile
		if cmd.Flags().Changed("in") {
			in = serveFlags.in
		}

		handlers := api.NewHandlers(api.FileSource(in, log), log)
		server := &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      api.NewRouter(handlers, nil),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		ctx := cmd.Context()
		go func() {
			<-ctx.Done()
			log.Info("shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error("server shutdown failed", "error", err)
			}
		}()

		log.Info("server starting", "addr", server.Addr, "source", in)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}

		log.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.in, "in", "marketplace_products.json", "run file to serve")
	rootCmd.AddCommand(serveCmd)
}
