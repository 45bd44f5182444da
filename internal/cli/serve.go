package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/gantryml/gantry/internal/server"
	"github.com/gantryml/gantry/pkg/pipeline"
	"github.com/gantryml/gantry/pkg/pipeline/optimize"
)

// newServeCmd creates the serve command, which fits the declared
// pipeline and hosts it behind an HTTP apply endpoint until the context
// is cancelled.
func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a fitted pipeline over HTTP",
		Long:  `Serve loads a TOML job declaration, fits the declared pipeline on the training data, and hosts the fitted pipeline behind POST /v1/apply. The server shuts down gracefully on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			p, err := BuildPipeline(cfg)
			if err != nil {
				return err
			}

			colls, err := buildCollections(ctx, cfg)
			if err != nil {
				return err
			}

			if NeedsLabels(cfg) && colls.labels == nil {
				_ = colls.cleanup(ctx)
				return fmt.Errorf("config: pipeline has a label-estimator stage but no labels")
			}

			tracker := newProgress(logger)
			var fitted *pipeline.Pipeline
			if colls.labels != nil {
				fitted, err = p.FitLabeled(ctx, colls.train, colls.labels)
			} else {
				fitted, err = p.Fit(ctx, colls.train)
			}
			if cerr := colls.cleanup(ctx); cerr != nil {
				logger.Warn("backend cleanup failed", "err", cerr)
			}
			if err != nil {
				return err
			}
			tracker.done("fitted pipeline")

			var opt pipeline.Optimizer
			if cfg.Optimize.Enabled {
				opt = optimize.Standard()
			}

			srv := &http.Server{
				Addr:              cfg.Serve.Addr,
				Handler:           server.New(fitted, opt, logger).Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("serving", "addr", cfg.Serve.Addr, "nodes", fitted.NodeCount())
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return err
				}
				return ctx.Err()
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "gantry.toml", "path to the TOML job declaration")
	return cmd
}
