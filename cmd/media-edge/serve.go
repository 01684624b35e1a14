package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Gammanik/media-edge/internal/api"
	"github.com/Gammanik/media-edge/internal/config"
	"github.com/Gammanik/media-edge/internal/upstream"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the edge proxy HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				copied := *cfg
				copied.Server.Listen = listen
				cfg = &copied
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Override server.listen (host:port)")
	return cmd
}

// newHTTPServer собирает http.Server со всеми зависимостями прокси
func newHTTPServer(cfg *config.Config, logger *slog.Logger) (*http.Server, error) {
	table, source, err := loadGroupTable(cfg)
	if err != nil {
		return nil, err
	}

	urls, err := upstream.NewURLBuilder(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, err
	}

	client := upstream.New(upstream.Options{
		Timeout:      cfg.UpstreamTimeout(),
		MaxBodyBytes: cfg.Upstream.MaxBodyBytes,
	})

	cors := api.CORS{AllowOrigin: cfg.CORS.AllowOrigin}
	handler, err := api.NewFileHandler(api.Config{
		Groups:        table,
		URLs:          urls,
		Upstream:      client,
		CORS:          cors,
		Logger:        logger,
		PublicBaseURL: cfg.Server.PublicBaseURL,
		ForwardRange:  cfg.Upstream.ForwardRange,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("group table loaded",
		"source", source,
		"groups", len(table.Ranges()),
		"max_id", table.MaxID(),
	)

	return &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      api.WithRequestLogging(handler, logger, cors),
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}, nil
}

func runServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	server, err := newHTTPServer(cfg, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("media edge starting",
			"addr", server.Addr,
			"upstream", cfg.Upstream.BaseURL,
			"upstream_timeout", cfg.UpstreamTimeout(),
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("received termination signal, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("completed shutdown")
	return nil
}
