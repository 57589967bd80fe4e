package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"orderview/internal/config"
	"orderview/internal/locale"
	"orderview/internal/logger"
	"orderview/internal/metrics"
	"orderview/internal/server"
	"orderview/internal/store"
	"orderview/internal/watch"
)

func main() {
	configPath := flag.String("config", os.Getenv("ORDERVIEW_CONFIG"), "path to a YAML config file (env only when empty)")
	flag.Parse()

	cfg, err := config.Read(*configPath)
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("orderview: config")
	}
	log := logger.New(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("orderview failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.View.Location()
	if err != nil {
		return err
	}
	format := locale.New(cfg.View.Locale, loc)
	st := store.New(cfg.View.PageSize)
	srv := server.New(log, st, metrics.NewRegistry(), format, cfg.Data.ExportPath)

	log.Info().
		Str("env", cfg.Env).
		Str("addr", cfg.HTTP.Addr).
		Str("export", cfg.Data.ExportPath).
		Int("page_size", cfg.View.PageSize).
		Str("locale", format.Tag().String()).
		Msg("starting orderview")

	// a missing or broken export file is not fatal; the viewer starts empty
	if cfg.Data.ExportPath != "" {
		_ = srv.Reload()
	}

	if cfg.Data.Watch && cfg.Data.ExportPath != "" {
		go func() {
			err := watch.File(ctx, log, cfg.Data.ExportPath, cfg.Data.WatchDebounce, func() { _ = srv.Reload() })
			if err != nil {
				log.Error().Err(err).Msg("export watcher stopped")
			}
		}()
	}

	httpSrv := &http.Server{Addr: cfg.HTTP.Addr, Handler: srv.Router()}
	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
