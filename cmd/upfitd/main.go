// Command upfitd serves the upfit evaluation API over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chazu/upfit/internal/config"
	"github.com/chazu/upfit/internal/logging"
	"github.com/chazu/upfit/internal/observability"
	"github.com/chazu/upfit/internal/server"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logging.NewFromEnv().Error(ctx, "failed to load configuration", logging.Err(err))
		os.Exit(1)
	}

	fs := flag.NewFlagSet("upfitd", flag.ExitOnError)
	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	fs.BoolVar(&cfg.Trace, "trace", cfg.Trace, "export trace spans to stdout")
	cfg.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	log := cfg.Logger()

	cat, err := cfg.Catalog()
	if err != nil {
		log.Error(ctx, "failed to load catalog", logging.Err(err))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{Enabled: cfg.Trace, ServiceName: "upfitd"}, log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		os.Exit(1)
	}

	api := server.New(cat, server.Options{
		Logger:          log,
		Metrics:         collector,
		EvaluateOptions: cfg.EvaluateOptions(),
		ScriptTimeout:   cfg.ScriptTimeout,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info(ctx, "serving upfit API",
			logging.String("addr", cfg.HTTPAddr),
			logging.Int("modules", len(cat.Modules())),
			logging.Int("vehicles", len(cat.Vehicles())))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server exited", logging.Err(err))
			os.Exit(1)
		}
	}()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "graceful shutdown failed", logging.Err(err))
	}
}
