package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/gcbaptista/go-vocab-highlighter/api"
	"github.com/gcbaptista/go-vocab-highlighter/config"
	"github.com/gcbaptista/go-vocab-highlighter/internal/configstore"
	"github.com/gcbaptista/go-vocab-highlighter/internal/engine"
	"github.com/gcbaptista/go-vocab-highlighter/internal/feed"
	"github.com/gcbaptista/go-vocab-highlighter/internal/statusapi"
	"github.com/gcbaptista/go-vocab-highlighter/services"
)

const version = "v1.0.0"

func main() {
	var (
		help        = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *help {
		fmt.Printf("Vocab Highlighter - headless vocabulary highlighting host\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nConfiguration is read from CONFIG_PATH (default ./config.yaml) and the environment.\n")
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s                                  # Serve on :8080 with in-memory status\n", os.Args[0])
		fmt.Printf("  SERVER_PORT=9000 %s                 # Serve on port 9000\n", os.Args[0])
		fmt.Printf("  WATCH_DIR=./pages %s                # Mirror HTML files from ./pages\n", os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Vocab Highlighter %s\n", version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg *config.HostConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var learner *configstore.Store
	if cfg.Learner.StorePath != "" {
		s, err := configstore.OpenFile(cfg.Learner.StorePath, logger)
		if err != nil {
			return err
		}
		learner = s
		logger.Info("learner settings loaded", slog.String("path", cfg.Learner.StorePath))
	} else {
		learner = configstore.NewMemory(config.DefaultLearnerSettings(), logger)
	}

	var resolver services.StatusResolver
	if cfg.Status.BaseURL != "" {
		client, err := statusapi.NewClient(cfg.Status.BaseURL, statusapi.ClientOptions{
			Token:   cfg.Status.Token,
			Timeout: cfg.Status.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
		resolver = client
		logger.Info("using remote status service", slog.String("base_url", cfg.Status.BaseURL))
	} else {
		resolver = statusapi.NewMemory()
		logger.Info("using in-memory status service")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	eng, err := engine.New(engine.Deps{Resolver: resolver, Config: learner}, engine.Options{
		Settings:      cfg.Scan.ScanSettings(),
		Site:          cfg.Learner.Site,
		WhitelistPath: cfg.Vocab.WhitelistPath,
		Registerer:    registry,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer eng.Stop()

	var dir *feed.Dir
	if cfg.Watch.Dir != "" {
		dir, err = feed.NewDir(cfg.Watch.Dir, eng.Store(), feed.DirOptions{Logger: logger})
		if err != nil {
			return err
		}
		if err := eng.AddFeed(dir); err != nil {
			return err
		}
	}

	if err := eng.Start(ctx); err != nil {
		return err
	}

	if dir != nil {
		if err := dir.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := dir.Stop(); err != nil {
				logger.Warn("failed to stop directory feed", slog.String("error", err.Error()))
			}
		}()
		logger.Info("watching directory", slog.String("dir", cfg.Watch.Dir))
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestIDMiddleware(), api.RequestLoggerMiddleware(logger),
		api.CORSMiddleware(), api.RequestSizeLimitMiddleware(cfg.Server.MaxBodyBytes))
	api.SetupRoutes(router, eng, api.Options{Gatherer: registry, Logger: logger})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
