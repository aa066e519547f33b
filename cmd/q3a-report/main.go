package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/q3a-report/internal/config"
	"github.com/jwebster45206/q3a-report/internal/handlers"
	"github.com/jwebster45206/q3a-report/internal/logger"
	"github.com/jwebster45206/q3a-report/internal/runner"
	"github.com/jwebster45206/q3a-report/internal/storage"
	"github.com/jwebster45206/q3a-report/pkg/logsource"
)

const usage = "Usage: q3a-report [flags] LOG-FILE"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Flags default to the environment so that either can be used.
	flag.BoolVar(&cfg.Strict, "strict", cfg.Strict, "abort on the first line that fails to parse")
	flag.BoolVar(&cfg.Follow, "follow", cfg.Follow, "keep reading as the log grows")
	flag.BoolVar(&cfg.FlushOnEOF, "flush", cfg.FlushOnEOF, "report the unfinished game when the log ends")
	flag.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "serve run status on this address, e.g. :8080")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "missing file\n%s\n", usage)
		os.Exit(2)
	}
	path := flag.Arg(0)

	runID := uuid.New()
	lg := logger.WithRunID(logger.Setup(cfg), runID)

	lg.Info("Starting q3a-report",
		"environment", cfg.Environment,
		"path", path,
		"follow", cfg.Follow)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, cfg, path, runID, os.Stdout, lg)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, path string, runID uuid.UUID, out io.Writer, lg *slog.Logger) int {
	opts := runner.Options{
		Out:        out,
		RunID:      runID,
		Logger:     lg,
		Strict:     cfg.Strict,
		FlushOnEOF: cfg.FlushOnEOF,
	}

	if cfg.RedisURL != "" {
		store, err := storage.NewRedisStore(cfg.RedisURL, cfg.ReportTTL, lg)
		if err != nil {
			lg.Error("Failed to create report store", "error", err)
			return 1
		}
		defer func() {
			if err := store.Close(); err != nil {
				lg.Error("Error closing report store", "error", err)
			}
		}()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			lg.Error("Failed to connect to report store", "error", err)
			return 1
		}
		lg.Info("Report store initialized successfully", "ttl", cfg.ReportTTL)
		opts.Store = store
	}

	var source runner.LineSource
	if cfg.Follow {
		f, err := logsource.NewFollower(path, lg)
		if err != nil {
			lg.Error("Failed to follow log file", "error", err)
			return 1
		}
		defer f.Close()
		source = f
	} else {
		f, err := logsource.Open(path)
		if err != nil {
			lg.Error("Failed to open log file", "error", err)
			return 1
		}
		defer f.Close()
		source = f
	}

	rn := runner.New(opts)
	if cfg.HTTPAddr != "" {
		stopServer := serveStatus(cfg.HTTPAddr, rn, opts.Store, lg)
		defer stopServer()
	}

	sum, err := rn.Run(ctx, source)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			lg.Info("Shutdown signal received", "lines_read", sum.LinesRead, "reports", sum.Reports)
			return 0
		}
		lg.Error("Run failed", "error", err, "lines_read", sum.LinesRead)
		return 1
	}
	return 0
}

// serveStatus starts the status server and returns a function that shuts it
// down.
func serveStatus(addr string, rn *runner.Runner, store storage.ReportStore, lg *slog.Logger) func() {
	mux := handlers.NewMux(
		handlers.NewHealthHandler(store, rn.RunID(), lg),
		handlers.NewGamesHandler(rn, lg),
	)
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.Logger(lg, mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Info("Status server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Error("Status server failed", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Status server forced to shutdown", "error", err)
		}
	}
}
