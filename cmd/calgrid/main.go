package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"calgrid/internal/config"
	"calgrid/internal/grid"
	"calgrid/internal/layout"
	appLog "calgrid/internal/log"
	"calgrid/internal/source"
	"calgrid/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	date       string
	logLevel   string
}

func main() {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		appLog.Warn("failed to read .env", "err", err)
	}

	flags := parseFlags()
	applyLogLevel(flags.logLevel)

	appLog.Info("calgrid starting", "version", version)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.logLevel == "" {
		applyLogLevel(conf.LogLevel)
	}

	// CLI -listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"backfill_days", conf.BackfillDays,
		"ics_count", len(conf.ICS),
		"resource_count", len(conf.Resources),
		"once", flags.once,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := source.NewStore(conf)

	if flags.once {
		if err := runOnce(ctx, conf, store, flags.date); err != nil {
			appLog.Error("single run failed", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, conf, store); err != nil {
		appLog.Error("server failed", err)
		os.Exit(1)
	}
	appLog.Info("calgrid exiting")
}

// runOnce refreshes once and prints the month layout around date as JSON.
func runOnce(ctx context.Context, conf *config.Config, store *source.Store, date string) error {
	anchor := grid.DayOf(time.Now().In(conf.Location()))
	if date != "" {
		d, err := grid.ParseDay(date)
		if err != nil {
			return fmt.Errorf("-date: %w", err)
		}
		anchor = d
	}

	if err := store.Refresh(ctx); err != nil {
		return err
	}

	view := layout.Month(anchor, conf.WeekStartValue(), store.Events())
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

// serve runs the refresh schedule and the HTTP API until ctx is cancelled.
func serve(ctx context.Context, conf *config.Config, store *source.Store) error {
	// Populate the store before the first request; a failure here is not
	// fatal since the scheduler retries.
	if err := store.Refresh(ctx); err != nil {
		appLog.Error("initial refresh failed", err)
	}

	sched, err := source.NewScheduler(ctx, conf.RefreshCron, store)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:              conf.Listen,
		Handler:           web.NewServer(conf, store).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		appLog.Info("signal received, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func applyLogLevel(s string) {
	if s == "" {
		return
	}
	lvl, ok := appLog.ParseLevel(s)
	if !ok {
		appLog.Warn("unknown log level; keeping current", "level", s)
		return
	}
	appLog.SetLevel(lvl)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", envOr("CALGRID_CONFIG", "/etc/calgrid/config.yaml"), "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Refresh once, print the month layout as JSON and exit")
	flag.StringVar(&cfg.date, "date", "", "Anchor date (YYYY-MM-DD) for -once; defaults to today")
	flag.StringVar(&cfg.logLevel, "log-level", os.Getenv("CALGRID_LOG_LEVEL"), "debug, info, warn or error (overrides config)")

	flag.Parse()

	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
