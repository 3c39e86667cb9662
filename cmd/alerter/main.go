package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/riosaude/healthpipe/internal/alerting"
	"github.com/riosaude/healthpipe/internal/config"
	"github.com/riosaude/healthpipe/internal/metrics"
	"github.com/riosaude/healthpipe/internal/notify"
	"github.com/riosaude/healthpipe/internal/report"
	"github.com/riosaude/healthpipe/internal/snapshot"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	watch := flag.Bool("watch", false, "keep running and re-evaluate when extracts change")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *watch {
		runWatch(ctx, cfg)
		return
	}
	if err := run(cfg); err != nil {
		slog.Error("alert run failed", "err", err)
		os.Exit(1)
	}
}

// Extract files the alerter consumes.
var watched = []string{
	snapshot.TableOccupancy + ".csv",
	snapshot.TableVisits + ".csv",
}

// run evaluates one snapshot end to end. Classification failure is the
// only fatal outcome; delivery and dashboard problems are logged and the
// run still counts as done.
func run(cfg *config.Config) error {
	counters := metrics.NewRun()

	occ, err := snapshot.ReadCSV(
		filepath.Join(cfg.Pipeline.DataDir, snapshot.TableOccupancy+".csv"), snapshot.TableOccupancy)
	if err != nil {
		return err
	}
	visits, err := snapshot.ReadCSV(
		filepath.Join(cfg.Pipeline.DataDir, snapshot.TableVisits+".csv"), snapshot.TableVisits)
	if err != nil {
		return err
	}

	classifier := alerting.New(cfg.Alerts.Thresholds)
	alerts, err := classifier.Classify(occ, visits)
	if err != nil {
		return err
	}
	for _, a := range alerts {
		counters.AlertsFired.WithLabelValues(a.Severity.String()).Inc()
		slog.Info("alert fired", "kind", a.Kind, "severity", a.Severity.String(), "title", a.Title)
	}
	if len(alerts) == 0 {
		slog.Info("no alerts: all monitored indicators within limits")
	}

	dispatcher := notify.New(cfg.Alerts)
	for _, d := range dispatcher.Dispatch(alerts) {
		counters.Deliveries.WithLabelValues(d.Channel, outcome(d)).Inc()
	}

	if err := report.New().Write(cfg.Pipeline.DashboardPath, alerts); err != nil {
		slog.Error("dashboard write failed", "err", err)
	} else {
		slog.Info("dashboard written", "path", cfg.Pipeline.DashboardPath)
	}

	if cfg.Pipeline.MetricsFile != "" {
		if err := counters.WriteTextfile(cfg.Pipeline.MetricsFile); err != nil {
			slog.Error("metrics export failed", "err", err)
		}
	}
	return nil
}

func outcome(d notify.Delivery) string {
	switch {
	case d.Delivered:
		return "delivered"
	case d.Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// runWatch re-evaluates on every change to the watched extracts until
// the context is cancelled. A failing evaluation is logged and the
// watcher keeps going; the next extraction gets another chance.
func runWatch(ctx context.Context, cfg *config.Config) {
	slog.Info("watching extracts", "dir", cfg.Pipeline.DataDir, "files", watched)

	// Evaluate once at startup so a watcher started after the day's
	// extraction still reports on it.
	if err := run(cfg); err != nil {
		slog.Error("alert run failed", "err", err)
	}

	err := snapshot.Watch(ctx, cfg.Pipeline.DataDir, watched, func(file string) {
		slog.Info("extract changed, re-evaluating", "file", file)
		if err := run(cfg); err != nil {
			slog.Error("alert run failed", "err", err)
		}
	})
	if err != nil && ctx.Err() == nil {
		slog.Error("watcher stopped", "err", err)
		os.Exit(1)
	}
}
