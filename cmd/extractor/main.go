package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/riosaude/healthpipe/internal/config"
	"github.com/riosaude/healthpipe/internal/extract"
	"github.com/riosaude/healthpipe/internal/metrics"
	"github.com/riosaude/healthpipe/internal/quality"
	"github.com/riosaude/healthpipe/internal/snapshot"
	"github.com/riosaude/healthpipe/internal/storage"
	"github.com/riosaude/healthpipe/internal/warehouse"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
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

	if err := run(ctx, cfg); err != nil {
		slog.Error("extraction run failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	batchID := uuid.NewString()
	extractedAt := time.Now().UTC()
	counters := metrics.NewRun()

	slog.Info("extraction starting",
		"batch_id", batchID,
		"mode", cfg.Extract.Mode,
		"data_dir", cfg.Pipeline.DataDir,
	)

	src := selectSource(ctx, cfg.Extract)
	slog.Info("source selected", "source", src.Name())

	visits, err := src.Visits(ctx)
	if err != nil {
		return err
	}
	occupancy, err := src.Occupancy(ctx)
	if err != nil {
		return err
	}
	facilities, err := src.Facilities(ctx)
	if err != nil {
		return err
	}

	visitsT, err := extract.VisitsTable(visits, extractedAt, src.Name())
	if err != nil {
		return err
	}
	occT, err := extract.OccupancyTable(occupancy, extractedAt, src.Name())
	if err != nil {
		return err
	}
	facT, err := extract.FacilitiesTable(facilities, extractedAt, src.Name())
	if err != nil {
		return err
	}
	tables := []*snapshot.Table{visitsT, occT, facT}

	if err := os.MkdirAll(cfg.Pipeline.DataDir, 0o755); err != nil {
		return err
	}
	for _, t := range tables {
		path := filepath.Join(cfg.Pipeline.DataDir, t.Name+".csv")
		if err := t.WriteCSV(path); err != nil {
			return err
		}
		counters.RowsExtracted.WithLabelValues(t.Name).Add(float64(t.Len()))
		slog.Info("extract written", "dataset", t.Name, "rows", t.Len(), "path", path)
	}

	// Quality findings are reported but never block the run.
	runChecks(visitsT, occT, facT, counters)

	if cfg.Storage.Bucket != "" {
		if err := land(ctx, cfg.Storage, tables, batchID, extractedAt); err != nil {
			slog.Error("object-store landing failed", "err", err)
		}
	} else {
		slog.Info("object-store landing disabled")
	}

	if dsn := cfg.Warehouse.DSN(); dsn != "" {
		if err := load(ctx, dsn, occupancy, visits, facilities, batchID, extractedAt); err != nil {
			slog.Error("warehouse load failed", "err", err)
		}
	} else {
		slog.Info("warehouse load disabled")
	}

	if cfg.Pipeline.MetricsFile != "" {
		if err := counters.WriteTextfile(cfg.Pipeline.MetricsFile); err != nil {
			slog.Error("metrics export failed", "err", err)
		}
	}

	slog.Info("extraction complete", "batch_id", batchID)
	return nil
}

// selectSource maps the configured mode to a data source. In auto mode a
// probe against the live visits endpoint decides; an unavailable source
// falls back to the simulated fixtures so the daily run still produces
// output.
func selectSource(ctx context.Context, cfg config.ExtractConfig) extract.Source {
	switch cfg.Mode {
	case "simulated":
		return extract.NewSimulatedSource()
	case "live":
		return extract.NewLiveSource(cfg)
	}

	live := extract.NewLiveSource(cfg)
	if _, err := live.Visits(ctx); err != nil {
		if errors.Is(err, extract.ErrUnavailable) {
			slog.Warn("live source unavailable, falling back to simulated data", "err", err)
			return extract.NewSimulatedSource()
		}
		slog.Warn("live source probe failed, falling back to simulated data", "err", err)
		return extract.NewSimulatedSource()
	}
	return live
}

func runChecks(visits, occ, fac *snapshot.Table, counters *metrics.Run) {
	checks := []struct {
		table *snapshot.Table
		check func(*snapshot.Table) (*quality.Report, error)
	}{
		{visits, quality.CheckVisits},
		{occ, quality.CheckOccupancy},
		{fac, quality.CheckFacilities},
	}
	for _, c := range checks {
		report, err := c.check(c.table)
		if err != nil {
			slog.Error("quality check could not read table", "dataset", c.table.Name, "err", err)
			continue
		}
		counters.QualityFindings.WithLabelValues(c.table.Name).Add(float64(len(report.Findings)))
		if report.Passed() {
			slog.Info("quality check passed", "dataset", c.table.Name)
			continue
		}
		for _, f := range report.Findings {
			slog.Warn("quality finding",
				"dataset", f.Table, "column", f.Column, "check", f.Check,
				"rows", f.Rows, "detail", f.Detail,
			)
		}
	}
}

func land(ctx context.Context, cfg config.StorageConfig, tables []*snapshot.Table, batchID string, extractedAt time.Time) error {
	lander, err := storage.New(cfg)
	if err != nil {
		return err
	}
	keys, err := lander.LandAll(ctx, tables, batchID, extractedAt)
	for _, key := range keys {
		slog.Info("extract landed", "bucket", cfg.Bucket, "key", key)
	}
	return err
}

func load(ctx context.Context, dsn string,
	occupancy []snapshot.OccupancyRecord, visits []snapshot.VisitRecord, facilities []snapshot.FacilityRecord,
	batchID string, extractedAt time.Time) error {

	loader, err := warehouse.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer loader.Close()

	if err := loader.EnsureSchema(ctx); err != nil {
		return err
	}
	n, err := loader.LoadOccupancy(ctx, occupancy, batchID, extractedAt)
	if err != nil {
		return err
	}
	slog.Info("warehouse load", "table", "raw_bed_occupancy", "rows", n)

	n, err = loader.LoadVisits(ctx, visits, batchID, extractedAt)
	if err != nil {
		return err
	}
	slog.Info("warehouse load", "table", "raw_visits", "rows", n)

	n, err = loader.LoadFacilities(ctx, facilities, batchID, extractedAt)
	if err != nil {
		return err
	}
	slog.Info("warehouse load", "table", "raw_health_facilities", "rows", n)
	return nil
}
