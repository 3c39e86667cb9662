package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/riosaude/healthpipe/internal/snapshot"
)

// Raw landing tables. Schema matches the CSV extracts plus run metadata.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS raw_bed_occupancy (
		batch_id          UUID NOT NULL,
		extracted_at      TIMESTAMPTZ NOT NULL,
		facility_id       TEXT NOT NULL,
		facility_name     TEXT NOT NULL,
		neighborhood      TEXT NOT NULL,
		beds_total        INTEGER NOT NULL,
		beds_occupied     INTEGER NOT NULL,
		icu_beds_total    INTEGER NOT NULL,
		icu_beds_occupied INTEGER NOT NULL,
		occupancy_pct     DOUBLE PRECISION NOT NULL,
		icu_occupancy_pct DOUBLE PRECISION NOT NULL,
		facility_type     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS raw_visits (
		batch_id     UUID NOT NULL,
		extracted_at TIMESTAMPTZ NOT NULL,
		visit_id     TEXT NOT NULL,
		visit_date   DATE,
		visit_type   TEXT NOT NULL,
		wait_minutes INTEGER NOT NULL,
		facility_id  TEXT NOT NULL,
		neighborhood TEXT NOT NULL,
		payer_class  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS raw_health_facilities (
		batch_id     UUID NOT NULL,
		extracted_at TIMESTAMPTZ NOT NULL,
		id           TEXT NOT NULL,
		name         TEXT NOT NULL,
		address      TEXT NOT NULL,
		neighborhood TEXT NOT NULL,
		facility_type TEXT NOT NULL,
		phone        TEXT NOT NULL,
		latitude     DOUBLE PRECISION NOT NULL,
		longitude    DOUBLE PRECISION NOT NULL
	)`,
}

// Loader appends extract snapshots to the warehouse.
type Loader struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against the warehouse DSN and verifies it.
func Connect(ctx context.Context, dsn string) (*Loader, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("warehouse: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("warehouse: ping: %w", err)
	}
	return &Loader{pool: pool}, nil
}

// Close releases the underlying pool.
func (l *Loader) Close() { l.pool.Close() }

// EnsureSchema creates the raw landing tables when absent.
func (l *Loader) EnsureSchema(ctx context.Context) error {
	for _, ddl := range schema {
		if _, err := l.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("warehouse: ensure schema: %w", err)
		}
	}
	return nil
}

// LoadOccupancy appends one occupancy snapshot under the given batch id.
func (l *Loader) LoadOccupancy(ctx context.Context, recs []snapshot.OccupancyRecord, batchID string, extractedAt time.Time) (int64, error) {
	n, err := l.pool.CopyFrom(ctx,
		pgx.Identifier{"raw_bed_occupancy"},
		occupancyColumns,
		pgx.CopyFromRows(occupancyRows(recs, batchID, extractedAt)),
	)
	if err != nil {
		return 0, fmt.Errorf("warehouse: copy bed occupancy: %w", err)
	}
	return n, nil
}

// LoadVisits appends one visits snapshot under the given batch id.
func (l *Loader) LoadVisits(ctx context.Context, recs []snapshot.VisitRecord, batchID string, extractedAt time.Time) (int64, error) {
	n, err := l.pool.CopyFrom(ctx,
		pgx.Identifier{"raw_visits"},
		visitColumns,
		pgx.CopyFromRows(visitRows(recs, batchID, extractedAt)),
	)
	if err != nil {
		return 0, fmt.Errorf("warehouse: copy visits: %w", err)
	}
	return n, nil
}

// LoadFacilities appends one facility registry snapshot under the given
// batch id.
func (l *Loader) LoadFacilities(ctx context.Context, recs []snapshot.FacilityRecord, batchID string, extractedAt time.Time) (int64, error) {
	n, err := l.pool.CopyFrom(ctx,
		pgx.Identifier{"raw_health_facilities"},
		facilityColumns,
		pgx.CopyFromRows(facilityRows(recs, batchID, extractedAt)),
	)
	if err != nil {
		return 0, fmt.Errorf("warehouse: copy health facilities: %w", err)
	}
	return n, nil
}

var occupancyColumns = []string{
	"batch_id", "extracted_at",
	snapshot.ColFacilityID, snapshot.ColFacilityName, snapshot.ColNeighborhood,
	snapshot.ColBedsTotal, snapshot.ColBedsOccupied,
	snapshot.ColICUBedsTotal, snapshot.ColICUBedsOccupied,
	snapshot.ColOccupancyPct, snapshot.ColICUOccupancyPct,
	snapshot.ColFacilityType,
}

var visitColumns = []string{
	"batch_id", "extracted_at",
	snapshot.ColVisitID, snapshot.ColVisitDate, snapshot.ColVisitType,
	snapshot.ColWaitMinutes, snapshot.ColFacilityID, snapshot.ColNeighborhood,
	snapshot.ColPayerClass,
}

var facilityColumns = []string{
	"batch_id", "extracted_at",
	"id", "name", "address", snapshot.ColNeighborhood,
	snapshot.ColFacilityType, "phone", "latitude", "longitude",
}

func occupancyRows(recs []snapshot.OccupancyRecord, batchID string, extractedAt time.Time) [][]any {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []any{
			batchID, extractedAt,
			r.FacilityID, r.FacilityName, r.Neighborhood,
			r.BedsTotal, r.BedsOccupied,
			r.ICUBedsTotal, r.ICUBedsOccupied,
			r.OccupancyPct, r.ICUOccupancyPct,
			r.FacilityType,
		})
	}
	return rows
}

func visitRows(recs []snapshot.VisitRecord, batchID string, extractedAt time.Time) [][]any {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		var date any
		if !r.VisitDate.IsZero() {
			date = r.VisitDate
		}
		rows = append(rows, []any{
			batchID, extractedAt,
			r.VisitID, date, r.VisitType,
			r.WaitMinutes, r.FacilityID, r.Neighborhood,
			r.PayerClass,
		})
	}
	return rows
}

func facilityRows(recs []snapshot.FacilityRecord, batchID string, extractedAt time.Time) [][]any {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []any{
			batchID, extractedAt,
			r.ID, r.Name, r.Address, r.Neighborhood,
			r.Type, r.Phone, r.Latitude, r.Longitude,
		})
	}
	return rows
}
