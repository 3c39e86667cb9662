package extract

import (
	"context"
	"errors"

	"github.com/riosaude/healthpipe/internal/snapshot"
)

// ErrUnavailable marks a data source that could not be reached or did
// not return usable data. Callers match it with errors.Is and decide
// whether to substitute a fixture.
var ErrUnavailable = errors.New("extract: source unavailable")

// Source yields one batch extraction's records for each dataset.
type Source interface {
	// Name identifies the source in logs and the "source" extract column.
	Name() string

	Visits(ctx context.Context) ([]snapshot.VisitRecord, error)
	Occupancy(ctx context.Context) ([]snapshot.OccupancyRecord, error)
	Facilities(ctx context.Context) ([]snapshot.FacilityRecord, error)
}
