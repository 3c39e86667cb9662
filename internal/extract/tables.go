package extract

import (
	"fmt"
	"time"

	"github.com/riosaude/healthpipe/internal/snapshot"
)

// Provenance columns stamped on every extract.
const (
	colExtractedAt = "extracted_at"
	colSource      = "source"
)

const timestampLayout = "2006-01-02 15:04:05"

// VisitsTable renders visit records as the visits extract table,
// stamped with extraction time and source.
func VisitsTable(recs []snapshot.VisitRecord, extractedAt time.Time, source string) (*snapshot.Table, error) {
	cols := []string{
		snapshot.ColVisitID, snapshot.ColVisitDate, snapshot.ColVisitType,
		snapshot.ColWaitMinutes, snapshot.ColFacilityID, snapshot.ColNeighborhood,
		snapshot.ColPayerClass, colExtractedAt, colSource,
	}
	stamp := extractedAt.Format(timestampLayout)
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.VisitID, r.VisitDate.Format("2006-01-02"), r.VisitType,
			fmt.Sprintf("%d", r.WaitMinutes), r.FacilityID, r.Neighborhood,
			r.PayerClass, stamp, source,
		})
	}
	return snapshot.NewTable(snapshot.TableVisits, cols, rows)
}

// OccupancyTable renders occupancy records as the bed-occupancy extract.
func OccupancyTable(recs []snapshot.OccupancyRecord, extractedAt time.Time, source string) (*snapshot.Table, error) {
	cols := []string{
		snapshot.ColFacilityID, snapshot.ColFacilityName, snapshot.ColNeighborhood,
		snapshot.ColBedsTotal, snapshot.ColBedsOccupied,
		snapshot.ColICUBedsTotal, snapshot.ColICUBedsOccupied,
		snapshot.ColOccupancyPct, snapshot.ColICUOccupancyPct,
		snapshot.ColFacilityType, colExtractedAt, colSource,
	}
	stamp := extractedAt.Format(timestampLayout)
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.FacilityID, r.FacilityName, r.Neighborhood,
			fmt.Sprintf("%d", r.BedsTotal), fmt.Sprintf("%d", r.BedsOccupied),
			fmt.Sprintf("%d", r.ICUBedsTotal), fmt.Sprintf("%d", r.ICUBedsOccupied),
			fmt.Sprintf("%.2f", r.OccupancyPct), fmt.Sprintf("%.2f", r.ICUOccupancyPct),
			r.FacilityType, stamp, source,
		})
	}
	return snapshot.NewTable(snapshot.TableOccupancy, cols, rows)
}

// FacilitiesTable renders the health-facility registry extract.
func FacilitiesTable(recs []snapshot.FacilityRecord, extractedAt time.Time, source string) (*snapshot.Table, error) {
	cols := []string{
		"id", "name", "address", snapshot.ColNeighborhood, snapshot.ColFacilityType,
		"phone", "latitude", "longitude", colExtractedAt, colSource,
	}
	stamp := extractedAt.Format(timestampLayout)
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.ID, r.Name, r.Address, r.Neighborhood, r.Type,
			r.Phone, fmt.Sprintf("%.6f", r.Latitude), fmt.Sprintf("%.6f", r.Longitude),
			stamp, source,
		})
	}
	return snapshot.NewTable(snapshot.TableFacilities, cols, rows)
}
