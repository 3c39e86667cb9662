package warehouse

import (
	"testing"
	"time"

	"github.com/riosaude/healthpipe/internal/snapshot"
)

func TestOccupancyRows(t *testing.T) {
	at := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	recs := []snapshot.OccupancyRecord{{
		FacilityID:      "HOSP001",
		FacilityName:    "Hospital Municipal 1",
		Neighborhood:    "Centro",
		BedsTotal:       100,
		BedsOccupied:    85,
		ICUBedsTotal:    10,
		ICUBedsOccupied: 9,
		OccupancyPct:    85,
		ICUOccupancyPct: 90,
		FacilityType:    snapshot.FacilityPublic,
	}}

	rows := occupancyRows(recs, "batch-1", at)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if len(row) != len(occupancyColumns) {
		t.Fatalf("row width %d != column count %d", len(row), len(occupancyColumns))
	}
	if row[0] != "batch-1" || row[1] != at {
		t.Errorf("run metadata = %v, %v", row[0], row[1])
	}
	if row[2] != "HOSP001" || row[9] != 85.0 {
		t.Errorf("row = %v", row)
	}
}

func TestVisitRowsNullDate(t *testing.T) {
	at := time.Now()
	recs := []snapshot.VisitRecord{
		{VisitID: "ATD000001", VisitType: snapshot.VisitEmergency, WaitMinutes: 25,
			FacilityID: "UPA01", Neighborhood: "Centro", PayerClass: snapshot.PayerSUS},
		{VisitID: "ATD000002", VisitDate: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
			VisitType: snapshot.VisitExam, WaitMinutes: 40,
			FacilityID: "UPA02", Neighborhood: "Tijuca", PayerClass: snapshot.PayerPrivate},
	}

	rows := visitRows(recs, "batch-1", at)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for _, row := range rows {
		if len(row) != len(visitColumns) {
			t.Fatalf("row width %d != column count %d", len(row), len(visitColumns))
		}
	}
	// A zero visit date lands as NULL, not as the zero time.
	if rows[0][3] != nil {
		t.Errorf("missing date = %v, want nil", rows[0][3])
	}
	if rows[1][3] == nil {
		t.Error("present date landed as nil")
	}
}

func TestFacilityRows(t *testing.T) {
	recs := []snapshot.FacilityRecord{{
		ID: "UPA01", Name: "UPA Centro", Address: "Rua A 1",
		Neighborhood: "Centro", Type: snapshot.FacilityPublic,
		Phone: "(21) 3333-0001", Latitude: -22.9068, Longitude: -43.1729,
	}}
	rows := facilityRows(recs, "batch-1", time.Now())
	if len(rows) != 1 || len(rows[0]) != len(facilityColumns) {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][2] != "UPA01" || rows[0][8] != -22.9068 {
		t.Errorf("row = %v", rows[0])
	}
}
