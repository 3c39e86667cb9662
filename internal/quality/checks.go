package quality

import (
	"fmt"

	"github.com/riosaude/healthpipe/internal/snapshot"
)

// Nominal upper bound on a recorded wait: 24 hours.
const maxWaitMinutes = 1440

// Finding is one failed expectation over a table.
type Finding struct {
	Table  string
	Column string
	Check  string
	Rows   int // number of offending rows
	Detail string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s.%s %s: %d rows (%s)", f.Table, f.Column, f.Check, f.Rows, f.Detail)
}

// Report collects the findings of one validation pass.
type Report struct {
	Findings []Finding
}

// Passed reports whether the pass produced no findings.
func (r *Report) Passed() bool { return len(r.Findings) == 0 }

func (r *Report) add(table, column, check string, rows int, detail string) {
	if rows == 0 {
		return
	}
	r.Findings = append(r.Findings, Finding{
		Table: table, Column: column, Check: check, Rows: rows, Detail: detail,
	})
}

var validVisitTypes = map[string]bool{
	snapshot.VisitEmergency:    true,
	snapshot.VisitConsultation: true,
	snapshot.VisitExam:         true,
	snapshot.VisitSurgery:      true,
	snapshot.VisitUrgency:      true,
}

var validPayers = map[string]bool{
	snapshot.PayerSUS:     true,
	snapshot.PayerPrivate: true,
}

var validFacilityTypes = map[string]bool{
	snapshot.FacilityPublic:        true,
	snapshot.FacilityPrivate:       true,
	snapshot.FacilityPhilanthropic: true,
}

var validUnitCategories = map[string]bool{
	snapshot.UnitUPA:        true,
	snapshot.UnitHospital:   true,
	snapshot.UnitClinic:     true,
	snapshot.UnitHealthPost: true,
}

// CheckVisits validates the visits table. A missing required column is
// a hard error, not a finding.
func CheckVisits(t *snapshot.Table) (*Report, error) {
	recs, err := snapshot.Visits(t)
	if err != nil {
		return nil, err
	}

	r := &Report{}
	var nullIDs, dupIDs, badWait, badType, badPayer int
	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		switch {
		case rec.VisitID == "":
			nullIDs++
		case seen[rec.VisitID]:
			dupIDs++
		default:
			seen[rec.VisitID] = true
		}
		if rec.WaitMinutes < 0 || rec.WaitMinutes > maxWaitMinutes {
			badWait++
		}
		if !validVisitTypes[rec.VisitType] {
			badType++
		}
		if !validPayers[rec.PayerClass] {
			badPayer++
		}
	}
	r.add(t.Name, snapshot.ColVisitID, "not_null", nullIDs, "empty visit id")
	r.add(t.Name, snapshot.ColVisitID, "unique", dupIDs, "duplicate visit id")
	r.add(t.Name, snapshot.ColWaitMinutes, "between", badWait,
		fmt.Sprintf("outside [0, %d]", maxWaitMinutes))
	r.add(t.Name, snapshot.ColVisitType, "in_set", badType, "unknown visit type")
	r.add(t.Name, snapshot.ColPayerClass, "in_set", badPayer, "unknown payer class")
	return r, nil
}

// CheckOccupancy validates the bed-occupancy table. Over-occupancy
// (occupied above total) is reported as a data-integrity finding and
// passed through to classification unchanged.
func CheckOccupancy(t *snapshot.Table) (*Report, error) {
	recs, err := snapshot.Occupancy(t)
	if err != nil {
		return nil, err
	}

	r := &Report{}
	var badPct, badICUPct, overOccupied, overICU, badType, negBeds int
	for _, rec := range recs {
		if rec.OccupancyPct < 0 || rec.OccupancyPct > 100 {
			badPct++
		}
		if rec.ICUOccupancyPct < 0 || rec.ICUOccupancyPct > 100 {
			badICUPct++
		}
		if rec.BedsOccupied > rec.BedsTotal {
			overOccupied++
		}
		if rec.ICUBedsOccupied > rec.ICUBedsTotal {
			overICU++
		}
		if rec.BedsTotal < 0 || rec.BedsOccupied < 0 || rec.ICUBedsTotal < 0 || rec.ICUBedsOccupied < 0 {
			negBeds++
		}
		if !validFacilityTypes[rec.FacilityType] {
			badType++
		}
	}
	r.add(t.Name, snapshot.ColOccupancyPct, "between", badPct, "outside [0, 100]")
	r.add(t.Name, snapshot.ColICUOccupancyPct, "between", badICUPct, "outside [0, 100]")
	r.add(t.Name, snapshot.ColBedsOccupied, "consistency", overOccupied, "occupied beds above total")
	r.add(t.Name, snapshot.ColICUBedsOccupied, "consistency", overICU, "occupied ICU beds above total")
	r.add(t.Name, snapshot.ColBedsTotal, "non_negative", negBeds, "negative bed count")
	r.add(t.Name, snapshot.ColFacilityType, "in_set", badType, "unknown facility type")
	return r, nil
}

// CheckFacilities validates the facility registry table.
func CheckFacilities(t *snapshot.Table) (*Report, error) {
	recs, err := snapshot.Facilities(t)
	if err != nil {
		return nil, err
	}

	r := &Report{}
	var nullIDs, dupIDs, badType, badCoords int
	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		switch {
		case rec.ID == "":
			nullIDs++
		case seen[rec.ID]:
			dupIDs++
		default:
			seen[rec.ID] = true
		}
		if !validUnitCategories[rec.Type] {
			badType++
		}
		// Rio de Janeiro municipality bounding box, loose.
		if rec.Latitude < -23.1 || rec.Latitude > -22.7 ||
			rec.Longitude < -43.8 || rec.Longitude > -43.0 {
			badCoords++
		}
	}
	r.add(t.Name, "id", "not_null", nullIDs, "empty facility id")
	r.add(t.Name, "id", "unique", dupIDs, "duplicate facility id")
	r.add(t.Name, snapshot.ColFacilityType, "in_set", badType, "unknown facility type")
	r.add(t.Name, "latitude", "between", badCoords, "outside the municipal bounding box")
	return r, nil
}
