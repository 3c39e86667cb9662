package snapshot

import (
	"fmt"
	"strconv"
	"time"
)

// Visit types as they appear in the extracts.
const (
	VisitEmergency    = "Emergency"
	VisitConsultation = "Consultation"
	VisitExam         = "Exam"
	VisitSurgery      = "Surgery"
	VisitUrgency      = "Urgency"
)

// Facility ownership types, as carried by the occupancy extract.
const (
	FacilityPublic        = "Public"
	FacilityPrivate       = "Private"
	FacilityPhilanthropic = "Philanthropic"
)

// Unit categories, as carried by the facility registry.
const (
	UnitUPA        = "UPA"
	UnitHospital   = "Hospital"
	UnitClinic     = "Clinic"
	UnitHealthPost = "Health post"
)

// Payer classes. SUS is the Brazilian public health system.
const (
	PayerSUS     = "SUS"
	PayerPrivate = "Private"
)

// OccupancyRecord is one facility's bed occupancy in a snapshot.
// The percentage fields are computed at extraction time and trusted
// downstream — consumers never re-derive them.
type OccupancyRecord struct {
	FacilityID      string
	FacilityName    string
	Neighborhood    string
	BedsTotal       int
	BedsOccupied    int
	ICUBedsTotal    int
	ICUBedsOccupied int
	OccupancyPct    float64
	ICUOccupancyPct float64
	FacilityType    string
}

// VisitRecord is one care episode in a snapshot.
type VisitRecord struct {
	VisitID      string
	VisitDate    time.Time
	VisitType    string
	WaitMinutes  int
	FacilityID   string
	Neighborhood string
	PayerClass   string
}

// FacilityRecord is one health unit in the registry snapshot.
type FacilityRecord struct {
	ID           string
	Name         string
	Address      string
	Neighborhood string
	Type         string
	Phone        string
	Latitude     float64
	Longitude    float64
}

// Column names shared by the typed views and the extractor.
const (
	ColFacilityID      = "facility_id"
	ColFacilityName    = "facility_name"
	ColNeighborhood    = "neighborhood"
	ColBedsTotal       = "beds_total"
	ColBedsOccupied    = "beds_occupied"
	ColICUBedsTotal    = "icu_beds_total"
	ColICUBedsOccupied = "icu_beds_occupied"
	ColOccupancyPct    = "occupancy_pct"
	ColICUOccupancyPct = "icu_occupancy_pct"
	ColFacilityType    = "facility_type"

	ColVisitID     = "visit_id"
	ColVisitDate   = "visit_date"
	ColVisitType   = "visit_type"
	ColWaitMinutes = "wait_minutes"
	ColPayerClass  = "payer_class"
)

// rowReader resolves columns once and reports the first missing one
// as a MissingFieldError for the view's table.
type rowReader struct {
	t    *Table
	miss *MissingFieldError
}

func (r *rowReader) col(name string) int {
	i, ok := r.t.Column(name)
	if !ok && r.miss == nil {
		r.miss = &MissingFieldError{Table: r.t.Name, Column: name}
	}
	return i
}

// Occupancy parses t into occupancy records. Extra columns (extracted_at,
// source) are ignored; a missing required column is a MissingFieldError.
func Occupancy(t *Table) ([]OccupancyRecord, error) {
	r := &rowReader{t: t}
	var (
		cID    = r.col(ColFacilityID)
		cName  = r.col(ColFacilityName)
		cHood  = r.col(ColNeighborhood)
		cTot   = r.col(ColBedsTotal)
		cOcc   = r.col(ColBedsOccupied)
		cITot  = r.col(ColICUBedsTotal)
		cIOcc  = r.col(ColICUBedsOccupied)
		cPct   = r.col(ColOccupancyPct)
		cIPct  = r.col(ColICUOccupancyPct)
		cFType = r.col(ColFacilityType)
	)
	if r.miss != nil {
		return nil, r.miss
	}

	out := make([]OccupancyRecord, 0, t.Len())
	for n, row := range t.Rows {
		p := &cellParser{}
		rec := OccupancyRecord{
			FacilityID:      row[cID],
			FacilityName:    row[cName],
			Neighborhood:    row[cHood],
			FacilityType:    row[cFType],
			BedsTotal:       p.int(row[cTot]),
			BedsOccupied:    p.int(row[cOcc]),
			ICUBedsTotal:    p.int(row[cITot]),
			ICUBedsOccupied: p.int(row[cIOcc]),
			OccupancyPct:    p.float(row[cPct]),
			ICUOccupancyPct: p.float(row[cIPct]),
		}
		if p.err != nil {
			return nil, fmt.Errorf("snapshot: table %q row %d: %w", t.Name, n, p.err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Visits parses t into visit records.
func Visits(t *Table) ([]VisitRecord, error) {
	r := &rowReader{t: t}
	var (
		cID   = r.col(ColVisitID)
		cType = r.col(ColVisitType)
		cWait = r.col(ColWaitMinutes)
		cFac  = r.col(ColFacilityID)
		cHood = r.col(ColNeighborhood)
		cPay  = r.col(ColPayerClass)
	)
	if r.miss != nil {
		return nil, r.miss
	}

	// visit_date is informational and optional in older extracts.
	cDate, hasDate := t.Column(ColVisitDate)

	out := make([]VisitRecord, 0, t.Len())
	for n, row := range t.Rows {
		rec := VisitRecord{
			VisitID:      row[cID],
			VisitType:    row[cType],
			FacilityID:   row[cFac],
			Neighborhood: row[cHood],
			PayerClass:   row[cPay],
		}
		p := &cellParser{}
		rec.WaitMinutes = p.int(row[cWait])
		if p.err != nil {
			return nil, fmt.Errorf("snapshot: table %q row %d: %w", t.Name, n, p.err)
		}
		if hasDate && row[cDate] != "" {
			d, err := time.Parse("2006-01-02", row[cDate])
			if err != nil {
				return nil, fmt.Errorf("snapshot: table %q row %d: %w", t.Name, n, err)
			}
			rec.VisitDate = d
		}
		out = append(out, rec)
	}
	return out, nil
}

// Facilities parses t into facility registry records.
func Facilities(t *Table) ([]FacilityRecord, error) {
	r := &rowReader{t: t}
	var (
		cID   = r.col("id")
		cName = r.col("name")
		cAddr = r.col("address")
		cHood = r.col(ColNeighborhood)
		cType = r.col(ColFacilityType)
		cTel  = r.col("phone")
		cLat  = r.col("latitude")
		cLon  = r.col("longitude")
	)
	if r.miss != nil {
		return nil, r.miss
	}

	out := make([]FacilityRecord, 0, t.Len())
	for n, row := range t.Rows {
		p := &cellParser{}
		rec := FacilityRecord{
			ID:           row[cID],
			Name:         row[cName],
			Address:      row[cAddr],
			Neighborhood: row[cHood],
			Type:         row[cType],
			Phone:        row[cTel],
			Latitude:     p.float(row[cLat]),
			Longitude:    p.float(row[cLon]),
		}
		if p.err != nil {
			return nil, fmt.Errorf("snapshot: table %q row %d: %w", t.Name, n, p.err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// cellParser parses consecutive cells, remembering the first failure so
// record construction stays flat.
type cellParser struct {
	err error
}

func (p *cellParser) int(s string) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.err = fmt.Errorf("parse integer %q: %w", s, err)
	}
	return v
}

func (p *cellParser) float(s string) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = fmt.Errorf("parse number %q: %w", s, err)
	}
	return v
}
