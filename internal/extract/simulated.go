package extract

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/riosaude/healthpipe/internal/snapshot"
)

// Fixture sizes, matching the historical sample extracts.
const (
	simVisitCount    = 100
	simFacilityCount = 20
	simRegistryCount = 15
)

// SimulatedSource generates deterministic fixture datasets. For a fixed
// clock the output is fully reproducible, which keeps quality checks and
// classification tests stable.
type SimulatedSource struct {
	now func() time.Time
}

// NewSimulatedSource creates a fixture source using the real clock.
func NewSimulatedSource() *SimulatedSource {
	return &SimulatedSource{now: time.Now}
}

func (s *SimulatedSource) Name() string { return "simulated" }

func (s *SimulatedSource) Visits(_ context.Context) ([]snapshot.VisitRecord, error) {
	visitTypes := []string{
		snapshot.VisitEmergency, snapshot.VisitConsultation,
		snapshot.VisitExam, snapshot.VisitSurgery,
	}
	neighborhoods := []string{"Copacabana", "Ipanema", "Tijuca", "Centro", "Barra"}
	payers := []string{snapshot.PayerSUS, snapshot.PayerPrivate}

	now := s.now()
	out := make([]snapshot.VisitRecord, 0, simVisitCount)
	for i := 1; i <= simVisitCount; i++ {
		out = append(out, snapshot.VisitRecord{
			VisitID:      fmt.Sprintf("ATD%06d", i),
			VisitDate:    now.AddDate(0, 0, -(i % 30)),
			VisitType:    visitTypes[i%4],
			WaitMinutes:  (i * 15) % 120,
			FacilityID:   fmt.Sprintf("UPA%02d", (i%10)+1),
			Neighborhood: neighborhoods[i%5],
			PayerClass:   payers[i%2],
		})
	}
	return out, nil
}

func (s *SimulatedSource) Occupancy(_ context.Context) ([]snapshot.OccupancyRecord, error) {
	neighborhoods := []string{"Centro", "Zona Sul", "Zona Norte", "Barra", "Tijuca"}
	facilityTypes := []string{
		snapshot.FacilityPublic, snapshot.FacilityPrivate, snapshot.FacilityPhilanthropic,
	}

	out := make([]snapshot.OccupancyRecord, 0, simFacilityCount)
	for i := 0; i < simFacilityCount; i++ {
		rec := snapshot.OccupancyRecord{
			FacilityID:      fmt.Sprintf("HOSP%03d", i),
			FacilityName:    fmt.Sprintf("Hospital %c", 'A'+i),
			Neighborhood:    neighborhoods[i%5],
			BedsTotal:       50 + (i*10)%200,
			BedsOccupied:    20 + (i*7)%150,
			ICUBedsTotal:    10 + (i*2)%30,
			ICUBedsOccupied: 5 + i%25,
			FacilityType:    facilityTypes[i%3],
		}
		rec.OccupancyPct = pct(rec.BedsOccupied, rec.BedsTotal)
		rec.ICUOccupancyPct = pct(rec.ICUBedsOccupied, rec.ICUBedsTotal)
		out = append(out, rec)
	}
	return out, nil
}

func (s *SimulatedSource) Facilities(_ context.Context) ([]snapshot.FacilityRecord, error) {
	neighborhoods := []string{"Copacabana", "Ipanema", "Tijuca", "Centro", "Barra", "Botafogo"}
	unitTypes := []string{
		snapshot.UnitUPA, snapshot.UnitHospital, snapshot.UnitClinic, snapshot.UnitHealthPost,
	}

	out := make([]snapshot.FacilityRecord, 0, simRegistryCount)
	for i := 0; i < simRegistryCount; i++ {
		out = append(out, snapshot.FacilityRecord{
			ID:           fmt.Sprintf("UNI%03d", i),
			Name:         fmt.Sprintf("Health Unit %c", 'A'+i),
			Address:      fmt.Sprintf("Rua das Flores, %d", 100+i*10),
			Neighborhood: neighborhoods[i%6],
			Type:         unitTypes[i%4],
			Phone:        fmt.Sprintf("(21) 9999-%d", 1000+i),
			Latitude:     -22.9 + math.Mod(float64(i)*0.01, 0.3),
			Longitude:    -43.2 - math.Mod(float64(i)*0.01, 0.3),
		})
	}
	return out, nil
}

// pct is the occupancy percentage rounded to two decimals. It is
// computed here, at extraction time — downstream consumers trust it.
func pct(occupied, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(occupied)/float64(total)*100*100) / 100
}
