package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/riosaude/healthpipe/internal/config"
	"github.com/riosaude/healthpipe/internal/snapshot"
)

// LiveSource pulls the datasets from the municipal open-data APIs.
// Any failure — connectivity, a non-2xx status, or an unparseable
// body — is reported as ErrUnavailable so the caller can substitute
// a fixture.
type LiveSource struct {
	cfg    config.ExtractConfig
	client *http.Client
}

// NewLiveSource builds a LiveSource with the configured request timeout.
func NewLiveSource(cfg config.ExtractConfig) *LiveSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LiveSource{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *LiveSource) Name() string { return "datario" }

// Wire shapes of the API responses. Field names follow the published
// dataset schemas.
type wireVisit struct {
	VisitID      string `json:"visit_id"`
	VisitDate    string `json:"visit_date"`
	VisitType    string `json:"visit_type"`
	WaitMinutes  int    `json:"wait_minutes"`
	FacilityID   string `json:"facility_id"`
	Neighborhood string `json:"neighborhood"`
	PayerClass   string `json:"payer_class"`
}

type wireOccupancy struct {
	FacilityID      string  `json:"facility_id"`
	FacilityName    string  `json:"facility_name"`
	Neighborhood    string  `json:"neighborhood"`
	BedsTotal       int     `json:"beds_total"`
	BedsOccupied    int     `json:"beds_occupied"`
	ICUBedsTotal    int     `json:"icu_beds_total"`
	ICUBedsOccupied int     `json:"icu_beds_occupied"`
	OccupancyPct    float64 `json:"occupancy_pct"`
	ICUOccupancyPct float64 `json:"icu_occupancy_pct"`
	FacilityType    string  `json:"facility_type"`
}

type wireFacility struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	Neighborhood string  `json:"neighborhood"`
	Type         string  `json:"facility_type"`
	Phone        string  `json:"phone"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

func (s *LiveSource) Visits(ctx context.Context) ([]snapshot.VisitRecord, error) {
	var wire []wireVisit
	if err := s.fetch(ctx, s.cfg.VisitsURL, &wire); err != nil {
		return nil, err
	}
	out := make([]snapshot.VisitRecord, 0, len(wire))
	for _, w := range wire {
		rec := snapshot.VisitRecord{
			VisitID:      w.VisitID,
			VisitType:    w.VisitType,
			WaitMinutes:  w.WaitMinutes,
			FacilityID:   w.FacilityID,
			Neighborhood: w.Neighborhood,
			PayerClass:   w.PayerClass,
		}
		if w.VisitDate != "" {
			d, err := time.Parse("2006-01-02", w.VisitDate)
			if err != nil {
				return nil, fmt.Errorf("%w: visits: bad visit_date %q", ErrUnavailable, w.VisitDate)
			}
			rec.VisitDate = d
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *LiveSource) Occupancy(ctx context.Context) ([]snapshot.OccupancyRecord, error) {
	var wire []wireOccupancy
	if err := s.fetch(ctx, s.cfg.OccupancyURL, &wire); err != nil {
		return nil, err
	}
	out := make([]snapshot.OccupancyRecord, 0, len(wire))
	for _, w := range wire {
		out = append(out, snapshot.OccupancyRecord(w))
	}
	return out, nil
}

func (s *LiveSource) Facilities(ctx context.Context) ([]snapshot.FacilityRecord, error) {
	var wire []wireFacility
	if err := s.fetch(ctx, s.cfg.FacilitiesURL, &wire); err != nil {
		return nil, err
	}
	out := make([]snapshot.FacilityRecord, 0, len(wire))
	for _, w := range wire {
		out = append(out, snapshot.FacilityRecord(w))
	}
	return out, nil
}

// fetch GETs url and decodes the JSON array response into v.
func (s *LiveSource) fetch(ctx context.Context, url string, v interface{}) error {
	if url == "" {
		return fmt.Errorf("%w: no endpoint configured", ErrUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: HTTP %d from %s", ErrUnavailable, resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}
