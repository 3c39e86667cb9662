package alerting

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/riosaude/healthpipe/internal/config"
	"github.com/riosaude/healthpipe/internal/snapshot"
)

// topFacilities caps the per-facility breakdown on the general wait rule.
const topFacilities = 5

// Classifier evaluates the fixed alert rules over one snapshot pair.
type Classifier struct {
	t   config.Thresholds
	now func() time.Time // injectable for deterministic tests
}

// New creates a Classifier from explicit thresholds.
func New(t config.Thresholds) *Classifier {
	return &Classifier{t: t, now: time.Now}
}

// Classify evaluates every rule against the occupancy and visit tables
// and returns the alerts that fired, in rule-evaluation order:
// ICU critical, ICU warning, general occupancy critical, emergency wait,
// general wait. A rule that matches zero rows emits nothing.
//
// A required column missing from either table aborts the whole pass with
// a snapshot.MissingFieldError — a silent partial classification could
// hide a real capacity crisis.
func (c *Classifier) Classify(occ, visits *snapshot.Table) ([]Alert, error) {
	occRecs, err := snapshot.Occupancy(occ)
	if err != nil {
		return nil, err
	}
	visitRecs, err := snapshot.Visits(visits)
	if err != nil {
		return nil, err
	}

	var alerts []Alert
	alerts = appendAlert(alerts, c.icuCritical(occRecs))
	alerts = appendAlert(alerts, c.icuWarning(occRecs))
	alerts = appendAlert(alerts, c.generalCritical(occRecs))
	alerts = appendAlert(alerts, c.emergencyWait(visitRecs))
	alerts = appendAlert(alerts, c.generalWait(visitRecs))
	return alerts, nil
}

func appendAlert(alerts []Alert, a *Alert) []Alert {
	if a == nil {
		return alerts
	}
	return append(alerts, *a)
}

// icuCritical fires when any facility's ICU occupancy is strictly above
// the critical threshold.
func (c *Classifier) icuCritical(recs []snapshot.OccupancyRecord) *Alert {
	var matched []snapshot.OccupancyRecord
	var pcts []float64
	for _, r := range recs {
		if r.ICUOccupancyPct > c.t.ICUCriticalPct {
			matched = append(matched, r)
			pcts = append(pcts, r.ICUOccupancyPct)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	return c.newAlert(KindICUCritical, SeverityCritical,
		"ICU occupancy critical",
		fmt.Sprintf("%d facilities with ICU occupancy above %.0f%%", len(matched), c.t.ICUCriticalPct),
		[]Detail{
			scalar("matched_facilities", float64(len(matched))),
			scalar("avg_icu_occupancy_pct", round1(stat.Mean(pcts, nil))),
			scalar("max_icu_occupancy_pct", floats.Max(pcts)),
			list("affected_facilities", facilityPcts(matched, func(r snapshot.OccupancyRecord) float64 {
				return r.ICUOccupancyPct
			})),
		})
}

// icuWarning fires on the band strictly above the warning threshold and
// at or below the critical one, so a record never matches both ICU rules.
func (c *Classifier) icuWarning(recs []snapshot.OccupancyRecord) *Alert {
	var matched []snapshot.OccupancyRecord
	var pcts []float64
	for _, r := range recs {
		if r.ICUOccupancyPct > c.t.ICUWarningPct && r.ICUOccupancyPct <= c.t.ICUCriticalPct {
			matched = append(matched, r)
			pcts = append(pcts, r.ICUOccupancyPct)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	return c.newAlert(KindICUWarning, SeverityWarning,
		"ICU occupancy elevated",
		fmt.Sprintf("%d facilities with ICU occupancy between %.0f-%.0f%%",
			len(matched), c.t.ICUWarningPct, c.t.ICUCriticalPct),
		[]Detail{
			scalar("matched_facilities", float64(len(matched))),
			scalar("avg_icu_occupancy_pct", round1(stat.Mean(pcts, nil))),
			list("affected_facilities", facilityPcts(matched, func(r snapshot.OccupancyRecord) float64 {
				return r.ICUOccupancyPct
			})),
		})
}

func (c *Classifier) generalCritical(recs []snapshot.OccupancyRecord) *Alert {
	var matched []snapshot.OccupancyRecord
	var pcts []float64
	for _, r := range recs {
		if r.OccupancyPct > c.t.GeneralCriticalPct {
			matched = append(matched, r)
			pcts = append(pcts, r.OccupancyPct)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	return c.newAlert(KindGeneralCritical, SeverityCritical,
		"General bed occupancy critical",
		fmt.Sprintf("%d facilities with occupancy above %.0f%%", len(matched), c.t.GeneralCriticalPct),
		[]Detail{
			scalar("matched_facilities", float64(len(matched))),
			scalar("avg_occupancy_pct", round1(stat.Mean(pcts, nil))),
			list("affected_facilities", facilityPcts(matched, func(r snapshot.OccupancyRecord) float64 {
				return r.OccupancyPct
			})),
		})
}

func (c *Classifier) emergencyWait(recs []snapshot.VisitRecord) *Alert {
	var waits []float64
	counts := map[string]int{}
	for _, r := range recs {
		if r.VisitType == snapshot.VisitEmergency && r.WaitMinutes > c.t.EmergencyWaitMin {
			waits = append(waits, float64(r.WaitMinutes))
			counts[r.FacilityID]++
		}
	}
	if len(waits) == 0 {
		return nil
	}
	return c.newAlert(KindEmergencyWaitCritical, SeverityCritical,
		"Emergency wait time critical",
		fmt.Sprintf("%d emergency visits waiting longer than %d minutes", len(waits), c.t.EmergencyWaitMin),
		[]Detail{
			scalar("matched_visits", float64(len(waits))),
			scalar("avg_wait_minutes", round1(stat.Mean(waits, nil))),
			scalar("max_wait_minutes", floats.Max(waits)),
			list("affected_units", countBreakdown(counts, len(counts))),
		})
}

// generalWait matches any visit type over the general wait threshold.
// The rule is labelled critical in the runbook but reported as WARNING;
// kept as-is pending product clarification.
func (c *Classifier) generalWait(recs []snapshot.VisitRecord) *Alert {
	var waits []float64
	byType := map[string]int{}
	byUnit := map[string]int{}
	for _, r := range recs {
		if r.WaitMinutes > c.t.GeneralWaitMin {
			waits = append(waits, float64(r.WaitMinutes))
			byType[r.VisitType]++
			byUnit[r.FacilityID]++
		}
	}
	if len(waits) == 0 {
		return nil
	}
	return c.newAlert(KindGeneralWaitCritical, SeverityWarning,
		"General wait time elevated",
		fmt.Sprintf("%d visits waiting longer than %d minutes", len(waits), c.t.GeneralWaitMin),
		[]Detail{
			scalar("matched_visits", float64(len(waits))),
			scalar("avg_wait_minutes", round1(stat.Mean(waits, nil))),
			list("by_visit_type", countBreakdown(byType, len(byType))),
			list("top_units", countBreakdown(byUnit, topFacilities)),
		})
}

func (c *Classifier) newAlert(kind Kind, sev Severity, title, summary string, details []Detail) *Alert {
	return &Alert{
		Kind:     kind,
		Severity: sev,
		Title:    title,
		Summary:  summary,
		Details:  details,
		Actions:  ActionsFor(kind),
		FiredAt:  c.now(),
	}
}

// facilityPcts renders "name: pct%" entries for matched occupancy records,
// preserving snapshot order.
func facilityPcts(recs []snapshot.OccupancyRecord, pct func(snapshot.OccupancyRecord) float64) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, fmt.Sprintf("%s: %.2f%%", r.FacilityName, pct(r)))
	}
	return out
}

// countBreakdown renders "key: n" entries sorted by descending count
// (ties broken by key, for deterministic output), capped at max entries.
func countBreakdown(counts map[string]int, max int) []string {
	type kv struct {
		key string
		n   int
	}
	pairs := make([]kv, 0, len(counts))
	for k, n := range counts {
		pairs = append(pairs, kv{k, n})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].n != pairs[j].n {
			return pairs[i].n > pairs[j].n
		}
		return pairs[i].key < pairs[j].key
	})
	if len(pairs) > max {
		pairs = pairs[:max]
	}
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, fmt.Sprintf("%s: %d", p.key, p.n))
	}
	return out
}

// round1 rounds to one decimal, matching how averages are reported in
// the operational dashboards.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
