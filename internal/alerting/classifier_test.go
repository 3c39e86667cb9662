package alerting

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/riosaude/healthpipe/internal/config"
	"github.com/riosaude/healthpipe/internal/snapshot"
)

func testThresholds() config.Thresholds {
	return config.Thresholds{
		ICUCriticalPct:     85,
		ICUWarningPct:      70,
		GeneralCriticalPct: 90,
		GeneralWarningPct:  75,
		EmergencyWaitMin:   30,
		GeneralWaitMin:     120,
	}
}

func testClassifier() *Classifier {
	c := New(testThresholds())
	c.now = func() time.Time { return time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC) }
	return c
}

var occupancyHeader = []string{
	"facility_id", "facility_name", "neighborhood",
	"beds_total", "beds_occupied", "icu_beds_total", "icu_beds_occupied",
	"occupancy_pct", "icu_occupancy_pct", "facility_type",
}

var visitsHeader = []string{
	"visit_id", "visit_type", "wait_minutes", "facility_id", "neighborhood", "payer_class",
}

// occRow builds an occupancy row with the given general and ICU percentages.
func occRow(id string, pct, icuPct float64) []string {
	return []string{
		id, "Hospital " + id, "Centro",
		"100", "50", "20", "10",
		fmt.Sprintf("%.2f", pct), fmt.Sprintf("%.2f", icuPct), snapshot.FacilityPublic,
	}
}

func visitRow(id, vtype string, wait int) []string {
	return []string{id, vtype, fmt.Sprintf("%d", wait), "UPA01", "Centro", snapshot.PayerSUS}
}

func occTable(t *testing.T, rows ...[]string) *snapshot.Table {
	t.Helper()
	tbl, err := snapshot.NewTable(snapshot.TableOccupancy, occupancyHeader, rows)
	if err != nil {
		t.Fatalf("build occupancy table: %v", err)
	}
	return tbl
}

func visitTable(t *testing.T, rows ...[]string) *snapshot.Table {
	t.Helper()
	tbl, err := snapshot.NewTable(snapshot.TableVisits, visitsHeader, rows)
	if err != nil {
		t.Fatalf("build visit table: %v", err)
	}
	return tbl
}

func kinds(alerts []Alert) []Kind {
	out := make([]Kind, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Kind)
	}
	return out
}

func TestClassify_EmptyTables(t *testing.T) {
	alerts, err := testClassifier().Classify(occTable(t), visitTable(t))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("alerts: got %v, want none", kinds(alerts))
	}
}

func TestClassify_ICUBoundaries(t *testing.T) {
	cases := []struct {
		name   string
		icuPct float64
		want   []Kind
	}{
		{"well below warning", 50, nil},
		{"exactly at warning threshold", 70, nil},
		{"just above warning", 70.01, []Kind{KindICUWarning}},
		{"mid warning band", 80, []Kind{KindICUWarning}},
		{"exactly at critical threshold", 85, []Kind{KindICUWarning}},
		{"just above critical", 85.01, []Kind{KindICUCritical}},
		{"fully occupied", 100, []Kind{KindICUCritical}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			alerts, err := testClassifier().Classify(
				occTable(t, occRow("HOSP001", 50, tc.icuPct)), visitTable(t))
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			got := kinds(alerts)
			if len(got) != len(tc.want) {
				t.Fatalf("kinds: got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("kinds: got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

// A record in the critical band must fire critical only — the warning
// band explicitly excludes it.
func TestClassify_ICUMutualExclusivity(t *testing.T) {
	alerts, err := testClassifier().Classify(
		occTable(t, occRow("HOSP001", 50, 92)), visitTable(t))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	for _, a := range alerts {
		if a.Kind == KindICUWarning {
			t.Error("ICU warning fired for a record in the critical band")
		}
	}
}

func TestClassify_ICUCriticalEvidence(t *testing.T) {
	alerts, err := testClassifier().Classify(
		occTable(t,
			occRow("HOSP001", 50, 90),
			occRow("HOSP002", 50, 96),
			occRow("HOSP003", 50, 60),
		), visitTable(t))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Kind != KindICUCritical {
		t.Fatalf("alerts: got %v, want [ICU_CRITICAL]", kinds(alerts))
	}
	a := alerts[0]
	if a.Severity != SeverityCritical {
		t.Errorf("severity: got %v, want CRITICAL", a.Severity)
	}

	details := map[string]Detail{}
	for _, d := range a.Details {
		details[d.Name] = d
	}
	if got := details["matched_facilities"].Value; got != 2 {
		t.Errorf("matched_facilities: got %v, want 2", got)
	}
	if got := details["avg_icu_occupancy_pct"].Value; got != 93.0 {
		t.Errorf("avg: got %v, want 93.0", got)
	}
	if got := details["max_icu_occupancy_pct"].Value; got != 96 {
		t.Errorf("max: got %v, want 96", got)
	}
	affected := details["affected_facilities"].Items
	if len(affected) != 2 {
		t.Fatalf("affected facilities: got %v", affected)
	}
	if !strings.Contains(affected[0], "Hospital HOSP001") {
		t.Errorf("affected[0]: got %q, want HOSP001 entry", affected[0])
	}
	if len(a.Actions) == 0 {
		t.Error("actions: expected fixed remediation steps")
	}
}

func TestClassify_EmergencyWaitBoundary(t *testing.T) {
	// All rows exactly at the threshold: strict ">" means no alert.
	atLimit := visitTable(t,
		visitRow("ATD1", snapshot.VisitEmergency, 30),
		visitRow("ATD2", snapshot.VisitEmergency, 30),
	)
	alerts, err := testClassifier().Classify(occTable(t), atLimit)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("alerts at boundary: got %v, want none", kinds(alerts))
	}

	// One minute over: every row matches.
	over := visitTable(t,
		visitRow("ATD1", snapshot.VisitEmergency, 31),
		visitRow("ATD2", snapshot.VisitEmergency, 31),
		visitRow("ATD3", snapshot.VisitEmergency, 31),
	)
	alerts, err = testClassifier().Classify(occTable(t), over)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Kind != KindEmergencyWaitCritical {
		t.Fatalf("alerts: got %v, want [EMERGENCY_WAIT_CRITICAL]", kinds(alerts))
	}
	for _, d := range alerts[0].Details {
		if d.Name == "matched_visits" && d.Value != 3 {
			t.Errorf("matched_visits: got %v, want 3", d.Value)
		}
	}
}

func TestClassify_EmergencyWaitIgnoresOtherTypes(t *testing.T) {
	alerts, err := testClassifier().Classify(occTable(t), visitTable(t,
		visitRow("ATD1", snapshot.VisitConsultation, 90),
		visitRow("ATD2", snapshot.VisitExam, 115),
	))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("alerts: got %v, want none", kinds(alerts))
	}
}

func TestClassify_GeneralWaitAnyType(t *testing.T) {
	alerts, err := testClassifier().Classify(occTable(t), visitTable(t,
		visitRow("ATD1", snapshot.VisitConsultation, 121),
		visitRow("ATD2", snapshot.VisitSurgery, 300),
		visitRow("ATD3", snapshot.VisitExam, 120), // boundary: excluded
	))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Kind != KindGeneralWaitCritical {
		t.Fatalf("alerts: got %v, want [GENERAL_WAIT_CRITICAL]", kinds(alerts))
	}
	// Labelled WARNING despite the "critical" threshold name.
	if alerts[0].Severity != SeverityWarning {
		t.Errorf("severity: got %v, want WARNING", alerts[0].Severity)
	}
	for _, d := range alerts[0].Details {
		if d.Name == "matched_visits" && d.Value != 2 {
			t.Errorf("matched_visits: got %v, want 2", d.Value)
		}
	}
}

func TestClassify_TopUnitsCap(t *testing.T) {
	var rows [][]string
	for i := 0; i < 8; i++ {
		row := visitRow(fmt.Sprintf("ATD%d", i), snapshot.VisitConsultation, 200)
		row[3] = fmt.Sprintf("UPA%02d", i) // one visit per distinct unit
		rows = append(rows, row)
	}
	alerts, err := testClassifier().Classify(occTable(t), visitTable(t, rows...))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts: got %v", kinds(alerts))
	}
	for _, d := range alerts[0].Details {
		if d.Name == "top_units" && len(d.Items) != topFacilities {
			t.Errorf("top_units: got %d entries, want %d", len(d.Items), topFacilities)
		}
	}
}

// One row over both occupancy thresholds yields exactly two alerts in
// rule-evaluation order.
func TestClassify_RuleOrder(t *testing.T) {
	alerts, err := testClassifier().Classify(
		occTable(t, occRow("HOSP001", 95, 90)), visitTable(t))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	want := []Kind{KindICUCritical, KindGeneralCritical}
	got := kinds(alerts)
	if len(got) != len(want) {
		t.Fatalf("kinds: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds: got %v, want %v", got, want)
		}
	}
}

func TestClassify_MissingColumnFailsLoudly(t *testing.T) {
	header := make([]string, 0, len(occupancyHeader)-1)
	for _, c := range occupancyHeader {
		if c != "icu_occupancy_pct" {
			header = append(header, c)
		}
	}
	tbl, err := snapshot.NewTable(snapshot.TableOccupancy, header, nil)
	if err != nil {
		t.Fatalf("build table: %v", err)
	}

	_, err = testClassifier().Classify(tbl, visitTable(t))
	var miss *snapshot.MissingFieldError
	if !errors.As(err, &miss) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if miss.Column != "icu_occupancy_pct" {
		t.Errorf("column: got %q, want icu_occupancy_pct", miss.Column)
	}
}

// Over-occupied records (occupied > total) are not rejected: they flow
// through the percentage rules unchanged.
func TestClassify_OverOccupancyPassesThrough(t *testing.T) {
	row := occRow("HOSP001", 104, 110)
	row[4] = "104" // beds_occupied above beds_total
	alerts, err := testClassifier().Classify(occTable(t, row), visitTable(t))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	want := []Kind{KindICUCritical, KindGeneralCritical}
	if len(alerts) != len(want) {
		t.Fatalf("kinds: got %v, want %v", kinds(alerts), want)
	}
}
