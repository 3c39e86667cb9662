package metrics

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Run holds the counters of one pipeline run. Each binary builds its own
// Run with a private registry so concurrent jobs never share state.
type Run struct {
	registry *prometheus.Registry

	RowsExtracted   *prometheus.CounterVec
	QualityFindings *prometheus.CounterVec
	AlertsFired     *prometheus.CounterVec
	Deliveries      *prometheus.CounterVec
}

// NewRun builds a Run with all counters registered.
func NewRun() *Run {
	r := &Run{registry: prometheus.NewRegistry()}

	r.RowsExtracted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "healthpipe_rows_extracted_total",
		Help: "Rows extracted per dataset in this run.",
	}, []string{"dataset"})

	r.QualityFindings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "healthpipe_quality_findings_total",
		Help: "Data-quality findings per dataset in this run.",
	}, []string{"dataset"})

	r.AlertsFired = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "healthpipe_alerts_fired_total",
		Help: "Alerts fired per severity in this run.",
	}, []string{"severity"})

	r.Deliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "healthpipe_alert_deliveries_total",
		Help: "Alert notification deliveries per channel and outcome.",
	}, []string{"channel", "outcome"})

	r.registry.MustRegister(r.RowsExtracted, r.QualityFindings, r.AlertsFired, r.Deliveries)
	return r
}

// WriteTextfile renders the counters to path in the text exposition
// format, atomically via a temp file in the same directory.
func (r *Run) WriteTextfile(path string) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return fmt.Errorf("metrics: encode %q: %w", mf.GetName(), err)
		}
	}

	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metrics: create dir: %w", err)
	}
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("metrics: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("metrics: rename %q: %w", tmp, err)
	}
	return nil
}
