package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/riosaude/healthpipe/internal/alerting"
)

const pageTmpl = `<!DOCTYPE html>
<html>
<head>
    <title>Health Alerts Dashboard - Rio de Janeiro</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .alert-critical { border-left: 5px solid #FF0000; background: #FFE6E6; padding: 15px; margin: 10px 0; }
        .alert-warning { border-left: 5px solid #FFA500; background: #FFF4E6; padding: 15px; margin: 10px 0; }
        .alert-info { border-left: 5px solid #0000FF; background: #E6F3FF; padding: 15px; margin: 10px 0; }
        .timestamp { color: #666; font-size: 12px; }
        .detail { margin: 4px 0; }
        .actions { background: #F0F0F0; padding: 10px; margin-top: 10px; }
    </style>
</head>
<body>
    <h1>Health Alerts Dashboard - Municipal Health System RJ</h1>
    <p class="timestamp">Last updated: {{.GeneratedAt}}</p>

    <h2>Summary</h2>
    <p>Total alerts: {{.Total}}</p>
    <p>Critical: {{.Critical}}</p>
    <p>Warning: {{.Warning}}</p>
{{if not .Alerts}}
    <p>No active alerts. All monitored indicators are within their limits.</p>
{{else}}
    <h2>Alerts</h2>
{{range .Alerts}}
    <div class="{{.Class}}">
        <h3>{{.Title}}</h3>
        <p><strong>Severity:</strong> {{.Severity}}</p>
        <p>{{.Summary}}</p>
{{range .Details}}{{if .Items}}
        <p class="detail"><strong>{{.Name}}:</strong></p>
        <ul>
{{range .Items}}            <li>{{.}}</li>
{{end}}        </ul>
{{else}}
        <p class="detail"><strong>{{.Name}}:</strong> {{.Value}}</p>
{{end}}{{end}}
        <div class="actions">
            <strong>Required actions:</strong>
            <ul>
{{range .Actions}}                <li>{{.}}</li>
{{end}}            </ul>
        </div>
    </div>
{{end}}
{{end}}
</body>
</html>
`

var page = template.Must(template.New("dashboard").Parse(pageTmpl))

type pageData struct {
	GeneratedAt string
	Total       int
	Critical    int
	Warning     int
	Alerts      []alertData
}

type alertData struct {
	Class    string
	Title    string
	Severity string
	Summary  string
	Details  []detailData
	Actions  []string
}

type detailData struct {
	Name  string
	Value string
	Items []string
}

// Dashboard renders alert dashboards.
type Dashboard struct {
	now func() time.Time
}

func New() *Dashboard {
	return &Dashboard{now: time.Now}
}

// Write renders the alerts to an HTML file at path, creating parent
// directories as needed.
func (d *Dashboard) Write(path string, alerts []alerting.Alert) error {
	data := pageData{
		GeneratedAt: d.now().Format("2006-01-02 15:04:05"),
		Total:       len(alerts),
	}
	for _, a := range alerts {
		switch a.Severity {
		case alerting.SeverityCritical:
			data.Critical++
		case alerting.SeverityWarning:
			data.Warning++
		}
		data.Alerts = append(data.Alerts, alertData{
			Class:    "alert-" + strings.ToLower(a.Severity.String()),
			Title:    a.Title,
			Severity: a.Severity.String(),
			Summary:  a.Summary,
			Details:  details(a),
			Actions:  a.Actions,
		})
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("report: create dir %q: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %q: %w", path, err)
	}
	defer f.Close()

	if err := page.Execute(f, data); err != nil {
		return fmt.Errorf("report: render dashboard: %w", err)
	}
	return nil
}

func details(a alerting.Alert) []detailData {
	out := make([]detailData, 0, len(a.Details))
	for _, d := range a.Details {
		dd := detailData{Name: d.Name, Items: d.Items}
		if !d.IsList() {
			dd.Value = strconv.FormatFloat(d.Value, 'f', -1, 64)
		}
		out = append(out, dd)
	}
	return out
}
