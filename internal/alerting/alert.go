package alerting

import "time"

// Severity is the ordinal urgency of an alert. Higher is more urgent.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

// String returns the canonical upper-case label used in payloads and reports.
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityWarning:
		return "WARNING"
	default:
		return "INFO"
	}
}

// Kind identifies the rule that produced an alert.
type Kind string

const (
	KindICUCritical           Kind = "ICU_CRITICAL"
	KindICUWarning            Kind = "ICU_WARNING"
	KindGeneralCritical       Kind = "GENERAL_CRITICAL"
	KindEmergencyWaitCritical Kind = "EMERGENCY_WAIT_CRITICAL"
	KindGeneralWaitCritical   Kind = "GENERAL_WAIT_CRITICAL"
)

// Detail is one derived statistic attached to an alert. Either Value
// (scalar) or Items (named breakdown) is set, never both.
type Detail struct {
	Name  string
	Value float64
	Items []string
}

// IsList reports whether the detail carries a breakdown rather than a scalar.
func (d Detail) IsList() bool { return d.Items != nil }

func scalar(name string, v float64) Detail  { return Detail{Name: name, Value: v} }
func list(name string, items []string) Detail { return Detail{Name: name, Items: items} }

// Alert is one classified condition over a snapshot. Alerts are values:
// produced fresh on every classification pass, never persisted, never
// deduplicated against previous runs.
type Alert struct {
	Kind     Kind
	Severity Severity
	Title    string
	Summary  string
	Details  []Detail
	Actions  []string
	FiredAt  time.Time
}

// Fixed remediation steps per alert kind.
var recommendedActions = map[Kind][]string{
	KindICUCritical: {
		"Activate the patient transfer protocol",
		"Contact hospitals with available ICU beds",
		"Alert medical teams about critical capacity",
	},
	KindICUWarning: {
		"Monitor ICU occupancy every 2 hours",
		"Prepare preventive transfer plans",
	},
	KindGeneralCritical: {
		"Accelerate medical discharges where possible",
		"Activate reserve beds",
		"Coordinate with the private network",
	},
	KindEmergencyWaitCritical: {
		"Activate the emergency protocol",
		"Reinforce teams at the critical units",
		"Review triage classification",
	},
	KindGeneralWaitCritical: {
		"Review the patient flow",
		"Consider opening extra service hours",
	},
}

// ActionsFor returns the fixed remediation steps for a kind.
// The returned slice must not be modified.
func ActionsFor(k Kind) []string { return recommendedActions[k] }
