package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultDataDir       = "data_output"
	DefaultDashboardPath = "dashboard/alerts_dashboard.html"
	DefaultExtractMode   = "auto"
	DefaultHTTPTimeout   = 10 * time.Second
	DefaultStorageRegion = "us-east-1"
	DefaultStoragePrefix = "raw/health-data"
	DefaultSMTPHost      = "smtp.gmail.com"
	DefaultSMTPPort      = 587
)

// Config is the top-level configuration shared by the extractor and the
// alerter. Fields map 1:1 to config.example.yaml.
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Extract   ExtractConfig   `yaml:"extract"`
	Storage   StorageConfig   `yaml:"storage"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Alerts    AlertsConfig    `yaml:"alerts"`
}

// PipelineConfig holds paths shared across the batch run.
type PipelineConfig struct {
	// DataDir is where CSV extracts are written and read back.
	DataDir string `yaml:"data_dir"`

	// DashboardPath is where the alerter writes the HTML alert dashboard.
	DashboardPath string `yaml:"dashboard_path"`

	// MetricsFile, when set, is where run counters are written in
	// Prometheus textfile-collector format. Empty disables the export.
	MetricsFile string `yaml:"metrics_file"`
}

// ExtractConfig selects and configures the data source for extraction.
type ExtractConfig struct {
	// Mode is one of: live | simulated | auto.
	// "auto" tries the live APIs and falls back to simulated fixtures
	// when a source is unavailable.
	Mode string `yaml:"mode"`

	// Endpoints of the municipal health data APIs.
	VisitsURL     string `yaml:"visits_url"`
	OccupancyURL  string `yaml:"occupancy_url"`
	FacilitiesURL string `yaml:"facilities_url"`

	// Timeout bounds each API request. Default 10s.
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig configures object-store landing of the raw extracts.
// An empty bucket disables landing.
type StorageConfig struct {
	Bucket   string `yaml:"bucket"`
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
	Prefix   string `yaml:"prefix"`

	// Compress gzips extracts before upload. Default true.
	Compress bool `yaml:"compress"`

	// AccessKeyEnv / SecretKeyEnv name the environment variables holding
	// static credentials. Both empty means the SDK default chain is used.
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
}

// AccessKey returns the static access key resolved from the environment.
func (s StorageConfig) AccessKey() string {
	if s.AccessKeyEnv == "" {
		return ""
	}
	return os.Getenv(s.AccessKeyEnv)
}

// SecretKey returns the static secret key resolved from the environment.
func (s StorageConfig) SecretKey() string {
	if s.SecretKeyEnv == "" {
		return ""
	}
	return os.Getenv(s.SecretKeyEnv)
}

// WarehouseConfig configures the analytical warehouse loader.
type WarehouseConfig struct {
	// DSNEnv names the environment variable holding the Postgres DSN.
	// An unset variable disables warehouse loading.
	DSNEnv string `yaml:"dsn_env"`
}

// DSN returns the warehouse connection string resolved from the environment.
func (w WarehouseConfig) DSN() string {
	if w.DSNEnv == "" {
		return ""
	}
	return os.Getenv(w.DSNEnv)
}

// AlertsConfig holds the classification thresholds and the notification
// channel settings.
type AlertsConfig struct {
	Thresholds Thresholds    `yaml:"thresholds"`
	Webhook    WebhookConfig `yaml:"webhook"`
	Email      EmailConfig   `yaml:"email"`
}

// Thresholds are the operational safety limits the classifier evaluates.
// All comparisons against them are strict ">" on the lower bound.
type Thresholds struct {
	// ICU occupancy (percent).
	ICUCriticalPct float64 `yaml:"icu_critical_pct"`
	ICUWarningPct  float64 `yaml:"icu_warning_pct"`

	// General bed occupancy (percent). The warning threshold is defined
	// for parity with the operational runbook but no rule currently
	// evaluates it.
	GeneralCriticalPct float64 `yaml:"general_critical_pct"`
	GeneralWarningPct  float64 `yaml:"general_warning_pct"`

	// Wait times (minutes). The warning thresholds are likewise defined
	// but not evaluated.
	EmergencyWaitMin        int `yaml:"emergency_wait_min"`
	EmergencyWaitWarningMin int `yaml:"emergency_wait_warning_min"`
	GeneralWaitMin          int `yaml:"general_wait_min"`
	GeneralWaitWarningMin   int `yaml:"general_wait_warning_min"`
}

// WebhookConfig configures the chat webhook channel.
type WebhookConfig struct {
	// URLEnv names the environment variable holding the webhook URL.
	// An unset variable disables the channel.
	URLEnv string `yaml:"url_env"`

	// Timeout bounds each POST. Default 10s.
	Timeout time.Duration `yaml:"timeout"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// EmailConfig configures the SMTP channel used for critical alerts.
type EmailConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// FromEnv / PasswordEnv name the environment variables holding the
	// sender address and its password.
	FromEnv     string `yaml:"from_env"`
	PasswordEnv string `yaml:"password_env"`

	// RecipientsEnv names the environment variable holding the
	// comma-separated recipient list.
	RecipientsEnv string `yaml:"recipients_env"`
}

// From returns the sender address resolved from the environment.
func (e EmailConfig) From() string {
	if e.FromEnv == "" {
		return ""
	}
	return os.Getenv(e.FromEnv)
}

// Password returns the sender password resolved from the environment.
func (e EmailConfig) Password() string {
	if e.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(e.PasswordEnv)
}

// Recipients returns the recipient list resolved from the environment.
// Blank entries are dropped.
func (e EmailConfig) Recipients() []string {
	if e.RecipientsEnv == "" {
		return nil
	}
	var out []string
	for _, addr := range strings.Split(os.Getenv(e.RecipientsEnv), ",") {
		if a := strings.TrimSpace(addr); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Load reads and parses the config file at path. Missing fields are
// filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
// Threshold defaults are the municipal operational limits.
func defaults() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			DataDir:       DefaultDataDir,
			DashboardPath: DefaultDashboardPath,
		},
		Extract: ExtractConfig{
			Mode:    DefaultExtractMode,
			Timeout: DefaultHTTPTimeout,
		},
		Storage: StorageConfig{
			Region:   DefaultStorageRegion,
			Prefix:   DefaultStoragePrefix,
			Compress: true,
		},
		Warehouse: WarehouseConfig{
			DSNEnv: "HEALTH_WAREHOUSE_DSN",
		},
		Alerts: AlertsConfig{
			Thresholds: Thresholds{
				ICUCriticalPct:          85,
				ICUWarningPct:           70,
				GeneralCriticalPct:      90,
				GeneralWarningPct:       75,
				EmergencyWaitMin:        30,
				EmergencyWaitWarningMin: 15,
				GeneralWaitMin:          120,
				GeneralWaitWarningMin:   60,
			},
			Webhook: WebhookConfig{
				URLEnv:  "ALERT_WEBHOOK_URL",
				Timeout: DefaultHTTPTimeout,
			},
			Email: EmailConfig{
				Host:          DefaultSMTPHost,
				Port:          DefaultSMTPPort,
				FromEnv:       "ALERT_SENDER_EMAIL",
				PasswordEnv:   "ALERT_SENDER_PASSWORD",
				RecipientsEnv: "ALERT_RECIPIENTS",
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	switch cfg.Extract.Mode {
	case "live", "simulated", "auto":
	default:
		return fmt.Errorf("extract.mode %q unknown: want live|simulated|auto", cfg.Extract.Mode)
	}
	if cfg.Extract.Timeout < 0 {
		return fmt.Errorf("extract.timeout must not be negative")
	}
	if cfg.Pipeline.DataDir == "" {
		return fmt.Errorf("pipeline.data_dir must not be empty")
	}

	t := cfg.Alerts.Thresholds
	if t.ICUCriticalPct <= 0 || t.GeneralCriticalPct <= 0 {
		return fmt.Errorf("alerts.thresholds: occupancy thresholds must be positive")
	}
	if t.ICUWarningPct >= t.ICUCriticalPct {
		return fmt.Errorf("alerts.thresholds: icu_warning_pct %.1f must be below icu_critical_pct %.1f",
			t.ICUWarningPct, t.ICUCriticalPct)
	}
	if t.EmergencyWaitMin <= 0 || t.GeneralWaitMin <= 0 {
		return fmt.Errorf("alerts.thresholds: wait thresholds must be positive")
	}

	if cfg.Alerts.Webhook.Timeout < 0 {
		return fmt.Errorf("alerts.webhook.timeout must not be negative")
	}
	if p := cfg.Alerts.Email.Port; p <= 0 || p > 65535 {
		return fmt.Errorf("alerts.email.port %d is out of range [1, 65535]", p)
	}
	return nil
}
