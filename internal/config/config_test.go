package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, `pipeline:
  data_dir: data_output
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Extract.Mode != DefaultExtractMode {
		t.Errorf("extract.mode: got %q, want %q", cfg.Extract.Mode, DefaultExtractMode)
	}
	if cfg.Extract.Timeout != DefaultHTTPTimeout {
		t.Errorf("extract.timeout: got %v, want %v", cfg.Extract.Timeout, DefaultHTTPTimeout)
	}
	if !cfg.Storage.Compress {
		t.Error("storage.compress: default should be true")
	}

	th := cfg.Alerts.Thresholds
	if th.ICUCriticalPct != 85 || th.ICUWarningPct != 70 {
		t.Errorf("icu thresholds: got %v/%v, want 85/70", th.ICUCriticalPct, th.ICUWarningPct)
	}
	if th.GeneralCriticalPct != 90 || th.GeneralWarningPct != 75 {
		t.Errorf("general thresholds: got %v/%v, want 90/75", th.GeneralCriticalPct, th.GeneralWarningPct)
	}
	if th.EmergencyWaitMin != 30 || th.GeneralWaitMin != 120 {
		t.Errorf("wait thresholds: got %v/%v, want 30/120", th.EmergencyWaitMin, th.GeneralWaitMin)
	}
	if cfg.Alerts.Email.Port != DefaultSMTPPort {
		t.Errorf("email.port: got %d, want %d", cfg.Alerts.Email.Port, DefaultSMTPPort)
	}
}

func TestLoad_Overrides(t *testing.T) {
	p := writeConfig(t, `pipeline:
  data_dir: /var/lib/healthpipe
  metrics_file: /var/lib/node_exporter/healthpipe.prom
extract:
  mode: simulated
  timeout: 5s
storage:
  bucket: saude-rj-raw
  compress: false
alerts:
  thresholds:
    icu_critical_pct: 80
    icu_warning_pct: 65
  webhook:
    timeout: 3s
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.DataDir != "/var/lib/healthpipe" {
		t.Errorf("data_dir: got %q", cfg.Pipeline.DataDir)
	}
	if cfg.Extract.Mode != "simulated" || cfg.Extract.Timeout != 5*time.Second {
		t.Errorf("extract: got %+v", cfg.Extract)
	}
	if cfg.Storage.Compress {
		t.Error("storage.compress: explicit false ignored")
	}
	if cfg.Alerts.Thresholds.ICUCriticalPct != 80 {
		t.Errorf("icu_critical_pct: got %v, want 80", cfg.Alerts.Thresholds.ICUCriticalPct)
	}
	// Untouched thresholds keep defaults.
	if cfg.Alerts.Thresholds.GeneralCriticalPct != 90 {
		t.Errorf("general_critical_pct: got %v, want 90", cfg.Alerts.Thresholds.GeneralCriticalPct)
	}
	if cfg.Alerts.Webhook.Timeout != 3*time.Second {
		t.Errorf("webhook.timeout: got %v, want 3s", cfg.Alerts.Webhook.Timeout)
	}
}

func TestLoad_UnknownExtractMode(t *testing.T) {
	p := writeConfig(t, `extract:
  mode: streaming
`)
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for unknown extract mode, got nil")
	}
}

func TestLoad_WarningAboveCritical(t *testing.T) {
	p := writeConfig(t, `alerts:
  thresholds:
    icu_warning_pct: 90
    icu_critical_pct: 85
`)
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for inverted icu thresholds, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestEnvResolution(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_URL", "https://hooks.example.com/T/B/x")
	t.Setenv("TEST_SENDER", "alerts@saude.rio.gov.br")
	t.Setenv("TEST_RECIPIENTS", "oncall@saude.rio.gov.br, gestor@saude.rio.gov.br,")

	p := writeConfig(t, `alerts:
  webhook:
    url_env: TEST_WEBHOOK_URL
  email:
    from_env: TEST_SENDER
    recipients_env: TEST_RECIPIENTS
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Alerts.Webhook.URL(); got != "https://hooks.example.com/T/B/x" {
		t.Errorf("webhook url: got %q", got)
	}
	if got := cfg.Alerts.Email.From(); got != "alerts@saude.rio.gov.br" {
		t.Errorf("from: got %q", got)
	}
	want := []string{"oncall@saude.rio.gov.br", "gestor@saude.rio.gov.br"}
	if got := cfg.Alerts.Email.Recipients(); !reflect.DeepEqual(got, want) {
		t.Errorf("recipients: got %v, want %v", got, want)
	}
}

func TestEnvResolution_Unset(t *testing.T) {
	cfg := defaults()
	os.Unsetenv("ALERT_WEBHOOK_URL")
	if got := cfg.Alerts.Webhook.URL(); got != "" {
		t.Errorf("webhook url with unset env: got %q, want empty", got)
	}
	os.Unsetenv("ALERT_RECIPIENTS")
	if got := cfg.Alerts.Email.Recipients(); got != nil {
		t.Errorf("recipients with unset env: got %v, want nil", got)
	}
}
