package notify

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/riosaude/healthpipe/internal/alerting"
	"github.com/riosaude/healthpipe/internal/config"
)

// Channel names used in outcomes, logs, and metrics.
const (
	ChannelWebhook = "webhook"
	ChannelEmail   = "email"
)

// ErrNotConfigured marks a channel whose required configuration
// (webhook URL, SMTP credentials, recipients) is absent. The channel is
// skipped, not failed.
var ErrNotConfigured = errors.New("notify: channel not configured")

// DeliveryError wraps a transport failure on one channel for one alert.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notify: %s delivery failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Delivery is the outcome of one alert × channel attempt.
type Delivery struct {
	Kind      alerting.Kind
	Channel   string
	Delivered bool
	Skipped   bool // channel not configured or not eligible for this severity
	Err       error
}

// sender is one delivery channel. Configured is checked once per run.
type sender interface {
	Name() string
	Configured() bool
	Send(a alerting.Alert) error
}

// Dispatcher routes alerts to the configured channels with
// severity-gated policy.
type Dispatcher struct {
	channels []sender
}

// New builds a Dispatcher from the alerts configuration.
func New(cfg config.AlertsConfig) *Dispatcher {
	return &Dispatcher{
		channels: []sender{
			newWebhookChannel(cfg.Webhook),
			newEmailChannel(cfg.Email),
		},
	}
}

// eligible applies the channel policy: the webhook sees every alert,
// email only critical ones.
func eligible(ch sender, a alerting.Alert) bool {
	if ch.Name() == ChannelEmail {
		return a.Severity == alerting.SeverityCritical
	}
	return true
}

// Dispatch processes each alert to completion in a single synchronous
// pass and returns every per-alert, per-channel outcome. Failures are
// isolated: they never prevent the other channel for the same alert nor
// the delivery of subsequent alerts.
func (d *Dispatcher) Dispatch(alerts []alerting.Alert) []Delivery {
	unconfigured := map[string]bool{}
	for _, ch := range d.channels {
		if !ch.Configured() {
			unconfigured[ch.Name()] = true
			slog.Warn("notify: channel not configured — skipping for this run", "channel", ch.Name())
		}
	}

	var out []Delivery
	for _, a := range alerts {
		for _, ch := range d.channels {
			if !eligible(ch, a) {
				continue
			}
			if unconfigured[ch.Name()] {
				out = append(out, Delivery{
					Kind: a.Kind, Channel: ch.Name(), Skipped: true, Err: ErrNotConfigured,
				})
				continue
			}

			err := ch.Send(a)
			if err != nil {
				slog.Error("notify: delivery failed",
					"channel", ch.Name(), "kind", string(a.Kind), "err", err)
				out = append(out, Delivery{
					Kind: a.Kind, Channel: ch.Name(),
					Err: &DeliveryError{Channel: ch.Name(), Err: err},
				})
				continue
			}
			slog.Info("notify: alert delivered",
				"channel", ch.Name(), "kind", string(a.Kind), "severity", a.Severity.String())
			out = append(out, Delivery{Kind: a.Kind, Channel: ch.Name(), Delivered: true})
		}
	}
	return out
}
