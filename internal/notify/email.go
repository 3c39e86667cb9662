package notify

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/riosaude/healthpipe/internal/alerting"
	"github.com/riosaude/healthpipe/internal/config"
)

// emailChannel sends plain-text alert mail over SMTP. Only critical
// alerts reach it (see Dispatcher policy).
type emailChannel struct {
	cfg  config.EmailConfig
	send func(m *gomail.Message) error // swapped out in tests
}

func newEmailChannel(cfg config.EmailConfig) *emailChannel {
	c := &emailChannel{cfg: cfg}
	c.send = func(m *gomail.Message) error {
		var d *gomail.Dialer
		if cfg.Password() == "" {
			d = &gomail.Dialer{Host: cfg.Host, Port: cfg.Port}
		} else {
			d = gomail.NewPlainDialer(cfg.Host, cfg.Port, cfg.From(), cfg.Password())
		}
		return d.DialAndSend(m)
	}
	return c
}

func (c *emailChannel) Name() string { return ChannelEmail }

// Configured requires a sender address and at least one recipient.
func (c *emailChannel) Configured() bool {
	return c.cfg.From() != "" && len(c.cfg.Recipients()) > 0
}

func (c *emailChannel) Send(a alerting.Alert) error {
	m := gomail.NewMessage()
	m.SetHeader("From", c.cfg.From())
	m.SetHeader("To", c.cfg.Recipients()...)
	m.SetHeader("Subject", "ALERT: "+a.Title)
	m.SetBody("text/plain", emailBody(a))

	if err := c.send(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// emailBody renders the full form of an alert: every detail, every
// action — email is the channel of record for critical conditions.
func emailBody(a alerting.Alert) string {
	var b strings.Builder

	b.WriteString("HEALTH MONITORING ALERT — RIO DE JANEIRO\n\n")
	fmt.Fprintf(&b, "%s\n", a.Title)
	fmt.Fprintf(&b, "Severity: %s\n", a.Severity.String())
	fmt.Fprintf(&b, "Timestamp: %s\n\n", a.FiredAt.Format("2006-01-02 15:04:05"))

	b.WriteString("DESCRIPTION:\n")
	fmt.Fprintf(&b, "%s\n\n", a.Summary)

	if len(a.Details) > 0 {
		b.WriteString("DETAILS:\n")
		for _, d := range a.Details {
			if d.IsList() {
				fmt.Fprintf(&b, "  %s:\n", d.Name)
				for _, item := range d.Items {
					fmt.Fprintf(&b, "    - %s\n", item)
				}
				continue
			}
			fmt.Fprintf(&b, "  %s: %s\n", d.Name, trimFloat(d.Value))
		}
		b.WriteString("\n")
	}

	if len(a.Actions) > 0 {
		b.WriteString("REQUIRED ACTIONS:\n")
		for _, act := range a.Actions {
			fmt.Fprintf(&b, "  - %s\n", act)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\nAutomated health data pipeline — Municipal Health Secretariat RJ\n")
	return b.String()
}
