package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riosaude/healthpipe/internal/alerting"
	"github.com/riosaude/healthpipe/internal/config"
)

// A list detail is inlined into the compact chat rendering only when it
// has this many entries or fewer; longer breakdowns go to email only.
const maxInlineItems = 3

// Chat messages carry at most this many recommended actions.
const maxChatActions = 3

// webhookChannel posts Slack-style attachment payloads to the chat webhook.
type webhookChannel struct {
	cfg    config.WebhookConfig
	client *http.Client
}

func newWebhookChannel(cfg config.WebhookConfig) *webhookChannel {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &webhookChannel{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *webhookChannel) Name() string { return ChannelWebhook }

func (c *webhookChannel) Configured() bool { return c.cfg.URL() != "" }

// chat payload shapes, per the webhook's attachment schema.
type chatField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type chatAttachment struct {
	Color  string      `json:"color"`
	Title  string      `json:"title"`
	Text   string      `json:"text"`
	Fields []chatField `json:"fields"`
}

type chatPayload struct {
	Attachments []chatAttachment `json:"attachments"`
}

func (c *webhookChannel) Send(a alerting.Alert) error {
	body, err := json.Marshal(buildChatPayload(a))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.cfg.URL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// buildChatPayload renders the compact chat form of an alert: severity
// and timestamp fields, scalar details inline, list details only when
// short, and the first three recommended actions.
func buildChatPayload(a alerting.Alert) chatPayload {
	att := chatAttachment{
		Color: severityColor(a.Severity),
		Title: a.Title,
		Text:  a.Summary,
		Fields: []chatField{
			{Title: "Severity", Value: a.Severity.String(), Short: true},
			{Title: "Timestamp", Value: a.FiredAt.Format("2006-01-02 15:04:05"), Short: true},
		},
	}

	if details := compactDetails(a.Details); details != "" {
		att.Fields = append(att.Fields, chatField{Title: "Details", Value: details})
	}

	if len(a.Actions) > 0 {
		actions := a.Actions
		if len(actions) > maxChatActions {
			actions = actions[:maxChatActions]
		}
		var b strings.Builder
		for _, act := range actions {
			fmt.Fprintf(&b, "• %s\n", act)
		}
		att.Fields = append(att.Fields, chatField{Title: "Required actions", Value: strings.TrimRight(b.String(), "\n")})
	}

	return chatPayload{Attachments: []chatAttachment{att}}
}

func compactDetails(details []alerting.Detail) string {
	var b strings.Builder
	for _, d := range details {
		if d.IsList() {
			if len(d.Items) > maxInlineItems {
				continue
			}
			fmt.Fprintf(&b, "• %s: %s\n", d.Name, strings.Join(d.Items, ", "))
			continue
		}
		fmt.Fprintf(&b, "• %s: %s\n", d.Name, trimFloat(d.Value))
	}
	return strings.TrimRight(b.String(), "\n")
}

// severityColor maps a severity to the attachment sidebar color.
func severityColor(s alerting.Severity) string {
	switch s {
	case alerting.SeverityCritical:
		return "#FF0000"
	case alerting.SeverityWarning:
		return "#FFA500"
	case alerting.SeverityInfo:
		return "#0000FF"
	default:
		return "#808080"
	}
}

// trimFloat renders a statistic without trailing zeros (counts as
// integers, averages with their decimals).
func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
