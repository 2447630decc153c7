package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/errors"
	"github.com/perflens/bottleneck-analyzer/pkg/model"
)

// Payload is the normalized alert body every channel accepts
type Payload struct {
	Severity        string    `json:"severity"`
	Component       string    `json:"component"`
	Metric          string    `json:"metric"`
	Description     string    `json:"description"`
	ObservedValue   float64   `json:"observed_value"`
	BaselineSummary string    `json:"baseline_summary,omitempty"`
	RunbookRef      string    `json:"runbook_ref,omitempty"`
	DetectedAt      time.Time `json:"detected_at"`
}

// NewPayload normalizes one detector result for delivery
func NewPayload(result model.BottleneckResult) Payload {
	payload := Payload{
		Severity:      result.Severity,
		Component:     result.Component,
		Metric:        result.Metric,
		Description:   result.Description,
		ObservedValue: result.ObservedValue,
		RunbookRef:    result.RunbookRef,
		DetectedAt:    result.DetectedAt,
	}
	if result.Baseline != nil {
		payload.BaselineSummary = fmt.Sprintf("mean=%.2f stddev=%.2f p95=%.2f z=%.2f (n=%d)",
			result.Baseline.Mean, result.Baseline.StdDev, result.Baseline.P95,
			result.Baseline.ZScore, result.Baseline.SampleCount)
	}
	return payload
}

func (p Payload) text() string {
	text := fmt.Sprintf("[%s] %s/%s: %s (observed %.2f)",
		p.Severity, p.Component, p.Metric, p.Description, p.ObservedValue)
	if p.BaselineSummary != "" {
		text += " baseline " + p.BaselineSummary
	}
	if p.RunbookRef != "" {
		text += " see " + p.RunbookRef
	}
	return text
}

// Channel delivers one normalized payload. Delivery is fire and forget
// with bounded retry; transport-level success is the only acknowledgement.
// Send reports how many attempts the delivery took.
type Channel interface {
	Name() string
	Send(ctx context.Context, payload Payload) (int, error)
}

// NewChannel builds a channel from its configuration entry
func NewChannel(cfg config.ChannelConfig, retryCount int, retryWait time.Duration) (Channel, error) {
	url := cfg.Config["url"]
	if url == "" {
		return nil, errors.NewError().WithCode(errors.CodeLackOfConfig).
			WithMessage(fmt.Sprintf("channel %q has no url", cfg.Name))
	}
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(retryCount).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(30 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= 500
		})

	switch cfg.Type {
	case "webhook":
		return &WebhookChannel{name: cfg.Name, url: url, client: client}, nil
	case "slack":
		return &SlackChannel{name: cfg.Name, url: url, client: client}, nil
	case "dingtalk":
		return &DingTalkChannel{name: cfg.Name, url: url, client: client}, nil
	default:
		return nil, errors.NewError().WithCode(errors.CodeLackOfConfig).
			WithMessage(fmt.Sprintf("unknown channel type %q", cfg.Type))
	}
}

// WebhookChannel posts the raw payload as JSON to a generic endpoint
type WebhookChannel struct {
	name   string
	url    string
	client *resty.Client
}

func (c *WebhookChannel) Name() string {
	return c.name
}

func (c *WebhookChannel) Send(ctx context.Context, payload Payload) (int, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(c.url)
	return deliveryAttempts(resp), checkDelivery(c.name, resp, err)
}

// SlackChannel posts the payload as a Slack incoming-webhook message
type SlackChannel struct {
	name   string
	url    string
	client *resty.Client
}

func (c *SlackChannel) Name() string {
	return c.name
}

func (c *SlackChannel) Send(ctx context.Context, payload Payload) (int, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"text": payload.text()}).
		Post(c.url)
	return deliveryAttempts(resp), checkDelivery(c.name, resp, err)
}

// DingTalkChannel posts the payload to a DingTalk robot webhook
type DingTalkChannel struct {
	name   string
	url    string
	client *resty.Client
}

func (c *DingTalkChannel) Name() string {
	return c.name
}

func (c *DingTalkChannel) Send(ctx context.Context, payload Payload) (int, error) {
	body := map[string]interface{}{
		"msgtype": "markdown",
		"markdown": map[string]string{
			"title": fmt.Sprintf("[%s] %s bottleneck", payload.Severity, payload.Component),
			"text":  payload.text(),
		},
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(c.url)
	return deliveryAttempts(resp), checkDelivery(c.name, resp, err)
}

// deliveryAttempts reads the attempt count resty observed for the request
func deliveryAttempts(resp *resty.Response) int {
	if resp == nil || resp.Request == nil || resp.Request.Attempt < 1 {
		return 1
	}
	return resp.Request.Attempt
}

func checkDelivery(channel string, resp *resty.Response, err error) error {
	if err != nil {
		return errors.NewError().WithCode(errors.CodeChannelError).
			WithMessage(fmt.Sprintf("channel %s delivery failed", channel)).WithError(err)
	}
	if !resp.IsSuccess() {
		return errors.NewError().WithCode(errors.CodeChannelError).
			WithMessage(fmt.Sprintf("channel %s returned status %d", channel, resp.StatusCode()))
	}
	return nil
}
