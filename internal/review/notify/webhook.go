package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookChannel posts notifications to a configured HTTP endpoint (a
// transactional mail relay or chat bridge). Credentials and templates live on
// the receiving side; this engine only requests the send.
type WebhookChannel struct {
	endpoint string
	client   *http.Client
}

// NewWebhookChannel builds a channel with a bounded per-request timeout.
func NewWebhookChannel(endpoint string, timeout time.Duration) *WebhookChannel {
	return &WebhookChannel{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *WebhookChannel) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification channel returned status %d", resp.StatusCode)
	}
	return nil
}
