package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
)

// WebhookNotifier posts alerts as JSON to a configured URL. The payload is
// a single {"text": ...} field, compatible with most chat-ops incoming
// webhooks.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

// NewWebhookNotifier creates a webhook notifier. The per-request deadline
// comes from the context the dispatcher passes to Send.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{},
	}
}

func (n *WebhookNotifier) Send(ctx context.Context, message string) error {
	payload, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return fmt.Errorf("%w: encode webhook payload: %v", domain.ErrNotifyFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: create webhook request: %v", domain.ErrNotifyFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: post webhook: %v", domain.ErrNotifyFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort drain

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: webhook status %d: %s", domain.ErrNotifyFailed, resp.StatusCode, body)
	}
	return nil
}
