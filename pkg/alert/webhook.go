package alert

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

// WebhookSink posts alerts as JSON to an HTTP endpoint.
type WebhookSink struct {
	url        string
	httpClient *http.Client
}

// NewWebhookSink creates a sink posting to url.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:        url,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type webhookPayload struct {
	Error   ClassifiedError `json:"error"`
	Context string          `json:"context,omitempty"`
	SentAt  time.Time       `json:"sent_at"`
}

// SendAlert posts the alert and reports delivery success.
func (s *WebhookSink) SendAlert(classified ClassifiedError, context string) bool {
	payload, err := json.Marshal(webhookPayload{
		Error:   classified,
		Context: context,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return false
	}

	resp, err := s.httpClient.Post(s.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
