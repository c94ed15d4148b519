package phone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"log/slog"
)

// Sender delivers one-time codes out-of-band.
type Sender interface {
	SendCode(ctx context.Context, phoneNumber, code string) error
}

// GatewaySender posts codes to an external SMS gateway with a bounded timeout.
type GatewaySender struct {
	url    string
	token  string
	client *http.Client
}

// NewGatewaySender constructs a GatewaySender.
func NewGatewaySender(url, token string, timeout time.Duration) *GatewaySender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GatewaySender{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

// SendCode submits the message to the gateway.
func (s *GatewaySender) SendCode(ctx context.Context, phoneNumber, code string) error {
	payload, err := json.Marshal(map[string]string{
		"to":      phoneNumber,
		"message": fmt.Sprintf("Your verification code is %s", code),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// LogSender logs dispatches instead of sending them. Used in development
// deployments without a gateway; the code itself is never logged.
type LogSender struct {
	Logger *slog.Logger
}

// SendCode records the dispatch.
func (s LogSender) SendCode(_ context.Context, phoneNumber, _ string) error {
	if s.Logger != nil {
		s.Logger.Info("sms dispatch skipped, no gateway configured", "to", phoneNumber)
	}
	return nil
}
