// Package automation is the HTTP client for the DM automation backend.
// The backend owns the platform sessions and performs the actual message
// delivery; this service only hands it batches.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/outreach-crm/internal/config"
	"github.com/ignite/outreach-crm/internal/dispatch"
	"github.com/ignite/outreach-crm/internal/pkg/httpretry"
)

// Client talks to the automation backend. Send goes out on a bare client
// with no retries: the backend gives no idempotency guarantee, so a retry
// could DM the same creators twice. Health probes may retry freely.
type Client struct {
	baseURL      string
	sendClient   *http.Client
	healthClient httpretry.HTTPDoer
}

// NewClient creates an automation backend client from config.
func NewClient(cfg config.AutomationConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		sendClient: &http.Client{},
		healthClient: httpretry.NewRetryClient(&http.Client{
			Timeout: 10 * time.Second,
		}, 3),
	}
}

type sendMessagePayload struct {
	Usernames       []string `json:"usernames"`
	TemplateCode    string   `json:"template_code"`
	SessionFilePath *string  `json:"session_file_path"`
	MessageID       int64    `json:"message_id"`
}

// Send submits one batch to POST /api/v1/{platform}/send_message. It makes
// exactly one attempt bounded by req.Timeout. Any non-2xx status or
// transport error rejects the whole batch.
func (c *Client) Send(ctx context.Context, req dispatch.SendRequest) (dispatch.SendResult, error) {
	payload, err := json.Marshal(sendMessagePayload{
		Usernames:       req.Usernames,
		TemplateCode:    req.TemplateCode,
		SessionFilePath: req.SessionFilePath,
		MessageID:       req.BatchID,
	})
	if err != nil {
		return dispatch.SendResult{}, fmt.Errorf("marshal send payload: %w", err)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/v1/%s/send_message", c.baseURL, req.Platform)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return dispatch.SendResult{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.sendClient.Do(httpReq)
	if err != nil {
		return dispatch.SendResult{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return dispatch.SendResult{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return dispatch.SendResult{}, fmt.Errorf("backend rejected batch (status %d): %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return dispatch.SendResult{Detail: strings.TrimSpace(string(body))}, nil
}

// Health probes the backend's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.healthClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend unhealthy (status %d)", resp.StatusCode)
	}
	return nil
}
