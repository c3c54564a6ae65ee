// Package whatsapp provides a client for the internal WhatsApp dispatch
// function. The function owns queueing and provider retries; this client
// only submits one message per call over an authenticated request.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client represents a WhatsApp gateway client used to queue bill reminders.
type Client struct {
	endpoint string // dispatch function URL
	token    string // bearer credential
	client   *http.Client
}

// NewClient creates a new gateway Client for the given dispatch endpoint and
// bearer credential.
func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// sendMessageRequest represents the payload of the dispatch function.
type sendMessageRequest struct {
	Target  string `json:"target"`  // destination WhatsApp number
	Message string `json:"message"` // composed message body
}

// Send queues one message for the target number. Any non-2xx response is an
// error for this one destination, with the response body as detail.
func (c *Client) Send(ctx context.Context, target, message string) error {
	reqBody := sendMessageRequest{
		Target:  target,
		Message: message,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway error: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	return nil
}
