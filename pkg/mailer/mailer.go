package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds the settings for the transactional mail API client.
type Config struct {
	BaseURL     string
	APIKey      string
	FromAddress string
	FromName    string
	Timeout     time.Duration
}

// Message is a single transactional email.
type Message struct {
	To       string `json:"to"`
	ToName   string `json:"to_name,omitempty"`
	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
}

// Client sends transactional email through an HTTP mail API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a new mail API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("mailer base URL cannot be empty")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mailer API key cannot be empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type sendRequest struct {
	From     string `json:"from"`
	FromName string `json:"from_name,omitempty"`
	Message
}

// Send delivers one message. A non-2xx response is an error so the caller
// can retry.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("message recipient cannot be empty")
	}

	payload, err := json.Marshal(sendRequest{
		From:     c.cfg.FromAddress,
		FromName: c.cfg.FromName,
		Message:  msg,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call mail API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mail API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
