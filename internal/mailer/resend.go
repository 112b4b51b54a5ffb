package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"fairytale-chat/internal/logger"
)

const (
	defaultBaseURL = "https://api.resend.com"
	defaultTimeout = 30 * time.Second
)

// ErrNotConfigured is returned when no Resend API key is set
var ErrNotConfigured = errors.New("RESEND_API_KEY not configured")

// VendorError is a non-2xx answer from Resend
type VendorError struct {
	StatusCode int
	Body       string
}

func (e *VendorError) Error() string {
	if e.Body == "" {
		return "Resend error"
	}
	return e.Body
}

// Email is one outgoing message
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Client sends email through the Resend REST API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *log.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL points the client at another API host
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Resend client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		log: logger.With("Resend"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Configured reports whether an API key is set
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Send delivers email and returns the Resend message id
func (c *Client) Send(ctx context.Context, email Email) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	c.log.Info("Send started", "to", strings.Join(email.To, ","), "subject", email.Subject)

	body, err := json.Marshal(email)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Send failed: send request", "err", err)
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error("Send failed: API error", "status", resp.StatusCode)
		return "", c.handleError(resp)
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		c.log.Warn("Send: could not decode response", "err", err)
	}

	c.log.Info("Send completed", "email_id", out.ID)
	return out.ID, nil
}

// handleError reads the vendor's error body into a VendorError
func (c *Client) handleError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &VendorError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
