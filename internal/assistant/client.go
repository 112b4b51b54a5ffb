// Package assistant relays chat turns to LLM vendors and normalizes their answers.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fairytale-chat/internal/models"
)

const (
	defaultMaxTokens = 1000
	defaultTimeout   = 60 * time.Second
)

// ErrNotConfigured means no vendor credential is available
var ErrNotConfigured = errors.New("API key not configured")

// ErrEmptyReply means the vendor answered without any text
var ErrEmptyReply = errors.New("empty response content")

// Vendor is one LLM provider the relay can call
type Vendor interface {
	Name() string
	Configured() bool
	Complete(ctx context.Context, systemPrompt string, messages []models.Message) (*VendorReply, error)
}

// VendorReply is the answer of a specific vendor, before normalization
type VendorReply struct {
	Vendor string
	Model  string
	Text   string
}

// ContentBlock is one text block of a normalized response
type ContentBlock struct {
	Text string `json:"text"`
}

// NormalizedResponse is the vendor-independent shape returned to callers:
// {"content":[{"text":"..."}]}
type NormalizedResponse struct {
	Content []ContentBlock `json:"content"`
}

// Normalize maps a vendor reply onto the common response shape
func (r *VendorReply) Normalize() NormalizedResponse {
	return NormalizedResponse{Content: []ContentBlock{{Text: r.Text}}}
}

// Text returns the first content block, or "" when there is none
func (n NormalizedResponse) Text() string {
	if len(n.Content) == 0 {
		return ""
	}
	return n.Content[0].Text
}

// APIError represents an HTTP error answered by a vendor
type APIError struct {
	Vendor     string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Vendor, e.StatusCode, e.Message)
}

// ExhaustedError is returned when every configured vendor failed
type ExhaustedError struct {
	Attempts []error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all vendors failed: %v", errors.Join(e.Attempts...))
}

func (e *ExhaustedError) Unwrap() []error {
	return e.Attempts
}

// StatusCode maps a relay error to the HTTP status returned to the caller.
// A single vendor failure keeps the vendor's status; everything else is 500.
func StatusCode(err error) int {
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		return http.StatusInternalServerError
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 {
		return apiErr.StatusCode
	}
	return http.StatusInternalServerError
}

// VendorOption configures a vendor client
type VendorOption func(*vendorSettings)

type vendorSettings struct {
	model       string
	maxTokens   int64
	temperature *float64
	baseURL     string
	timeout     time.Duration
	httpClient  *http.Client
}

func newVendorSettings(model string, opts []VendorOption) vendorSettings {
	s := vendorSettings{
		model:     model,
		maxTokens: defaultMaxTokens,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithModel sets a custom model
func WithModel(model string) VendorOption {
	return func(s *vendorSettings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithMaxTokens caps the reply length
func WithMaxTokens(n int64) VendorOption {
	return func(s *vendorSettings) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) VendorOption {
	return func(s *vendorSettings) {
		s.temperature = &t
	}
}

// WithBaseURL points the vendor at a different endpoint
func WithBaseURL(url string) VendorOption {
	return func(s *vendorSettings) {
		s.baseURL = url
	}
}

// WithTimeout bounds a single vendor request
func WithTimeout(d time.Duration) VendorOption {
	return func(s *vendorSettings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) VendorOption {
	return func(s *vendorSettings) {
		s.httpClient = httpClient
	}
}
