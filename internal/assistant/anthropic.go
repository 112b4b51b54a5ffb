package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/log"

	"fairytale-chat/internal/logger"
	"fairytale-chat/internal/models"
)

const defaultAnthropicModel = "claude-3-5-sonnet-20240620"

// AnthropicVendor calls the Anthropic Messages API. It is the primary vendor.
type AnthropicVendor struct {
	apiKey   string
	settings vendorSettings
	client   *anthropic.Client
	log      *log.Logger
}

// NewAnthropicVendor creates the Anthropic vendor. An empty key yields an
// unconfigured vendor that the relay skips.
func NewAnthropicVendor(apiKey string, opts ...VendorOption) *AnthropicVendor {
	v := &AnthropicVendor{
		apiKey:   apiKey,
		settings: newVendorSettings(defaultAnthropicModel, opts),
		log:      logger.With("Anthropic"),
	}
	if apiKey == "" {
		return v
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(v.settings.timeout),
	}
	if v.settings.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(v.settings.baseURL))
	}
	if v.settings.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(v.settings.httpClient))
	}
	client := anthropic.NewClient(reqOpts...)
	v.client = &client
	return v
}

// Name returns the vendor name
func (v *AnthropicVendor) Name() string {
	return "anthropic"
}

// Configured reports whether a credential is present
func (v *AnthropicVendor) Configured() bool {
	return v != nil && v.apiKey != "" && v.client != nil
}

// Complete sends the conversation with systemPrompt on the system channel
func (v *AnthropicVendor) Complete(ctx context.Context, systemPrompt string, messages []models.Message) (*VendorReply, error) {
	if !v.Configured() {
		return nil, ErrNotConfigured
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(v.settings.model),
		MaxTokens: v.settings.maxTokens,
		Messages:  toAnthropicMessages(messages),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	if v.settings.temperature != nil {
		params.Temperature = anthropic.Float(*v.settings.temperature)
	}

	v.log.Debug("Complete started", "model", v.settings.model, "message_count", len(messages))
	msg, err := v.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			v.log.Warn("Complete failed: API error", "status", apiErr.StatusCode)
			return nil, &APIError{Vendor: v.Name(), StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
		v.log.Warn("Complete failed: send request", "err", err)
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		sb.WriteString(block.Text)
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("anthropic: %w", ErrEmptyReply)
	}

	v.log.Debug("Complete completed", "content_length", sb.Len())
	return &VendorReply{Vendor: v.Name(), Model: string(msg.Model), Text: sb.String()}, nil
}

// toAnthropicMessages maps history onto Anthropic turns; anything that is not
// a user turn is sent as assistant.
func toAnthropicMessages(messages []models.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == models.RoleUser {
			out = append(out, anthropic.NewUserMessage(block))
		} else {
			out = append(out, anthropic.NewAssistantMessage(block))
		}
	}
	return out
}
