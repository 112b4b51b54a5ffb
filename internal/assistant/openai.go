package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"fairytale-chat/internal/logger"
	"fairytale-chat/internal/models"
)

const (
	defaultOpenAIModel  = "gpt-4o-mini"
	defaultOpenAISystem = "You are a helpful assistant."
)

// OpenAIVendor calls the OpenAI Chat Completions API. It is the fallback vendor.
type OpenAIVendor struct {
	apiKey   string
	settings vendorSettings
	client   *openai.Client
	log      *log.Logger
}

// NewOpenAIVendor creates the OpenAI vendor. An empty key yields an
// unconfigured vendor that the relay skips.
func NewOpenAIVendor(apiKey string, opts ...VendorOption) *OpenAIVendor {
	v := &OpenAIVendor{
		apiKey:   apiKey,
		settings: newVendorSettings(defaultOpenAIModel, opts),
		log:      logger.With("OpenAI"),
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
	client := openai.NewClient(reqOpts...)
	v.client = &client
	return v
}

// Name returns the vendor name
func (v *OpenAIVendor) Name() string {
	return "openai"
}

// Configured reports whether a credential is present
func (v *OpenAIVendor) Configured() bool {
	return v != nil && v.apiKey != "" && v.client != nil
}

// Complete sends the conversation with systemPrompt as the leading system message
func (v *OpenAIVendor) Complete(ctx context.Context, systemPrompt string, messages []models.Message) (*VendorReply, error) {
	if !v.Configured() {
		return nil, ErrNotConfigured
	}

	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(v.settings.model),
		Messages:  toOpenAIMessages(systemPrompt, messages),
		MaxTokens: openai.Int(v.settings.maxTokens),
	}
	if v.settings.temperature != nil {
		params.Temperature = openai.Float(*v.settings.temperature)
	}

	v.log.Debug("Complete started", "model", v.settings.model, "message_count", len(messages))
	completion, err := v.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			v.log.Warn("Complete failed: API error", "status", apiErr.StatusCode)
			return nil, &APIError{Vendor: v.Name(), StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
		v.log.Warn("Complete failed: send request", "err", err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai: no response choices returned: %w", ErrEmptyReply)
	}
	content := completion.Choices[0].Message.Content
	if content == "" {
		return nil, fmt.Errorf("openai: %w", ErrEmptyReply)
	}

	v.log.Debug("Complete completed", "content_length", len(content))
	return &VendorReply{Vendor: v.Name(), Model: completion.Model, Text: content}, nil
}

// toOpenAIMessages prepends the system prompt and maps history roles
func toOpenAIMessages(systemPrompt string, messages []models.Message) []openai.ChatCompletionMessageParamUnion {
	if systemPrompt == "" {
		systemPrompt = defaultOpenAISystem
	}
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	out = append(out, openai.SystemMessage(systemPrompt))
	for _, m := range messages {
		if m.Role == models.RoleUser {
			out = append(out, openai.UserMessage(m.Content))
		} else {
			out = append(out, openai.AssistantMessage(m.Content))
		}
	}
	return out
}
