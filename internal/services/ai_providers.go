package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"devopsquiz/internal/config"
	contextutils "devopsquiz/internal/utils"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// Completion is the trimmed text of a single completion plus its token usage
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Completer sends one user message to a chat-completion API
type Completer interface {
	Complete(ctx context.Context, prompt string) (*Completion, error)
	Provider() string
	Model() string
}

// NewCompleter builds the completer for the configured provider
func NewCompleter(aiCfg config.AIConfig, apiKey string) (Completer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, contextutils.WrapError(contextutils.ErrAIConfigInvalid, "API key is required")
	}

	httpClient := newAIHTTPClient(aiCfg)
	switch aiCfg.Provider {
	case config.ProviderOpenAI, "":
		return NewOpenAICompleter(aiCfg, apiKey, httpClient), nil
	case config.ProviderAnthropic:
		return NewAnthropicCompleter(aiCfg, apiKey, httpClient), nil
	default:
		return nil, contextutils.WrapErrorf(contextutils.ErrAIConfigInvalid, "unsupported provider %q", aiCfg.Provider)
	}
}

// newAIHTTPClient creates an instrumented HTTP client. The client timeout is
// slightly longer than the request deadline so the context deadline fires first.
func newAIHTTPClient(aiCfg config.AIConfig) *http.Client {
	timeout := aiCfg.Timeout
	if timeout <= 0 {
		timeout = config.AIRequestTimeout
	}
	return &http.Client{
		Timeout: timeout + config.AIClientTimeoutSlack,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}
}

// OpenAICompleter talks to the OpenAI chat completions API or any compatible endpoint
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAICompleter creates an OpenAI completer
func NewOpenAICompleter(aiCfg config.AIConfig, apiKey string, httpClient *http.Client) *OpenAICompleter {
	clientCfg := openai.DefaultConfig(apiKey)
	if aiCfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(aiCfg.BaseURL, "/")
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}
	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       aiCfg.Model,
		maxTokens:   aiCfg.MaxTokens,
		temperature: float32(aiCfg.Temperature),
	}
}

// Provider returns the provider code
func (c *OpenAICompleter) Provider() string { return config.ProviderOpenAI }

// Model returns the configured model
func (c *OpenAICompleter) Model() string { return c.model }

// Complete sends prompt as a single user message
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (*Completion, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, mapProviderError(ctx, config.ProviderOpenAI, err)
	}
	if len(resp.Choices) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrAIResponseInvalid, "no response from OpenAI")
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}
	return &Completion{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// AnthropicCompleter talks to the Anthropic messages API
type AnthropicCompleter struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropicCompleter creates an Anthropic completer
func NewAnthropicCompleter(aiCfg config.AIConfig, apiKey string, httpClient *http.Client) *AnthropicCompleter {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if aiCfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(aiCfg.BaseURL))
	}
	maxTokens := int64(aiCfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = config.DefaultAIMaxTokens
	}
	return &AnthropicCompleter{
		client:      anthropic.NewClient(opts...),
		model:       aiCfg.Model,
		maxTokens:   maxTokens,
		temperature: aiCfg.Temperature,
	}
}

// Provider returns the provider code
func (c *AnthropicCompleter) Provider() string { return config.ProviderAnthropic }

// Model returns the configured model
func (c *AnthropicCompleter) Model() string { return c.model }

// Complete sends prompt as a single user message
func (c *AnthropicCompleter) Complete(ctx context.Context, prompt string) (*Completion, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if c.temperature > 0 {
		params.Temperature = param.NewOpt(c.temperature)
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, mapProviderError(ctx, config.ProviderAnthropic, err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, contextutils.WrapError(contextutils.ErrAIResponseInvalid, "no text content in Anthropic response")
	}

	model := string(message.Model)
	if model == "" {
		model = c.model
	}
	return &Completion{
		Text:             strings.TrimSpace(text.String()),
		Model:            model,
		PromptTokens:     int(message.Usage.InputTokens),
		CompletionTokens: int(message.Usage.OutputTokens),
	}, nil
}

// mapProviderError converts an SDK error into an AppError. Deadlines become
// timeouts; everything else is a failed request.
func mapProviderError(ctx context.Context, provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return contextutils.WrapErrorf(contextutils.ErrTimeout, "%s request timed out: %w", provider, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "%s API error (status %d): %s", provider, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "%s API error (status %d): %w", provider, anthropicErr.StatusCode, err)
	}
	return contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "%s request failed: %w", provider, err)
}
