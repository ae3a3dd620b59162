// Package openai implements the AI generation service on the OpenAI chat completions API.
package openai

import (
	"context"
	"net/http"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/ai"
)

// DefaultModel is used when Config.Model is empty
const DefaultModel = "gpt-4o-mini"

// Client is an ai.Generator backed by OpenAI
type Client struct {
	client oai.Client
	model  string
}

// Config holds the OpenAI connection settings
type Config struct {
	APIKey string // Required
	Model  string

	// BaseURL points at an OpenAI-compatible endpoint
	BaseURL    string
	HTTPClient *http.Client

	// MaxRetries overrides the SDK's retry count for 429 and 5xx responses
	MaxRetries *int
}

// New creates an OpenAI generator
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, dnderr.InvalidArgument("openai config is required")
	}
	if cfg.APIKey == "" {
		return nil, dnderr.InvalidArgument("openai api key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.MaxRetries != nil {
		opts = append(opts, option.WithMaxRetries(*cfg.MaxRetries))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client: oai.NewClient(opts...),
		model:  model,
	}, nil
}

// Generate sends the system prompt and the context document as one exchange
// and returns the assistant's reply verbatim.
func (c *Client) Generate(ctx context.Context, input *ai.GenerateInput) (string, error) {
	if input == nil {
		return "", dnderr.InvalidArgument("generate input is required")
	}

	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(input.SystemPrompt),
			oai.UserMessage(input.Context),
		},
	}
	if input.JSON {
		params.ResponseFormat = oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		// context errors pass through untouched so the caller can tell a timeout apart
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", dnderr.WrapWithCode(err, dnderr.CodeUnavailable, "openai chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", dnderr.New(dnderr.CodeMalformedResponse, "openai returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var _ ai.Generator = (*Client)(nil)
