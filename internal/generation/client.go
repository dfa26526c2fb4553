package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/etepro/etepro-backend/internal/metrics"
	"github.com/etepro/etepro-backend/internal/tutor"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

var ErrEmptyCompletion = errors.New("generation returned no choices")

// Config points the client at an OpenAI-compatible chat completions API.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client sends single-turn prompts to the generation backend.
type Client struct {
	api   *openai.Client
	model string
	log   zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		api:   openai.NewClientWithConfig(oc),
		model: cfg.Model,
		log:   log,
	}
}

// Generate returns the completion for prompt. The whole prompt is sent as one
// user message and the response is not streamed.
func (c *Client) Generate(ctx context.Context, prompt string, params tutor.Params) (answer string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveGeneration(start, err) }()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: params.Temperature,
		MaxTokens:   params.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	c.log.Debug().
		Str("model", resp.Model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("took", time.Since(start)).
		Msg("Generation completed")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
