// Package llm wraps the OpenAI chat completion endpoint used to phrase answers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hyperjump/pharmassist/internal/config"
	"github.com/hyperjump/pharmassist/internal/errs"
	"github.com/hyperjump/pharmassist/pkg/utils"
)

// ErrRateLimited is wrapped by completion errors caused by HTTP 429.
var ErrRateLimited = errors.New("rate limited")

// Completer produces a completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// NewOpenAI builds the go-openai client shared by the embedder and the completion client.
func NewOpenAI(cfg config.OpenAIConfig) *openai.Client {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(c)
}

// Options tunes a Client.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

// OptionsFromConfig combines the completion and credential settings.
func OptionsFromConfig(llm config.LLMConfig, oa config.OpenAIConfig) Options {
	return Options{
		Model:       llm.Model,
		Temperature: llm.Temperature,
		MaxTokens:   llm.MaxTokens,
		Timeout:     llm.Timeout,
		MaxRetries:  oa.MaxRetries,
		RetryDelay:  oa.RetryDelay,
	}
}

// Client calls the chat completion endpoint with retries on 429 and 5xx.
type Client struct {
	client *openai.Client
	opts   Options
	logger *zap.Logger
}

var _ Completer = (*Client)(nil)

// NewClient wraps client.
func NewClient(client *openai.Client, opts Options, logger *zap.Logger) *Client {
	if opts.Model == "" {
		opts.Model = openai.GPT3Dot5Turbo
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Client{client: client, opts: opts, logger: utils.OrNop(logger).Named("llm")}
}

// Model returns the configured chat model.
func (c *Client) Model() string {
	return c.opts.Model
}

// Complete sends system and prompt as a two-message conversation and returns the trimmed reply.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := utils.CalculateBackoff(c.opts.RetryDelay, attempt)
			select {
			case <-ctx.Done():
				return "", errs.Transport("completion cancelled", ctx.Err())
			case <-time.After(delay):
			}
		}
		text, err := c.create(ctx, system, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.logger.Warn("completion attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))
		if !retryable(err) {
			break
		}
	}
	return "", lastErr
}

func (c *Client) create(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.opts.Model,
		Messages:    messages,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", errs.Provider("no completion choices returned", nil)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401:
			return errs.New(errs.KindUnauthorized, "completion authentication failed", err)
		case apiErr.HTTPStatusCode == 429:
			return errs.Provider(apiErr.Message, fmt.Errorf("%w: %w", ErrRateLimited, err))
		}
		return errs.Provider(apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == 429 {
			return errs.Provider("completion rate limited", fmt.Errorf("%w: %w", ErrRateLimited, err))
		}
		return errs.Provider("completion request rejected", err)
	}
	return errs.Transport("completion request failed", err)
}

func retryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode >= 500
	}
	return errs.IsKind(err, errs.KindTransport) && !errors.Is(err, context.Canceled)
}
