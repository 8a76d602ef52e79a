// Package llm implements the parse.Oracle interface on top of the OpenAI
// chat completion API.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/lueurxax/polymer-price-bot/internal/config"
	"github.com/lueurxax/polymer-price-bot/internal/observability"
	"github.com/lueurxax/polymer-price-bot/internal/parse"
)

const (
	initialRetryDelay = 500 * time.Millisecond
	delayMultiplier   = 2
	limiterBurst      = 5
)

// ErrEmptyResponse indicates the model returned no usable content.
var ErrEmptyResponse = errors.New("empty oracle response")

type Client struct {
	cfg     *config.Config
	api     *openai.Client
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

func New(cfg *config.Config, logger *zerolog.Logger) *Client {
	return &Client{
		cfg:     cfg,
		api:     openai.NewClient(cfg.LLMAPIKey),
		limiter: rate.NewLimiter(rate.Limit(cfg.LLMRateRPS), limiterBurst),
		logger:  logger,
	}
}

// Extract asks the model for priced polymer entries in the given text.
// Transient failures (transport, timeout, rate limiting, malformed JSON)
// are retried with exponential backoff; authentication failures are
// returned immediately wrapped with parse.ErrAuth.
func (c *Client) Extract(ctx context.Context, text string) ([]parse.Candidate, error) {
	var lastErr error

	delay := initialRetryDelay

	for attempt := 0; attempt <= c.cfg.LLMMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("retry interrupted: %w", ctx.Err())
			case <-time.After(delay):
				delay *= delayMultiplier
			}
		}

		candidates, err := c.extractOnce(ctx, text)
		if err == nil {
			return candidates, nil
		}

		if !isRetryable(err) {
			return nil, err
		}

		c.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("oracle request failed, retrying")

		lastErr = err
	}

	return nil, fmt.Errorf("oracle retries exhausted: %w", lastErr)
}

func (c *Client) extractOnce(ctx context.Context, text string) ([]parse.Candidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.LLMTimeout)
	defer cancel()

	start := time.Now()

	resp, err := c.api.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: c.cfg.LLMModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(c.cfg.MinPlausiblePrice)},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(text, c.cfg.MinPlausiblePrice)},
		},
		// Smallest representable value: a literal zero would be dropped by
		// omitempty and the API would fall back to its default sampling.
		Temperature: math.SmallestNonzeroFloat32,
	})

	observability.OracleRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		observability.OracleRequests.WithLabelValues("error").Inc()

		return nil, classifyAPIError(err)
	}

	observability.OracleRequests.WithLabelValues("ok").Inc()

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	return decodeCandidates(resp.Choices[0].Message.Content)
}

// decodeCandidates parses the model reply, tolerating prose around the
// JSON array.
func decodeCandidates(content string) ([]parse.Candidate, error) {
	raw := extractJSONArray(content)

	var items []struct {
		Name  string      `json:"polymer_name"`
		Price json.Number `json:"price"`
	}

	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode oracle reply: %w", err)
	}

	candidates := make([]parse.Candidate, 0, len(items))

	for _, item := range items {
		if item.Name == "" || item.Price == "" {
			continue
		}

		candidates = append(candidates, parse.Candidate{
			Name:  item.Name,
			Price: item.Price.String(),
		})
	}

	return candidates, nil
}

// extractJSONArray pulls the first bracketed array out of a response that
// might carry extra text.
func extractJSONArray(text string) string {
	start := -1

	for i, r := range text {
		if r == '[' {
			start = i
			break
		}
	}

	if start == -1 {
		return text
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		switch {
		case escaped:
			escaped = false
		case text[i] == '\\' && inString:
			escaped = true
		case text[i] == '"':
			inString = !inString
		case inString:
		case text[i] == '[':
			depth++
		case text[i] == ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return text
}

// classifyAPIError maps OpenAI errors onto the pipeline's taxonomy:
// credential problems are fatal, everything else is transient.
func classifyAPIError(err error) error {
	var apiErr *openai.APIError

	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", parse.ErrAuth, err)
		}
	}

	return fmt.Errorf("oracle request: %w", err)
}

func isRetryable(err error) bool {
	return !errors.Is(err, parse.ErrAuth) && !errors.Is(err, context.Canceled)
}
