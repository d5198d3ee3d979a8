// Package provider calls an OpenAI-style chat-completions API to synthesize
// answers grounded in FAQ context.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"faq-assistant/internal/common/logger"
	"faq-assistant/internal/common/metrics"
)

var (
	ErrTimeout       = errors.New("PROVIDER_TIMEOUT")
	ErrCallFailed    = errors.New("PROVIDER_CALL_FAILED")
	ErrNotConfigured = errors.New("PROVIDER_NOT_CONFIGURED")
)

const systemPrompt = `You are a professional enterprise internal AI customer service assistant. Please provide accurate and helpful answers based on user questions and provided FAQ information.

Answer requirements:
1. If there is relevant information in the FAQ, prioritize using FAQ content to answer
2. If there is no complete match in the FAQ, provide reasonable suggestions based on common sense and professional knowledge
3. Answers should be concise and clear, with a friendly and professional tone
4. If the answer cannot be determined, suggest users contact relevant departments
5. Answer in English`

// ContextEntry is one FAQ entry supplied as grounding context.
type ContextEntry struct {
	Question string
	Answer   string
}

// Config holds the provider connection settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

// Client is the generative-answer provider client.
type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

// NewClient builds a Client. The HTTP client carries no timeout of its own;
// cancellation comes from the per-call context.
func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		client: &http.Client{},
		logger: log.With(map[string]interface{}{
			"component": "provider",
		}),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate synthesizes an answer for the question grounded in the supplied
// FAQ context. Failures come back as typed errors; the answer router turns
// them into a graceful fallback, never a caller-visible failure.
func (c *Client) Generate(ctx context.Context, question string, entries []ContextEntry) (string, error) {
	if c.config.APIKey == "" {
		return "", fmt.Errorf("%w: api key not set", ErrNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(question, entries)},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCallFailed, err)
	}

	metrics.ProviderRequests.Inc()

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.config.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrCallFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

		resp, lastErr = c.client.Do(req)

		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return "", ErrTimeout
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrCallFailed, lastErr)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: no successful response after retries", ErrCallFailed)
	}
	defer resp.Body.Close()

	var apiResponse chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrCallFailed, err)
	}

	if len(apiResponse.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrCallFailed)
	}

	answer := strings.TrimSpace(apiResponse.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("%w: empty answer text", ErrCallFailed)
	}

	c.logger.Debug("answer generated", map[string]interface{}{
		"contextEntries": len(entries),
		"answerLength":   len(answer),
	})

	return answer, nil
}

// buildUserPrompt is the user turn: the literal question followed by a
// labeled block of the supplied FAQ context.
func buildUserPrompt(question string, entries []ContextEntry) string {
	var b strings.Builder
	b.WriteString("User question: ")
	b.WriteString(question)

	if len(entries) > 0 {
		b.WriteString("\n\nRelevant FAQ information:\n")
		for i, entry := range entries {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "Q: %s\nA: %s", entry.Question, entry.Answer)
		}
	}

	return b.String()
}
