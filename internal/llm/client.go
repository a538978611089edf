// Package llm is a small client for OpenAI-compatible chat completion endpoints.
// Requests are guarded by a circuit breaker so that a failing provider is not
// called on every wipe.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MK-codes365/greenwipe/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var (
	// ErrUnavailable is returned while the circuit breaker is open
	ErrUnavailable = errors.New("llm provider unavailable")
	// ErrEmptyResponse is returned when the provider answers without any choice
	ErrEmptyResponse = errors.New("llm response contained no choices")
)

// Message is one chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Function describes a callable tool
type Function struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Tool wraps a function definition
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// NewFunctionTool builds a function tool definition
func NewFunctionTool(name, description string, parameters map[string]any) Tool {
	return Tool{
		Type:     "function",
		Function: Function{Name: name, Description: description, Parameters: parameters},
	}
}

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// ChatRequest is the body sent to the provider. Model is filled from the client
// configuration when empty.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Tools          []Tool          `json:"tools,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ResponseFormat selects structured output
type ResponseFormat struct {
	Type string `json:"type"`
}

// JSONObject asks the model to answer with a JSON object
var JSONObject = &ResponseFormat{Type: "json_object"}

// ChatResponse is the first choice of a completion
type ChatResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// Completer is implemented by Client and by test doubles
type Completer interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Client talks to a chat completion endpoint
type Client struct {
	endpoint string
	model    string
	http     *resty.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

// NewClient creates a client from the suggestion configuration
func NewClient(cfg config.SuggestionConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "llm",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up says nothing about the provider
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	rc := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		rc.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		http:     rc,
		breaker:  breaker,
		logger:   logger,
	}
}

// State returns the circuit breaker state
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Chat sends a completion request and returns the first choice
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	return result.(*ChatResponse), nil
}

func (c *Client) do(ctx context.Context, body ChatRequest) (*ChatResponse, error) {
	c.logger.Debug("Sending chat request", zap.String("endpoint", c.endpoint), zap.String("model", body.Model))
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	if !resp.IsSuccess() {
		snippet := resp.Body()
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return nil, fmt.Errorf("chat endpoint returned status %d: %s", resp.StatusCode(), bytes.TrimSpace(snippet))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content   string     `json:"content"`
				ToolCalls []ToolCall `json:"tool_calls"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	choice := parsed.Choices[0]
	return &ChatResponse{
		Content:      choice.Message.Content,
		ToolCalls:    choice.Message.ToolCalls,
		FinishReason: choice.FinishReason,
	}, nil
}
