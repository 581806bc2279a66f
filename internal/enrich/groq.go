// Package enrich calls an LLM-backed analyzer (Groq's OpenAI-compatible
// chat completions API) to produce a launch analysis for the Twitter path.
// The collaborator is opaque: the pipeline only depends on the resulting
// domain.GroqAnalysis.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"launch-radar/internal/domain"
)

// Default configuration values.
const (
	DefaultEndpoint = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel    = "llama-3.3-70b-versatile"

	// DefaultTimeout bounds one analysis call. Past it the candidate is
	// treated as analysis-missing by the caller.
	DefaultTimeout = 12 * time.Second
)

// ErrEmptyResponse is returned when the API answers without any choices.
var ErrEmptyResponse = errors.New("enrich: empty completion response")

// Client calls the chat completions API.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	timeout  time.Duration
	client   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the API endpoint (tests, proxies).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithModel overrides the model id.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithTimeout bounds one analysis call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// New creates a Client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		model:    DefaultModel,
		timeout:  DefaultTimeout,
		client:   &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const systemPrompt = `You evaluate social media posts that may announce or request a meme token launch.
Reply with a single JSON object, no prose, with exactly these fields:
{"shouldLaunch": bool, "confidence": number 0-1, "score1to10": number,
"riskFlags": [string], "nsfwOrSensitive": bool, "tokenName": string,
"tokenTicker": string, "reasoning": string}
Flag political content, tragedies, and tickers imitating real brands.`

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Analyze scores one signal. The call is bounded by the client timeout;
// on any failure the caller marks the candidate analysis-missing and the
// pipeline continues.
func (c *Client) Analyze(ctx context.Context, sig *domain.Signal) (*domain.GroqAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userPrompt := fmt.Sprintf("Author: @%s\nEngagement: %.0f\nHas media: %t\n\n%s",
		sig.Author, sig.EngagementScore, sig.HasMedia, sig.Content)

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0.1,
		ResponseFormat: &respFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analysis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read analysis response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode analysis response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("analysis API error (status %d): %s", resp.StatusCode, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis call returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	// Some models wrap the object in a code fence despite json mode.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var analysis domain.GroqAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("decode analysis result: %w", err)
	}
	analysis.Ticker = strings.ToUpper(strings.TrimPrefix(analysis.Ticker, "$"))
	return &analysis, nil
}
