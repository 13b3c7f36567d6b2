package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"lensreport/internal/model"
)

const (
	// DefaultBaseURL is Anthropic's OpenAI-compatible endpoint.
	DefaultBaseURL   = "https://api.anthropic.com/v1/"
	DefaultModel     = "claude-3-5-sonnet-20241022"
	DefaultMaxTokens = 1024

	// SentinelAnalysis replaces the analysis text when the model call fails.
	SentinelAnalysis = "Error in generating analysis"
)

const promptTemplate = `Please analyze the following product search results and provide a structured summary
    with clear headings and bullet points. Focus on:
    1. Price Range Analysis
    2. Common Product Types
    3. Notable Patterns or Trends
    4. Key Findings or Recommendations
    5. limit to maximum 20 words

    Here's the data:
    %s`

var ErrEmptyCompletion = errors.New("completion returned no text")

// CompletionAPI sends one user prompt and returns the text segments of the
// reply.
type CompletionAPI interface {
	Complete(ctx context.Context, prompt string) ([]string, error)
}

// Client turns match lists into a short analysis.
type Client struct {
	api CompletionAPI
}

type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type OpenAIAdapter struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func NewOpenAIAdapter(cfg Config) *OpenAIAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIAdapter{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Complete calls the chat completions endpoint with a single user message.
func (a *OpenAIAdapter) Complete(ctx context.Context, prompt string) ([]string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		texts = append(texts, choice.Message.Content)
	}
	return texts, nil
}

func NewClient(cfg Config) *Client {
	return &Client{api: NewOpenAIAdapter(cfg)}
}

// NewClientWithAPI is used when the completion transport is supplied by the
// caller.
func NewClientWithAPI(api CompletionAPI) *Client {
	return &Client{api: api}
}

// BuildPrompt renders matches into the fixed analysis prompt.
func BuildPrompt(matches []model.MatchRecord) (string, error) {
	data, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode matches: %w", err)
	}
	return fmt.Sprintf(promptTemplate, string(data)), nil
}

// Summarize returns the model's analysis of matches, or SentinelAnalysis on
// any failure.
func (c *Client) Summarize(ctx context.Context, matches []model.MatchRecord) string {
	text, err := c.summarize(ctx, matches)
	if err != nil {
		log.Printf("[Summarize] Error in completion call: %v", err)
		return SentinelAnalysis
	}
	return text
}

func (c *Client) summarize(ctx context.Context, matches []model.MatchRecord) (string, error) {
	prompt, err := BuildPrompt(matches)
	if err != nil {
		return "", err
	}

	texts, err := c.api.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", err)
	}
	if len(texts) == 0 {
		return "", ErrEmptyCompletion
	}
	return texts[0], nil
}
