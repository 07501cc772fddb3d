// Package llm implements the generation-service port against any
// OpenAI-compatible chat-completion endpoint, plus the retry policy that
// wraps it and a deterministic mock for tests.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

var (
	ErrGenerationFailed = errors.New("generation request failed")
	ErrInvalidConfig    = errors.New("invalid generator configuration")
)

const systemPrompt = "You are a helpful assistant that generates concise, accurate documentation. " +
	"Always respond in Markdown format. Focus on clarity and brevity."

// Config holds client configuration for an OpenAI-compatible endpoint.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Client implements port.Generator over chat completions.
type Client struct {
	client openai.Client
	config Config
}

// NewClient creates a generation client. Local endpoints accept any
// non-empty key, so a missing key defaults to "local".
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("%w: missing base URL", ErrInvalidConfig)
	}
	if config.Model == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}
	if config.APIKey == "" {
		config.APIKey = "local"
	}

	client := openai.NewClient(
		option.WithAPIKey(config.APIKey),
		option.WithBaseURL(config.BaseURL),
	)

	return &Client{
		client: client,
		config: config,
	}, nil
}

// SummarizeFile asks the model to describe one source file.
func (c *Client) SummarizeFile(ctx context.Context, relPath, content string) (string, error) {
	prompt := fmt.Sprintf(
		"Analyze this source code file and provide a comprehensive description of its purpose, "+
			"functionality, key features, and how it contributes to the overall project. "+
			"Include details about APIs, configuration options, usage patterns, and any important "+
			"behaviors that would be relevant for complete project documentation. "+
			"File: %s\n\nCode:\n```\n%s\n```",
		relPath, content)
	return c.complete(ctx, prompt)
}

// SummarizeDirectory composes a directory summary from child summaries.
func (c *Client) SummarizeDirectory(ctx context.Context, name string, childSummaries []string) (string, error) {
	prompt := fmt.Sprintf(
		"Based on the following detailed descriptions of files in the '%s' directory, "+
			"provide a comprehensive summary of this directory's role in the project. "+
			"Include information about functionality, APIs, configuration, usage patterns, "+
			"and any features that would be important for complete project documentation.\n\n"+
			"Component Descriptions:\n%s",
		name, strings.Join(childSummaries, "\n\n"))
	return c.complete(ctx, prompt)
}

// ProposeCorrection evaluates a pre-built document-line prompt.
func (c *Client) ProposeCorrection(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt)
}

// Ping sends a trivial completion to verify connectivity and credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.complete(ctx, "Respond with exactly: 'Connection test successful'")
	return err
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrInvalidConfig)
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	}
	if c.config.Temperature > 0 {
		params.Temperature = openai.Float(c.config.Temperature)
	}
	if c.config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.config.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no response generated", ErrGenerationFailed)
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}
	return text, nil
}
