package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient implements the Client interface for Claude models.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{client: client}, nil
}

// Name returns the vendor identifier.
func (c *AnthropicClient) Name() Vendor {
	return VendorAnthropic
}

// Generate sends a prompt to Claude and returns the response text.
func (c *AnthropicClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapVendorErr(ctx, c.Name(), fmt.Errorf("anthropic API error: %w", err))
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &GenerateResult{Text: content, Vendor: c.Name(), Model: req.Model}, nil
}

// GenerateAsync starts a generation and returns its result channel.
func (c *AnthropicClient) GenerateAsync(ctx context.Context, req GenerateRequest) <-chan AsyncResult {
	return generateAsync(ctx, c, req)
}

// SubmitBatch is not supported; Anthropic calls go through Generate.
func (c *AnthropicClient) SubmitBatch(_ context.Context, _ BatchRequest) (*BatchResult, error) {
	return nil, ErrBatchUnsupported
}

// Cleanup releases held connections.
func (c *AnthropicClient) Cleanup() error {
	return nil
}
