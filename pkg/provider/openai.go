package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient implements the Client interface for OpenAI models.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{client: client}, nil
}

// Name returns the vendor identifier.
func (c *OpenAIClient) Name() Vendor {
	return VendorOpenAI
}

// Generate sends a prompt to OpenAI and returns the response text.
func (c *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapVendorErr(ctx, c.Name(), fmt.Errorf("openai API error: %w", err))
	}

	if len(resp.Choices) == 0 {
		return nil, &ClientError{Vendor: c.Name(), Err: fmt.Errorf("openai returned no choices")}
	}

	return &GenerateResult{Text: resp.Choices[0].Message.Content, Vendor: c.Name(), Model: req.Model}, nil
}

// GenerateAsync starts a generation and returns its result channel.
func (c *OpenAIClient) GenerateAsync(ctx context.Context, req GenerateRequest) <-chan AsyncResult {
	return generateAsync(ctx, c, req)
}

// SubmitBatch is not supported; OpenAI calls go through Generate.
func (c *OpenAIClient) SubmitBatch(_ context.Context, _ BatchRequest) (*BatchResult, error) {
	return nil, ErrBatchUnsupported
}

// Cleanup releases held connections.
func (c *OpenAIClient) Cleanup() error {
	return nil
}
