package provider

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GoogleClient implements the Client interface for Gemini models.
type GoogleClient struct {
	client *genai.Client
}

// NewGoogleClient creates a new Google Gemini client.
func NewGoogleClient(apiKey string) (*GoogleClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	return &GoogleClient{client: client}, nil
}

// Name returns the vendor identifier.
func (c *GoogleClient) Name() Vendor {
	return VendorGoogle
}

// Generate sends a prompt to Gemini and returns the response text.
func (c *GoogleClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, wrapVendorErr(ctx, c.Name(), fmt.Errorf("google API error: %w", err))
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &ClientError{Vendor: c.Name(), Err: fmt.Errorf("google returned no candidates")}
	}

	var content string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
		}
	}

	return &GenerateResult{Text: content, Vendor: c.Name(), Model: req.Model}, nil
}

// GenerateAsync starts a generation and returns its result channel.
func (c *GoogleClient) GenerateAsync(ctx context.Context, req GenerateRequest) <-chan AsyncResult {
	return generateAsync(ctx, c, req)
}

// SubmitBatch is not supported; Gemini calls go through Generate.
func (c *GoogleClient) SubmitBatch(_ context.Context, _ BatchRequest) (*BatchResult, error) {
	return nil, ErrBatchUnsupported
}

// Cleanup releases held connections.
func (c *GoogleClient) Cleanup() error {
	return nil
}
