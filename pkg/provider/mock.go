package provider

import (
	"context"
	"fmt"
	"time"
)

// MockClient returns deterministic responses for local runs and tests.
type MockClient struct {
	responses       map[string]string
	defaultResponse string

	// GenerateFn, when set, overrides response lookup entirely.
	GenerateFn func(ctx context.Context, req GenerateRequest) (*GenerateResult, error)

	// Err, when set, fails every call.
	Err error

	// Delay simulates vendor latency before each response.
	Delay time.Duration
}

// NewMockClient creates a mock client with a default response.
func NewMockClient() *MockClient {
	return &MockClient{
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
	}
}

// NewMockClientWithResponses creates a mock client with predefined responses.
func NewMockClientWithResponses(responses map[string]string, defaultResponse string) *MockClient {
	if defaultResponse == "" {
		defaultResponse = "mock response:"
	}
	return &MockClient{responses: responses, defaultResponse: defaultResponse}
}

// Name returns the vendor identifier.
func (c *MockClient) Name() Vendor {
	return VendorMock
}

// Generate returns a deterministic result for the prompt.
func (c *MockClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if c.GenerateFn != nil {
		return c.GenerateFn(ctx, req)
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if c.Err != nil {
		return nil, c.Err
	}

	model := req.Model
	if model == "" {
		model = "mock-1"
	}
	if response, ok := c.responses[req.Prompt]; ok {
		return &GenerateResult{Text: response, Vendor: c.Name(), Model: model}, nil
	}
	return &GenerateResult{
		Text:   fmt.Sprintf("%s\n%s", c.defaultResponse, req.Prompt),
		Vendor: c.Name(),
		Model:  model,
	}, nil
}

// GenerateAsync starts a generation and returns its result channel.
func (c *MockClient) GenerateAsync(ctx context.Context, req GenerateRequest) <-chan AsyncResult {
	return generateAsync(ctx, c, req)
}

// SubmitBatch resolves every prompt through the same response table.
func (c *MockClient) SubmitBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if c.Err != nil {
		return nil, c.Err
	}

	result := &BatchResult{TotalRequests: len(req.Prompts)}
	for _, p := range req.Prompts {
		text, ok := c.responses[p.Prompt]
		if !ok {
			text = fmt.Sprintf("%s\n%s", c.defaultResponse, p.Prompt)
		}
		result.Responses = append(result.Responses, BatchResponse{Key: p.Key, Text: text})
		result.SuccessfulRequests++
	}
	return result, nil
}

// Cleanup releases held connections.
func (c *MockClient) Cleanup() error {
	return nil
}

func (c *MockClient) wait(ctx context.Context) error {
	if c.Delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return wrapVendorErr(ctx, c.Name(), ctx.Err())
	case <-time.After(c.Delay):
		return nil
	}
}
