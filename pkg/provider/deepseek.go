package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// DeepSeekClient implements the Client interface for DeepSeek models.
// DeepSeek uses an OpenAI-compatible API format and is the one vendor here
// with a native batch endpoint.
type DeepSeekClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// deepseekRequest represents the OpenAI-compatible request format.
type deepseekRequest struct {
	Model       string            `json:"model"`
	Messages    []deepseekMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
}

// deepseekMessage represents a chat message.
type deepseekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// deepseekResponse represents the OpenAI-compatible response format.
type deepseekResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// deepseekBatchRequest submits many prompts as one job.
type deepseekBatchRequest struct {
	Model       string                 `json:"model"`
	DisplayName string                 `json:"display_name,omitempty"`
	Requests    []deepseekBatchPrompt  `json:"requests"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type deepseekBatchPrompt struct {
	CustomID    string  `json:"custom_id"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type deepseekBatchStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type deepseekBatchResponses struct {
	Responses []struct {
		CustomID string `json:"custom_id"`
		Content  string `json:"content"`
		Error    string `json:"error,omitempty"`
	} `json:"responses"`
}

// NewDeepSeekClient creates a new DeepSeek client.
func NewDeepSeekClient(apiKey string) (*DeepSeekClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepseek API key is required")
	}

	return &DeepSeekClient{
		apiKey:     apiKey,
		baseURL:    deepseekBaseURL,
		httpClient: &http.Client{},
	}, nil
}

// Name returns the vendor identifier.
func (c *DeepSeekClient) Name() Vendor {
	return VendorDeepSeek
}

// Generate sends a prompt to DeepSeek and returns the response text.
func (c *DeepSeekClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	body := deepseekRequest{
		Model:       req.Model,
		Messages:    []deepseekMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	var resp deepseekResponse
	if err := c.post(ctx, "/chat/completions", body, &resp); err != nil {
		return nil, wrapVendorErr(ctx, c.Name(), err)
	}
	if resp.Error != nil {
		return nil, &ClientError{Vendor: c.Name(), Err: fmt.Errorf("deepseek API error: %s", resp.Error.Message)}
	}
	if len(resp.Choices) == 0 {
		return nil, &ClientError{Vendor: c.Name(), Err: fmt.Errorf("deepseek returned no choices")}
	}

	return &GenerateResult{Text: resp.Choices[0].Message.Content, Vendor: c.Name(), Model: req.Model}, nil
}

// GenerateAsync starts a generation and returns its result channel.
func (c *DeepSeekClient) GenerateAsync(ctx context.Context, req GenerateRequest) <-chan AsyncResult {
	return generateAsync(ctx, c, req)
}

// SubmitBatch submits prompts as one job and polls until it completes or the
// request timeout expires.
func (c *DeepSeekClient) SubmitBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if len(req.Prompts) == 0 {
		return nil, &ClientError{Vendor: c.Name(), Err: fmt.Errorf("batch request has no prompts")}
	}

	pollInterval := req.PollInterval
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	body := deepseekBatchRequest{
		Model:       req.Model,
		DisplayName: req.DisplayName,
	}
	for _, p := range req.Prompts {
		body.Requests = append(body.Requests, deepseekBatchPrompt{
			CustomID:    p.Key,
			Prompt:      p.Prompt,
			MaxTokens:   p.MaxTokens,
			Temperature: p.Temperature,
		})
	}

	var created deepseekBatchStatus
	if err := c.post(ctx, "/batches", body, &created); err != nil {
		return nil, wrapVendorErr(ctx, c.Name(), fmt.Errorf("batch submit: %w", err))
	}
	if created.ID == "" {
		return nil, &ClientError{Vendor: c.Name(), Err: fmt.Errorf("batch submit returned no job id")}
	}

	for {
		var status deepseekBatchStatus
		if err := c.get(ctx, "/batches/"+created.ID, &status); err != nil {
			return nil, wrapVendorErr(ctx, c.Name(), fmt.Errorf("batch poll: %w", err))
		}

		switch status.Status {
		case "completed":
			return c.fetchBatchResponses(ctx, created.ID, len(req.Prompts))
		case "failed", "cancelled", "expired":
			msg := status.Status
			if status.Error != nil {
				msg = status.Error.Message
			}
			return nil, &ClientError{Vendor: c.Name(), Err: fmt.Errorf("batch job %s: %s", created.ID, msg)}
		}

		select {
		case <-ctx.Done():
			return nil, NewTimeoutError(c.Name(), fmt.Errorf("batch job %s: %w", created.ID, ctx.Err()))
		case <-time.After(pollInterval):
		}
	}
}

func (c *DeepSeekClient) fetchBatchResponses(ctx context.Context, jobID string, total int) (*BatchResult, error) {
	var raw deepseekBatchResponses
	if err := c.get(ctx, "/batches/"+jobID+"/responses", &raw); err != nil {
		return nil, wrapVendorErr(ctx, c.Name(), fmt.Errorf("batch responses: %w", err))
	}

	result := &BatchResult{TotalRequests: total}
	for _, r := range raw.Responses {
		resp := BatchResponse{Key: r.CustomID, Text: r.Content, Error: r.Error}
		if r.Error == "" {
			result.SuccessfulRequests++
		} else {
			result.FailedRequests++
		}
		result.Responses = append(result.Responses, resp)
	}
	return result, nil
}

// Cleanup releases held connections.
func (c *DeepSeekClient) Cleanup() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *DeepSeekClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(httpReq, out)
}

func (c *DeepSeekClient) get(ctx context.Context, path string, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(httpReq, out)
}

func (c *DeepSeekClient) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ClientError{
			Vendor: c.Name(),
			Status: resp.StatusCode,
			Err:    fmt.Errorf("deepseek API status %d: %s", resp.StatusCode, truncateBody(data)),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncateBody(data []byte) string {
	const limit = 256
	if len(data) <= limit {
		return string(data)
	}
	return string(data[:limit]) + "..."
}
