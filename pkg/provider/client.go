package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Vendor identifies a content-generation vendor. The set is closed; routing
// configs may only reference these values.
type Vendor string

const (
	VendorAnthropic Vendor = "anthropic"
	VendorOpenAI    Vendor = "openai"
	VendorGoogle    Vendor = "google"
	VendorDeepSeek  Vendor = "deepseek"
	VendorMock      Vendor = "mock"
)

// AllVendors lists every known vendor identifier.
var AllVendors = []Vendor{VendorAnthropic, VendorOpenAI, VendorGoogle, VendorDeepSeek, VendorMock}

// ParseVendor converts a string into a known Vendor.
func ParseVendor(s string) (Vendor, error) {
	v := Vendor(strings.TrimSpace(strings.ToLower(s)))
	for _, known := range AllVendors {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown vendor %q", s)
}

// GenerateRequest is a single-prompt generation call.
type GenerateRequest struct {
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// GenerateResult is the text returned by a vendor for one prompt.
type GenerateResult struct {
	Text   string
	Vendor Vendor
	Model  string
}

// AsyncResult delivers a non-blocking generation outcome.
type AsyncResult struct {
	Result *GenerateResult
	Err    error
}

// BatchPrompt is one entry in a batch submission. Key is echoed back on the
// matching response so callers can re-associate results.
type BatchPrompt struct {
	Key         string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// BatchRequest submits many prompts as one asynchronous vendor job.
type BatchRequest struct {
	Model        string
	Prompts      []BatchPrompt
	DisplayName  string
	PollInterval time.Duration
	Timeout      time.Duration
}

// BatchResponse is one per-prompt outcome from a batch job.
type BatchResponse struct {
	Key   string
	Text  string
	Error string
}

// BatchResult summarizes a completed batch job.
type BatchResult struct {
	Responses          []BatchResponse
	SuccessfulRequests int
	FailedRequests     int
	TotalRequests      int
}

// Client is the capability interface every vendor implements. SubmitBatch is
// optional; vendors without a native batch API return ErrBatchUnsupported.
type Client interface {
	// Name returns the vendor identifier.
	Name() Vendor

	// Generate sends one prompt and blocks until text or error.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)

	// GenerateAsync starts a generation and returns a channel that delivers
	// exactly one result.
	GenerateAsync(ctx context.Context, req GenerateRequest) <-chan AsyncResult

	// SubmitBatch submits prompts as one job and polls until completion.
	SubmitBatch(ctx context.Context, req BatchRequest) (*BatchResult, error)

	// Cleanup releases any held connections.
	Cleanup() error
}

// generateAsync adapts a blocking Generate into the channel form shared by
// every client.
func generateAsync(ctx context.Context, c Client, req GenerateRequest) <-chan AsyncResult {
	ch := make(chan AsyncResult, 1)
	go func() {
		result, err := c.Generate(ctx, req)
		ch <- AsyncResult{Result: result, Err: err}
	}()
	return ch
}
