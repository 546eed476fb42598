// Package alert fires a deduplicated critical-failure alert and writes a
// sentinel file when enough question types fail in one bootstrap run.
package alert

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zen-systems/itemforge/pkg/item"
	"github.com/zen-systems/itemforge/pkg/sanitize"
)

// DefaultThreshold is the failed-type count at which a run is critical.
const DefaultThreshold = 2

// ClassifiedError describes a failure for the alert sink.
type ClassifiedError struct {
	Category  string `json:"category"`
	Severity  string `json:"severity"`
	Vendor    string `json:"vendor,omitempty"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Sink delivers alerts to an external channel. SendAlert reports whether
// delivery succeeded.
type Sink interface {
	SendAlert(classified ClassifiedError, context string) bool
}

// Sentinel is the JSON object written to disk on critical failure, consumed
// by external monitoring only.
type Sentinel struct {
	Timestamp   time.Time `json:"timestamp"`
	FailedCount int       `json:"failed_count"`
	FailedTypes []string  `json:"failed_types"`
	Threshold   int       `json:"threshold"`
	ErrorSample string    `json:"error_sample,omitempty"`
}

// Alerter inspects final per-type outcomes once per run.
type Alerter struct {
	threshold    int
	sentinelPath string
	sink         Sink
	log          func(format string, args ...any)

	mu   sync.Mutex
	sent bool
}

// Option configures an Alerter.
type Option func(*Alerter)

// WithSink sets the alert delivery channel.
func WithSink(sink Sink) Option {
	return func(a *Alerter) { a.sink = sink }
}

// WithLogger sets the progress logger.
func WithLogger(log func(format string, args ...any)) Option {
	return func(a *Alerter) { a.log = log }
}

// New creates an alerter writing its sentinel to sentinelPath.
func New(threshold int, sentinelPath string, opts ...Option) *Alerter {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	a := &Alerter{
		threshold:    threshold,
		sentinelPath: sentinelPath,
		log:          func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Review evaluates the run's results. When the failed-type count meets the
// threshold it writes the sentinel file and sends at most one alert per run,
// regardless of how many times Review is called.
func (a *Alerter) Review(results []item.TypeResult) error {
	var failedTypes []string
	var sample string
	for _, result := range results {
		if result.Success {
			continue
		}
		failedTypes = append(failedTypes, string(result.QuestionType))
		if sample == "" && result.ErrorMessage != "" {
			sample = sanitize.Text(result.ErrorMessage)
		}
	}

	if len(failedTypes) < a.threshold {
		return nil
	}

	sentinel := Sentinel{
		Timestamp:   time.Now().UTC(),
		FailedCount: len(failedTypes),
		FailedTypes: failedTypes,
		Threshold:   a.threshold,
		ErrorSample: sample,
	}
	if err := a.writeSentinel(sentinel); err != nil {
		return fmt.Errorf("write sentinel: %w", err)
	}

	a.mu.Lock()
	alreadySent := a.sent
	a.sent = true
	a.mu.Unlock()
	if alreadySent || a.sink == nil {
		return nil
	}

	classified := ClassifiedError{
		Category:  "bootstrap_critical_failure",
		Severity:  "critical",
		Message:   fmt.Sprintf("%d question types failed bootstrap: %s", len(failedTypes), strings.Join(failedTypes, ", ")),
		Retryable: true,
	}
	contextText := sample
	if !a.sink.SendAlert(classified, contextText) {
		a.log("alert delivery failed for %d failed types", len(failedTypes))
	}
	return nil
}

func (a *Alerter) writeSentinel(sentinel Sentinel) error {
	data, err := json.MarshalIndent(sentinel, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(a.sentinelPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(a.sentinelPath, append(data, '\n'), 0644)
}
