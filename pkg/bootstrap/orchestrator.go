// Package bootstrap drives retried, optionally parallel, generation of test
// items across question types, with batch submission, structured telemetry,
// and critical-failure alerting.
package bootstrap

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/zen-systems/itemforge/pkg/alert"
	"github.com/zen-systems/itemforge/pkg/config"
	"github.com/zen-systems/itemforge/pkg/events"
	"github.com/zen-systems/itemforge/pkg/item"
	"github.com/zen-systems/itemforge/pkg/judge"
	"github.com/zen-systems/itemforge/pkg/provider"
	"github.com/zen-systems/itemforge/pkg/router"
	"github.com/zen-systems/itemforge/pkg/sanitize"
)

// Event types written to the structured event log.
const (
	eventRunStarted       = "bootstrap_started"
	eventRunCompleted     = "bootstrap_completed"
	eventTypeStarted      = "type_started"
	eventTypeCompleted    = "type_completed"
	eventBandGenerated    = "band_generated"
	eventRetryScheduled   = "retry_scheduled"
	eventBatchSubmitted   = "batch_submitted"
	eventBatchCompleted   = "batch_completed"
	eventBatchUnsupported = "batch_unsupported"
)

// RunConfig configures one bootstrap run.
type RunConfig struct {
	QuestionsPerType  int
	Types             []item.QuestionType
	MaxRetries        int
	RetryBaseDelay    time.Duration
	RetryMaxDelay     time.Duration
	Parallel          bool
	MaxParallel       int
	UseAsync          bool
	UseBatch          bool
	DryRun            bool
	GenerateTimeout   time.Duration
	BatchTimeout      time.Duration
	BatchPollInterval time.Duration
}

// Validate checks run parameters that would otherwise surface mid-run.
func (c *RunConfig) Validate() error {
	if c.QuestionsPerType < 1 || c.QuestionsPerType > item.MaxQuestionsPerType {
		return fmt.Errorf("questions per type must be in [1,%d], got %d", item.MaxQuestionsPerType, c.QuestionsPerType)
	}
	if len(c.Types) == 0 {
		return fmt.Errorf("at least one question type is required")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1")
	}
	if c.Parallel && c.MaxParallel < 1 {
		return fmt.Errorf("max parallel must be at least 1")
	}
	return nil
}

func (c *RunConfig) applyDefaults() {
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 2 * time.Second
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 60 * time.Second
	}
	if c.MaxParallel < 1 {
		c.MaxParallel = 3
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = 2 * time.Minute
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 30 * time.Minute
	}
	if c.BatchPollInterval <= 0 {
		c.BatchPollInterval = 15 * time.Second
	}
}

// Summary is the final outcome of a bootstrap run. Results are in the
// original type order regardless of completion order.
type Summary struct {
	RunID      string
	Results    []item.TypeResult
	Successful int
	Failed     int
	Duration   time.Duration
}

// ExitCode maps the summary onto the process exit contract: 0 when every
// type succeeded, 1 when one or more types failed after exhausting retries.
func (s *Summary) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}

// Store receives generated records for persistence. It is the external item
// store collaborator; the orchestrator only hands records back.
type Store func(ctx context.Context, questions []*item.Question) error

// Orchestrator is the top-level bootstrap driver.
type Orchestrator struct {
	clients  map[provider.Vendor]provider.Client
	resolver *router.Resolver
	cfg      RunConfig

	events  *events.Logger
	alerter *alert.Alerter
	judge   *judge.Judge
	store   Store
	log     func(format string, args ...any)

	// sleep is swappable so retry timing is testable.
	sleep func(ctx context.Context, d time.Duration) error

	runID string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the human-readable progress logger.
func WithLogger(log func(format string, args ...any)) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithEvents sets the structured event logger.
func WithEvents(logger *events.Logger) Option {
	return func(o *Orchestrator) { o.events = logger }
}

// WithAlerter sets the critical-failure alerter run after all types finish.
func WithAlerter(a *alert.Alerter) Option {
	return func(o *Orchestrator) { o.alerter = a }
}

// WithJudge routes generated items through the judge; only approved items
// are handed to the store.
func WithJudge(j *judge.Judge) Option {
	return func(o *Orchestrator) { o.judge = j }
}

// WithStore sets the persistence collaborator.
func WithStore(store Store) Option {
	return func(o *Orchestrator) { o.store = store }
}

// New creates an orchestrator over the constructed vendor clients and a
// loaded routing config.
func New(clients map[provider.Vendor]provider.Client, routing *config.RoutingConfig, cfg RunConfig, opts ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if len(clients) == 0 {
		return nil, fmt.Errorf("no vendor clients configured")
	}

	o := &Orchestrator{
		clients:  clients,
		resolver: router.NewResolver(routing),
		cfg:      cfg,
		events:   events.Nop(),
		log:      func(string, ...any) {},
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run executes the bootstrap across all configured types and returns the
// summary. A type's failure never aborts the run; the error return is
// reserved for run-level problems such as context cancellation before start.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	o.runID = uuid.NewString()
	o.events.Emit(eventRunStarted, "started",
		zap.String("run_id", o.runID),
		zap.Int("questions_per_type", o.cfg.QuestionsPerType),
		zap.Int("type_count", len(o.cfg.Types)),
		zap.Bool("parallel", o.cfg.Parallel),
		zap.Bool("batch", o.cfg.UseBatch),
		zap.Bool("dry_run", o.cfg.DryRun),
	)

	results := make([]item.TypeResult, len(o.cfg.Types))
	if o.cfg.Parallel {
		o.runParallel(ctx, results)
	} else {
		for i, qt := range o.cfg.Types {
			results[i] = o.runType(ctx, qt)
		}
	}

	summary := &Summary{
		RunID:    o.runID,
		Results:  results,
		Duration: time.Since(start),
	}
	for _, result := range results {
		if result.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	o.events.Emit(eventRunCompleted, runStatus(summary.Failed),
		zap.String("run_id", o.runID),
		zap.Int("successful", summary.Successful),
		zap.Int("failed", summary.Failed),
		zap.Float64("duration_seconds", summary.Duration.Seconds()),
	)

	if o.alerter != nil {
		if err := o.alerter.Review(results); err != nil {
			o.log("alert review failed: %v", err)
		}
	}

	return summary, nil
}

// runParallel fans the types out as concurrent tasks gated by a limiter.
// Each task's failure, panics included, becomes a failed TypeResult rather
// than cancelling siblings.
func (o *Orchestrator) runParallel(ctx context.Context, results []item.TypeResult) {
	sem := semaphore.NewWeighted(int64(o.cfg.MaxParallel))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, qt := range o.cfg.Types {
		wg.Add(1)
		go func(i int, qt item.QuestionType) {
			defer wg.Done()

			result := item.TypeResult{QuestionType: qt, AttemptCount: 1}
			defer func() {
				if r := recover(); r != nil {
					result.Success = false
					result.ErrorMessage = sanitize.Text(fmt.Sprintf("panic: %v", r))
				}
				mu.Lock()
				results[i] = result
				mu.Unlock()
			}()

			if err := sem.Acquire(ctx, 1); err != nil {
				result.ErrorMessage = sanitize.Error(err)
				return
			}
			defer sem.Release(1)

			result = o.runType(ctx, qt)
		}(i, qt)
	}
	wg.Wait()
}

// runType drives one question type through its attempt state machine.
func (o *Orchestrator) runType(ctx context.Context, qt item.QuestionType) item.TypeResult {
	start := time.Now()
	o.events.Emit(eventTypeStarted, "started",
		zap.String("run_id", o.runID),
		zap.String("question_type", string(qt)),
	)

	var lastErr string
	attempts := 0
	for attempt := 1; attempt <= o.cfg.MaxRetries; attempt++ {
		attempts = attempt
		if attempt > 1 {
			delay := o.retryDelay(attempt - 1)
			o.events.Emit(eventRetryScheduled, "waiting",
				zap.String("run_id", o.runID),
				zap.String("question_type", string(qt)),
				zap.Int("attempt", attempt),
				zap.Float64("delay_seconds", delay.Seconds()),
			)
			if err := o.sleep(ctx, delay); err != nil {
				lastErr = sanitize.Error(err)
				break
			}
		}

		questions, err := o.generateType(ctx, qt)
		if err == nil {
			err = o.deliver(ctx, questions)
		}
		if err == nil {
			duration := time.Since(start)
			o.events.Emit(eventTypeCompleted, "success",
				zap.String("run_id", o.runID),
				zap.String("question_type", string(qt)),
				zap.Int("attempt", attempt),
				zap.Int("generated", len(questions)),
				zap.Float64("duration_seconds", duration.Seconds()),
			)
			return item.TypeResult{
				QuestionType:    qt,
				Success:         true,
				AttemptCount:    attempt,
				Generated:       len(questions),
				DurationSeconds: duration.Seconds(),
			}
		}

		lastErr = sanitize.Error(err)
		o.log("type %s attempt %d/%d failed: %s", qt, attempt, o.cfg.MaxRetries, lastErr)
	}

	duration := time.Since(start)
	o.events.Emit(eventTypeCompleted, "failed",
		zap.String("run_id", o.runID),
		zap.String("question_type", string(qt)),
		zap.Int("attempts", attempts),
		zap.String("error", lastErr),
		zap.Float64("duration_seconds", duration.Seconds()),
	)
	return item.TypeResult{
		QuestionType:    qt,
		Success:         false,
		AttemptCount:    attempts,
		DurationSeconds: duration.Seconds(),
		ErrorMessage:    lastErr,
	}
}

// deliver routes generated items through the judge when configured, then
// hands records to the store collaborator.
func (o *Orchestrator) deliver(ctx context.Context, questions []*item.Question) error {
	if len(questions) == 0 {
		return nil
	}

	kept := questions
	if o.judge != nil {
		evaluated, err := o.judge.EvaluateAll(ctx, questions, true)
		if err != nil {
			return fmt.Errorf("judge evaluation: %w", err)
		}
		kept = make([]*item.Question, 0, len(evaluated))
		for _, ev := range evaluated {
			if ev.Approved {
				kept = append(kept, ev.Question)
			}
		}
		o.log("judge approved %d of %d items", len(kept), len(questions))
	}

	if o.store != nil && len(kept) > 0 {
		if err := o.store(ctx, kept); err != nil {
			return fmt.Errorf("store items: %w", err)
		}
	}
	return nil
}

// retryDelay computes the backoff before the next attempt after n completed
// attempts: min(base*2^(n-1), max) plus up to 25% random jitter on top.
func (o *Orchestrator) retryDelay(n int) time.Duration {
	base := o.cfg.RetryBaseDelay
	delay := base
	for i := 1; i < n; i++ {
		delay *= 2
		if delay >= o.cfg.RetryMaxDelay {
			delay = o.cfg.RetryMaxDelay
			break
		}
	}
	if delay > o.cfg.RetryMaxDelay {
		delay = o.cfg.RetryMaxDelay
	}

	jitter := time.Duration(rand.Float64() * 0.25 * float64(delay))
	return delay + jitter
}

func runStatus(failed int) string {
	if failed > 0 {
		return "partial_failure"
	}
	return "success"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
