// Package judge scores generated items against weighted criteria using a
// routed judge vendor and decides approval and difficulty placement.
package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/zen-systems/itemforge/pkg/config"
	"github.com/zen-systems/itemforge/pkg/item"
	"github.com/zen-systems/itemforge/pkg/provider"
	"github.com/zen-systems/itemforge/pkg/router"
)

// ErrMissingFields is returned when a judge response lacks any of the five
// required numeric scores.
var ErrMissingFields = errors.New("evaluation response missing required fields")

// Judge evaluates questions through a routed vendor client.
type Judge struct {
	cfg      *config.JudgeConfig
	clients  map[provider.Vendor]provider.Client
	resolver *router.Resolver
	sem      *semaphore.Weighted
	timeout  time.Duration
	weights  config.EvaluationCriteria
	log      func(format string, args ...any)
}

// Option configures a Judge.
type Option func(*Judge)

// WithLogger sets the progress logger.
func WithLogger(log func(format string, args ...any)) Option {
	return func(j *Judge) { j.log = log }
}

// WithTimeout overrides the per-evaluation hard timeout.
func WithTimeout(d time.Duration) Option {
	return func(j *Judge) { j.timeout = d }
}

// New creates a judge over a loaded config and the constructed vendor clients.
func New(cfg *config.JudgeConfig, clients map[provider.Vendor]provider.Client, opts ...Option) *Judge {
	maxConcurrent := cfg.MaxConcurrentEvaluations
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	timeout := time.Duration(cfg.EvaluationTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	j := &Judge{
		cfg:      cfg,
		clients:  clients,
		resolver: router.NewResolver(cfg.Routing()),
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		timeout:  timeout,
		weights:  cfg.EvaluationCriteria.Normalized(),
		log:      func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Evaluate scores one question synchronously under the hard timeout.
func (j *Judge) Evaluate(ctx context.Context, q *item.Question) (*item.EvaluatedQuestion, error) {
	resolution, err := j.resolver.Resolve(q.QuestionType, j.available(), router.TierPrimary)
	if err != nil {
		return nil, err
	}
	client, ok := j.clients[resolution.Vendor]
	if !ok {
		return nil, fmt.Errorf("%w: resolved vendor %s has no client", router.ErrNoProvider, resolution.Vendor)
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	result, err := client.Generate(ctx, provider.GenerateRequest{
		Model:       resolution.Model,
		Prompt:      buildEvaluationPrompt(q),
		Temperature: 0.2,
		MaxTokens:   1024,
	})
	if err != nil {
		return nil, fmt.Errorf("judge call via %s: %w", resolution.Vendor, err)
	}

	score, err := parseEvaluation(result.Text)
	if err != nil {
		return nil, err
	}
	score.OverallScore = j.overall(score)

	return &item.EvaluatedQuestion{
		Question:      q,
		Evaluation:    score,
		JudgeIdentity: fmt.Sprintf("%s/%s", resolution.Vendor, resolution.Model),
		Approved:      score.OverallScore >= j.cfg.MinJudgeScore,
	}, nil
}

// Outcome delivers a non-blocking evaluation result.
type Outcome struct {
	Evaluated *item.EvaluatedQuestion
	Err       error
}

// EvaluateAsync schedules an evaluation behind the concurrency limiter and
// returns a channel that delivers exactly one outcome.
func (j *Judge) EvaluateAsync(ctx context.Context, q *item.Question) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		if err := j.sem.Acquire(ctx, 1); err != nil {
			ch <- Outcome{Err: fmt.Errorf("acquire evaluation slot: %w", err)}
			return
		}
		defer j.sem.Release(1)

		evaluated, err := j.Evaluate(ctx, q)
		ch <- Outcome{Evaluated: evaluated, Err: err}
	}()
	return ch
}

// EvaluateAll evaluates a list of questions. With continueOnError set, failed
// items are skipped and the rest proceed; otherwise the first failure aborts
// the remaining evaluations.
func (j *Judge) EvaluateAll(ctx context.Context, questions []*item.Question, continueOnError bool) ([]*item.EvaluatedQuestion, error) {
	evaluated := make([]*item.EvaluatedQuestion, 0, len(questions))
	for i, q := range questions {
		result, err := j.Evaluate(ctx, q)
		if err != nil {
			if continueOnError {
				j.log("skipping item %d of %d: evaluation failed: %v", i+1, len(questions), err)
				continue
			}
			return evaluated, fmt.Errorf("item %d of %d: %w", i+1, len(questions), err)
		}
		evaluated = append(evaluated, result)
	}
	return evaluated, nil
}

// overall computes the weighted acceptance score. Difficulty is excluded; it
// only drives placement.
func (j *Judge) overall(score item.EvaluationScore) float64 {
	return j.weights.Clarity*score.Clarity +
		j.weights.Validity*score.Validity +
		j.weights.Formatting*score.Formatting +
		j.weights.Creativity*score.Creativity
}

// available lists vendors with constructed clients in stable order.
func (j *Judge) available() []provider.Vendor {
	var vendors []provider.Vendor
	for _, v := range provider.AllVendors {
		if _, ok := j.clients[v]; ok {
			vendors = append(vendors, v)
		}
	}
	return vendors
}

// rawEvaluation uses pointers so absent fields are detectable.
type rawEvaluation struct {
	Clarity    *float64 `json:"clarity"`
	Difficulty *float64 `json:"difficulty"`
	Validity   *float64 `json:"validity"`
	Formatting *float64 `json:"formatting"`
	Creativity *float64 `json:"creativity"`
	Feedback   string   `json:"feedback"`
}

func parseEvaluation(content string) (item.EvaluationScore, error) {
	var raw rawEvaluation
	if err := json.Unmarshal([]byte(item.StripFences(content)), &raw); err != nil {
		return item.EvaluationScore{}, fmt.Errorf("evaluation response is not valid JSON: %w", err)
	}

	var missing []string
	fields := []struct {
		name  string
		value *float64
	}{
		{"clarity", raw.Clarity},
		{"difficulty", raw.Difficulty},
		{"validity", raw.Validity},
		{"formatting", raw.Formatting},
		{"creativity", raw.Creativity},
	}
	for _, f := range fields {
		if f.value == nil {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return item.EvaluationScore{}, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	for _, f := range fields {
		if *f.value < 0 || *f.value > 1 {
			return item.EvaluationScore{}, fmt.Errorf("evaluation score %s out of range: %g", f.name, *f.value)
		}
	}

	return item.EvaluationScore{
		Clarity:    *raw.Clarity,
		Difficulty: *raw.Difficulty,
		Validity:   *raw.Validity,
		Formatting: *raw.Formatting,
		Creativity: *raw.Creativity,
		Feedback:   raw.Feedback,
	}, nil
}
