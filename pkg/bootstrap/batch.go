package bootstrap

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/zen-systems/itemforge/pkg/item"
	"github.com/zen-systems/itemforge/pkg/provider"
	"github.com/zen-systems/itemforge/pkg/router"
)

const defaultMaxBatchSize = 50

// maxParseErrorRate fails a batch attempt when the fraction of unparsable
// responses exceeds this share of the vendor-successful ones.
const maxParseErrorRate = 0.25

// generateBatch builds one prompt per target item, submits them in chunks no
// larger than the assignment's max batch size, and reassembles responses into
// difficulty-tagged records.
func (o *Orchestrator) generateBatch(ctx context.Context, qt item.QuestionType, client provider.Client, resolution router.Resolution) ([]*item.Question, error) {
	difficulties := bandPlan(o.cfg.QuestionsPerType)
	prompts := make([]string, len(difficulties))
	for i, band := range difficulties {
		prompts[i] = buildGenerationPrompt(qt, band, 1)
	}

	maxChunk := o.resolver.Assignment(qt).MaxBatchSize
	if maxChunk <= 0 {
		maxChunk = defaultMaxBatchSize
	}
	timeout := o.cfg.BatchTimeout + maxDuration(time.Minute, o.cfg.BatchTimeout/10)

	var questions []*item.Question
	successful := 0
	invalid := 0

	for chunkStart := 0; chunkStart < len(prompts); chunkStart += maxChunk {
		chunkEnd := chunkStart + maxChunk
		if chunkEnd > len(prompts) {
			chunkEnd = len(prompts)
		}

		batchPrompts := make([]provider.BatchPrompt, 0, chunkEnd-chunkStart)
		for i := chunkStart; i < chunkEnd; i++ {
			batchPrompts = append(batchPrompts, provider.BatchPrompt{
				Key:         strconv.Itoa(i - chunkStart),
				Prompt:      prompts[i],
				Temperature: 0.8,
				MaxTokens:   2048,
			})
		}

		displayName := fmt.Sprintf("%s-%s-%d", o.runID, qt, chunkStart/maxChunk)
		o.events.Emit(eventBatchSubmitted, "submitted",
			zap.String("run_id", o.runID),
			zap.String("question_type", string(qt)),
			zap.String("vendor", string(resolution.Vendor)),
			zap.String("display_name", displayName),
			zap.Int("chunk_size", len(batchPrompts)),
			zap.Int("chunk_offset", chunkStart),
		)

		result, err := client.SubmitBatch(ctx, provider.BatchRequest{
			Model:        resolution.Model,
			Prompts:      batchPrompts,
			DisplayName:  displayName,
			PollInterval: o.cfg.BatchPollInterval,
			Timeout:      timeout,
		})
		if err != nil {
			return nil, err
		}

		chunkParsed := 0
		for _, resp := range result.Responses {
			if resp.Error != "" {
				continue
			}
			successful++

			localIdx, convErr := strconv.Atoi(resp.Key)
			if convErr != nil || localIdx < 0 || chunkStart+localIdx >= len(difficulties) {
				invalid++
				continue
			}
			band := difficulties[chunkStart+localIdx]

			q, parseErr := item.ParseQuestion(resp.Text, qt, band, string(resolution.Vendor))
			if parseErr != nil {
				invalid++
				continue
			}
			questions = append(questions, q)
			chunkParsed++
		}

		o.events.Emit(eventBatchCompleted, "completed",
			zap.String("run_id", o.runID),
			zap.String("question_type", string(qt)),
			zap.String("display_name", displayName),
			zap.Int("successful_requests", result.SuccessfulRequests),
			zap.Int("failed_requests", result.FailedRequests),
			zap.Int("parsed", chunkParsed),
		)
	}

	if successful == 0 {
		return nil, fmt.Errorf("batch for %s returned no successful responses", qt)
	}
	if float64(invalid) > float64(successful)*maxParseErrorRate {
		return nil, fmt.Errorf("batch parse failures %d exceed %.0f%% of %d successful responses",
			invalid, maxParseErrorRate*100, successful)
	}
	return questions, nil
}

// bandPlan lists the target difficulty for every item index, easy bands
// first, following the same remainder rule as distribute.
func bandPlan(n int) []item.Difficulty {
	counts := distribute(n, len(item.Bands))
	plan := make([]item.Difficulty, 0, n)
	for i, band := range item.Bands {
		for j := 0; j < counts[i]; j++ {
			plan = append(plan, band)
		}
	}
	return plan
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
