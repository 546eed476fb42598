package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zen-systems/itemforge/pkg/item"
	"github.com/zen-systems/itemforge/pkg/provider"
	"github.com/zen-systems/itemforge/pkg/router"
)

// generateType performs one generation attempt for a question type through
// the configured mode.
func (o *Orchestrator) generateType(ctx context.Context, qt item.QuestionType) ([]*item.Question, error) {
	resolution, err := o.resolver.Resolve(qt, o.available(), router.TierPrimary)
	if err != nil {
		return nil, err
	}
	client, ok := o.clients[resolution.Vendor]
	if !ok {
		return nil, fmt.Errorf("%w: resolved vendor %s has no client", router.ErrNoProvider, resolution.Vendor)
	}

	if o.cfg.DryRun {
		o.log("[dry-run] %s -> %s/%s (%d questions)", qt, resolution.Vendor, resolution.Model, o.cfg.QuestionsPerType)
		return nil, nil
	}

	if o.cfg.UseBatch {
		questions, err := o.generateBatch(ctx, qt, client, resolution)
		if !errors.Is(err, provider.ErrBatchUnsupported) {
			return questions, err
		}
		o.events.Emit(eventBatchUnsupported, "fallback",
			zap.String("run_id", o.runID),
			zap.String("question_type", string(qt)),
			zap.String("vendor", string(resolution.Vendor)),
		)
		o.log("vendor %s has no batch support, falling back to per-band generation", resolution.Vendor)
	}

	return o.generateBands(ctx, qt, client, resolution)
}

// generateBands generates the per-type quota band by band, sequentially.
func (o *Orchestrator) generateBands(ctx context.Context, qt item.QuestionType, client provider.Client, resolution router.Resolution) ([]*item.Question, error) {
	counts := distribute(o.cfg.QuestionsPerType, len(item.Bands))

	var questions []*item.Question
	for i, band := range item.Bands {
		if counts[i] == 0 {
			continue
		}

		prompt := buildGenerationPrompt(qt, band, counts[i])
		text, err := o.callVendor(ctx, client, provider.GenerateRequest{
			Model:       resolution.Model,
			Prompt:      prompt,
			Temperature: 0.8,
			MaxTokens:   4096,
		})
		if err != nil {
			return nil, fmt.Errorf("band %s: %w", band, err)
		}

		parsed, err := item.ParseQuestions(text, qt, band, string(resolution.Vendor))
		if err != nil {
			return nil, fmt.Errorf("band %s: %w", band, err)
		}

		o.events.Emit(eventBandGenerated, "success",
			zap.String("run_id", o.runID),
			zap.String("question_type", string(qt)),
			zap.String("difficulty", string(band)),
			zap.Int("requested", counts[i]),
			zap.Int("generated", len(parsed)),
		)
		questions = append(questions, parsed...)
	}
	return questions, nil
}

// callVendor runs one generation call under the hard timeout, blocking or
// through the vendor's non-blocking variant depending on the run mode.
func (o *Orchestrator) callVendor(ctx context.Context, client provider.Client, req provider.GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.GenerateTimeout)
	defer cancel()

	if !o.cfg.UseAsync {
		result, err := client.Generate(ctx, req)
		if err != nil {
			return "", err
		}
		return result.Text, nil
	}

	select {
	case outcome := <-client.GenerateAsync(ctx, req):
		if outcome.Err != nil {
			return "", outcome.Err
		}
		return outcome.Result.Text, nil
	case <-ctx.Done():
		return "", provider.NewTimeoutError(client.Name(), ctx.Err())
	}
}

// available lists vendors with constructed clients in stable order.
func (o *Orchestrator) available() []provider.Vendor {
	var vendors []provider.Vendor
	for _, v := range provider.AllVendors {
		if _, ok := o.clients[v]; ok {
			vendors = append(vendors, v)
		}
	}
	return vendors
}

// distribute splits n items across bands: integer division with the
// remainder assigned one each to the first bands.
func distribute(n, bands int) []int {
	counts := make([]int, bands)
	per := n / bands
	rem := n % bands
	for i := range counts {
		counts[i] = per
		if i < rem {
			counts[i]++
		}
	}
	return counts
}

// buildGenerationPrompt renders the item-generation request for one band.
func buildGenerationPrompt(qt item.QuestionType, band item.Difficulty, n int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generate exactly %d multiple-choice assessment questions measuring %s at %s difficulty.\n", n, describeType(qt), band))
	sb.WriteString("Return ONLY a JSON array; each element: {\"question\":\"...\",\"answer_options\":[\"...\"],")
	sb.WriteString("\"correct_answer\":\"...\",\"explanation\":\"...\"")
	if qt == item.TypeMemoryRecall {
		sb.WriteString(",\"stimulus\":\"...\"")
	}
	sb.WriteString("}.\n")
	sb.WriteString("Every question needs exactly 4 answer options, and correct_answer must match one option verbatim.\n")
	if qt == item.TypeMemoryRecall {
		sb.WriteString("Each question must include a short stimulus passage the examinee memorizes before answering.\n")
	}
	return sb.String()
}

func describeType(qt item.QuestionType) string {
	switch qt {
	case item.TypeLogicalReasoning:
		return "logical reasoning (deduction, syllogisms, pattern rules)"
	case item.TypeQuantitativeReasoning:
		return "quantitative reasoning (arithmetic, ratios, word problems)"
	case item.TypeVerbalReasoning:
		return "verbal reasoning (analogies, inference from short text)"
	case item.TypeReadingComprehension:
		return "reading comprehension of a provided passage"
	case item.TypeSpatialReasoning:
		return "spatial reasoning (rotation, folding, relative position)"
	case item.TypeMemoryRecall:
		return "recall of a memorized stimulus"
	default:
		return string(qt)
	}
}
