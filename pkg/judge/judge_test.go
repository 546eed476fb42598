package judge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/zen-systems/itemforge/pkg/config"
	"github.com/zen-systems/itemforge/pkg/item"
	"github.com/zen-systems/itemforge/pkg/provider"
)

func mockJudgeConfig() *config.JudgeConfig {
	assignments := make(map[item.QuestionType]config.ProviderAssignment, len(item.RequiredTypes))
	for _, qt := range item.RequiredTypes {
		assignments[qt] = config.ProviderAssignment{Provider: "mock", Model: "mock-judge"}
	}
	return &config.JudgeConfig{
		Version:           1,
		Assignments:       assignments,
		DefaultAssignment: config.ProviderAssignment{Provider: "mock", Model: "mock-judge"},
		EvaluationCriteria: config.EvaluationCriteria{
			Clarity:    0.30,
			Validity:   0.40,
			Formatting: 0.15,
			Creativity: 0.15,
		},
		MinJudgeScore: 0.70,
		DifficultyPlacement: config.DifficultyPlacement{
			DowngradeThreshold: 0.35,
			UpgradeThreshold:   0.65,
		},
		SpecialistRoutingEnabled: true,
		MaxConcurrentEvaluations: 2,
		EvaluationTimeoutSeconds: 5,
	}
}

func scoredClient(response string) *provider.MockClient {
	c := provider.NewMockClient()
	c.GenerateFn = func(ctx context.Context, req provider.GenerateRequest) (*provider.GenerateResult, error) {
		return &provider.GenerateResult{Text: response, Vendor: provider.VendorMock, Model: req.Model}, nil
	}
	return c
}

func sampleQuestion() *item.Question {
	return &item.Question{
		QuestionType:  item.TypeLogicalReasoning,
		Difficulty:    item.DifficultyMedium,
		QuestionText:  "All A are B. C is A. Therefore?",
		AnswerOptions: []string{"C is B", "C is not B", "B is C", "cannot say"},
		CorrectAnswer: "C is B",
		SourceVendor:  "mock",
	}
}

func TestEvaluateApproves(t *testing.T) {
	response := `{"clarity":1.0,"difficulty":0.5,"validity":1.0,"formatting":1.0,"creativity":1.0,"feedback":"solid item"}`
	j := New(mockJudgeConfig(), map[provider.Vendor]provider.Client{
		provider.VendorMock: scoredClient(response),
	})

	evaluated, err := j.Evaluate(context.Background(), sampleQuestion())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if math.Abs(evaluated.Evaluation.OverallScore-1.0) > 1e-9 {
		t.Fatalf("perfect scores should yield overall 1.0, got %g", evaluated.Evaluation.OverallScore)
	}
	if !evaluated.Approved {
		t.Fatalf("expected approval at overall %g", evaluated.Evaluation.OverallScore)
	}
	if evaluated.JudgeIdentity != "mock/mock-judge" {
		t.Fatalf("judge identity %q", evaluated.JudgeIdentity)
	}
}

func TestEvaluateWeightedOverall(t *testing.T) {
	// 0.30*0.8 + 0.40*0.9 + 0.15*0.6 + 0.15*0.4 = 0.75; difficulty ignored.
	response := `{"clarity":0.8,"difficulty":0.1,"validity":0.9,"formatting":0.6,"creativity":0.4,"feedback":""}`
	j := New(mockJudgeConfig(), map[provider.Vendor]provider.Client{
		provider.VendorMock: scoredClient(response),
	})

	evaluated, err := j.Evaluate(context.Background(), sampleQuestion())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if math.Abs(evaluated.Evaluation.OverallScore-0.75) > 1e-9 {
		t.Fatalf("overall %g, want 0.75", evaluated.Evaluation.OverallScore)
	}
	if !evaluated.Approved {
		t.Fatalf("0.75 should clear the 0.70 minimum")
	}
}

func TestEvaluateRejectsLowScores(t *testing.T) {
	response := `{"clarity":0.2,"difficulty":0.5,"validity":0.3,"formatting":0.5,"creativity":0.5,"feedback":"ambiguous stem"}`
	j := New(mockJudgeConfig(), map[provider.Vendor]provider.Client{
		provider.VendorMock: scoredClient(response),
	})

	evaluated, err := j.Evaluate(context.Background(), sampleQuestion())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if evaluated.Approved {
		t.Fatalf("overall %g should not be approved", evaluated.Evaluation.OverallScore)
	}
}

func TestEvaluateMissingFields(t *testing.T) {
	response := `{"clarity":0.9,"validity":0.9,"feedback":"scores incomplete"}`
	j := New(mockJudgeConfig(), map[provider.Vendor]provider.Client{
		provider.VendorMock: scoredClient(response),
	})

	_, err := j.Evaluate(context.Background(), sampleQuestion())
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	for _, name := range []string{"difficulty", "formatting", "creativity"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error %q does not name missing field %q", err, name)
		}
	}
}

func TestEvaluateRejectsOutOfRangeScore(t *testing.T) {
	response := `{"clarity":1.4,"difficulty":0.5,"validity":0.9,"formatting":0.9,"creativity":0.9}`
	j := New(mockJudgeConfig(), map[provider.Vendor]provider.Client{
		provider.VendorMock: scoredClient(response),
	})

	_, err := j.Evaluate(context.Background(), sampleQuestion())
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected out-of-range error, got %v", err)
	}
}

func TestEvaluateStripsFences(t *testing.T) {
	response := "```json\n{\"clarity\":0.9,\"difficulty\":0.5,\"validity\":0.9,\"formatting\":0.9,\"creativity\":0.9,\"feedback\":\"fine\"}\n```"
	j := New(mockJudgeConfig(), map[provider.Vendor]provider.Client{
		provider.VendorMock: scoredClient(response),
	})

	if _, err := j.Evaluate(context.Background(), sampleQuestion()); err != nil {
		t.Fatalf("fenced response should parse: %v", err)
	}
}

func TestEvaluateAllContinueOnError(t *testing.T) {
	calls := 0
	c := provider.NewMockClient()
	c.GenerateFn = func(ctx context.Context, req provider.GenerateRequest) (*provider.GenerateResult, error) {
		calls++
		if calls == 2 {
			return nil, fmt.Errorf("vendor hiccup")
		}
		return &provider.GenerateResult{
			Text:   `{"clarity":0.9,"difficulty":0.5,"validity":0.9,"formatting":0.9,"creativity":0.9}`,
			Vendor: provider.VendorMock,
		}, nil
	}
	j := New(mockJudgeConfig(), map[provider.Vendor]provider.Client{provider.VendorMock: c})

	questions := []*item.Question{sampleQuestion(), sampleQuestion(), sampleQuestion()}

	evaluated, err := j.EvaluateAll(context.Background(), questions, true)
	if err != nil {
		t.Fatalf("continue-on-error run should not fail: %v", err)
	}
	if len(evaluated) != 2 {
		t.Fatalf("expected 2 surviving evaluations, got %d", len(evaluated))
	}
}

func TestEvaluateAllAbortsOnError(t *testing.T) {
	calls := 0
	c := provider.NewMockClient()
	c.GenerateFn = func(ctx context.Context, req provider.GenerateRequest) (*provider.GenerateResult, error) {
		calls++
		return nil, fmt.Errorf("down")
	}
	j := New(mockJudgeConfig(), map[provider.Vendor]provider.Client{provider.VendorMock: c})

	questions := []*item.Question{sampleQuestion(), sampleQuestion(), sampleQuestion()}
	if _, err := j.EvaluateAll(context.Background(), questions, false); err == nil {
		t.Fatalf("expected first failure to abort")
	}
	if calls != 1 {
		t.Fatalf("expected a single vendor call before aborting, got %d", calls)
	}
}

func TestEvaluateAsync(t *testing.T) {
	response := `{"clarity":0.9,"difficulty":0.5,"validity":0.9,"formatting":0.9,"creativity":0.9}`
	j := New(mockJudgeConfig(), map[provider.Vendor]provider.Client{
		provider.VendorMock: scoredClient(response),
	})

	outcome := <-j.EvaluateAsync(context.Background(), sampleQuestion())
	if outcome.Err != nil {
		t.Fatalf("async evaluate: %v", outcome.Err)
	}
	if outcome.Evaluated == nil || !outcome.Evaluated.Approved {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestEvaluateNoClients(t *testing.T) {
	j := New(mockJudgeConfig(), map[provider.Vendor]provider.Client{})
	if _, err := j.Evaluate(context.Background(), sampleQuestion()); err == nil {
		t.Fatalf("expected resolution failure with no clients")
	}
}
