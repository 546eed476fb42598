package item

import (
	"strings"
	"testing"
)

func TestParseQuestions(t *testing.T) {
	content := `[
		{"question":"What comes next: 2, 4, 8, ?","answer_options":["12","14","16","18"],"correct_answer":"16","explanation":"doubles each step"},
		{"question":"All A are B. C is A. Therefore?","answer_options":["C is B","C is not B","B is C","cannot say"],"correct_answer":"C is B"}
	]`

	questions, err := ParseQuestions(content, TypeLogicalReasoning, DifficultyEasy, "mock")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	q := questions[0]
	if q.QuestionType != TypeLogicalReasoning || q.Difficulty != DifficultyEasy || q.SourceVendor != "mock" {
		t.Fatalf("tagging wrong: %+v", q)
	}
	if q.CorrectAnswer != "16" || len(q.AnswerOptions) != 4 {
		t.Fatalf("fields wrong: %+v", q)
	}
}

func TestParseQuestionsStripsFences(t *testing.T) {
	content := "```json\n[{\"question\":\"q\",\"answer_options\":[\"a\",\"b\"],\"correct_answer\":\"a\"}]\n```"
	questions, err := ParseQuestions(content, TypeVerbalReasoning, DifficultyMedium, "mock")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
}

func TestParseQuestionAcceptsSingleObject(t *testing.T) {
	content := `{"question":"q","answer_options":["a","b","c","d"],"correct_answer":"c","stimulus":"memorize this list"}`
	q, err := ParseQuestion(content, TypeMemoryRecall, DifficultyHard, "deepseek")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if q.Stimulus != "memorize this list" {
		t.Fatalf("stimulus lost: %+v", q)
	}
}

func TestParseQuestionsRejectsBadItems(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "not json",
			content: "sorry, I cannot help with that",
			wantErr: "not valid item JSON",
		},
		{
			name:    "empty array",
			content: "[]",
			wantErr: "no items",
		},
		{
			name:    "answer not among options",
			content: `[{"question":"q","answer_options":["a","b"],"correct_answer":"z"}]`,
			wantErr: "not among answer_options",
		},
		{
			name:    "missing question text",
			content: `[{"question":"","answer_options":["a","b"],"correct_answer":"a"}]`,
			wantErr: "missing question text",
		},
		{
			name:    "too few options",
			content: `[{"question":"q","answer_options":["a"],"correct_answer":"a"}]`,
			wantErr: "at least 2 answer options",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuestions(tt.content, TypeLogicalReasoning, DifficultyEasy, "mock")
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestDifficultyIndex(t *testing.T) {
	if DifficultyEasy.Index() != 0 || DifficultyMedium.Index() != 1 || DifficultyHard.Index() != 2 {
		t.Fatalf("band order wrong")
	}
	if Difficulty("extreme").Index() != -1 {
		t.Fatalf("unknown band should index -1")
	}
}

func TestParseQuestionType(t *testing.T) {
	qt, err := ParseQuestionType(" Logical_Reasoning ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if qt != TypeLogicalReasoning {
		t.Fatalf("got %s", qt)
	}
	if _, err := ParseQuestionType("telepathy"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
