package judge

import (
	"fmt"
	"strings"

	"github.com/zen-systems/itemforge/pkg/item"
)

// buildEvaluationPrompt renders the scoring request for one item. The
// memorization stimulus is embedded when present so the judge can verify the
// question is answerable from it.
func buildEvaluationPrompt(q *item.Question) string {
	var sb strings.Builder
	sb.WriteString("You are a strict assessment-item reviewer. Score the question below.\n")
	sb.WriteString("Return ONLY JSON: {\"clarity\":0-1,\"difficulty\":0-1,\"validity\":0-1,")
	sb.WriteString("\"formatting\":0-1,\"creativity\":0-1,\"feedback\":\"...\"}.\n")
	sb.WriteString("difficulty is absolute: ~0.0-0.3 easy, ~0.4-0.6 medium, ~0.7-1.0 hard.\n\n")

	sb.WriteString(fmt.Sprintf("Question type: %s\n", q.QuestionType))
	sb.WriteString(fmt.Sprintf("Intended difficulty: %s\n", q.Difficulty))
	if q.Stimulus != "" {
		sb.WriteString("\nMemorization stimulus:\n")
		sb.WriteString(q.Stimulus)
		sb.WriteString("\n")
	}
	sb.WriteString("\nQuestion:\n")
	sb.WriteString(q.QuestionText)
	sb.WriteString("\n\nOptions:\n")
	for i, opt := range q.AnswerOptions {
		sb.WriteString(fmt.Sprintf("%c) %s\n", 'A'+i, opt))
	}
	sb.WriteString(fmt.Sprintf("\nCorrect answer: %s\n", q.CorrectAnswer))
	if q.Explanation != "" {
		sb.WriteString(fmt.Sprintf("Explanation: %s\n", q.Explanation))
	}
	return sb.String()
}
