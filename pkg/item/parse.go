package item

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawQuestion is the shape models are prompted to return per item.
type rawQuestion struct {
	Question      string   `json:"question"`
	AnswerOptions []string `json:"answer_options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Stimulus      string   `json:"stimulus"`
}

// StripFences removes a surrounding markdown code fence from model output.
func StripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// ParseQuestions parses a model response expected to contain a JSON array
// of items, tagging each with the given type, difficulty, and vendor.
func ParseQuestions(content string, qt QuestionType, difficulty Difficulty, vendor string) ([]*Question, error) {
	content = StripFences(content)

	var raws []rawQuestion
	if err := json.Unmarshal([]byte(content), &raws); err != nil {
		// Some models return a single object when asked for one item.
		var single rawQuestion
		if err2 := json.Unmarshal([]byte(content), &single); err2 != nil {
			return nil, fmt.Errorf("response is not valid item JSON: %w", err)
		}
		raws = []rawQuestion{single}
	}
	if len(raws) == 0 {
		return nil, fmt.Errorf("response contained no items")
	}

	questions := make([]*Question, 0, len(raws))
	for i, raw := range raws {
		q, err := raw.toQuestion(qt, difficulty, vendor)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// ParseQuestion parses a model response expected to contain exactly one item.
func ParseQuestion(content string, qt QuestionType, difficulty Difficulty, vendor string) (*Question, error) {
	questions, err := ParseQuestions(content, qt, difficulty, vendor)
	if err != nil {
		return nil, err
	}
	return questions[0], nil
}

func (r rawQuestion) toQuestion(qt QuestionType, difficulty Difficulty, vendor string) (*Question, error) {
	if strings.TrimSpace(r.Question) == "" {
		return nil, fmt.Errorf("missing question text")
	}
	if strings.TrimSpace(r.CorrectAnswer) == "" {
		return nil, fmt.Errorf("missing correct_answer")
	}
	if len(r.AnswerOptions) < 2 {
		return nil, fmt.Errorf("need at least 2 answer options, got %d", len(r.AnswerOptions))
	}
	found := false
	for _, opt := range r.AnswerOptions {
		if opt == r.CorrectAnswer {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("correct_answer not among answer_options")
	}

	return &Question{
		QuestionType:  qt,
		Difficulty:    difficulty,
		QuestionText:  r.Question,
		CorrectAnswer: r.CorrectAnswer,
		AnswerOptions: r.AnswerOptions,
		Explanation:   r.Explanation,
		Stimulus:      r.Stimulus,
		SourceVendor:  vendor,
	}, nil
}
