package item

import (
	"fmt"
	"strings"
)

// QuestionType identifies one of the six cognitive domains an item measures.
type QuestionType string

const (
	TypeLogicalReasoning      QuestionType = "logical_reasoning"
	TypeQuantitativeReasoning QuestionType = "quantitative_reasoning"
	TypeVerbalReasoning       QuestionType = "verbal_reasoning"
	TypeReadingComprehension  QuestionType = "reading_comprehension"
	TypeSpatialReasoning      QuestionType = "spatial_reasoning"
	TypeMemoryRecall          QuestionType = "memory_recall"
)

// RequiredTypes is the fixed set of question types every routing config
// must cover.
var RequiredTypes = []QuestionType{
	TypeLogicalReasoning,
	TypeQuantitativeReasoning,
	TypeVerbalReasoning,
	TypeReadingComprehension,
	TypeSpatialReasoning,
	TypeMemoryRecall,
}

// MaxQuestionsPerType caps a single bootstrap run's per-type item count.
const MaxQuestionsPerType = 100

// ParseQuestionType converts a string into a known QuestionType.
func ParseQuestionType(s string) (QuestionType, error) {
	qt := QuestionType(strings.TrimSpace(strings.ToLower(s)))
	for _, known := range RequiredTypes {
		if qt == known {
			return qt, nil
		}
	}
	return "", fmt.Errorf("unknown question type %q", s)
}

// Difficulty is the ordinal band assigned to an item.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Bands lists the difficulty bands in ascending order.
var Bands = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Index returns the band's position in the ordered set, or -1 if unknown.
func (d Difficulty) Index() int {
	for i, band := range Bands {
		if d == band {
			return i
		}
	}
	return -1
}

// Question is the in-memory record handed to the item store collaborator.
type Question struct {
	QuestionType  QuestionType `json:"question_type"`
	Difficulty    Difficulty   `json:"difficulty"`
	QuestionText  string       `json:"question_text"`
	CorrectAnswer string       `json:"correct_answer"`
	AnswerOptions []string     `json:"answer_options"`
	Explanation   string       `json:"explanation,omitempty"`
	Stimulus      string       `json:"stimulus,omitempty"`
	SourceVendor  string       `json:"source_vendor"`
}

// EvaluationScore holds the judge's per-criterion scores in [0,1].
// OverallScore is always derived from the weighted acceptance criteria,
// never assigned independently.
type EvaluationScore struct {
	Clarity      float64 `json:"clarity"`
	Difficulty   float64 `json:"difficulty"`
	Validity     float64 `json:"validity"`
	Formatting   float64 `json:"formatting"`
	Creativity   float64 `json:"creativity"`
	OverallScore float64 `json:"overall_score"`
	Feedback     string  `json:"feedback,omitempty"`
}

// EvaluatedQuestion pairs a question with its evaluation. Created once per
// evaluation call and never mutated afterwards.
type EvaluatedQuestion struct {
	Question      *Question       `json:"question"`
	Evaluation    EvaluationScore `json:"evaluation"`
	JudgeIdentity string          `json:"judge_identity"`
	Approved      bool            `json:"approved"`
}

// TypeResult records the outcome of one question type in a bootstrap run.
type TypeResult struct {
	QuestionType    QuestionType `json:"question_type"`
	Success         bool         `json:"success"`
	AttemptCount    int          `json:"attempt_count"`
	Generated       int          `json:"generated"`
	DurationSeconds float64      `json:"duration_seconds"`
	ErrorMessage    string       `json:"error_message,omitempty"`
}
