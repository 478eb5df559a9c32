package model

import "strings"

type QuestionType string

const (
	QuestionSingle    QuestionType = "single"
	QuestionMultiple  QuestionType = "multiple"
	QuestionTrueFalse QuestionType = "true_false"
)

// Option is one selectable answer of a question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question lives inside a quiz item's JSON payload; it is not a table of its
// own because authoring owns the content tree.
type Question struct {
	ID             string       `json:"id"`
	Text           string       `json:"text"`
	Type           QuestionType `json:"type"`
	Options        []Option     `json:"options"`
	CorrectOptions []string     `json:"correctOptions"`
	Weight         float64      `json:"weight,omitempty"` // defaults to 1
}

// ResolvedType downgrades a declared multiple-choice question to single when
// it has at most one correct answer.
func (q Question) ResolvedType() QuestionType {
	if q.Type == QuestionMultiple && len(q.CorrectOptions) > 1 {
		return QuestionMultiple
	}
	if q.Type == QuestionTrueFalse {
		return QuestionTrueFalse
	}
	return QuestionSingle
}

// EffectiveWeight returns the question weight, defaulting to 1.
func (q Question) EffectiveWeight() float64 {
	if q.Weight <= 0 {
		return 1
	}
	return q.Weight
}

// ExpectedOption is the single correct answer for single/true-false questions.
func (q Question) ExpectedOption() string {
	if len(q.CorrectOptions) == 0 {
		return ""
	}
	return q.CorrectOptions[0]
}

// DedupKey identifies duplicate questions: the id when present, otherwise the
// trimmed text, compared case-insensitively.
func (q Question) DedupKey() string {
	key := q.ID
	if key == "" {
		key = strings.TrimSpace(q.Text)
	}
	return strings.ToLower(key)
}
