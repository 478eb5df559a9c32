package model

// QuizDraft caches an interrupted quiz attempt so a reload restores the exact
// answers and position. It lives in the draft store keyed by enrollment and
// item, never in MySQL, and is cleared on finish or reset.
type QuizDraft struct {
	Answers              map[string][]string `json:"answers"` // questionID -> selected option ids
	CurrentQuestionIndex int                 `json:"currentQuestionIndex"`
}
