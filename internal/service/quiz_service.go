package service

import (
	"context"
	"corplearn_backend/internal/model"
	"corplearn_backend/internal/repository"
	"corplearn_backend/internal/util"
	"math"

	"go.uber.org/zap"
)

type QuizState string

const (
	QuizAnswering QuizState = "answering"
	QuizFinished  QuizState = "finished"
)

// QuizEngine is the sequential question state machine for one quiz item in
// one session: Answering(questionIndex) → Finished(score). Every answer
// change and navigation autosaves a draft so an interrupted attempt resumes
// exactly where it stopped.
type QuizEngine struct {
	questions []model.Question
	answers   map[string][]string // questionID -> selected option ids
	current   int
	state     QuizState
	score     int

	drafts   repository.DraftStore
	draftKey string
	log      *zap.Logger
}

// QuizSnapshot is the engine state projected for the host UI.
type QuizSnapshot struct {
	State                QuizState           `json:"state"`
	CurrentQuestionIndex int                 `json:"currentQuestionIndex"`
	QuestionCount        int                 `json:"questionCount"`
	Answers              map[string][]string `json:"answers"`
	Score                *int                `json:"score,omitempty"`
	CanGoNext            bool                `json:"canGoNext"`
	Questions            []QuizQuestionView  `json:"questions"`
}

// QuizQuestionView is the learner-facing projection of a question. Grading
// fields (correct options, weights) never leave the engine.
type QuizQuestionView struct {
	ID      string             `json:"id"`
	Text    string             `json:"text"`
	Type    model.QuestionType `json:"type"`
	Options []model.Option     `json:"options"`
}

// NewQuizEngine normalizes the question list and restores any autosaved draft
// for the given key.
func NewQuizEngine(ctx context.Context, questions []model.Question, drafts repository.DraftStore, draftKey string, log *zap.Logger) *QuizEngine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &QuizEngine{
		questions: normalizeQuestions(questions),
		answers:   make(map[string][]string),
		state:     QuizAnswering,
		drafts:    drafts,
		draftKey:  draftKey,
		log:       log,
	}
	e.restoreDraft(ctx)
	return e
}

// ForceFinished puts the engine directly into Finished with a previously
// earned score. A passed mandatory evaluation must not be re-forced on a
// revisit.
func (e *QuizEngine) ForceFinished(score int) {
	e.state = QuizFinished
	e.score = clampPercent(score)
}

// normalizeQuestions drops duplicate questions, keeping the first occurrence.
// Mis-seeded duplicate content would otherwise be scored twice.
func normalizeQuestions(questions []model.Question) []model.Question {
	seen := make(map[string]bool, len(questions))
	out := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		key := q.DedupKey()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}

func (e *QuizEngine) restoreDraft(ctx context.Context) {
	if e.drafts == nil || e.draftKey == "" {
		return
	}
	draft, err := e.drafts.Get(ctx, e.draftKey)
	if err != nil {
		e.log.Warn("quiz draft read failed", zap.String("key", e.draftKey), zap.Error(err))
		return
	}
	if draft == nil {
		return
	}
	known := make(map[string]bool, len(e.questions))
	for _, q := range e.questions {
		known[q.ID] = true
	}
	for qid, sel := range draft.Answers {
		if known[qid] {
			e.answers[qid] = append([]string(nil), sel...)
		}
	}
	if draft.CurrentQuestionIndex >= 0 && draft.CurrentQuestionIndex < len(e.questions) {
		e.current = draft.CurrentQuestionIndex
	}
}

// autosave failures never block the learner; the in-memory attempt stays
// authoritative for this session.
func (e *QuizEngine) autosave(ctx context.Context) {
	if e.drafts == nil || e.draftKey == "" {
		return
	}
	draft := &model.QuizDraft{
		Answers:              e.answers,
		CurrentQuestionIndex: e.current,
	}
	if err := e.drafts.Put(ctx, e.draftKey, draft); err != nil {
		e.log.Warn("quiz draft write failed", zap.String("key", e.draftKey), zap.Error(err))
	}
}

func (e *QuizEngine) clearDraft(ctx context.Context) {
	if e.drafts == nil || e.draftKey == "" {
		return
	}
	if err := e.drafts.Delete(ctx, e.draftKey); err != nil {
		e.log.Warn("quiz draft delete failed", zap.String("key", e.draftKey), zap.Error(err))
	}
}

func (e *QuizEngine) questionByID(questionID string) *model.Question {
	for i := range e.questions {
		if e.questions[i].ID == questionID {
			return &e.questions[i]
		}
	}
	return nil
}

func (e *QuizEngine) hasOption(question *model.Question, optionID string) bool {
	for _, opt := range question.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// Answer records a selection. Single and true-false questions overwrite the
// scalar answer; multiple-choice toggles membership in the selected set.
func (e *QuizEngine) Answer(ctx context.Context, questionID, optionID string) error {
	if e.state == QuizFinished {
		return util.ErrQuizFinished
	}
	question := e.questionByID(questionID)
	if question == nil {
		return util.ErrItemNotFound
	}
	if !e.hasOption(question, optionID) {
		return util.ErrUnknownOption
	}

	if question.ResolvedType() == model.QuestionMultiple {
		selected := e.answers[questionID]
		toggled := make([]string, 0, len(selected)+1)
		found := false
		for _, id := range selected {
			if id == optionID {
				found = true
				continue
			}
			toggled = append(toggled, id)
		}
		if !found {
			toggled = append(toggled, optionID)
		}
		e.answers[questionID] = toggled
	} else {
		e.answers[questionID] = []string{optionID}
	}

	e.autosave(ctx)
	return nil
}

// CurrentAnswered reports whether the question under the cursor has at least
// one recorded answer; navigation forward is gated on it.
func (e *QuizEngine) CurrentAnswered() bool {
	if e.current >= len(e.questions) {
		return false
	}
	return len(e.answers[e.questions[e.current].ID]) > 0
}

// Next advances to the following question, or finishes the quiz when the
// cursor is on the last one. Returns true when the quiz finished.
func (e *QuizEngine) Next(ctx context.Context) (bool, error) {
	if e.state == QuizFinished {
		return false, util.ErrQuizFinished
	}
	if !e.CurrentAnswered() {
		return false, util.ErrQuestionUnanswered
	}
	if e.current >= len(e.questions)-1 {
		_, err := e.Finish(ctx)
		return err == nil, err
	}
	e.current++
	e.autosave(ctx)
	return false, nil
}

func (e *QuizEngine) Previous(ctx context.Context) error {
	if e.state == QuizFinished {
		return util.ErrQuizFinished
	}
	if e.current > 0 {
		e.current--
		e.autosave(ctx)
	}
	return nil
}

// Finish grades the attempt and clears the draft. Idempotent: a second call
// without changed answers returns the same score.
func (e *QuizEngine) Finish(ctx context.Context) (int, error) {
	if e.state == QuizFinished {
		return e.score, nil
	}
	e.score = e.computeScore()
	e.state = QuizFinished
	e.clearDraft(ctx)
	return e.score, nil
}

// Repeat resets to Answering(0) with empty answers. It does not touch any
// already-persisted evaluation score; that belongs to the scorer.
func (e *QuizEngine) Repeat(ctx context.Context) {
	e.answers = make(map[string][]string)
	e.current = 0
	e.state = QuizAnswering
	e.score = 0
	e.clearDraft(ctx)
}

// computeScore applies the weighted all-or-nothing grading rules:
// multiple-choice earns its weight only on an exact set match, single and
// true-false only on the expected id.
func (e *QuizEngine) computeScore() int {
	var earned, total float64
	for _, q := range e.questions {
		weight := q.EffectiveWeight()
		total += weight
		if e.isCorrect(q) {
			earned += weight
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * earned / total))
}

func (e *QuizEngine) isCorrect(q model.Question) bool {
	selected := e.answers[q.ID]
	if q.ResolvedType() == model.QuestionMultiple {
		if len(selected) != len(q.CorrectOptions) {
			return false
		}
		want := make(map[string]bool, len(q.CorrectOptions))
		for _, id := range q.CorrectOptions {
			want[id] = true
		}
		for _, id := range selected {
			if !want[id] {
				return false
			}
		}
		return true
	}
	return len(selected) == 1 && selected[0] == q.ExpectedOption()
}

func (e *QuizEngine) State() QuizState { return e.state }

func (e *QuizEngine) Score() int { return e.score }

func (e *QuizEngine) Snapshot() QuizSnapshot {
	views := make([]QuizQuestionView, len(e.questions))
	for i, q := range e.questions {
		views[i] = QuizQuestionView{
			ID:      q.ID,
			Text:    q.Text,
			Type:    q.ResolvedType(),
			Options: q.Options,
		}
	}
	snap := QuizSnapshot{
		State:                e.state,
		CurrentQuestionIndex: e.current,
		QuestionCount:        len(e.questions),
		Answers:              make(map[string][]string, len(e.answers)),
		CanGoNext:            e.state == QuizAnswering && e.CurrentAnswered(),
		Questions:            views,
	}
	for qid, sel := range e.answers {
		snap.Answers[qid] = append([]string(nil), sel...)
	}
	if e.state == QuizFinished {
		score := e.score
		snap.Score = &score
	}
	return snap
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
