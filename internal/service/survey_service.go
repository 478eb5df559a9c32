package service

import (
	"corplearn_backend/internal/model"
	"corplearn_backend/internal/util"
	"encoding/json"

	"go.uber.org/zap"
)

// SurveyGate tracks mandatory-survey completion. A mandatory survey anywhere
// in the course blocks finalization regardless of which module holds it, and
// submitting the last outstanding one re-invokes the scorer's finalize path
// with the stashed exam result.
type SurveyGate struct {
	surveys SurveyStore
	scorer  *EvaluationScorer
	log     *zap.Logger
}

func NewSurveyGate(surveys SurveyStore, scorer *EvaluationScorer, log *zap.Logger) *SurveyGate {
	if log == nil {
		log = zap.NewNop()
	}
	return &SurveyGate{surveys: surveys, scorer: scorer, log: log}
}

// PendingMandatory reports whether any mandatory survey item in the course is
// still outstanding. isDone is the session's completion-set lookup; the
// persisted response table is the cross-session fallback.
func (g *SurveyGate) PendingMandatory(course *model.Course, enrollmentID uint, isDone func(itemID uint) bool) bool {
	for mi := range course.Modules {
		for ii := range course.Modules[mi].Items {
			item := &course.Modules[mi].Items[ii]
			if item.Type != model.ItemSurvey || !item.SurveyPayload().IsMandatory {
				continue
			}
			if isDone != nil && isDone(item.ID) {
				continue
			}
			done, err := g.surveys.HasResponse(enrollmentID, item.ID)
			if err != nil {
				g.log.Warn("survey response lookup failed", zap.Uint("item", item.ID), zap.Error(err))
			}
			if !done {
				return true
			}
		}
	}
	return false
}

// ValidateAnswers enforces that every declared survey field has an answer.
// This is the only gate that blocks a submission.
func (g *SurveyGate) ValidateAnswers(item *model.Item, answers json.RawMessage) error {
	payload := item.SurveyPayload()
	if len(payload.Fields) == 0 {
		return nil
	}
	var filled map[string]string
	if err := json.Unmarshal(answers, &filled); err != nil {
		return util.ErrSurveyRequired
	}
	for _, field := range payload.Fields {
		if filled[field] == "" {
			return util.ErrSurveyRequired
		}
	}
	return nil
}

// Submit persists the survey response. The caller marks the item complete and
// asks the gate whether the enrollment can now be finalized from its stash.
func (g *SurveyGate) Submit(enrollmentID uint, item *model.Item, answers json.RawMessage) error {
	if err := g.ValidateAnswers(item, answers); err != nil {
		return err
	}
	return g.surveys.CreateResponse(enrollmentID, item.ID, answers)
}

// TryFinalize completes a previously-passed-but-blocked enrollment once no
// mandatory survey remains outstanding. Returns true when the enrollment
// transitioned to completed.
func (g *SurveyGate) TryFinalize(course *model.Course, e *model.Enrollment, isDone func(itemID uint) bool) bool {
	if g.PendingMandatory(course, e.ID, isDone) {
		return false
	}
	e.SurveyCompleted = true
	return g.scorer.FinalizeFromStash(e)
}
