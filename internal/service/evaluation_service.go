package service

import (
	"corplearn_backend/internal/model"
	"corplearn_backend/pkg/monitoring"
	"math"
	"time"

	"go.uber.org/zap"
)

// EvaluationOutcome is the result of one recomputation of the blended score.
type EvaluationOutcome struct {
	Total         int  `json:"total"`
	Passed        bool `json:"passed"`
	Finalized     bool `json:"finalized"`
	SurveyBlocked bool `json:"surveyBlocked"`
}

// EvaluationScorer blends the quiz and SCORM sub-scores of an evaluation
// module into a weighted total and owns every status/score write that follows
// from it. It never downgrades an enrollment that is already completed.
type EvaluationScorer struct {
	enrollments EnrollmentStore
	log         *zap.Logger
	now         func() time.Time
}

func NewEvaluationScorer(enrollments EnrollmentStore, log *zap.Logger) *EvaluationScorer {
	if log == nil {
		log = zap.NewNop()
	}
	return &EvaluationScorer{
		enrollments: enrollments,
		log:         log,
		now:         time.Now,
	}
}

// WeightedTotal computes round(quiz·quizWeight + scorm·scormWeight); nil
// sub-scores count as 0.
func WeightedTotal(quizScore, scormScore *int, settings model.ModuleSettings) int {
	quiz, scorm := 0, 0
	if quizScore != nil {
		quiz = *quizScore
	}
	if scormScore != nil {
		scorm = *scormScore
	}
	qw, sw := settings.Weights()
	return int(math.Round(float64(quiz)*qw + float64(scorm)*sw))
}

// Recompute runs whenever either sub-score changes. onLastModule and
// surveyPending come from the progression layer; the three persisted
// side-effect branches follow from them:
//
//	finalize  → completed, best_score, completed_at, stash cleared
//	passed but survey pending → in_progress with the result stashed
//	partial   → in_progress with best_score tracking the total
func (s *EvaluationScorer) Recompute(e *model.Enrollment, settings model.ModuleSettings, onLastModule, surveyPending bool) EvaluationOutcome {
	total := WeightedTotal(e.QuizScore, e.ScormScore, settings)

	if e.IsCompleted() {
		// Background recomputation must never regress a completed enrollment.
		return EvaluationOutcome{Total: total, Passed: true, Finalized: true}
	}

	passed := total >= settings.PassingScore() && onLastModule
	outcome := EvaluationOutcome{Total: total, Passed: passed}

	switch {
	case passed && !surveyPending:
		s.finalize(e, total)
		outcome.Finalized = true
		monitoring.EvaluationResults.WithLabelValues("passed").Inc()

	case passed && surveyPending:
		stash := total
		e.Status = model.StatusInProgress
		e.LastExamScore = &stash
		e.LastExamPassed = true
		e.SurveyCompleted = false
		outcome.SurveyBlocked = true
		s.persist(e)
		monitoring.EvaluationResults.WithLabelValues("survey_blocked").Inc()

	case total > 0:
		best := total
		e.Status = model.StatusInProgress
		e.BestScore = &best
		s.persist(e)
		monitoring.EvaluationResults.WithLabelValues("failed").Inc()
	}

	return outcome
}

// FinalizeFromStash completes an enrollment whose passing score was blocked
// by an outstanding survey, using the stashed result. No re-grading happens.
func (s *EvaluationScorer) FinalizeFromStash(e *model.Enrollment) bool {
	if e.IsCompleted() {
		return false
	}
	if !e.LastExamPassed || e.LastExamScore == nil {
		return false
	}
	s.finalize(e, *e.LastExamScore)
	return true
}

func (s *EvaluationScorer) finalize(e *model.Enrollment, total int) {
	now := s.now()
	e.Status = model.StatusCompleted
	e.BestScore = &total
	e.CompletedAt = &now
	e.Progress = 100
	e.LastExamScore = nil
	e.LastExamPassed = false
	s.persist(e)
	monitoring.CourseCompletions.Inc()
}

// persist is fire-and-forget: a failed write is logged and retried on the
// next triggering event, never surfaced to the learner.
func (s *EvaluationScorer) persist(e *model.Enrollment) {
	if s.enrollments == nil {
		return
	}
	if err := s.enrollments.Save(e); err != nil {
		s.log.Error("enrollment write failed", zap.Uint("enrollment", e.ID), zap.Error(err))
	}
}
