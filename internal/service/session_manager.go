package service

import (
	"context"
	"corplearn_backend/internal/config"
	"corplearn_backend/internal/model"
	"corplearn_backend/internal/repository"
	"corplearn_backend/internal/util"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ProgressionService owns the enrollment lifecycle and the per-enrollment
// session registry. One learner is assumed to run one active session; the
// registry hands the same Session back for repeated requests and rebuilds it
// from the persisted record after a restart.
type ProgressionService struct {
	mu       sync.Mutex
	sessions map[uint]*Session

	courses     CourseStore
	enrollments EnrollmentStore
	drafts      repository.DraftStore
	scormStore  ScormStore
	surveys     SurveyStore
	scorer      *EvaluationScorer
	gate        *SurveyGate

	cfg        config.EngineConfig
	log        *zap.Logger
	onComplete CompletionCallback
}

func NewProgressionService(
	courses CourseStore,
	enrollments EnrollmentStore,
	drafts repository.DraftStore,
	scormStore ScormStore,
	surveys SurveyStore,
	cfg config.EngineConfig,
	log *zap.Logger,
) *ProgressionService {
	if log == nil {
		log = zap.NewNop()
	}
	scorer := NewEvaluationScorer(enrollments, log)
	return &ProgressionService{
		sessions:    make(map[uint]*Session),
		courses:     courses,
		enrollments: enrollments,
		drafts:      drafts,
		scormStore:  scormStore,
		surveys:     surveys,
		scorer:      scorer,
		gate:        NewSurveyGate(surveys, scorer, log),
		cfg:         cfg,
		log:         log,
	}
}

// SetCompletionCallback registers the host hook fired once per session when a
// course finishes (certificate issuance, navigation).
func (s *ProgressionService) SetCompletionCallback(cb CompletionCallback) {
	s.onComplete = cb
}

// Enroll creates (or returns) the learner's enrollment for a course.
func (s *ProgressionService) Enroll(userID, courseID uint) (*model.Enrollment, error) {
	course, err := s.courses.GetCourseTree(courseID)
	if err != nil {
		return nil, err
	}
	if len(course.Modules) == 0 {
		return nil, util.ErrCourseEmpty
	}

	existing, err := s.enrollments.FindByUserAndCourse(userID, courseID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, util.ErrEnrollmentNotFound) {
		return nil, err
	}

	e := &model.Enrollment{
		UserID:   userID,
		CourseID: courseID,
		Status:   model.StatusNotStarted,
	}
	if err := s.enrollments.Create(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Enrollment loads the persisted record, without opening a session.
func (s *ProgressionService) Enrollment(enrollmentID uint) (*model.Enrollment, error) {
	return s.enrollments.FindByID(enrollmentID)
}

// Session returns the live session for an enrollment, resuming from the
// persisted record when none exists yet. A structure-load failure is fatal to
// the session: nothing is rendered from a partial tree.
func (s *ProgressionService) Session(enrollmentID uint) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[enrollmentID]; ok {
		return sess, nil
	}

	e, err := s.enrollments.FindByID(enrollmentID)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.GetCourseTree(e.CourseID)
	if err != nil {
		return nil, err
	}
	if len(course.Modules) == 0 {
		return nil, util.ErrCourseEmpty
	}

	sess := newSession(course, e, sessionDeps{
		enrollments: s.enrollments,
		drafts:      s.drafts,
		scormStore:  s.scormStore,
		surveys:     s.surveys,
		scorer:      s.scorer,
		gate:        s.gate,
		cfg:         s.cfg,
		log:         s.log,
		onComplete:  s.onComplete,
	})
	s.sessions[enrollmentID] = sess
	return sess, nil
}

// CloseSession tears down the live session, if any, without touching the
// persisted record.
func (s *ProgressionService) CloseSession(enrollmentID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[enrollmentID]; ok {
		sess.Close()
		delete(s.sessions, enrollmentID)
	}
}

// Reset is the explicit admin regression to not_started: scores, stash,
// CompletionSet and quiz drafts all go.
func (s *ProgressionService) Reset(ctx context.Context, enrollmentID uint) (*model.Enrollment, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[enrollmentID]; ok {
		sess.Close()
		delete(s.sessions, enrollmentID)
	}
	s.mu.Unlock()

	e, err := s.enrollments.FindByID(enrollmentID)
	if err != nil {
		return nil, err
	}
	if err := s.enrollments.Reset(e); err != nil {
		return nil, err
	}

	// Best effort draft cleanup; an orphaned draft only lingers until its TTL.
	if course, err := s.courses.GetCourseTree(e.CourseID); err == nil {
		for mi := range course.Modules {
			for ii := range course.Modules[mi].Items {
				item := &course.Modules[mi].Items[ii]
				if item.Type != model.ItemQuiz {
					continue
				}
				key := repository.DraftKeyForEnrollment(e.ID, item.ID)
				if err := s.drafts.Delete(ctx, key); err != nil {
					s.log.Warn("draft cleanup failed", zap.String("key", key), zap.Error(err))
				}
			}
		}
	}

	return e, nil
}
