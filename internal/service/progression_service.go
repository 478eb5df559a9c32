package service

import (
	"context"
	"corplearn_backend/internal/config"
	"corplearn_backend/internal/model"
	"corplearn_backend/internal/repository"
	"corplearn_backend/internal/util"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ItemEventType tags the heterogeneous completion signals the host routes
// into the session.
type ItemEventType string

const (
	EventVideoProgress    ItemEventType = "video_progress"
	EventVideoEnded       ItemEventType = "video_ended"
	EventAudioEnded       ItemEventType = "audio_ended"
	EventEmbedInteraction ItemEventType = "embed_interaction"
	EventEmbedFinished    ItemEventType = "embed_finished"
)

// ItemEvent is one completion signal for one item.
type ItemEvent struct {
	Type         ItemEventType `json:"type"`
	WatchedRatio float64       `json:"watchedRatio,omitempty"` // video_progress only
}

// CompletionCallback fires once per session when the whole course finishes.
type CompletionCallback func(e *model.Enrollment)

// Session walks one learner through one course. It owns the enrollment
// snapshot, the session-scoped CompletionSet, the per-item quiz engines and
// SCORM bridges, and the fallback timers. All transitions are event driven;
// the session serializes them with a single mutex. In-memory state is
// authoritative for the session, the persisted record across sessions.
type Session struct {
	mu sync.Mutex

	course     *model.Course
	enrollment *model.Enrollment
	userID     uint

	viewIndex          int // module the learner is looking at; may go back
	completed          map[uint]bool
	practiceScores     map[uint]int // quiz scores in content modules, session only
	quizzes            map[uint]*QuizEngine
	bridges            map[uint]*ScormBridge
	embedTimers        map[uint]*time.Timer
	completionNotified bool

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

// SessionSnapshot is the full projection the host UI renders from.
type SessionSnapshot struct {
	Enrollment         *model.Enrollment `json:"enrollment"`
	CurrentModuleIndex int               `json:"currentModuleIndex"`
	ModuleCount        int               `json:"moduleCount"`
	CurrentModule      *model.Module     `json:"currentModule,omitempty"`
	CompletedItems     []uint            `json:"completedItems"`
	CanAdvance         bool              `json:"canAdvance"`
	OnLastModule       bool              `json:"onLastModule"`
}

type sessionDeps struct {
	enrollments EnrollmentStore
	drafts      repository.DraftStore
	scormStore  ScormStore
	surveys     SurveyStore
	scorer      *EvaluationScorer
	gate        *SurveyGate
	cfg         config.EngineConfig
	log         *zap.Logger
	onComplete  CompletionCallback
}

func newSession(course *model.Course, enrollment *model.Enrollment, deps sessionDeps) *Session {
	log := deps.log
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{
		course:         course,
		enrollment:     enrollment,
		userID:         enrollment.UserID,
		completed:      make(map[uint]bool),
		practiceScores: make(map[uint]int),
		quizzes:        make(map[uint]*QuizEngine),
		bridges:        make(map[uint]*ScormBridge),
		embedTimers:    make(map[uint]*time.Timer),
		enrollments:    deps.enrollments,
		drafts:         deps.drafts,
		scormStore:     deps.scormStore,
		surveys:        deps.surveys,
		scorer:         deps.scorer,
		gate:           deps.gate,
		cfg:            deps.cfg,
		log:            log,
		onComplete:     deps.onComplete,
	}
	s.resume()
	return s
}

// resume seeds the session from the persisted enrollment. There is no
// per-item ledger: modules behind the checkpoint are complete wholesale, and
// within reach the persisted survey/signature/score indicators rebuild the
// rest of the CompletionSet.
func (s *Session) resume() {
	e := s.enrollment

	if e.Status == model.StatusNotStarted {
		// A reset (or a fresh enrollment) starts clean at module 0.
		e.CurrentModuleIndex = 0
		e.ClearScores()
	}

	last := s.course.LastModuleIndex()
	if e.CurrentModuleIndex < 0 {
		e.CurrentModuleIndex = 0
	}
	if last >= 0 && e.CurrentModuleIndex > last {
		e.CurrentModuleIndex = last
	}
	s.viewIndex = e.CurrentModuleIndex

	for mi := range s.course.Modules {
		mod := &s.course.Modules[mi]
		for ii := range mod.Items {
			item := &mod.Items[ii]
			if mi < e.CurrentModuleIndex || e.IsCompleted() {
				s.completed[item.ID] = true
				continue
			}
			switch item.Type {
			case model.ItemSurvey:
				if done, err := s.surveys.HasResponse(e.ID, item.ID); err == nil && done {
					s.completed[item.ID] = true
				}
			case model.ItemSignature:
				if done, err := s.surveys.HasSignature(e.ID, item.ID); err == nil && done {
					s.completed[item.ID] = true
				}
			case model.ItemQuiz:
				// A stashed pass or a recorded passing quiz score survives sessions.
				if mod.IsEvaluation() && s.evaluationQuizPassed(mod) {
					s.completed[item.ID] = true
				}
			case model.ItemScorm:
				if status, err := s.scormStore.GetElement(e.ID, item.ID, model.ScormKeyLessonStatus); err == nil {
					if status == "completed" || status == "passed" {
						s.completed[item.ID] = true
					}
				}
			}
		}
	}
}

func (s *Session) evaluationQuizPassed(mod *model.Module) bool {
	e := s.enrollment
	if e.LastExamPassed {
		return true
	}
	return e.QuizScore != nil && *e.QuizScore >= s.effectiveSettings(mod).PassingScore()
}

// effectiveSettings fills unset module grading fields from the engine
// defaults, so operators tune courses without touching every module row.
func (s *Session) effectiveSettings(mod *model.Module) model.ModuleSettings {
	settings := mod.Settings
	if settings.MinScore <= 0 {
		settings.MinScore = s.cfg.DefaultMinScore
	}
	if settings.QuizPercentage <= 0 {
		settings.QuizPercentage = s.cfg.DefaultQuizPercentage
	}
	return settings
}

// Enrollment returns a copy of the session's enrollment state. The live record
// is only mutated under the session lock; callers get a detached struct they
// can serialize freely.
func (s *Session) Enrollment() *model.Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enrollmentCopy()
}

func (s *Session) enrollmentCopy() *model.Enrollment {
	c := *s.enrollment
	return &c
}

func (s *Session) moduleAt(index int) *model.Module {
	if index < 0 || index >= len(s.course.Modules) {
		return nil
	}
	return &s.course.Modules[index]
}

// CurrentModule is the module under the learner's view cursor.
func (s *Session) CurrentModule() *model.Module {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moduleAt(s.viewIndex)
}

// itemInCurrentModule resolves an item id against the viewed module only;
// events for items the learner navigated away from are rejected.
func (s *Session) itemInCurrentModule(itemID uint) *model.Item {
	mod := s.moduleAt(s.viewIndex)
	if mod == nil {
		return nil
	}
	for i := range mod.Items {
		if mod.Items[i].ID == itemID {
			return &mod.Items[i]
		}
	}
	return nil
}

// IsModuleUnblocked reports whether every blocking item of the module is in
// the CompletionSet.
func (s *Session) IsModuleUnblocked(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isModuleUnblocked(index)
}

func (s *Session) isModuleUnblocked(index int) bool {
	mod := s.moduleAt(index)
	if mod == nil {
		return false
	}
	for i := range mod.Items {
		item := &mod.Items[i]
		if item.Blocks() && !s.completed[item.ID] {
			return false
		}
	}
	return true
}

func (s *Session) CanAdvance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isModuleUnblocked(s.viewIndex)
}

// Advance moves to the next module once the current one is unblocked. On the
// last module it fires the host completion callback instead of incrementing.
// The persisted checkpoint only ever moves forward.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isModuleUnblocked(s.viewIndex) {
		return util.ErrModuleBlocked
	}
	s.invalidateTimers()

	last := s.course.LastModuleIndex()
	if s.viewIndex >= last {
		s.finishCourse()
		return nil
	}

	s.viewIndex++
	e := s.enrollment
	if s.viewIndex > e.CurrentModuleIndex {
		e.CurrentModuleIndex = s.viewIndex
		if !e.IsCompleted() {
			e.Status = model.StatusInProgress
			e.Progress = s.progressPercent()
		}
		s.persist()
	}
	return nil
}

// Retreat moves the view back one module. The persisted checkpoint is
// untouched; current_module_index never decreases outside an explicit reset.
func (s *Session) Retreat() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.viewIndex == 0 {
		return util.ErrAtFirstModule
	}
	s.invalidateTimers()
	s.viewIndex--
	return nil
}

// finishCourse handles "advance past the end". For a course whose grade is
// owned by an evaluation module the scorer has already decided; a
// content-only course completes here, gated on outstanding mandatory surveys.
func (s *Session) finishCourse() {
	e := s.enrollment

	if !e.IsCompleted() && !s.courseHasEvaluation() {
		if !s.gate.PendingMandatory(s.course, e.ID, s.isDone) {
			now := time.Now()
			e.Status = model.StatusCompleted
			e.Progress = 100
			e.CompletedAt = &now
			s.persist()
		}
	}

	s.notifyCompletion()
}

func (s *Session) courseHasEvaluation() bool {
	for i := range s.course.Modules {
		if s.course.Modules[i].IsEvaluation() {
			return true
		}
	}
	return false
}

// notifyCompletion fires the host callback at most once per session, and only
// for a genuinely completed enrollment.
func (s *Session) notifyCompletion() {
	if s.completionNotified || !s.enrollment.IsCompleted() {
		return
	}
	s.completionNotified = true
	if s.onComplete != nil {
		s.onComplete(s.enrollment)
	}
}

func (s *Session) isDone(itemID uint) bool {
	return s.completed[itemID]
}

// markComplete latches an item into the CompletionSet. Returns false when the
// item was already done, so duplicate signals are side-effect free.
func (s *Session) markComplete(itemID uint) bool {
	if s.completed[itemID] {
		return false
	}
	s.completed[itemID] = true
	if t, ok := s.embedTimers[itemID]; ok {
		t.Stop()
		delete(s.embedTimers, itemID)
	}
	return true
}

// HandleItemEvent applies the per-type completion rule to a runtime signal.
// Unknown or out-of-place signals are dropped without error: a malformed
// runtime payload must never crash the session.
func (s *Session) HandleItemEvent(itemID uint, ev ItemEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.itemInCurrentModule(itemID)
	if item == nil {
		return util.ErrItemNotFound
	}

	switch item.Type {
	case model.ItemVideo:
		// ended, or the watched-ratio backup for runtimes that never fire a
		// clean end event; whichever comes first.
		if ev.Type == EventVideoEnded ||
			(ev.Type == EventVideoProgress && ev.WatchedRatio >= s.cfg.VideoWatchedRatio) {
			s.completeItem(item)
		}
	case model.ItemAudio:
		if ev.Type == EventAudioEnded {
			s.completeItem(item)
		}
	case model.ItemGenially:
		switch ev.Type {
		case EventEmbedFinished:
			s.completeItem(item)
		case EventEmbedInteraction:
			s.startEmbedTimer(item.ID)
		}
	default:
		s.log.Debug("ignoring runtime signal for item type",
			zap.Uint("item", itemID), zap.String("type", string(item.Type)), zap.String("event", string(ev.Type)))
	}
	return nil
}

// startEmbedTimer arms the single-shot fallback: embeds without a finished
// callback count as done a few seconds after the first user interaction. The
// timer is scoped to the active module and dies on navigation.
func (s *Session) startEmbedTimer(itemID uint) {
	if s.completed[itemID] {
		return
	}
	if _, armed := s.embedTimers[itemID]; armed {
		return
	}
	delay := time.Duration(s.cfg.EmbedFallbackSeconds) * time.Second
	if delay <= 0 {
		delay = 15 * time.Second
	}
	s.embedTimers[itemID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, valid := s.embedTimers[itemID]; !valid {
			return // invalidated by navigation or teardown
		}
		delete(s.embedTimers, itemID)
		if item := s.itemInCurrentModule(itemID); item != nil {
			s.completeItem(item)
		}
	})
}

func (s *Session) invalidateTimers() {
	for id, t := range s.embedTimers {
		t.Stop()
		delete(s.embedTimers, id)
	}
}

// completeItem marks the item done and persists the state change.
func (s *Session) completeItem(item *model.Item) {
	if !s.markComplete(item.ID) {
		return
	}
	e := s.enrollment
	if !e.IsCompleted() && e.Status == model.StatusNotStarted {
		e.Status = model.StatusInProgress
	}
	s.persist()
}

// Quiz returns (building if needed) the quiz engine for an item in the viewed
// module. A mandatory evaluation the learner already passed comes back
// finished with the prior score instead of forcing a retake.
func (s *Session) Quiz(ctx context.Context, itemID uint) (*QuizEngine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.itemInCurrentModule(itemID)
	if item == nil || item.Type != model.ItemQuiz {
		return nil, util.ErrItemNotFound
	}
	if engine, ok := s.quizzes[itemID]; ok {
		return engine, nil
	}

	mod := s.moduleAt(s.viewIndex)
	engine := NewQuizEngine(ctx, item.QuizPayload().Questions, s.drafts,
		repository.DraftKeyForEnrollment(s.enrollment.ID, itemID), s.log)

	if mod.IsEvaluation() {
		if prior := s.priorEvaluationScore(mod); prior != nil {
			engine.ForceFinished(*prior)
		}
	}

	s.quizzes[itemID] = engine
	return engine, nil
}

// priorEvaluationScore is the known quiz score of an already-passed
// evaluation, nil when the learner still has to take (or retry) it.
func (s *Session) priorEvaluationScore(mod *model.Module) *int {
	e := s.enrollment
	if !e.IsCompleted() && !s.evaluationQuizPassed(mod) {
		return nil
	}
	if e.QuizScore != nil {
		return e.QuizScore
	}
	if e.LastExamScore != nil {
		return e.LastExamScore
	}
	return e.BestScore
}

// FinishQuiz grades the engine and routes the score. Evaluation modules feed
// the scorer; practice quizzes in content modules complete the item on any
// submission and never touch evaluation state.
func (s *Session) FinishQuiz(ctx context.Context, itemID uint) (int, EvaluationOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	engine, ok := s.quizzes[itemID]
	if !ok {
		return 0, EvaluationOutcome{}, util.ErrItemNotFound
	}
	item := s.itemInCurrentModule(itemID)
	if item == nil {
		return 0, EvaluationOutcome{}, util.ErrItemNotFound
	}

	score, err := engine.Finish(ctx)
	if err != nil {
		return 0, EvaluationOutcome{}, err
	}

	mod := s.moduleAt(s.viewIndex)
	if !mod.IsEvaluation() {
		s.practiceScores[itemID] = score
		s.completeItem(item)
		return score, EvaluationOutcome{}, nil
	}

	return score, s.applyQuizScore(item, mod, score), nil
}

// onItemScored is the evaluation-module path: record the sub-score, mark the
// item done only on a passing submission, recompute the blend.
func (s *Session) applyQuizScore(item *model.Item, mod *model.Module, score int) EvaluationOutcome {
	e := s.enrollment
	quizScore := score
	e.QuizScore = &quizScore

	// A failing submission leaves the item incomplete so the learner can retry.
	if score >= s.effectiveSettings(mod).PassingScore() {
		s.markComplete(item.ID)
	}

	outcome := s.recompute(mod)
	return outcome
}

func (s *Session) recompute(mod *model.Module) EvaluationOutcome {
	onLast := s.viewIndex == s.course.LastModuleIndex()
	surveyPending := s.gate.PendingMandatory(s.course, s.enrollment.ID, s.isDone)
	outcome := s.scorer.Recompute(s.enrollment, s.effectiveSettings(mod), onLast, surveyPending)
	if outcome.Finalized {
		s.notifyCompletion()
	}
	return outcome
}

// RepeatQuiz resets an attempt. It does not touch an already-persisted
// passing evaluation score.
func (s *Session) RepeatQuiz(ctx context.Context, itemID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	engine, ok := s.quizzes[itemID]
	if !ok {
		return util.ErrItemNotFound
	}
	engine.Repeat(ctx)
	return nil
}

// Scorm returns (building if needed) the bridge for a scorm item in the
// viewed module.
func (s *Session) Scorm(itemID uint) (*ScormBridge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scormLocked(itemID)
}

func (s *Session) scormLocked(itemID uint) (*ScormBridge, error) {
	item := s.itemInCurrentModule(itemID)
	if item == nil || item.Type != model.ItemScorm {
		return nil, util.ErrItemNotFound
	}
	if bridge, ok := s.bridges[itemID]; ok {
		return bridge, nil
	}
	bridge := NewScormBridge(s.scormStore, s.enrollment.ID, itemID, s.log)
	s.bridges[itemID] = bridge
	return bridge, nil
}

// CommitScorm is the runtime's commit/finish notification. The score flows
// into the scorer on every commit; the completion signal is latched by the
// bridge so only the first completed/passed report marks the item done.
func (s *Session) CommitScorm(itemID uint) (ScormCommit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bridge, err := s.scormLocked(itemID)
	if err != nil {
		return ScormCommit{}, err
	}
	item := s.itemInCurrentModule(itemID)
	commit := bridge.Commit()

	mod := s.moduleAt(s.viewIndex)
	if mod.IsEvaluation() {
		scormScore := commit.Score
		changed := s.enrollment.ScormScore == nil || *s.enrollment.ScormScore != scormScore
		s.enrollment.ScormScore = &scormScore
		if commit.CompletionFired {
			s.markComplete(item.ID)
		}
		if changed || commit.CompletionFired {
			s.recompute(mod)
		}
	} else if commit.CompletionFired {
		s.completeItem(item)
	}

	return commit, nil
}

// SubmitSignature records capture + consent and completes the item.
func (s *Session) SubmitSignature(itemID uint, signatureRef string, consent bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.itemInCurrentModule(itemID)
	if item == nil || item.Type != model.ItemSignature {
		return util.ErrItemNotFound
	}
	if !consent {
		return util.ErrConsentRequired
	}
	if err := s.surveys.CreateSignature(s.enrollment.ID, itemID, signatureRef, consent); err != nil {
		return err
	}
	s.enrollment.SignatureCaptured = true
	s.completeItem(item)
	return nil
}

// SubmitSurvey records the response, completes the item, and — when the
// learner had already passed but was blocked — finalizes straight from the
// stash without re-grading or returning to the evaluation module.
func (s *Session) SubmitSurvey(itemID uint, answers json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.itemInCurrentModule(itemID)
	if item == nil || item.Type != model.ItemSurvey {
		return util.ErrItemNotFound
	}
	if err := s.gate.Submit(s.enrollment.ID, item, answers); err != nil {
		return err
	}
	s.markComplete(item.ID)

	if s.gate.TryFinalize(s.course, s.enrollment, s.isDone) {
		s.notifyCompletion()
	} else {
		s.persist()
	}
	return nil
}

// progressPercent is modules-behind-the-checkpoint over module count.
func (s *Session) progressPercent() int {
	total := len(s.course.Modules)
	if total == 0 {
		return 0
	}
	return clampPercent(s.enrollment.CurrentModuleIndex * 100 / total)
}

// Snapshot projects the whole session for the host UI.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	completedIDs := make([]uint, 0, len(s.completed))
	for mi := range s.course.Modules {
		for ii := range s.course.Modules[mi].Items {
			if s.completed[s.course.Modules[mi].Items[ii].ID] {
				completedIDs = append(completedIDs, s.course.Modules[mi].Items[ii].ID)
			}
		}
	}

	return SessionSnapshot{
		Enrollment:         s.enrollmentCopy(),
		CurrentModuleIndex: s.viewIndex,
		ModuleCount:        len(s.course.Modules),
		CurrentModule:      s.moduleAt(s.viewIndex),
		CompletedItems:     completedIDs,
		CanAdvance:         s.isModuleUnblocked(s.viewIndex),
		OnLastModule:       s.viewIndex == s.course.LastModuleIndex(),
	}
}

// Close tears the session down; pending fallback timers must not fire after
// the view is gone. Writes already in flight are not cancelled.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateTimers()
}

// persist is fire-and-forget; a failed write is logged and the next
// triggering event retries it implicitly by writing the full record again.
func (s *Session) persist() {
	if err := s.enrollments.Save(s.enrollment); err != nil {
		s.log.Error("enrollment write failed",
			zap.Uint("enrollment", s.enrollment.ID), zap.Error(err))
	}
}
