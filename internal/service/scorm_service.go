package service

import (
	"corplearn_backend/internal/model"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ScormCommit is what the bridge surfaces to the progression layer on every
// runtime commit/finish call.
type ScormCommit struct {
	LessonStatus    string `json:"lessonStatus"`
	Score           int    `json:"score"`
	CompletionFired bool   `json:"completionFired"`
}

// ScormBridge adapts the embedded runtime's get/set primitives for one item
// in one session. Values are written through to the element store so a
// suspended package resumes, but the session cache stays authoritative when a
// write fails. The completion signal is latched: within a session only the
// first completed/passed report fires, so retries inside one embedded session
// are not double-counted.
type ScormBridge struct {
	store        ScormStore
	enrollmentID uint
	itemID       uint
	cache        map[string]string
	latched      bool
	log          *zap.Logger
}

func NewScormBridge(store ScormStore, enrollmentID, itemID uint, log *zap.Logger) *ScormBridge {
	if log == nil {
		log = zap.NewNop()
	}
	b := &ScormBridge{
		store:        store,
		enrollmentID: enrollmentID,
		itemID:       itemID,
		cache:        make(map[string]string),
		log:          log,
	}
	if store != nil {
		if els, err := store.ListElements(enrollmentID, itemID); err != nil {
			log.Warn("scorm element preload failed", zap.Uint("item", itemID), zap.Error(err))
		} else {
			for k, v := range els {
				b.cache[k] = v
			}
		}
	}
	return b
}

// canonicalKey accepts both the short conventional names and the full CMI
// paths packages actually send.
func canonicalKey(key string) string {
	switch key {
	case "lesson_status":
		return model.ScormKeyLessonStatus
	case "score.raw", "score_raw":
		return model.ScormKeyScoreRaw
	}
	return key
}

func (b *ScormBridge) GetValue(key string) string {
	return b.cache[canonicalKey(key)]
}

func (b *ScormBridge) SetValue(key, value string) {
	key = canonicalKey(key)
	b.cache[key] = value
	if b.store == nil {
		return
	}
	if err := b.store.SetElement(b.enrollmentID, b.itemID, key, value); err != nil {
		// Fire-and-forget: the session cache keeps the value for this session.
		b.log.Warn("scorm element write failed", zap.Uint("item", b.itemID), zap.String("key", key), zap.Error(err))
	}
}

// Commit surfaces the current lesson status and score. Completed and passed
// are the only statuses that count as the completion signal.
func (b *ScormBridge) Commit() ScormCommit {
	status := strings.ToLower(strings.TrimSpace(b.cache[model.ScormKeyLessonStatus]))
	commit := ScormCommit{
		LessonStatus: status,
		Score:        b.parseScore(b.cache[model.ScormKeyScoreRaw]),
	}
	if (status == "completed" || status == "passed") && !b.latched {
		b.latched = true
		commit.CompletionFired = true
	}
	return commit
}

// Latched reports whether the completion signal already fired this session.
func (b *ScormBridge) Latched() bool { return b.latched }

// parseScore is deliberately lenient: packages disagree on number formats and
// scales, so malformed input counts as 0 and anything outside [0,100] is
// clamped rather than trusted.
func (b *ScormBridge) parseScore(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		b.log.Debug("scorm score unparseable", zap.Uint("item", b.itemID), zap.String("raw", raw))
		return 0
	}
	return clampPercent(int(math.Round(f)))
}
