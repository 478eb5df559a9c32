package repository

import (
	"context"
	"corplearn_backend/internal/model"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// DraftStore is the keyed store for in-flight quiz attempts. Keys are scoped
// per enrollment and quiz item, and a draft is cleared on finish and on
// reset. The interface exists so the engine can be tested deterministically
// without a Redis instance.
type DraftStore interface {
	Get(ctx context.Context, key string) (*model.QuizDraft, error)
	Put(ctx context.Context, key string, draft *model.QuizDraft) error
	Delete(ctx context.Context, key string) error
}

// DraftKeyForEnrollment scopes a draft to one enrollment and quiz item.
func DraftKeyForEnrollment(enrollmentID, itemID uint) string {
	return fmt.Sprintf("quizdraft:enrollment:%d:item:%d", enrollmentID, itemID)
}

// RedisDraftStore keeps drafts in Redis with a TTL so abandoned attempts age
// out on their own.
type RedisDraftStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisDraftStore{Client: client, TTL: ttl}
}

func (s *RedisDraftStore) Get(ctx context.Context, key string) (*model.QuizDraft, error) {
	raw, err := s.Client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var draft model.QuizDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		// A corrupt draft is discarded, not fatal: the learner restarts the attempt.
		_ = s.Client.Del(ctx, key).Err()
		return nil, nil
	}
	return &draft, nil
}

func (s *RedisDraftStore) Put(ctx context.Context, key string, draft *model.QuizDraft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, key, raw, s.TTL).Err()
}

func (s *RedisDraftStore) Delete(ctx context.Context, key string) error {
	return s.Client.Del(ctx, key).Err()
}

// MemoryDraftStore is the in-process fallback used by tests and by
// deployments without Redis.
type MemoryDraftStore struct {
	mu     sync.RWMutex
	drafts map[string]model.QuizDraft
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{drafts: make(map[string]model.QuizDraft)}
}

func (s *MemoryDraftStore) Get(ctx context.Context, key string) (*model.QuizDraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft, ok := s.drafts[key]
	if !ok {
		return nil, nil
	}
	copied := model.QuizDraft{
		Answers:              make(map[string][]string, len(draft.Answers)),
		CurrentQuestionIndex: draft.CurrentQuestionIndex,
	}
	for q, sel := range draft.Answers {
		copied.Answers[q] = append([]string(nil), sel...)
	}
	return &copied, nil
}

func (s *MemoryDraftStore) Put(ctx context.Context, key string, draft *model.QuizDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := model.QuizDraft{
		Answers:              make(map[string][]string, len(draft.Answers)),
		CurrentQuestionIndex: draft.CurrentQuestionIndex,
	}
	for q, sel := range draft.Answers {
		stored.Answers[q] = append([]string(nil), sel...)
	}
	s.drafts[key] = stored
	return nil
}

func (s *MemoryDraftStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, key)
	return nil
}
