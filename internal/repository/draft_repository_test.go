package repository

import (
	"context"
	"corplearn_backend/internal/model"
	"testing"
)

func TestDraftKeys(t *testing.T) {
	if got, want := DraftKeyForEnrollment(3, 7), "quizdraft:enrollment:3:item:7"; got != want {
		t.Errorf("DraftKeyForEnrollment = %q, want %q", got, want)
	}
}

func TestMemoryDraftStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDraftStore()
	key := DraftKeyForEnrollment(1, 2)

	if draft, err := store.Get(ctx, key); err != nil || draft != nil {
		t.Fatalf("Get on empty store = (%v, %v), want (nil, nil)", draft, err)
	}

	in := &model.QuizDraft{
		Answers:              map[string][]string{"q1": {"a", "b"}},
		CurrentQuestionIndex: 2,
	}
	if err := store.Put(ctx, key, in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	out, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.CurrentQuestionIndex != 2 {
		t.Errorf("index = %d, want 2", out.CurrentQuestionIndex)
	}
	if got := out.Answers["q1"]; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("answers = %v, want [a b]", got)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if draft, _ := store.Get(ctx, key); draft != nil {
		t.Error("draft survived delete")
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestMemoryDraftStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDraftStore()
	key := DraftKeyForEnrollment(1, 2)

	in := &model.QuizDraft{
		Answers:              map[string][]string{"q1": {"a"}},
		CurrentQuestionIndex: 0,
	}
	if err := store.Put(ctx, key, in); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's draft after Put must not leak into the store,
	// and mutating a returned draft must not corrupt it either.
	in.Answers["q1"][0] = "changed"

	first, err := store.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	first.Answers["q1"] = append(first.Answers["q1"], "extra")

	second, err := store.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if got := second.Answers["q1"]; len(got) != 1 || got[0] != "a" {
		t.Errorf("stored draft mutated through aliases: %v", got)
	}
}
