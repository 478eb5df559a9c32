package model

import (
	"encoding/json"
	"testing"
)

func TestItemBlocks(t *testing.T) {
	mandatory, _ := json.Marshal(SurveyItemPayload{IsMandatory: true})
	optional, _ := json.Marshal(SurveyItemPayload{IsMandatory: false})

	tests := []struct {
		name    string
		item    Item
		blocks  bool
		passive bool
	}{
		{"text", Item{Type: ItemText}, false, true},
		{"image", Item{Type: ItemImage}, false, true},
		{"pdf", Item{Type: ItemPDF}, false, true},
		{"header", Item{Type: ItemHeader}, false, true},
		{"video", Item{Type: ItemVideo}, true, false},
		{"audio", Item{Type: ItemAudio}, true, false},
		{"genially", Item{Type: ItemGenially}, true, false},
		{"scorm", Item{Type: ItemScorm}, true, false},
		{"quiz", Item{Type: ItemQuiz}, true, false},
		{"signature", Item{Type: ItemSignature}, true, false},
		{"mandatory survey", Item{Type: ItemSurvey, Payload: mandatory}, true, false},
		{"optional survey", Item{Type: ItemSurvey, Payload: optional}, false, false},
		{"survey without payload", Item{Type: ItemSurvey}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Blocks(); got != tt.blocks {
				t.Errorf("Blocks = %v, want %v", got, tt.blocks)
			}
			if got := tt.item.IsPassive(); got != tt.passive {
				t.Errorf("IsPassive = %v, want %v", got, tt.passive)
			}
		})
	}
}

func TestQuestionResolvedType(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		want QuestionType
	}{
		{"declared single", Question{Type: QuestionSingle, CorrectOptions: []string{"a"}}, QuestionSingle},
		{"true false", Question{Type: QuestionTrueFalse, CorrectOptions: []string{"a"}}, QuestionTrueFalse},
		{"multiple with two answers", Question{Type: QuestionMultiple, CorrectOptions: []string{"a", "b"}}, QuestionMultiple},
		{"multiple with one answer downgrades", Question{Type: QuestionMultiple, CorrectOptions: []string{"a"}}, QuestionSingle},
		{"multiple with none downgrades", Question{Type: QuestionMultiple}, QuestionSingle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.ResolvedType(); got != tt.want {
				t.Errorf("ResolvedType = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestQuestionDedupKey(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		want string
	}{
		{"id wins over text", Question{ID: "Q1", Text: "anything"}, "q1"},
		{"text fallback trimmed and lowered", Question{Text: "  Some Question  "}, "some question"},
		{"empty", Question{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.DedupKey(); got != tt.want {
				t.Errorf("DedupKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuestionEffectiveWeight(t *testing.T) {
	if got := (Question{}).EffectiveWeight(); got != 1 {
		t.Errorf("default weight = %v, want 1", got)
	}
	if got := (Question{Weight: -2}).EffectiveWeight(); got != 1 {
		t.Errorf("negative weight = %v, want 1", got)
	}
	if got := (Question{Weight: 2.5}).EffectiveWeight(); got != 2.5 {
		t.Errorf("explicit weight = %v, want 2.5", got)
	}
}

func TestItemPayloadAccessorsTolerateGarbage(t *testing.T) {
	item := Item{Type: ItemQuiz, Payload: json.RawMessage(`not json`)}
	if got := item.QuizPayload(); len(got.Questions) != 0 {
		t.Errorf("QuizPayload on garbage = %+v", got)
	}
	if got := item.SurveyPayload(); got.IsMandatory {
		t.Error("SurveyPayload on garbage reported mandatory")
	}
	if got := item.MediaPayload(); got.URL != "" {
		t.Errorf("MediaPayload on garbage = %+v", got)
	}
}
