package service

import (
	"corplearn_backend/internal/model"
	"corplearn_backend/internal/util"
	"encoding/json"
	"errors"
	"testing"
)

func TestSurveyGatePendingMandatory(t *testing.T) {
	surveys := newMemSurveys()
	gate := NewSurveyGate(surveys, newTestScorer(newMemEnrollments()), nil)

	course := makeCourse(1,
		contentModule(1, surveyItem(t, 100, false)),
		contentModule(2, surveyItem(t, 101, true)),
	)

	if !gate.PendingMandatory(course, 1, nil) {
		t.Fatal("mandatory survey not reported pending")
	}

	// The session's completion set satisfies the gate without a store hit.
	done := func(itemID uint) bool { return itemID == 101 }
	if gate.PendingMandatory(course, 1, done) {
		t.Error("pending despite completion-set entry")
	}

	// So does a persisted response from an earlier session.
	if err := surveys.CreateResponse(1, 101, json.RawMessage(`{}`)); err != nil {
		t.Fatal(err)
	}
	if gate.PendingMandatory(course, 1, nil) {
		t.Error("pending despite persisted response")
	}
}

func TestSurveyGateOptionalSurveysNeverBlock(t *testing.T) {
	gate := NewSurveyGate(newMemSurveys(), newTestScorer(newMemEnrollments()), nil)
	course := makeCourse(1, contentModule(1, surveyItem(t, 100, false)))
	if gate.PendingMandatory(course, 1, nil) {
		t.Error("optional survey reported as blocking")
	}
}

func TestSurveyGateValidateAnswers(t *testing.T) {
	gate := NewSurveyGate(newMemSurveys(), newTestScorer(newMemEnrollments()), nil)

	tests := []struct {
		name    string
		item    model.Item
		answers string
		wantErr bool
	}{
		{"no declared fields accepts anything", surveyItem(t, 1, true), `{}`, false},
		{"all fields filled", surveyItem(t, 1, true, "rating", "comment"), `{"rating":"5","comment":"ok"}`, false},
		{"missing field rejected", surveyItem(t, 1, true, "rating", "comment"), `{"rating":"5"}`, true},
		{"empty value rejected", surveyItem(t, 1, true, "rating"), `{"rating":""}`, true},
		{"malformed json rejected", surveyItem(t, 1, true, "rating"), `not json`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.ValidateAnswers(&tt.item, json.RawMessage(tt.answers))
			if tt.wantErr && !errors.Is(err, util.ErrSurveyRequired) {
				t.Errorf("err = %v, want ErrSurveyRequired", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("err = %v, want nil", err)
			}
		})
	}
}

func TestSurveyGateTryFinalize(t *testing.T) {
	store := newMemEnrollments()
	scorer := newTestScorer(store)
	surveys := newMemSurveys()
	gate := NewSurveyGate(surveys, scorer, nil)

	course := makeCourse(1, contentModule(1, surveyItem(t, 100, true)))
	e := &model.Enrollment{UserID: 1, CourseID: 1, Status: model.StatusInProgress,
		LastExamScore: intPtr(92), LastExamPassed: true}
	if err := store.Create(e); err != nil {
		t.Fatal(err)
	}

	if gate.TryFinalize(course, e, nil) {
		t.Fatal("finalized with the survey still pending")
	}

	if err := gate.Submit(e.ID, &course.Modules[0].Items[0], json.RawMessage(`{}`)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !gate.TryFinalize(course, e, nil) {
		t.Fatal("TryFinalize = false after submission")
	}
	if !e.SurveyCompleted {
		t.Error("survey flag not set")
	}
	persisted := store.persisted(t, e.ID)
	if persisted.Status != model.StatusCompleted {
		t.Errorf("status = %s, want completed", persisted.Status)
	}
	if persisted.BestScore == nil || *persisted.BestScore != 92 {
		t.Errorf("best score = %v, want stashed 92", persisted.BestScore)
	}
}
