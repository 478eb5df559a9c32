package model

import "time"

type EnrollmentStatus string

const (
	StatusNotStarted EnrollmentStatus = "not_started"
	StatusInProgress EnrollmentStatus = "in_progress"
	StatusCompleted  EnrollmentStatus = "completed"
	StatusFailed     EnrollmentStatus = "failed"
)

// Enrollment links one learner to one course and carries every persisted bit
// of progression and score state. It is read on session start and written on
// every state change.
// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	UserID   uint `gorm:"index:idx_user_course,unique;type:bigint unsigned" json:"userId"`
	CourseID uint `gorm:"index:idx_user_course,unique;type:bigint unsigned" json:"courseId"`

	Status             EnrollmentStatus `gorm:"size:20;default:'not_started'" json:"status"`
	CurrentModuleIndex int              `gorm:"default:0" json:"currentModuleIndex"`

	QuizScore  *int `json:"quizScore"`  // 0-100, nil until first submission
	ScormScore *int `json:"scormScore"` // 0-100, nil until first commit
	BestScore  *int `json:"bestScore"`  // 0-100, nil until first pass or partial

	// Stash for a passing exam blocked by an outstanding mandatory survey.
	LastExamScore  *int `json:"lastExamScore"`
	LastExamPassed bool `gorm:"default:false" json:"lastExamPassed"`

	SurveyCompleted   bool       `gorm:"default:false" json:"surveyCompleted"`
	SignatureCaptured bool       `gorm:"default:false" json:"signatureCaptured"`
	Progress          int        `gorm:"default:0" json:"progress"` // 0-100
	CompletedAt       *time.Time `json:"completedAt"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

// IsCompleted reports whether the enrollment already reached its terminal
// passing state; a completed enrollment must never be regressed by a
// background recomputation.
func (e *Enrollment) IsCompleted() bool {
	return e.Status == StatusCompleted
}

// ClearScores wipes every score and stash field. Used by the admin reset.
func (e *Enrollment) ClearScores() {
	e.QuizScore = nil
	e.ScormScore = nil
	e.BestScore = nil
	e.LastExamScore = nil
	e.LastExamPassed = false
	e.SurveyCompleted = false
	e.SignatureCaptured = false
	e.Progress = 0
	e.CompletedAt = nil
}
