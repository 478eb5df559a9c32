package service

import (
	"corplearn_backend/internal/model"
	"encoding/json"
)

// The engine talks to persistence through these narrow interfaces. The gorm
// repositories satisfy them in production; the test suite swaps in in-memory
// fakes so the state machine can be exercised without a database.

// CourseStore is the read-only content tree collaborator.
type CourseStore interface {
	GetCourseTree(courseID uint) (*model.Course, error)
}

// EnrollmentStore reads the enrollment on resume and writes it on every state
// change. Save must enforce the non-regression rule for completed records.
type EnrollmentStore interface {
	Create(e *model.Enrollment) error
	FindByID(id uint) (*model.Enrollment, error)
	FindByUserAndCourse(userID, courseID uint) (*model.Enrollment, error)
	Save(e *model.Enrollment) error
	Reset(e *model.Enrollment) error
}

// SurveyStore persists survey submissions and signature captures, the two
// completion indicators that survive across sessions.
type SurveyStore interface {
	CreateResponse(enrollmentID, itemID uint, answers json.RawMessage) error
	HasResponse(enrollmentID, itemID uint) (bool, error)
	CreateSignature(enrollmentID, itemID uint, signatureRef string, consent bool) error
	HasSignature(enrollmentID, itemID uint) (bool, error)
}

// ScormStore backs the runtime's getValue/setValue primitives.
type ScormStore interface {
	GetElement(enrollmentID, itemID uint, key string) (string, error)
	SetElement(enrollmentID, itemID uint, key, value string) error
	ListElements(enrollmentID, itemID uint) (map[string]string, error)
}
