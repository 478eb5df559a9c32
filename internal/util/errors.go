package util

import "errors"

var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrCourseEmpty        = errors.New("course has no modules")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrItemNotFound       = errors.New("item not found in current module")
	ErrModuleBlocked      = errors.New("current module has incomplete items")
	ErrAtFirstModule      = errors.New("already at first module")
	ErrQuizFinished       = errors.New("quiz already finished")
	ErrQuestionUnanswered = errors.New("current question has no answer")
	ErrUnknownOption      = errors.New("unknown option for question")
	ErrConsentRequired    = errors.New("signature consent is required")
	ErrSurveyRequired     = errors.New("mandatory survey is outstanding")
)
