package model

import (
	"encoding/json"
	"time"
)

// SurveyResponse records a learner's submission of a survey item.
type SurveyResponse struct {
	UUIDBase
	EnrollmentID uint            `gorm:"index:idx_survey_enrollment_item,unique;type:bigint unsigned" json:"enrollmentId"`
	ItemID       uint            `gorm:"index:idx_survey_enrollment_item,unique;type:bigint unsigned" json:"itemId"`
	Answers      json.RawMessage `gorm:"type:json" json:"answers"`
	SubmittedAt  time.Time       `json:"submittedAt"`
}

func (SurveyResponse) TableName() string {
	return "survey_responses"
}

// SignatureRecord stores the capture + consent that completes a signature item.
type SignatureRecord struct {
	UUIDBase
	EnrollmentID uint      `gorm:"index:idx_signature_enrollment_item,unique;type:bigint unsigned" json:"enrollmentId"`
	ItemID       uint      `gorm:"index:idx_signature_enrollment_item,unique;type:bigint unsigned" json:"itemId"`
	SignatureRef string    `gorm:"size:512" json:"signatureRef"`
	ConsentGiven bool      `gorm:"default:false" json:"consentGiven"`
	SignedAt     time.Time `json:"signedAt"`
}

func (SignatureRecord) TableName() string {
	return "signature_records"
}
