package repository

import (
	"corplearn_backend/internal/model"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SurveyRepository struct {
	DB *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) *SurveyRepository {
	return &SurveyRepository{DB: db}
}

func (r *SurveyRepository) CreateResponse(enrollmentID, itemID uint, answers json.RawMessage) error {
	resp := &model.SurveyResponse{
		EnrollmentID: enrollmentID,
		ItemID:       itemID,
		Answers:      answers,
		SubmittedAt:  time.Now(),
	}
	// Resubmission overwrites; completion is what matters.
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answers", "submitted_at"}),
	}).Create(resp).Error
}

func (r *SurveyRepository) HasResponse(enrollmentID, itemID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.SurveyResponse{}).
		Where("enrollment_id = ? AND item_id = ?", enrollmentID, itemID).
		Count(&count).Error
	return count > 0, err
}

func (r *SurveyRepository) CreateSignature(enrollmentID, itemID uint, signatureRef string, consent bool) error {
	rec := &model.SignatureRecord{
		EnrollmentID: enrollmentID,
		ItemID:       itemID,
		SignatureRef: signatureRef,
		ConsentGiven: consent,
		SignedAt:     time.Now(),
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"signature_ref", "consent_given", "signed_at"}),
	}).Create(rec).Error
}

func (r *SurveyRepository) HasSignature(enrollmentID, itemID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.SignatureRecord{}).
		Where("enrollment_id = ? AND item_id = ?", enrollmentID, itemID).
		Count(&count).Error
	return count > 0, err
}
