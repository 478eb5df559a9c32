package repository

import (
	"corplearn_backend/internal/model"
	"corplearn_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(e *model.Enrollment) error {
	return r.DB.Create(e).Error
}

func (r *EnrollmentRepository) FindByID(id uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.First(&e, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) FindByUserAndCourse(userID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Save writes the enrollment honouring the non-regression rule: if the
// persisted record already reached completed and the incoming state is a
// lesser status, the write is dropped and the in-memory copy is refreshed to
// the persisted state. Enforced by reading before writing, not by locking;
// one learner runs one active session.
func (r *EnrollmentRepository) Save(e *model.Enrollment) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var current model.Enrollment
		if err := tx.First(&current, e.ID).Error; err != nil {
			return err
		}
		if current.Status == model.StatusCompleted && e.Status != model.StatusCompleted {
			*e = current
			return nil
		}
		return tx.Save(e).Error
	})
}

// Reset is the one sanctioned regression: back to not_started with all
// scores, stash fields and progress cleared.
func (r *EnrollmentRepository) Reset(e *model.Enrollment) error {
	e.Status = model.StatusNotStarted
	e.CurrentModuleIndex = 0
	e.ClearScores()
	return r.DB.Model(&model.Enrollment{}).
		Where("id = ?", e.ID).
		Updates(map[string]interface{}{
			"status":               model.StatusNotStarted,
			"current_module_index": 0,
			"quiz_score":           nil,
			"scorm_score":          nil,
			"best_score":           nil,
			"last_exam_score":      nil,
			"last_exam_passed":     false,
			"survey_completed":     false,
			"signature_captured":   false,
			"progress":             0,
			"completed_at":         nil,
		}).Error
}
