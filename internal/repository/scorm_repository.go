package repository

import (
	"corplearn_backend/internal/model"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ScormRepository struct {
	DB *gorm.DB
}

func NewScormRepository(db *gorm.DB) *ScormRepository {
	return &ScormRepository{DB: db}
}

// GetElement returns the stored value for a CMI key, "" when unset. SCORM
// packages routinely read keys they never wrote, so absence is not an error.
func (r *ScormRepository) GetElement(enrollmentID, itemID uint, key string) (string, error) {
	var el model.ScormElement
	err := r.DB.Where("enrollment_id = ? AND item_id = ? AND element_key = ?", enrollmentID, itemID, key).
		First(&el).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return el.Value, nil
}

func (r *ScormRepository) SetElement(enrollmentID, itemID uint, key, value string) error {
	el := &model.ScormElement{
		EnrollmentID: enrollmentID,
		ItemID:       itemID,
		Key:          key,
		Value:        value,
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "item_id"}, {Name: "element_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(el).Error
}

func (r *ScormRepository) ListElements(enrollmentID, itemID uint) (map[string]string, error) {
	var els []model.ScormElement
	err := r.DB.Where("enrollment_id = ? AND item_id = ?", enrollmentID, itemID).Find(&els).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(els))
	for _, el := range els {
		out[el.Key] = el.Value
	}
	return out, nil
}
