package model

// ScormElement is one CMI key/value stored for an enrollment+item, backing the
// runtime's getValue/setValue primitives so suspended packages can resume.
type ScormElement struct {
	UUIDBase
	EnrollmentID uint   `gorm:"index:idx_scorm_element,unique;type:bigint unsigned" json:"enrollmentId"`
	ItemID       uint   `gorm:"index:idx_scorm_element,unique;type:bigint unsigned" json:"itemId"`
	Key          string `gorm:"index:idx_scorm_element,unique;size:128;column:element_key" json:"key"`
	Value        string `gorm:"type:text" json:"value"`
}

func (ScormElement) TableName() string {
	return "scorm_elements"
}

// Conventional CMI keys consumed by the bridge.
const (
	ScormKeyLessonStatus = "cmi.core.lesson_status"
	ScormKeyScoreRaw     = "cmi.core.score.raw"
)
