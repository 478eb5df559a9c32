package model

type ModuleType string

const (
	ModuleContent    ModuleType = "content"
	ModuleEvaluation ModuleType = "evaluation"
)

// swagger:model Course
type Course struct {
	BaseModel
	CompanyID   uint     `gorm:"index;type:bigint unsigned" json:"companyId"`
	Title       string   `gorm:"size:255;not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	IsPublished bool     `gorm:"default:false" json:"isPublished"`
	Modules     []Module `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// LastModuleIndex returns the index of the final module, -1 for an empty course.
func (c *Course) LastModuleIndex() int {
	return len(c.Modules) - 1
}

// ModuleSettings configures how an evaluation module is graded.
// ScormPercentage of 0 is treated as the complement of QuizPercentage.
type ModuleSettings struct {
	MinScore          int  `gorm:"default:90" json:"minScore"`
	QuizPercentage    int  `gorm:"default:80" json:"quizPercentage"`
	ScormPercentage   int  `gorm:"default:0" json:"scormPercentage"`
	RequiresSignature bool `gorm:"default:false" json:"requiresSignature"`
}

// Weights returns the quiz/scorm blend as fractions summing to 1.
func (s ModuleSettings) Weights() (quiz, scorm float64) {
	quizPct := s.QuizPercentage
	if quizPct <= 0 || quizPct > 100 {
		quizPct = 80
	}
	scormPct := s.ScormPercentage
	if scormPct <= 0 || quizPct+scormPct > 100 {
		scormPct = 100 - quizPct
	}
	return float64(quizPct) / 100, float64(scormPct) / 100
}

// PassingScore returns the configured minimum, defaulting to 90.
func (s ModuleSettings) PassingScore() int {
	if s.MinScore <= 0 {
		return 90
	}
	return s.MinScore
}

// swagger:model Module
type Module struct {
	BaseModel
	CourseID   uint           `gorm:"index;type:bigint unsigned" json:"courseId"`
	Title      string         `gorm:"size:255;not null" json:"title"`
	Type       ModuleType     `gorm:"type:enum('content','evaluation');default:'content'" json:"type"`
	OrderIndex int            `gorm:"default:0" json:"orderIndex"`
	Settings   ModuleSettings `gorm:"embedded;embeddedPrefix:setting_" json:"settings"`
	Items      []Item         `gorm:"foreignKey:ModuleID" json:"items,omitempty"`
}

func (Module) TableName() string {
	return "course_modules"
}

// IsEvaluation reports whether this module's score feeds the course grade.
func (m *Module) IsEvaluation() bool {
	return m.Type == ModuleEvaluation
}
