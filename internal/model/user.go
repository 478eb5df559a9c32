package model

type UserRole string

const (
	RoleLearner UserRole = "learner"
	RoleAdmin   UserRole = "admin"
)

// User is the minimal learner identity the engine needs; account management
// lives in the company administration service.
type User struct {
	BaseModel
	Email     string   `gorm:"size:255;uniqueIndex" json:"email"`
	Name      string   `gorm:"size:255" json:"name"`
	CompanyID uint     `gorm:"index;type:bigint unsigned" json:"companyId"`
	Role      UserRole `gorm:"size:20;default:'learner'" json:"role"`
}

func (User) TableName() string {
	return "users"
}
