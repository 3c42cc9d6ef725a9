package models

type User struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex;not null"`
	Name         string     `gorm:"not null"`
	PasswordHash string     `gorm:"not null"`
	Role         UserRole   `gorm:"type:varchar(20);not null;default:'respondent'"`
	Status       UserStatus `gorm:"type:varchar(20);default:'active'"`
}
