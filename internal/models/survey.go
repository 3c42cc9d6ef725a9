package models

import "time"

type Survey struct {
	BaseModel
	Title       string           `gorm:"not null"`
	Status      SurveyStatus     `gorm:"type:varchar(20);not null;default:'draft'"`
	AccessType  SurveyAccessType `gorm:"type:varchar(20);not null;default:'private'"`
	IsActive    bool             `gorm:"default:true"`
	EndDate     *time.Time       `gorm:"index"`
	WorkspaceID *string          `gorm:"type:uuid;index"`
	CreatorID   string           `gorm:"type:uuid;not null;index"`
}
