package models

import "time"

type SurveyResponse struct {
	BaseModel
	SurveyID    string         `gorm:"type:uuid;not null;index"`
	UserID      *string        `gorm:"type:uuid;index"` // nil для анонимных ответов
	Status      ResponseStatus `gorm:"type:varchar(20);not null;default:'in_progress'"`
	CompletedAt *time.Time
}
