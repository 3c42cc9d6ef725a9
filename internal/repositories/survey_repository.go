package repositories

import (
	"time"

	"surveyhub_backend/internal/models"

	"gorm.io/gorm"
)

// SurveyRepository - read-only взгляд сканера дедлайнов на опросы
type SurveyRepository interface {
	// FindExpiringBetween возвращает активные опубликованные опросы,
	// дедлайн которых попадает в [from, to)
	FindExpiringBetween(from, to time.Time) ([]models.Survey, error)
}

type SurveyRepositoryImpl struct {
	db *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) SurveyRepository {
	return &SurveyRepositoryImpl{db: db}
}

func (r *SurveyRepositoryImpl) FindExpiringBetween(from, to time.Time) ([]models.Survey, error) {
	var surveys []models.Survey
	err := r.db.Where(
		"end_date >= ? AND end_date < ? AND status = ? AND is_active = ?",
		from, to, models.SurveyStatusPublished, true,
	).Find(&surveys).Error
	return surveys, err
}
