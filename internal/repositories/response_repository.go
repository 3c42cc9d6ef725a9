package repositories

import (
	"surveyhub_backend/internal/models"

	"gorm.io/gorm"
)

type ResponseRepository interface {
	// FindCompletedResponderIDs возвращает ID пользователей, которые
	// уже завершили прохождение опроса. Анонимные ответы пропускаются.
	FindCompletedResponderIDs(surveyID string) ([]string, error)
}

type ResponseRepositoryImpl struct {
	db *gorm.DB
}

func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &ResponseRepositoryImpl{db: db}
}

func (r *ResponseRepositoryImpl) FindCompletedResponderIDs(surveyID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.SurveyResponse{}).
		Where("survey_id = ? AND status = ? AND user_id IS NOT NULL", surveyID, models.ResponseStatusCompleted).
		Pluck("user_id", &ids).Error
	return ids, err
}
