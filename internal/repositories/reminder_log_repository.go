package repositories

import (
	"surveyhub_backend/internal/models"

	"gorm.io/gorm"
)

type ReminderLogRepository interface {
	// HasReminder проверяет, отправлялось ли уже напоминание
	// по паре (опрос, получатель)
	HasReminder(surveyID, userID string) (bool, error)
	CreateReminderLog(log *models.ReminderLog) error
}

type ReminderLogRepositoryImpl struct {
	db *gorm.DB
}

func NewReminderLogRepository(db *gorm.DB) ReminderLogRepository {
	return &ReminderLogRepositoryImpl{db: db}
}

func (r *ReminderLogRepositoryImpl) HasReminder(surveyID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ReminderLog{}).
		Where("survey_id = ? AND user_id = ?", surveyID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ReminderLogRepositoryImpl) CreateReminderLog(log *models.ReminderLog) error {
	return r.db.Create(log).Error
}
