package repositories

import (
	"errors"
	"time"

	"surveyhub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrInvalidNotificationData = errors.New("invalid notification data")
)

type NotificationRepository interface {
	// Notification operations
	CreateNotification(notification *models.Notification) error
	FindNotificationByID(id string) (*models.Notification, error)
	FindUserNotifications(userID string, criteria NotificationCriteria) ([]models.Notification, int64, error)
	FindUnreadNotifications(userID string) ([]models.Notification, error)
	GetUnreadCount(userID string) (int64, error)
	MarkAsRead(notificationID string, readAt time.Time) error
	MarkAllAsRead(userID string, readAt time.Time) error

	// Grouping operations
	FindGroupCandidate(userID string, notificationType models.NotificationType, relatedID string, since time.Time) (*models.Notification, error)
	UpdateGroup(notification *models.Notification) error
}

type NotificationRepositoryImpl struct {
	db *gorm.DB
}

// NotificationCriteria - параметры выборки уведомлений.
// HTTP-представление с form-тегами живет в services/dto.
type NotificationCriteria struct {
	UnreadOnly bool
	Type       string
	Page       int
	PageSize   int
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func (r *NotificationRepositoryImpl) CreateNotification(notification *models.Notification) error {
	if err := r.validateNotification(notification); err != nil {
		return err
	}

	return r.db.Create(notification).Error
}

func (r *NotificationRepositoryImpl) FindNotificationByID(id string) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.First(&notification, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepositoryImpl) FindUserNotifications(userID string, criteria NotificationCriteria) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	query := r.db.Where("user_id = ?", userID)

	if criteria.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	if criteria.Type != "" {
		query = query.Where("type = ?", criteria.Type)
	}

	var total int64
	if err := query.Model(&models.Notification{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := criteria.PageSize
	offset := (criteria.Page - 1) * criteria.PageSize

	// Непрочитанные сверху, внутри групп - новые сверху
	err := query.Order("is_read ASC, created_at DESC").
		Limit(limit).Offset(offset).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *NotificationRepositoryImpl) FindUnreadNotifications(userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepositoryImpl) GetUnreadCount(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkAsRead помечает уведомление прочитанным. Повторный вызов - no-op:
// фильтр is_read = false не дает перезаписать первоначальный read_at.
func (r *NotificationRepositoryImpl) MarkAsRead(notificationID string, readAt time.Time) error {
	result := r.db.Model(&models.Notification{}).
		Where("id = ? AND is_read = ?", notificationID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": readAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Либо уведомления нет, либо оно уже прочитано
		var count int64
		if err := r.db.Model(&models.Notification{}).Where("id = ?", notificationID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotificationNotFound
		}
	}
	return nil
}

func (r *NotificationRepositoryImpl) MarkAllAsRead(userID string, readAt time.Time) error {
	result := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": readAt,
		})

	return result.Error
}

// FindGroupCandidate ищет непрочитанное уведомление того же получателя,
// типа и субъекта, созданное не раньше since. При нескольких кандидатах
// берется самое свежее по created_at.
func (r *NotificationRepositoryImpl) FindGroupCandidate(userID string, notificationType models.NotificationType, relatedID string, since time.Time) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.Where(
		"user_id = ? AND type = ? AND related_id = ? AND is_read = ? AND created_at > ?",
		userID, notificationType, relatedID, false, since,
	).Order("created_at DESC").First(&notification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

// UpdateGroup сохраняет слитое уведомление (message, metadata, updated_at)
func (r *NotificationRepositoryImpl) UpdateGroup(notification *models.Notification) error {
	result := r.db.Model(&models.Notification{}).
		Where("id = ?", notification.ID).
		Updates(map[string]interface{}{
			"message":  notification.Message,
			"metadata": notification.Metadata,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepositoryImpl) validateNotification(notification *models.Notification) error {
	if notification == nil {
		return ErrInvalidNotificationData
	}
	if notification.UserID == "" || notification.Type == "" || notification.Title == "" {
		return ErrInvalidNotificationData
	}
	return nil
}
