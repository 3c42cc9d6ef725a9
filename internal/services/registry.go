package services

import (
	"time"

	"surveyhub_backend/internal/notify"
	"surveyhub_backend/internal/repositories"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	NotificationService NotificationService
}

// NewServiceContainer собирает сервисы из репозиториев и инфраструктуры.
func NewServiceContainer(
	notificationRepo repositories.NotificationRepository,
	queue *notify.TaskQueue,
	delivery DeliveryChannel,
	groupingWindow time.Duration,
) *ServiceContainer {
	return &ServiceContainer{
		NotificationService: NewNotificationService(notificationRepo, queue, delivery, groupingWindow),
	}
}
