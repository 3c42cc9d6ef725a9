package dto

import (
	"time"

	"surveyhub_backend/internal/models"
)

// NotificationCriteria - параметры листинга уведомлений
type NotificationCriteria struct {
	UnreadOnly bool   `form:"unread_only"`
	Type       string `form:"type" validate:"omitempty,is-notification-type"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// NotificationResponse - уведомление в ответе API
type NotificationResponse struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	RelatedID   *string    `json:"related_id,omitempty"`
	RelatedType string     `json:"related_type,omitempty"`
	ActionURL   string     `json:"action_url,omitempty"`
	Metadata    any        `json:"metadata,omitempty"`
	IsRead      bool       `json:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NotificationListResponse - страница уведомлений
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int64                  `json:"total"`
	UnreadCount   int64                  `json:"unread_count"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"page_size"`
}

// PushPayload - полезная нагрузка websocket-события notification:new
type PushPayload struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	ActionURL string `json:"action_url"`
	IsRead    bool   `json:"is_read"`
}

// NewNotificationResponse конвертирует модель в DTO
func NewNotificationResponse(n *models.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:          n.ID,
		Type:        string(n.Type),
		Title:       n.Title,
		Message:     n.Message,
		RelatedID:   n.RelatedID,
		RelatedType: string(n.RelatedType),
		ActionURL:   n.ActionURL,
		IsRead:      n.IsRead,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
	if len(n.Metadata) > 0 {
		resp.Metadata = n.Metadata
	}
	return resp
}

// NewPushPayload строит payload для websocket-доставки
func NewPushPayload(n *models.Notification) PushPayload {
	return PushPayload{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		ActionURL: n.ActionURL,
		IsRead:    n.IsRead,
	}
}
