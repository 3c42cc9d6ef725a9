package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	BaseModel
	UserID      string           `gorm:"type:uuid;not null;index"`
	Type        NotificationType `gorm:"type:varchar(40);not null"`
	Title       string           `gorm:"not null"`
	Message     string
	RelatedID   *string        `gorm:"type:uuid;index"` // ID связанного объекта (опрос, пространство)
	RelatedType RelatedType    `gorm:"type:varchar(20)"`
	ActionURL   string         `gorm:"column:action_url;type:varchar(500)"`
	Metadata    datatypes.JSON `gorm:"type:jsonb"`
	IsRead      bool           `gorm:"default:false;index"`
	ReadAt      *time.Time
}

// ReminderLog - персистентный маркер "напоминание уже отправлено".
// Одна запись на пару (опрос, получатель), чтобы пропущенный или
// задвоенный тик сканера не приводил к повторному напоминанию.
type ReminderLog struct {
	BaseModel
	SurveyID string    `gorm:"type:uuid;not null;index:idx_reminder_survey_user,unique"`
	UserID   string    `gorm:"type:uuid;not null;index:idx_reminder_survey_user,unique"`
	SentAt   time.Time `gorm:"not null"`
}

// --- Типизированные метаданные по видам уведомлений ---
// Вне этого пакета jsonb-колонка не читается как map.

// GroupMetadata - метаданные группируемого уведомления
type GroupMetadata struct {
	Count int `json:"count"`
}

// ReminderMetadata - метаданные напоминания о дедлайне
type ReminderMetadata struct {
	Deadline       time.Time `json:"deadline"`
	HoursRemaining int       `json:"hours_remaining"`
}

// AnalysisMetadata - метаданные завершенного анализа
type AnalysisMetadata struct {
	SurveyTitle string `json:"survey_title"`
	SubType     string `json:"sub_type,omitempty"`
}

// WorkspaceMetadata - метаданные событий рабочего пространства
type WorkspaceMetadata struct {
	Token            string `json:"token,omitempty"`
	RequestedRole    string `json:"requested_role,omitempty"`
	RequestingUserID string `json:"requesting_user_id,omitempty"`
	ActorName        string `json:"actor_name,omitempty"`
}

// MarshalMetadata сериализует типизированные метаданные в jsonb-колонку
func MarshalMetadata(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// GroupCount читает счетчик из метаданных группируемого уведомления.
// Отсутствующие или нечитаемые метаданные считаются за 1 (одиночное уведомление).
func (n *Notification) GroupCount() int {
	if len(n.Metadata) == 0 {
		return 1
	}
	var meta GroupMetadata
	if err := json.Unmarshal(n.Metadata, &meta); err != nil || meta.Count <= 0 {
		return 1
	}
	return meta.Count
}

// SetGroupCount записывает счетчик в метаданные
func (n *Notification) SetGroupCount(count int) error {
	raw, err := MarshalMetadata(GroupMetadata{Count: count})
	if err != nil {
		return err
	}
	n.Metadata = raw
	return nil
}
