package notify

import (
	"fmt"

	"surveyhub_backend/internal/models"
)

// Event - элемент очереди уведомлений.
type Event interface {
	Kind() models.NotificationType
	Recipient() string
}

// GroupableEvent - событие, которое схлопывается в существующее
// непрочитанное уведомление того же получателя и субъекта внутри
// окна группировки. Субъект + тип + получатель образуют ключ группы.
type GroupableEvent interface {
	Event
	Subject() string
	// Delta - сколько единиц событие добавляет в счетчик группы
	Delta() int
	// NewNotification строит первую запись группы
	NewNotification() (*models.Notification, error)
	// GroupedMessage - текст уведомления после слияния
	GroupedMessage(count int) string
}

// DiscreteEvent - событие, которое всегда создает отдельную запись.
type DiscreteEvent interface {
	Event
	Notification() (*models.Notification, error)
}

// --- Конкретные события ---

// ResponseCompletedEvent - кто-то завершил прохождение опроса.
// Единственный группируемый вид.
type ResponseCompletedEvent struct {
	RecipientID string
	SurveyID    string
	SurveyTitle string
	Count       int // 0 трактуется как 1
}

func (e ResponseCompletedEvent) Kind() models.NotificationType {
	return models.NotificationResponseCompleted
}
func (e ResponseCompletedEvent) Recipient() string { return e.RecipientID }
func (e ResponseCompletedEvent) Subject() string   { return e.SurveyID }

func (e ResponseCompletedEvent) Delta() int {
	if e.Count <= 0 {
		return 1
	}
	return e.Count
}

func (e ResponseCompletedEvent) NewNotification() (*models.Notification, error) {
	surveyID := e.SurveyID
	n := &models.Notification{
		UserID:      e.RecipientID,
		Type:        models.NotificationResponseCompleted,
		Title:       "New Survey Response",
		Message:     fmt.Sprintf("You have received %d new response(s)", e.Delta()),
		RelatedID:   &surveyID,
		RelatedType: models.RelatedSurvey,
		ActionURL:   fmt.Sprintf("/surveys/%s/results", e.SurveyID),
	}
	if err := n.SetGroupCount(e.Delta()); err != nil {
		return nil, err
	}
	return n, nil
}

func (e ResponseCompletedEvent) GroupedMessage(count int) string {
	return fmt.Sprintf("You have received %d new responses", count)
}

// AnalysisCompletedEvent - AI-анализ опроса готов.
type AnalysisCompletedEvent struct {
	RecipientID string
	SurveyID    string
	SurveyTitle string
}

func (e AnalysisCompletedEvent) Kind() models.NotificationType {
	return models.NotificationAnalysisCompleted
}
func (e AnalysisCompletedEvent) Recipient() string { return e.RecipientID }

func (e AnalysisCompletedEvent) Notification() (*models.Notification, error) {
	surveyID := e.SurveyID
	meta, err := models.MarshalMetadata(models.AnalysisMetadata{
		SurveyTitle: e.SurveyTitle,
		SubType:     "analysis_completed",
	})
	if err != nil {
		return nil, err
	}
	return &models.Notification{
		UserID:      e.RecipientID,
		Type:        models.NotificationAnalysisCompleted,
		Title:       "Analysis Completed",
		Message:     fmt.Sprintf("AI Analysis for \"%s\" is ready.", e.SurveyTitle),
		RelatedID:   &surveyID,
		RelatedType: models.RelatedSurvey,
		ActionURL:   fmt.Sprintf("/surveys/%s/analytics", e.SurveyID),
		Metadata:    meta,
	}, nil
}

// DeadlineReminderEvent - до дедлайна опроса осталось меньше суток.
type DeadlineReminderEvent struct {
	RecipientID string
	SurveyID    string
	SurveyTitle string
	Deadline    models.ReminderMetadata
}

func (e DeadlineReminderEvent) Kind() models.NotificationType {
	return models.NotificationDeadlineReminder
}
func (e DeadlineReminderEvent) Recipient() string { return e.RecipientID }

func (e DeadlineReminderEvent) Notification() (*models.Notification, error) {
	surveyID := e.SurveyID
	meta, err := models.MarshalMetadata(e.Deadline)
	if err != nil {
		return nil, err
	}
	return &models.Notification{
		UserID:      e.RecipientID,
		Type:        models.NotificationDeadlineReminder,
		Title:       "Survey Due Soon",
		Message:     fmt.Sprintf("The survey \"%s\" is due in less than 24 hours.", e.SurveyTitle),
		RelatedID:   &surveyID,
		RelatedType: models.RelatedSurvey,
		ActionURL:   "/surveys?filter=pending",
		Metadata:    meta,
	}, nil
}

// WorkspaceInvitationEvent - приглашение в рабочее пространство.
type WorkspaceInvitationEvent struct {
	RecipientID   string
	WorkspaceID   string
	WorkspaceName string
	ActorName     string
	Token         string
}

func (e WorkspaceInvitationEvent) Kind() models.NotificationType {
	return models.NotificationWorkspaceInvitation
}
func (e WorkspaceInvitationEvent) Recipient() string { return e.RecipientID }

func (e WorkspaceInvitationEvent) Notification() (*models.Notification, error) {
	workspaceID := e.WorkspaceID
	meta, err := models.MarshalMetadata(models.WorkspaceMetadata{
		Token:     e.Token,
		ActorName: e.ActorName,
	})
	if err != nil {
		return nil, err
	}
	return &models.Notification{
		UserID:      e.RecipientID,
		Type:        models.NotificationWorkspaceInvitation,
		Title:       "Workspace Invitation",
		Message:     fmt.Sprintf("%s invited you to \"%s\"", e.ActorName, e.WorkspaceName),
		RelatedID:   &workspaceID,
		RelatedType: models.RelatedWorkspace,
		ActionURL:   "/invitations",
		Metadata:    meta,
	}, nil
}

// MemberAddedEvent - пользователя добавили в рабочее пространство напрямую.
type MemberAddedEvent struct {
	RecipientID   string
	WorkspaceID   string
	WorkspaceName string
	ActorName     string
}

func (e MemberAddedEvent) Kind() models.NotificationType {
	return models.NotificationWorkspaceMemberAdded
}
func (e MemberAddedEvent) Recipient() string { return e.RecipientID }

func (e MemberAddedEvent) Notification() (*models.Notification, error) {
	workspaceID := e.WorkspaceID
	meta, err := models.MarshalMetadata(models.WorkspaceMetadata{ActorName: e.ActorName})
	if err != nil {
		return nil, err
	}
	return &models.Notification{
		UserID:      e.RecipientID,
		Type:        models.NotificationWorkspaceMemberAdded,
		Title:       "Added to Workspace",
		Message:     fmt.Sprintf("%s added you to \"%s\"", e.ActorName, e.WorkspaceName),
		RelatedID:   &workspaceID,
		RelatedType: models.RelatedWorkspace,
		ActionURL:   fmt.Sprintf("/workspaces/%s", e.WorkspaceID),
		Metadata:    meta,
	}, nil
}

// RoleChangeRequestEvent - участник просит повышения роли, получатель - владелец.
type RoleChangeRequestEvent struct {
	RecipientID      string
	WorkspaceID      string
	WorkspaceName    string
	RequesterName    string
	RequestedRole    string
	RequestingUserID string
}

func (e RoleChangeRequestEvent) Kind() models.NotificationType {
	return models.NotificationRoleChangeRequest
}
func (e RoleChangeRequestEvent) Recipient() string { return e.RecipientID }

func (e RoleChangeRequestEvent) Notification() (*models.Notification, error) {
	workspaceID := e.WorkspaceID
	meta, err := models.MarshalMetadata(models.WorkspaceMetadata{
		RequestedRole:    e.RequestedRole,
		RequestingUserID: e.RequestingUserID,
	})
	if err != nil {
		return nil, err
	}
	return &models.Notification{
		UserID:      e.RecipientID,
		Type:        models.NotificationRoleChangeRequest,
		Title:       "Promotion Request",
		Message:     fmt.Sprintf("%s has requested to be promoted to %s in \"%s\"", e.RequesterName, e.RequestedRole, e.WorkspaceName),
		RelatedID:   &workspaceID,
		RelatedType: models.RelatedWorkspace,
		ActionURL:   "/notifications",
		Metadata:    meta,
	}, nil
}

// GenericEvent - произвольное уведомление с готовыми полями.
type GenericEvent struct {
	RecipientID string
	Type        models.NotificationType
	Title       string
	Message     string
	RelatedID   string
	RelatedType models.RelatedType
	ActionURL   string
}

func (e GenericEvent) Kind() models.NotificationType { return e.Type }
func (e GenericEvent) Recipient() string             { return e.RecipientID }

func (e GenericEvent) Notification() (*models.Notification, error) {
	n := &models.Notification{
		UserID:      e.RecipientID,
		Type:        e.Type,
		Title:       e.Title,
		Message:     e.Message,
		RelatedType: e.RelatedType,
		ActionURL:   e.ActionURL,
	}
	if e.RelatedID != "" {
		relatedID := e.RelatedID
		n.RelatedID = &relatedID
	}
	return n, nil
}
