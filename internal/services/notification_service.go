package services

import (
	"context"
	"time"

	"surveyhub_backend/internal/logger"
	"surveyhub_backend/internal/models"
	"surveyhub_backend/internal/notify"
	"surveyhub_backend/internal/repositories"
	"surveyhub_backend/internal/services/dto"
	"surveyhub_backend/pkg/apperrors"
)

// DeliveryChannel - канал мгновенной доставки подключенным клиентам.
// Возвращает false, если получатель не подключен; это не ошибка.
type DeliveryChannel interface {
	SendToUser(userID string, event string, payload interface{}) bool
}

// Websocket-события, которые видит клиент
const (
	PushEventNew     = "notification:new"
	PushEventRead    = "notification:read"
	PushEventAllRead = "notification:all_read"
)

type NotificationService interface {
	// Продюсеры: кладут событие в очередь и сразу возвращаются
	NotifySurveyResponse(recipientID, surveyID, surveyTitle string, count int)
	NotifyAnalysisCompleted(recipientID, surveyID, surveyTitle string)
	NotifyWorkspaceInvitation(recipientID, workspaceID, workspaceName, actorName, token string)
	NotifyMemberAdded(recipientID, workspaceID, workspaceName, actorName string)
	NotifyRoleChangeRequest(recipientID, workspaceID, workspaceName, requesterName, requestedRole, requestingUserID string)
	NotifyGeneric(ev notify.GenericEvent)
	Enqueue(ev notify.Event)

	// Путь воркера: обработка одного события из очереди
	ProcessEvent(ctx context.Context, ev notify.Event) error

	// Операции над хранилищем
	GetUserNotifications(userID string, criteria dto.NotificationCriteria) (*dto.NotificationListResponse, error)
	GetUnreadNotifications(userID string) ([]dto.NotificationResponse, error)
	GetUnreadCount(userID string) (int64, error)
	MarkAsRead(userID, notificationID string) error
	MarkAllAsRead(userID string) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	queue            *notify.TaskQueue
	delivery         DeliveryChannel
	groupingWindow   time.Duration

	now func() time.Time
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	queue *notify.TaskQueue,
	delivery DeliveryChannel,
	groupingWindow time.Duration,
) NotificationService {
	if groupingWindow <= 0 {
		groupingWindow = time.Hour
	}
	return &notificationService{
		notificationRepo: notificationRepo,
		queue:            queue,
		delivery:         delivery,
		groupingWindow:   groupingWindow,
		now:              time.Now,
	}
}

// ---------------- Продюсеры ----------------

func (s *notificationService) Enqueue(ev notify.Event) {
	s.queue.Enqueue(ev)
}

func (s *notificationService) NotifySurveyResponse(recipientID, surveyID, surveyTitle string, count int) {
	s.queue.Enqueue(notify.ResponseCompletedEvent{
		RecipientID: recipientID,
		SurveyID:    surveyID,
		SurveyTitle: surveyTitle,
		Count:       count,
	})
}

func (s *notificationService) NotifyAnalysisCompleted(recipientID, surveyID, surveyTitle string) {
	s.queue.Enqueue(notify.AnalysisCompletedEvent{
		RecipientID: recipientID,
		SurveyID:    surveyID,
		SurveyTitle: surveyTitle,
	})
}

func (s *notificationService) NotifyWorkspaceInvitation(recipientID, workspaceID, workspaceName, actorName, token string) {
	s.queue.Enqueue(notify.WorkspaceInvitationEvent{
		RecipientID:   recipientID,
		WorkspaceID:   workspaceID,
		WorkspaceName: workspaceName,
		ActorName:     actorName,
		Token:         token,
	})
}

func (s *notificationService) NotifyMemberAdded(recipientID, workspaceID, workspaceName, actorName string) {
	s.queue.Enqueue(notify.MemberAddedEvent{
		RecipientID:   recipientID,
		WorkspaceID:   workspaceID,
		WorkspaceName: workspaceName,
		ActorName:     actorName,
	})
}

func (s *notificationService) NotifyRoleChangeRequest(recipientID, workspaceID, workspaceName, requesterName, requestedRole, requestingUserID string) {
	s.queue.Enqueue(notify.RoleChangeRequestEvent{
		RecipientID:      recipientID,
		WorkspaceID:      workspaceID,
		WorkspaceName:    workspaceName,
		RequesterName:    requesterName,
		RequestedRole:    requestedRole,
		RequestingUserID: requestingUserID,
	})
}

func (s *notificationService) NotifyGeneric(ev notify.GenericEvent) {
	s.queue.Enqueue(ev)
}

// ---------------- Путь воркера ----------------

// ProcessEvent обрабатывает одно событие: группируемые сливаются в
// существующее непрочитанное уведомление внутри окна, дискретные
// всегда создают новую запись. События неизвестного вида отбрасываются.
func (s *notificationService) ProcessEvent(ctx context.Context, ev notify.Event) error {
	switch e := ev.(type) {
	case notify.GroupableEvent:
		return s.processGroupable(ctx, e)
	case notify.DiscreteEvent:
		return s.processDiscrete(ctx, e)
	default:
		logger.CtxWarn(ctx, "unknown notification event, dropping",
			"type", string(ev.Kind()),
			"recipient", ev.Recipient(),
		)
		return nil
	}
}

func (s *notificationService) processGroupable(ctx context.Context, e notify.GroupableEvent) error {
	since := s.now().Add(-s.groupingWindow)

	existing, err := s.notificationRepo.FindGroupCandidate(e.Recipient(), e.Kind(), e.Subject(), since)
	if err != nil && err != repositories.ErrNotificationNotFound {
		return err
	}

	if existing != nil {
		newCount := existing.GroupCount() + e.Delta()
		existing.Message = e.GroupedMessage(newCount)
		if err := existing.SetGroupCount(newCount); err != nil {
			return err
		}
		if err := s.notificationRepo.UpdateGroup(existing); err != nil {
			return err
		}

		s.push(existing)
		logger.CtxInfo(ctx, "grouped notification updated",
			"notification_id", existing.ID,
			"recipient", e.Recipient(),
			"count", newCount,
		)
		return nil
	}

	notification, err := e.NewNotification()
	if err != nil {
		return err
	}
	if err := s.notificationRepo.CreateNotification(notification); err != nil {
		return err
	}

	s.push(notification)
	logger.CtxInfo(ctx, "notification created",
		"notification_id", notification.ID,
		"type", string(notification.Type),
		"recipient", notification.UserID,
	)
	return nil
}

func (s *notificationService) processDiscrete(ctx context.Context, e notify.DiscreteEvent) error {
	notification, err := e.Notification()
	if err != nil {
		return err
	}
	if err := s.notificationRepo.CreateNotification(notification); err != nil {
		return err
	}

	s.push(notification)
	logger.CtxInfo(ctx, "notification created",
		"notification_id", notification.ID,
		"type", string(notification.Type),
		"recipient", notification.UserID,
	)
	return nil
}

// push отправляет уведомление в websocket, если получатель подключен
func (s *notificationService) push(n *models.Notification) {
	if s.delivery == nil {
		return
	}
	s.delivery.SendToUser(n.UserID, PushEventNew, dto.NewPushPayload(n))
}

// ---------------- Операции над хранилищем ----------------

func (s *notificationService) GetUserNotifications(userID string, criteria dto.NotificationCriteria) (*dto.NotificationListResponse, error) {
	if criteria.Page < 1 {
		criteria.Page = 1
	}
	if criteria.PageSize < 1 || criteria.PageSize > 100 {
		criteria.PageSize = 20
	}

	notifications, total, err := s.notificationRepo.FindUserNotifications(userID, repositories.NotificationCriteria{
		UnreadOnly: criteria.UnreadOnly,
		Type:       criteria.Type,
		Page:       criteria.Page,
		PageSize:   criteria.PageSize,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	unreadCount, err := s.notificationRepo.GetUnreadCount(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		items = append(items, dto.NewNotificationResponse(&notifications[i]))
	}

	return &dto.NotificationListResponse{
		Notifications: items,
		Total:         total,
		UnreadCount:   unreadCount,
		Page:          criteria.Page,
		PageSize:      criteria.PageSize,
	}, nil
}

func (s *notificationService) GetUnreadNotifications(userID string) ([]dto.NotificationResponse, error) {
	notifications, err := s.notificationRepo.FindUnreadNotifications(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		items = append(items, dto.NewNotificationResponse(&notifications[i]))
	}
	return items, nil
}

func (s *notificationService) GetUnreadCount(userID string) (int64, error) {
	count, err := s.notificationRepo.GetUnreadCount(userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return count, nil
}

// MarkAsRead помечает уведомление прочитанным. Операция идемпотентна:
// повторный вызов не меняет read_at.
func (s *notificationService) MarkAsRead(userID, notificationID string) error {
	notification, err := s.notificationRepo.FindNotificationByID(notificationID)
	if err != nil {
		if err == repositories.ErrNotificationNotFound {
			return apperrors.ErrNotificationNotFound
		}
		return apperrors.InternalError(err)
	}

	if notification.UserID != userID {
		return apperrors.ErrNotificationAccessDenied
	}

	if err := s.notificationRepo.MarkAsRead(notificationID, s.now()); err != nil {
		return apperrors.InternalError(err)
	}

	if s.delivery != nil {
		s.delivery.SendToUser(userID, PushEventRead, map[string]string{"id": notificationID})
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(userID string) error {
	if err := s.notificationRepo.MarkAllAsRead(userID, s.now()); err != nil {
		return apperrors.InternalError(err)
	}

	if s.delivery != nil {
		s.delivery.SendToUser(userID, PushEventAllRead, map[string]string{})
	}
	return nil
}
