package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"surveyhub_backend/internal/models"
	"surveyhub_backend/internal/notify"
	"surveyhub_backend/internal/repositories"
	"surveyhub_backend/internal/services/dto"
	"surveyhub_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------- Фейки ----------------

type fakeNotificationRepo struct {
	notifications []*models.Notification
	seq           int
	now           func() time.Time

	failCreate bool
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{now: time.Now}
}

func (f *fakeNotificationRepo) CreateNotification(n *models.Notification) error {
	if f.failCreate {
		return fmt.Errorf("db down")
	}
	if n.UserID == "" || n.Type == "" || n.Title == "" {
		return repositories.ErrInvalidNotificationData
	}
	f.seq++
	n.ID = fmt.Sprintf("n-%d", f.seq)
	n.CreatedAt = f.now()
	n.UpdatedAt = n.CreatedAt
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeNotificationRepo) FindNotificationByID(id string) (*models.Notification, error) {
	for _, n := range f.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, repositories.ErrNotificationNotFound
}

func (f *fakeNotificationRepo) FindUserNotifications(userID string, criteria repositories.NotificationCriteria) ([]models.Notification, int64, error) {
	var matched []*models.Notification
	for _, n := range f.notifications {
		if n.UserID != userID {
			continue
		}
		if criteria.UnreadOnly && n.IsRead {
			continue
		}
		if criteria.Type != "" && string(n.Type) != criteria.Type {
			continue
		}
		matched = append(matched, n)
	}

	// is_read ASC, created_at DESC
	for i := 0; i < len(matched); i++ {
		for j := i + 1; j < len(matched); j++ {
			a, b := matched[i], matched[j]
			swap := false
			if a.IsRead != b.IsRead {
				swap = a.IsRead && !b.IsRead
			} else {
				swap = a.CreatedAt.Before(b.CreatedAt)
			}
			if swap {
				matched[i], matched[j] = matched[j], matched[i]
			}
		}
	}

	total := int64(len(matched))
	start := (criteria.Page - 1) * criteria.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + criteria.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]models.Notification, 0, end-start)
	for _, n := range matched[start:end] {
		page = append(page, *n)
	}
	return page, total, nil
}

func (f *fakeNotificationRepo) FindUnreadNotifications(userID string) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.notifications {
		if n.UserID == userID && !n.IsRead {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) GetUnreadCount(userID string) (int64, error) {
	var count int64
	for _, n := range f.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkAsRead(id string, readAt time.Time) error {
	for _, n := range f.notifications {
		if n.ID == id {
			if !n.IsRead {
				n.IsRead = true
				t := readAt
				n.ReadAt = &t
			}
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

func (f *fakeNotificationRepo) MarkAllAsRead(userID string, readAt time.Time) error {
	for _, n := range f.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			t := readAt
			n.ReadAt = &t
		}
	}
	return nil
}

func (f *fakeNotificationRepo) FindGroupCandidate(userID string, notificationType models.NotificationType, relatedID string, since time.Time) (*models.Notification, error) {
	var best *models.Notification
	for _, n := range f.notifications {
		if n.UserID != userID || n.Type != notificationType || n.IsRead {
			continue
		}
		if n.RelatedID == nil || *n.RelatedID != relatedID {
			continue
		}
		if !n.CreatedAt.After(since) {
			continue
		}
		if best == nil || n.CreatedAt.After(best.CreatedAt) {
			best = n
		}
	}
	if best == nil {
		return nil, repositories.ErrNotificationNotFound
	}
	return best, nil
}

func (f *fakeNotificationRepo) UpdateGroup(n *models.Notification) error {
	for _, existing := range f.notifications {
		if existing.ID == n.ID {
			existing.Message = n.Message
			existing.Metadata = n.Metadata
			existing.UpdatedAt = f.now()
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}

type pushRecord struct {
	UserID  string
	Event   string
	Payload interface{}
}

type fakeDelivery struct {
	pushes []pushRecord
}

func (f *fakeDelivery) SendToUser(userID string, event string, payload interface{}) bool {
	f.pushes = append(f.pushes, pushRecord{UserID: userID, Event: event, Payload: payload})
	return true
}

func newTestService(t *testing.T) (*notificationService, *fakeNotificationRepo, *fakeDelivery, *notify.TaskQueue) {
	t.Helper()

	repo := newFakeNotificationRepo()
	delivery := &fakeDelivery{}
	queue := notify.NewTaskQueue(100)

	svc := NewNotificationService(repo, queue, delivery, time.Hour).(*notificationService)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	repo.now = func() time.Time { return base }

	return svc, repo, delivery, queue
}

// setClock сдвигает часы сервиса и фейкового репозитория
func setClock(svc *notificationService, repo *fakeNotificationRepo, at time.Time) {
	svc.now = func() time.Time { return at }
	repo.now = func() time.Time { return at }
}

// ---------------- Группировка ----------------

func TestProcessEvent_CreatesFirstNotification(t *testing.T) {
	svc, repo, delivery, _ := newTestService(t)

	err := svc.ProcessEvent(context.Background(), notify.ResponseCompletedEvent{
		RecipientID: "creator-1",
		SurveyID:    "survey-1",
	})
	require.NoError(t, err)

	require.Len(t, repo.notifications, 1)
	n := repo.notifications[0]
	assert.Equal(t, "creator-1", n.UserID)
	assert.Equal(t, models.NotificationResponseCompleted, n.Type)
	assert.Equal(t, "New Survey Response", n.Title)
	assert.Equal(t, "You have received 1 new response(s)", n.Message)
	assert.Equal(t, "/surveys/survey-1/results", n.ActionURL)
	assert.Equal(t, 1, n.GroupCount())
	assert.False(t, n.IsRead)

	require.Len(t, delivery.pushes, 1)
	assert.Equal(t, PushEventNew, delivery.pushes[0].Event)
	assert.Equal(t, "creator-1", delivery.pushes[0].UserID)
}

func TestProcessEvent_GroupsWithinWindow(t *testing.T) {
	svc, repo, delivery, _ := newTestService(t)
	ctx := context.Background()

	ev := notify.ResponseCompletedEvent{RecipientID: "creator-1", SurveyID: "survey-1"}
	require.NoError(t, svc.ProcessEvent(ctx, ev))
	require.NoError(t, svc.ProcessEvent(ctx, ev))
	require.NoError(t, svc.ProcessEvent(ctx, ev))

	// Три события, одна запись
	require.Len(t, repo.notifications, 1)
	n := repo.notifications[0]
	assert.Equal(t, 3, n.GroupCount())
	assert.Equal(t, "You have received 3 new responses", n.Message)

	// Каждое слияние тоже доставляется
	assert.Len(t, delivery.pushes, 3)
}

func TestProcessEvent_ReadNotificationNotGrouped(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	ev := notify.ResponseCompletedEvent{RecipientID: "creator-1", SurveyID: "survey-1"}
	require.NoError(t, svc.ProcessEvent(ctx, ev))
	require.NoError(t, svc.MarkAsRead("creator-1", repo.notifications[0].ID))

	require.NoError(t, svc.ProcessEvent(ctx, ev))

	require.Len(t, repo.notifications, 2)
	assert.Equal(t, 1, repo.notifications[1].GroupCount())
}

func TestProcessEvent_OutsideWindowCreatesNew(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	ev := notify.ResponseCompletedEvent{RecipientID: "creator-1", SurveyID: "survey-1"}
	require.NoError(t, svc.ProcessEvent(ctx, ev))

	// Спустя больше часа то же событие не сливается со старой записью
	setClock(svc, repo, svc.now().Add(2*time.Hour))
	require.NoError(t, svc.ProcessEvent(ctx, ev))

	require.Len(t, repo.notifications, 2)
}

func TestProcessEvent_DifferentSubjectNotGrouped(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.ProcessEvent(ctx, notify.ResponseCompletedEvent{
		RecipientID: "creator-1", SurveyID: "survey-1",
	}))
	require.NoError(t, svc.ProcessEvent(ctx, notify.ResponseCompletedEvent{
		RecipientID: "creator-1", SurveyID: "survey-2",
	}))

	require.Len(t, repo.notifications, 2)
}

func TestProcessEvent_CountSumPreserved(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.ProcessEvent(ctx, notify.ResponseCompletedEvent{
		RecipientID: "creator-1", SurveyID: "survey-1", Count: 2,
	}))
	require.NoError(t, svc.ProcessEvent(ctx, notify.ResponseCompletedEvent{
		RecipientID: "creator-1", SurveyID: "survey-1", Count: 3,
	}))

	require.Len(t, repo.notifications, 1)
	assert.Equal(t, 5, repo.notifications[0].GroupCount())
}

// ---------------- Дискретные события ----------------

func TestProcessEvent_DiscreteAlwaysCreates(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	ev := notify.AnalysisCompletedEvent{
		RecipientID: "creator-1",
		SurveyID:    "survey-1",
		SurveyTitle: "Customer Poll",
	}
	require.NoError(t, svc.ProcessEvent(ctx, ev))
	require.NoError(t, svc.ProcessEvent(ctx, ev))

	require.Len(t, repo.notifications, 2)
	n := repo.notifications[0]
	assert.Equal(t, "Analysis Completed", n.Title)
	assert.Equal(t, `AI Analysis for "Customer Poll" is ready.`, n.Message)
	assert.Equal(t, "/surveys/survey-1/analytics", n.ActionURL)
}

func TestProcessEvent_WorkspaceEvents(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.ProcessEvent(ctx, notify.MemberAddedEvent{
		RecipientID:   "user-1",
		WorkspaceID:   "ws-1",
		WorkspaceName: "Research",
		ActorName:     "Alice",
	}))
	require.NoError(t, svc.ProcessEvent(ctx, notify.RoleChangeRequestEvent{
		RecipientID:   "owner-1",
		WorkspaceID:   "ws-1",
		WorkspaceName: "Research",
		RequesterName: "Bob",
		RequestedRole: "collaborator",
	}))

	require.Len(t, repo.notifications, 2)
	assert.Equal(t, "Added to Workspace", repo.notifications[0].Title)
	assert.Equal(t, `Alice added you to "Research"`, repo.notifications[0].Message)
	assert.Equal(t, "/workspaces/ws-1", repo.notifications[0].ActionURL)

	assert.Equal(t, "Promotion Request", repo.notifications[1].Title)
	assert.Equal(t, `Bob has requested to be promoted to collaborator in "Research"`, repo.notifications[1].Message)
	assert.Equal(t, "/notifications", repo.notifications[1].ActionURL)
}

type strangeEvent struct{}

func (strangeEvent) Kind() models.NotificationType { return "strange" }
func (strangeEvent) Recipient() string             { return "user-1" }

func TestProcessEvent_UnknownEventDropped(t *testing.T) {
	svc, repo, delivery, _ := newTestService(t)

	err := svc.ProcessEvent(context.Background(), strangeEvent{})

	assert.NoError(t, err)
	assert.Empty(t, repo.notifications)
	assert.Empty(t, delivery.pushes)
}

func TestProcessEvent_RepositoryErrorPropagates(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	repo.failCreate = true

	err := svc.ProcessEvent(context.Background(), notify.ResponseCompletedEvent{
		RecipientID: "creator-1", SurveyID: "survey-1",
	})

	assert.Error(t, err)
}

// ---------------- Продюсеры ----------------

func TestProducers_EnqueueWithoutBlocking(t *testing.T) {
	svc, repo, _, queue := newTestService(t)

	svc.NotifySurveyResponse("creator-1", "survey-1", "Poll", 1)
	svc.NotifyAnalysisCompleted("creator-1", "survey-1", "Poll")
	svc.NotifyWorkspaceInvitation("user-1", "ws-1", "Research", "Alice", "tok")
	svc.NotifyMemberAdded("user-1", "ws-1", "Research", "Alice")
	svc.NotifyRoleChangeRequest("owner-1", "ws-1", "Research", "Bob", "collaborator", "user-2")
	svc.NotifyGeneric(notify.GenericEvent{
		RecipientID: "user-1",
		Type:        models.NotificationSystemAlert,
		Title:       "Maintenance",
		Message:     "Scheduled maintenance tonight",
	})

	// Продюсеры только кладут в очередь, записи появляются после воркера
	assert.Empty(t, repo.notifications)
	assert.Equal(t, 6, queue.Len())
}

// ---------------- Чтение и прочитанность ----------------

func TestMarkAsRead_Idempotent(t *testing.T) {
	svc, repo, delivery, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.ProcessEvent(ctx, notify.ResponseCompletedEvent{
		RecipientID: "creator-1", SurveyID: "survey-1",
	}))
	id := repo.notifications[0].ID

	require.NoError(t, svc.MarkAsRead("creator-1", id))
	firstReadAt := *repo.notifications[0].ReadAt

	// Повторное прочтение не двигает read_at
	setClock(svc, repo, svc.now().Add(30*time.Minute))
	require.NoError(t, svc.MarkAsRead("creator-1", id))

	assert.True(t, repo.notifications[0].IsRead)
	assert.Equal(t, firstReadAt, *repo.notifications[0].ReadAt)

	// Push о прочтении уходит клиенту
	last := delivery.pushes[len(delivery.pushes)-1]
	assert.Equal(t, PushEventRead, last.Event)
}

func TestMarkAsRead_WrongOwnerDenied(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.ProcessEvent(ctx, notify.ResponseCompletedEvent{
		RecipientID: "creator-1", SurveyID: "survey-1",
	}))

	err := svc.MarkAsRead("intruder", repo.notifications[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrNotificationAccessDenied)
	assert.False(t, repo.notifications[0].IsRead)
}

func TestMarkAsRead_NotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.MarkAsRead("creator-1", "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)
}

func TestMarkAllAsRead(t *testing.T) {
	svc, repo, delivery, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.ProcessEvent(ctx, notify.AnalysisCompletedEvent{
		RecipientID: "creator-1", SurveyID: "survey-1", SurveyTitle: "A",
	}))
	require.NoError(t, svc.ProcessEvent(ctx, notify.AnalysisCompletedEvent{
		RecipientID: "creator-1", SurveyID: "survey-2", SurveyTitle: "B",
	}))

	require.NoError(t, svc.MarkAllAsRead("creator-1"))

	for _, n := range repo.notifications {
		assert.True(t, n.IsRead)
		assert.NotNil(t, n.ReadAt)
	}
	last := delivery.pushes[len(delivery.pushes)-1]
	assert.Equal(t, PushEventAllRead, last.Event)
}

// ---------------- Листинг ----------------

func TestGetUserNotifications_UnreadFirst(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.ProcessEvent(ctx, notify.AnalysisCompletedEvent{
		RecipientID: "creator-1", SurveyID: "survey-1", SurveyTitle: "A",
	}))
	require.NoError(t, svc.MarkAsRead("creator-1", repo.notifications[0].ID))

	setClock(svc, repo, svc.now().Add(time.Minute))
	require.NoError(t, svc.ProcessEvent(ctx, notify.AnalysisCompletedEvent{
		RecipientID: "creator-1", SurveyID: "survey-2", SurveyTitle: "B",
	}))

	resp, err := svc.GetUserNotifications("creator-1", dto.NotificationCriteria{Page: 1, PageSize: 10})
	require.NoError(t, err)

	require.Len(t, resp.Notifications, 2)
	assert.False(t, resp.Notifications[0].IsRead)
	assert.True(t, resp.Notifications[1].IsRead)
	assert.Equal(t, int64(2), resp.Total)
	assert.Equal(t, int64(1), resp.UnreadCount)
}

func TestGetUserNotifications_Pagination(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.ProcessEvent(ctx, notify.AnalysisCompletedEvent{
			RecipientID: "creator-1",
			SurveyID:    fmt.Sprintf("survey-%d", i),
			SurveyTitle: "Poll",
		}))
	}

	resp, err := svc.GetUserNotifications("creator-1", dto.NotificationCriteria{Page: 2, PageSize: 2})
	require.NoError(t, err)

	assert.Len(t, resp.Notifications, 2)
	assert.Equal(t, int64(5), resp.Total)
	assert.Equal(t, 2, resp.Page)
}

func TestGetUnreadCount(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.ProcessEvent(ctx, notify.AnalysisCompletedEvent{
		RecipientID: "creator-1", SurveyID: "survey-1", SurveyTitle: "A",
	}))
	require.NoError(t, svc.ProcessEvent(ctx, notify.AnalysisCompletedEvent{
		RecipientID: "creator-1", SurveyID: "survey-2", SurveyTitle: "B",
	}))
	require.NoError(t, svc.MarkAsRead("creator-1", repo.notifications[0].ID))

	count, err := svc.GetUnreadCount("creator-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// ---------------- Доставка ----------------

func TestPushPayloadShape(t *testing.T) {
	svc, _, delivery, _ := newTestService(t)

	require.NoError(t, svc.ProcessEvent(context.Background(), notify.ResponseCompletedEvent{
		RecipientID: "creator-1", SurveyID: "survey-1",
	}))

	require.Len(t, delivery.pushes, 1)
	payload, ok := delivery.pushes[0].Payload.(dto.PushPayload)
	require.True(t, ok)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	for _, key := range []string{"id", "type", "title", "message", "action_url", "is_read"} {
		assert.Contains(t, decoded, key)
	}
	assert.Equal(t, false, decoded["is_read"])
	assert.Equal(t, "response_completed", decoded["type"])
}
