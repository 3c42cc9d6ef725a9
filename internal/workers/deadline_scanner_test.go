package workers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"surveyhub_backend/internal/models"
	"surveyhub_backend/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------- Фейки ----------------

type fakeSurveyRepo struct {
	surveys  []models.Survey
	lastFrom time.Time
	lastTo   time.Time
	err      error
}

func (f *fakeSurveyRepo) FindExpiringBetween(from, to time.Time) ([]models.Survey, error) {
	f.lastFrom, f.lastTo = from, to
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Survey
	for _, s := range f.surveys {
		if s.EndDate == nil || s.Status != models.SurveyStatusPublished || !s.IsActive {
			continue
		}
		if !s.EndDate.Before(from) && s.EndDate.Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeWorkspaceRepo struct {
	members map[string][]string
	errFor  map[string]error
}

func (f *fakeWorkspaceRepo) FindAcceptedMemberIDs(workspaceID string) ([]string, error) {
	if err, ok := f.errFor[workspaceID]; ok {
		return nil, err
	}
	return f.members[workspaceID], nil
}

type fakeResponseRepo struct {
	responded map[string][]string
}

func (f *fakeResponseRepo) FindCompletedResponderIDs(surveyID string) ([]string, error) {
	return f.responded[surveyID], nil
}

type fakeReminderRepo struct {
	mu     sync.Mutex
	sent   map[string]bool
	hasErr map[string]error
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{sent: make(map[string]bool), hasErr: make(map[string]error)}
}

func reminderKey(surveyID, userID string) string {
	return surveyID + "|" + userID
}

func (f *fakeReminderRepo) HasReminder(surveyID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.hasErr[reminderKey(surveyID, userID)]; ok {
		return false, err
	}
	return f.sent[reminderKey(surveyID, userID)], nil
}

func (f *fakeReminderRepo) CreateReminderLog(log *models.ReminderLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[reminderKey(log.SurveyID, log.UserID)] = true
	return nil
}

type fakeUserRepo struct{}

func (fakeUserRepo) FindUserByID(id string) (*models.User, error) {
	return &models.User{Email: id + "@example.com"}, nil
}

type recordingEnqueuer struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingEnqueuer) Enqueue(ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingEnqueuer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recordingEnqueuer) recipients() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		out = append(out, ev.Recipient())
	}
	return out
}

// ---------------- Сборка ----------------

type scannerFixture struct {
	scanner   *DeadlineScanner
	surveys   *fakeSurveyRepo
	workspace *fakeWorkspaceRepo
	responses *fakeResponseRepo
	reminders *fakeReminderRepo
	enqueuer  *recordingEnqueuer
	now       time.Time
}

func newScannerFixture(t *testing.T) *scannerFixture {
	t.Helper()

	f := &scannerFixture{
		surveys:   &fakeSurveyRepo{},
		workspace: &fakeWorkspaceRepo{members: make(map[string][]string), errFor: make(map[string]error)},
		responses: &fakeResponseRepo{responded: make(map[string][]string)},
		reminders: newFakeReminderRepo(),
		enqueuer:  &recordingEnqueuer{},
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	f.scanner = NewDeadlineScanner(
		f.surveys,
		f.workspace,
		f.responses,
		f.reminders,
		fakeUserRepo{},
		f.enqueuer,
		nil,
		time.Hour,
		24*time.Hour,
	)
	f.scanner.now = func() time.Time { return f.now }
	return f
}

func (f *scannerFixture) addSurvey(id, workspaceID string, endsIn time.Duration) {
	end := f.now.Add(endsIn)
	wsID := workspaceID
	survey := models.Survey{
		Title:      "Survey " + id,
		Status:     models.SurveyStatusPublished,
		AccessType: models.SurveyAccessInternal,
		IsActive:   true,
		EndDate:    &end,
	}
	survey.ID = id
	if workspaceID != "" {
		survey.WorkspaceID = &wsID
	}
	f.surveys.surveys = append(f.surveys.surveys, survey)
}

// ---------------- Тесты ----------------

func TestCheckDeadlines_RemindsPendingMembers(t *testing.T) {
	f := newScannerFixture(t)
	f.addSurvey("survey-1", "ws-1", 23*time.Hour+30*time.Minute)
	f.workspace.members["ws-1"] = []string{"u1", "u2", "u3"}
	f.responses.responded["survey-1"] = []string{"u2"}

	f.scanner.CheckDeadlines(context.Background())

	// Напоминания только тем, кто принял приглашение и еще не ответил
	assert.ElementsMatch(t, []string{"u1", "u3"}, f.enqueuer.recipients())

	ev, ok := f.enqueuer.events[0].(notify.DeadlineReminderEvent)
	require.True(t, ok)
	assert.Equal(t, "survey-1", ev.SurveyID)
	assert.Equal(t, "Survey survey-1", ev.SurveyTitle)
	assert.Equal(t, 23, ev.Deadline.HoursRemaining)

	// Отметки об отправке записаны
	sent, err := f.reminders.HasReminder("survey-1", "u1")
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestCheckDeadlines_WindowBounds(t *testing.T) {
	f := newScannerFixture(t)
	// Дедлайн ровно через 24 часа еще не попадает в окно
	f.addSurvey("survey-late", "ws-1", 24*time.Hour)
	// Дедлайн ровно через 23 часа - нижняя граница, попадает
	f.addSurvey("survey-edge", "ws-1", 23*time.Hour)
	// Дедлайн раньше окна
	f.addSurvey("survey-soon", "ws-1", 10*time.Hour)
	f.workspace.members["ws-1"] = []string{"u1"}

	f.scanner.CheckDeadlines(context.Background())

	assert.Equal(t, f.now.Add(23*time.Hour), f.surveys.lastFrom)
	assert.Equal(t, f.now.Add(24*time.Hour), f.surveys.lastTo)

	require.Equal(t, 1, f.enqueuer.count())
	ev := f.enqueuer.events[0].(notify.DeadlineReminderEvent)
	assert.Equal(t, "survey-edge", ev.SurveyID)
}

func TestCheckDeadlines_SkipsPublicAndOrphanSurveys(t *testing.T) {
	f := newScannerFixture(t)

	f.addSurvey("survey-public", "ws-1", 23*time.Hour)
	f.surveys.surveys[0].AccessType = models.SurveyAccessPublic

	// Без пространства напоминать некому
	f.addSurvey("survey-orphan", "", 23*time.Hour)

	f.workspace.members["ws-1"] = []string{"u1"}

	f.scanner.CheckDeadlines(context.Background())

	assert.Equal(t, 0, f.enqueuer.count())
}

func TestCheckDeadlines_NoDuplicateReminders(t *testing.T) {
	f := newScannerFixture(t)
	f.addSurvey("survey-1", "ws-1", 23*time.Hour+30*time.Minute)
	f.workspace.members["ws-1"] = []string{"u1", "u2"}

	ctx := context.Background()
	f.scanner.CheckDeadlines(ctx)
	require.Equal(t, 2, f.enqueuer.count())

	// Повторный проход по тому же окну не дублирует напоминания
	f.scanner.CheckDeadlines(ctx)
	assert.Equal(t, 2, f.enqueuer.count())
}

func TestCheckDeadlines_SurveyFailureIsolated(t *testing.T) {
	f := newScannerFixture(t)
	f.addSurvey("survey-bad", "ws-bad", 23*time.Hour)
	f.addSurvey("survey-good", "ws-good", 23*time.Hour)
	f.workspace.errFor["ws-bad"] = fmt.Errorf("db down")
	f.workspace.members["ws-good"] = []string{"u1"}

	f.scanner.CheckDeadlines(context.Background())

	// Ошибка по одному опросу не мешает остальным
	require.Equal(t, 1, f.enqueuer.count())
	assert.Equal(t, "u1", f.enqueuer.events[0].Recipient())
}

func TestCheckDeadlines_ReminderCheckFailureSkipsUser(t *testing.T) {
	f := newScannerFixture(t)
	f.addSurvey("survey-1", "ws-1", 23*time.Hour)
	f.workspace.members["ws-1"] = []string{"u1", "u2"}
	f.reminders.hasErr[reminderKey("survey-1", "u1")] = fmt.Errorf("db down")

	f.scanner.CheckDeadlines(context.Background())

	assert.Equal(t, []string{"u2"}, f.enqueuer.recipients())
}

func TestScanner_StartRunsImmediately(t *testing.T) {
	f := newScannerFixture(t)
	f.addSurvey("survey-1", "ws-1", 23*time.Hour)
	f.workspace.members["ws-1"] = []string{"u1"}

	// Интервал намеренно большой: первый проход должен случиться без тика
	f.scanner.Start(context.Background())
	defer f.scanner.Stop()

	assert.Eventually(t, func() bool {
		return f.enqueuer.count() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestScanner_StopIdempotent(t *testing.T) {
	f := newScannerFixture(t)

	f.scanner.Start(context.Background())
	f.scanner.Stop()
	f.scanner.Stop()

	// Повторный запуск после остановки работает
	f.addSurvey("survey-1", "ws-1", 23*time.Hour)
	f.workspace.members["ws-1"] = []string{"u1"}
	f.scanner.Start(context.Background())
	defer f.scanner.Stop()

	assert.Eventually(t, func() bool {
		return f.enqueuer.count() == 1
	}, time.Second, 5*time.Millisecond)
}
