package workers

import (
	"context"
	"sync"
	"time"

	"surveyhub_backend/internal/logger"
	"surveyhub_backend/internal/models"
	"surveyhub_backend/internal/notify"
	"surveyhub_backend/internal/repositories"
	"surveyhub_backend/internal/utils"
)

// EventEnqueuer - часть сервиса уведомлений, нужная сканеру
type EventEnqueuer interface {
	Enqueue(ev notify.Event)
}

// DeadlineScanner периодически ищет опросы, дедлайн которых попадает
// в окно [now+lead-tick, now+lead), и ставит в очередь напоминания
// участникам пространства, которые еще не завершили прохождение.
// Первый проход выполняется сразу при старте.
type DeadlineScanner struct {
	surveyRepo    repositories.SurveyRepository
	workspaceRepo repositories.WorkspaceRepository
	responseRepo  repositories.ResponseRepository
	reminderRepo  repositories.ReminderLogRepository
	userRepo      repositories.UserRepository
	service       EventEnqueuer
	email         *utils.EmailSender

	interval time.Duration
	lead     time.Duration

	now    func() time.Time
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDeadlineScanner(
	surveyRepo repositories.SurveyRepository,
	workspaceRepo repositories.WorkspaceRepository,
	responseRepo repositories.ResponseRepository,
	reminderRepo repositories.ReminderLogRepository,
	userRepo repositories.UserRepository,
	service EventEnqueuer,
	email *utils.EmailSender,
	interval time.Duration,
	lead time.Duration,
) *DeadlineScanner {
	if interval <= 0 {
		interval = time.Hour
	}
	if lead <= 0 {
		lead = 24 * time.Hour
	}
	return &DeadlineScanner{
		surveyRepo:    surveyRepo,
		workspaceRepo: workspaceRepo,
		responseRepo:  responseRepo,
		reminderRepo:  reminderRepo,
		userRepo:      userRepo,
		service:       service,
		email:         email,
		interval:      interval,
		lead:          lead,
		now:           time.Now,
	}
}

// Start запускает сканер. Повторный Start без Stop игнорируется.
func (s *DeadlineScanner) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	logger.Info("deadline scanner started",
		"interval", s.interval.String(),
		"lead", s.lead.String(),
	)
}

// Stop останавливает сканер и дожидается завершения текущего прохода
func (s *DeadlineScanner) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.cancel = nil
}

func (s *DeadlineScanner) run(ctx context.Context) {
	defer s.wg.Done()

	// Первый проход сразу, не дожидаясь первого тика
	s.CheckDeadlines(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("deadline scanner stopped")
			return
		case <-ticker.C:
			s.CheckDeadlines(ctx)
		}
	}
}

// CheckDeadlines выполняет один проход сканера. Ошибка по одному опросу
// логируется и не прерывает обработку остальных.
func (s *DeadlineScanner) CheckDeadlines(ctx context.Context) {
	now := s.now()
	windowStart := now.Add(s.lead - s.interval)
	windowEnd := now.Add(s.lead)

	surveys, err := s.surveyRepo.FindExpiringBetween(windowStart, windowEnd)
	if err != nil {
		logger.WorkerLog("deadline_scanner", "find_expiring", err)
		return
	}

	if len(surveys) == 0 {
		return
	}

	logger.CtxInfo(ctx, "surveys expiring soon", "count", len(surveys))

	for i := range surveys {
		if err := s.processSurvey(ctx, &surveys[i]); err != nil {
			logger.CtxWithError(ctx, "survey reminder pass failed", err,
				"survey_id", surveys[i].ID,
			)
		}
	}
}

func (s *DeadlineScanner) processSurvey(ctx context.Context, survey *models.Survey) error {
	// Публичные опросы не имеют фиксированного круга получателей
	if survey.AccessType == models.SurveyAccessPublic {
		return nil
	}
	if survey.WorkspaceID == nil || survey.EndDate == nil {
		return nil
	}

	memberIDs, err := s.workspaceRepo.FindAcceptedMemberIDs(*survey.WorkspaceID)
	if err != nil {
		return err
	}
	if len(memberIDs) == 0 {
		return nil
	}

	respondedIDs, err := s.responseRepo.FindCompletedResponderIDs(survey.ID)
	if err != nil {
		return err
	}

	responded := make(map[string]bool, len(respondedIDs))
	for _, id := range respondedIDs {
		responded[id] = true
	}

	hoursRemaining := int(survey.EndDate.Sub(s.now()).Hours())
	if hoursRemaining < 0 {
		hoursRemaining = 0
	}

	for _, userID := range memberIDs {
		if responded[userID] {
			continue
		}

		sent, err := s.reminderRepo.HasReminder(survey.ID, userID)
		if err != nil {
			logger.CtxWithError(ctx, "reminder log check failed", err,
				"survey_id", survey.ID, "user_id", userID)
			continue
		}
		if sent {
			continue
		}

		s.service.Enqueue(notify.DeadlineReminderEvent{
			RecipientID: userID,
			SurveyID:    survey.ID,
			SurveyTitle: survey.Title,
			Deadline: models.ReminderMetadata{
				Deadline:       *survey.EndDate,
				HoursRemaining: hoursRemaining,
			},
		})

		if err := s.reminderRepo.CreateReminderLog(&models.ReminderLog{
			SurveyID: survey.ID,
			UserID:   userID,
			SentAt:   s.now(),
		}); err != nil {
			logger.CtxWithError(ctx, "reminder log write failed", err,
				"survey_id", survey.ID, "user_id", userID)
		}

		s.sendEmailCopy(ctx, userID, survey)

		logger.CtxInfo(ctx, "deadline reminder queued",
			"survey_id", survey.ID, "user_id", userID)
	}

	return nil
}

// sendEmailCopy отправляет почтовую копию напоминания, если SMTP включен
func (s *DeadlineScanner) sendEmailCopy(ctx context.Context, userID string, survey *models.Survey) {
	if s.email == nil || !s.email.Enabled() {
		return
	}

	user, err := s.userRepo.FindUserByID(userID)
	if err != nil {
		logger.CtxWithError(ctx, "reminder email recipient lookup failed", err, "user_id", userID)
		return
	}

	if err := s.email.SendDeadlineReminder(user.Email, survey); err != nil {
		logger.CtxWithError(ctx, "reminder email send failed", err, "user_id", userID)
	}
}
