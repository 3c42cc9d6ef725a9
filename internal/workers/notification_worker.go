package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"surveyhub_backend/internal/logger"
	"surveyhub_backend/internal/notify"
)

// EventProcessor - часть сервиса уведомлений, нужная воркеру
type EventProcessor interface {
	ProcessEvent(ctx context.Context, ev notify.Event) error
}

// NotificationWorker - единственный потребитель очереди уведомлений.
// Раз в тик забирает весь буфер и обрабатывает события по одному;
// ошибка одного события не трогает остальные.
type NotificationWorker struct {
	queue      *notify.TaskQueue
	service    EventProcessor
	interval   time.Duration
	maxRetries int

	processing atomic.Bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// retryEvent оборачивает событие счетчиком неудачных попыток
type retryEvent struct {
	notify.Event
	attempts int
}

func NewNotificationWorker(
	queue *notify.TaskQueue,
	service EventProcessor,
	interval time.Duration,
	maxRetries int,
) *NotificationWorker {
	if interval <= 0 {
		interval = time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &NotificationWorker{
		queue:      queue,
		service:    service,
		interval:   interval,
		maxRetries: maxRetries,
	}
}

// Start запускает цикл воркера. Повторный Start без Stop игнорируется.
func (w *NotificationWorker) Start(ctx context.Context) {
	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.run(ctx)

	logger.Info("notification worker started", "interval", w.interval.String())
}

// Stop останавливает цикл и дожидается завершения текущего тика
func (w *NotificationWorker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	w.wg.Wait()
	w.cancel = nil
}

func (w *NotificationWorker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification worker stopped")
			return
		case <-ticker.C:
			w.ProcessTick(ctx)
		}
	}
}

// ProcessTick обрабатывает один тик: забирает буфер очереди целиком
// и проходит по нему. Если предыдущий тик еще работает, новый
// пропускается без ожидания.
func (w *NotificationWorker) ProcessTick(ctx context.Context) {
	if !w.processing.CompareAndSwap(false, true) {
		return
	}
	defer w.processing.Store(false)

	events := w.queue.DrainAll()
	if len(events) == 0 {
		return
	}

	for _, ev := range events {
		inner := ev
		attempts := 0
		if re, ok := ev.(retryEvent); ok {
			inner = re.Event
			attempts = re.attempts
		}

		if err := w.service.ProcessEvent(ctx, inner); err != nil {
			attempts++
			if attempts > w.maxRetries {
				// Dead-letter: событие исчерпало попытки и отбрасывается
				logger.Error("notification event dropped after retries",
					"type", string(inner.Kind()),
					"recipient", inner.Recipient(),
					"attempts", attempts,
					"error", err.Error(),
				)
				continue
			}

			logger.Warn("notification event failed, will retry",
				"type", string(inner.Kind()),
				"recipient", inner.Recipient(),
				"attempt", attempts,
				"error", err.Error(),
			)
			w.queue.Enqueue(retryEvent{Event: inner, attempts: attempts})
		}
	}
}
