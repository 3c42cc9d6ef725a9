package notify

import (
	"sync"

	"surveyhub_backend/internal/logger"
)

const DefaultQueueCapacity = 10000

// TaskQueue - внутрипроцессная FIFO-очередь событий уведомлений.
// Продюсеры кладут события и не ждут результата; воркер периодически
// забирает весь накопленный буфер одним вызовом DrainAll.
type TaskQueue struct {
	mu       sync.Mutex
	events   []Event
	capacity int
}

// NewTaskQueue создает очередь с ограничением размера.
// capacity <= 0 заменяется дефолтом.
func NewTaskQueue(capacity int) *TaskQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &TaskQueue{
		events:   make([]Event, 0, 64),
		capacity: capacity,
	}
}

// Enqueue добавляет событие в хвост очереди.
// Никогда не блокирует и не возвращает ошибку: при переполнении
// событие отбрасывается с предупреждением в лог.
func (q *TaskQueue) Enqueue(ev Event) {
	if ev == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) >= q.capacity {
		logger.Warn("notification queue overflow, dropping event",
			"type", string(ev.Kind()),
			"recipient", ev.Recipient(),
			"capacity", q.capacity,
		)
		return
	}

	q.events = append(q.events, ev)
}

// DrainAll атомарно забирает все накопленные события в порядке добавления
// и оставляет очередь пустой. Для пустой очереди возвращает nil.
func (q *TaskQueue) DrainAll() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}

	drained := q.events
	q.events = make([]Event, 0, 64)
	return drained
}

// Len возвращает текущий размер очереди
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
