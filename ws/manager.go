package ws

import (
	"log"
	"sync"
)

// OutgoingWSMessage - конверт исходящего события
type OutgoingWSMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// NotificationReader - часть сервиса уведомлений, доступная клиентам сокета
type NotificationReader interface {
	MarkAsRead(userID, notificationID string) error
	MarkAllAsRead(userID string) error
}

type WebSocketManager struct {
	clients    map[string]*Client // ключ - userID
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	notifier NotificationReader
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetNotifier подключает сервис уведомлений после сборки зависимостей
// (сервис сам ссылается на менеджер как на канал доставки)
func (manager *WebSocketManager) SetNotifier(notifier NotificationReader) {
	manager.notifier = notifier
}

func (manager *WebSocketManager) Run() {
	for {
		select {
		case client := <-manager.register:
			manager.mu.Lock()
			if old, ok := manager.clients[client.ID]; ok {
				// Новое подключение того же пользователя вытесняет старое
				close(old.Send)
			}
			manager.clients[client.ID] = client
			manager.mu.Unlock()
			log.Printf("Client registered: %s, total: %d", client.ID, len(manager.clients))

		case client := <-manager.unregister:
			manager.mu.Lock()
			if current, ok := manager.clients[client.ID]; ok && current == client {
				close(client.Send)
				delete(manager.clients, client.ID)
				log.Printf("Client unregistered: %s, total: %d", client.ID, len(manager.clients))
			}
			manager.mu.Unlock()
		}
	}
}

// SendToUser отправляет событие подключенному пользователю.
// Возвращает false, если пользователь не подключен или его канал заполнен.
func (manager *WebSocketManager) SendToUser(userID string, event string, payload interface{}) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	client, ok := manager.clients[userID]
	if !ok {
		return false
	}

	select {
	case client.Send <- OutgoingWSMessage{Event: event, Data: payload}:
		return true
	default:
		// Канал заполнен, клиент отключается
		go func() {
			manager.unregister <- client
		}()
		log.Printf("Client %s disconnected due to full send channel", userID)
		return false
	}
}

// GetClientCount возвращает количество подключенных клиентов
func (manager *WebSocketManager) GetClientCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients)
}

// IsClientConnected проверяет, подключен ли пользователь
func (manager *WebSocketManager) IsClientConnected(userID string) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	_, exists := manager.clients[userID]
	return exists
}
