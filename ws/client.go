package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"
)

type IncomingWSMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type Client struct {
	ID   string // userID владельца соединения
	Conn *websocket.Conn
	Send chan any
	Ctx  context.Context

	Manager *WebSocketManager
}

func (c *Client) readPump() {
	defer func() {
		c.Manager.unregister <- c
		c.Conn.Close()
	}()

	for {
		_, msgBytes, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}

		var msg IncomingWSMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			log.Println("Failed to parse message:", err)
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	for msg := range c.Send {
		if err := c.Conn.WriteJSON(msg); err != nil {
			log.Println("WebSocket write error:", err)
			break
		}
	}
}

// Централизованный обработчик входящих действий
func (c *Client) handleMessage(msg IncomingWSMessage) {
	if c.Manager.notifier == nil {
		return
	}

	switch msg.Action {

	case "mark_as_read":
		var payload struct {
			NotificationID string `json:"notification_id"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			log.Println("Invalid mark_as_read payload:", err)
			return
		}
		if err := c.Manager.notifier.MarkAsRead(c.ID, payload.NotificationID); err != nil {
			log.Println("Failed to mark as read:", err)
		}

	case "mark_all_as_read":
		if err := c.Manager.notifier.MarkAllAsRead(c.ID); err != nil {
			log.Println("Failed to mark all as read:", err)
		}

	default:
		log.Println("Unhandled action:", msg.Action)
	}
}
