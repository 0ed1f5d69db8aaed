package chatws

import (
	"context"
	"encoding/json"
	"time"

	websocket "github.com/gofiber/contrib/websocket"

	"github.com/fino-2401ft/FMentor-v54/internal/models"
	"github.com/fino-2401ft/FMentor-v54/internal/services"
	"github.com/fino-2401ft/FMentor-v54/pkg/logger"
)

// Hub fans typed events out to connected clients, filtered server-side by the
// participant set of the conversation an event belongs to. Clients never
// receive whole-collection snapshots; they receive message/seen/typing deltas.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *delivery
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

// session is the slice of the chat service the websocket read loop needs.
type session interface {
	SendText(ctx context.Context, actorID, conversationID, content string) (*services.ChatDelivery, error)
	MarkSeen(ctx context.Context, actorID, conversationID, messageID string) (*services.SeenUpdate, error)
	SetTyping(ctx context.Context, actorID, conversationID string, isTyping bool) (*services.TypingUpdate, error)
}

const (
	EventMessage     = "message"
	EventSeen        = "seen"
	EventTyping      = "typing"
	EventStopTyping  = "stop_typing"
	EventError       = "error"
	writeRequestTime = 10 * time.Second
)

type Event struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id,omitempty"`
	SenderID       string          `json:"sender_id,omitempty"`
	UserID         string          `json:"user_id,omitempty"`
	MessageID      string          `json:"message_id,omitempty"`
	Message        *models.Message `json:"message,omitempty"`
	Content        string          `json:"content,omitempty"`
	Timestamp      string          `json:"timestamp,omitempty"`
}

type delivery struct {
	userIDs []string
	payload []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *delivery, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case job := <-h.broadcast:
			h.deliver(job)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast sends the event to every connection of every listed user.
func (h *Hub) Broadcast(userIDs []string, event *Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("chat hub encode event")
		return
	}
	h.broadcast <- &delivery{userIDs: userIDs, payload: payload}
}

func (h *Hub) deliver(job *delivery) {
	seen := make(map[string]struct{}, len(job.userIDs))
	for _, userID := range job.userIDs {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		h.sendToUser(userID, job.payload)
	}
}

func (h *Hub) sendToUser(userID string, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

func (c *Client) ReadPump(service session) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type           string `json:"type"`
			ConversationID string `json:"conversation_id"`
			Content        string `json:"content"`
			MessageID      string `json:"message_id"`
			IsTyping       bool   `json:"is_typing"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeError(c, "invalid message payload")
			continue
		}
		if incoming.ConversationID == "" {
			writeError(c, "invalid conversation id")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeRequestTime)
		switch incoming.Type {
		case "message":
			c.handleSend(ctx, service, incoming.ConversationID, incoming.Content)
		case "seen":
			c.handleSeen(ctx, service, incoming.ConversationID, incoming.MessageID)
		case "typing":
			c.handleTyping(ctx, service, incoming.ConversationID, incoming.IsTyping)
		default:
			writeError(c, "unsupported message type")
		}
		cancel()
	}
}

func (c *Client) handleSend(ctx context.Context, service session, conversationID, content string) {
	delivery, err := service.SendText(ctx, c.userID, conversationID, content)
	if err != nil {
		writeError(c, "failed to send message")
		return
	}

	c.hub.Broadcast(delivery.Participants, &Event{
		Type:           EventMessage,
		ConversationID: delivery.Message.ConversationID,
		SenderID:       delivery.Message.SenderID,
		Message:        delivery.Message,
		Timestamp:      services.FormatChatTimestamp(time.UnixMilli(delivery.Message.Timestamp)),
	})
}

func (c *Client) handleSeen(ctx context.Context, service session, conversationID, messageID string) {
	if messageID == "" {
		writeError(c, "invalid message id")
		return
	}
	update, err := service.MarkSeen(ctx, c.userID, conversationID, messageID)
	if err != nil {
		writeError(c, "failed to mark message seen")
		return
	}

	c.hub.Broadcast(update.Participants, &Event{
		Type:           EventSeen,
		ConversationID: update.ConversationID,
		MessageID:      update.MessageID,
		UserID:         update.UserID,
	})
}

func (c *Client) handleTyping(ctx context.Context, service session, conversationID string, isTyping bool) {
	update, err := service.SetTyping(ctx, c.userID, conversationID, isTyping)
	if err != nil {
		writeError(c, "failed to update typing state")
		return
	}

	eventType := EventTyping
	if !update.IsTyping {
		eventType = EventStopTyping
	}
	c.hub.Broadcast(update.Participants, &Event{
		Type:           eventType,
		ConversationID: update.ConversationID,
		UserID:         update.UserID,
	})
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func writeError(client *Client, message string) {
	payload, err := json.Marshal(Event{
		Type:      EventError,
		Content:   message,
		Timestamp: services.FormatChatTimestamp(time.Now().UTC()),
	})
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
		client.hub.Unregister(client)
	}
}
