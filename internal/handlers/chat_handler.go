package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/fino-2401ft/FMentor-v54/internal/models"
	"github.com/fino-2401ft/FMentor-v54/internal/services"
	chatws "github.com/fino-2401ft/FMentor-v54/internal/websocket"
	"github.com/fino-2401ft/FMentor-v54/pkg/utils"
)

type chatApplicationService interface {
	ListMessages(ctx context.Context, actorID, conversationID string) ([]models.Message, error)
	SendText(ctx context.Context, actorID, conversationID, content string) (*services.ChatDelivery, error)
	SendMedia(ctx context.Context, actorID, conversationID string, file multipart.File, filename string) (*services.ChatDelivery, error)
	SendMeetingInvite(ctx context.Context, actorID, conversationID, meetingURL string) (*services.ChatDelivery, error)
	MarkSeen(ctx context.Context, actorID, conversationID, messageID string) (*services.SeenUpdate, error)
	SetTyping(ctx context.Context, actorID, conversationID string, isTyping bool) (*services.TypingUpdate, error)
	ActiveTypers(ctx context.Context, actorID, conversationID string) ([]string, error)
}

type messengerApplicationService interface {
	ListConversations(ctx context.Context, userID string) ([]models.ConversationCard, error)
	SearchUsers(ctx context.Context, term string) ([]models.User, error)
	StartOrReuseConversation(ctx context.Context, viewerID, targetUserID string) (string, error)
}

type onlineSetter interface {
	SetOnline(ctx context.Context, userID string, online bool) error
}

type ChatHandler struct {
	chat      chatApplicationService
	messenger messengerApplicationService
	presence  onlineSetter
	hub       *chatws.Hub
	jwtSecret string
}

func NewChatHandler(
	chat chatApplicationService,
	messenger messengerApplicationService,
	presence onlineSetter,
	hub *chatws.Hub,
	jwtSecret string,
) *ChatHandler {
	return &ChatHandler{
		chat:      chat,
		messenger: messenger,
		presence:  presence,
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

type startConversationRequest struct {
	TargetUserID string `json:"target_user_id"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type meetingInviteRequest struct {
	MeetingURL string `json:"meeting_url"`
}

type markSeenRequest struct {
	MessageID string `json:"message_id"`
}

func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	cards, err := h.messenger.ListConversations(c.Context(), userID)
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(fiber.Map{"conversations": cards})
}

func (h *ChatHandler) StartConversation(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req startConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	conversationID, err := h.messenger.StartOrReuseConversation(c.Context(), userID, req.TargetUserID)
	if err != nil {
		return mapChatError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"conversation_id": conversationID})
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	conversationID := c.Params("id")
	if conversationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	messages, err := h.chat.ListMessages(c.Context(), userID, conversationID)
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	delivery, err := h.chat.SendText(c.Context(), userID, c.Params("id"), req.Content)
	if err != nil {
		return mapChatError(c, err)
	}
	h.broadcastMessage(delivery)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": delivery.Message})
}

func (h *ChatHandler) SendMedia(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Media file is required"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to read media file"})
	}
	defer file.Close()

	delivery, err := h.chat.SendMedia(c.Context(), userID, c.Params("id"), file, fileHeader.Filename)
	if err != nil {
		return mapChatError(c, err)
	}
	h.broadcastMessage(delivery)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": delivery.Message})
}

func (h *ChatHandler) SendMeetingInvite(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req meetingInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	delivery, err := h.chat.SendMeetingInvite(c.Context(), userID, c.Params("id"), req.MeetingURL)
	if err != nil {
		return mapChatError(c, err)
	}
	h.broadcastMessage(delivery)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": delivery.Message})
}

func (h *ChatHandler) MarkSeen(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req markSeenRequest
	if err := c.BodyParser(&req); err != nil || req.MessageID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	update, err := h.chat.MarkSeen(c.Context(), userID, c.Params("id"), req.MessageID)
	if err != nil {
		return mapChatError(c, err)
	}
	h.hub.Broadcast(update.Participants, &chatws.Event{
		Type:           chatws.EventSeen,
		ConversationID: update.ConversationID,
		MessageID:      update.MessageID,
		UserID:         update.UserID,
	})
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ChatHandler) GetActiveTypers(c *fiber.Ctx) error {
	userID, err := requireUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	typers, err := h.chat.ActiveTypers(c.Context(), userID, c.Params("id"))
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(fiber.Map{"typing": typers})
}

func (h *ChatHandler) SearchUsers(c *fiber.Ctx) error {
	if _, err := requireUserID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	users, err := h.messenger.SearchUsers(c.Context(), c.Query("q"))
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *ChatHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	client := chatws.NewClient(h.hub, conn, userID)

	h.setOnline(userID, true)
	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h.chat)
	h.setOnline(userID, false)
}

func (h *ChatHandler) setOnline(userID string, online bool) {
	if userID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = h.presence.SetOnline(ctx, userID, online)
}

func (h *ChatHandler) broadcastMessage(delivery *services.ChatDelivery) {
	h.hub.Broadcast(delivery.Participants, &chatws.Event{
		Type:           chatws.EventMessage,
		ConversationID: delivery.Message.ConversationID,
		SenderID:       delivery.Message.SenderID,
		Message:        delivery.Message,
		Timestamp:      services.FormatChatTimestamp(time.UnixMilli(delivery.Message.Timestamp)),
	})
}

func (h *ChatHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}

func requireUserID(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return "", errors.New("missing user id")
	}
	return userID, nil
}

func mapChatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case errors.Is(err, services.ErrConversationNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Conversation not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process chat request"})
	}
}
