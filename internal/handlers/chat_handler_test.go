package handlers

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/fino-2401ft/FMentor-v54/internal/models"
	"github.com/fino-2401ft/FMentor-v54/internal/services"
	chatws "github.com/fino-2401ft/FMentor-v54/internal/websocket"
)

type stubChatApp struct {
	messagesResult     []models.Message
	messagesErr        error
	delivery           *services.ChatDelivery
	sendErr            error
	seenUpdate         *services.SeenUpdate
	seenErr            error
	typersResult       []string
	lastActorID        string
	lastConversationID string
	lastContent        string
	lastMessageID      string
}

func (s *stubChatApp) ListMessages(_ context.Context, actorID, conversationID string) ([]models.Message, error) {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	return s.messagesResult, s.messagesErr
}

func (s *stubChatApp) SendText(_ context.Context, actorID, conversationID, content string) (*services.ChatDelivery, error) {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	s.lastContent = content
	return s.delivery, s.sendErr
}

func (s *stubChatApp) SendMedia(_ context.Context, actorID, conversationID string, _ multipart.File, _ string) (*services.ChatDelivery, error) {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	return s.delivery, s.sendErr
}

func (s *stubChatApp) SendMeetingInvite(_ context.Context, actorID, conversationID, meetingURL string) (*services.ChatDelivery, error) {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	s.lastContent = meetingURL
	return s.delivery, s.sendErr
}

func (s *stubChatApp) MarkSeen(_ context.Context, actorID, conversationID, messageID string) (*services.SeenUpdate, error) {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	s.lastMessageID = messageID
	return s.seenUpdate, s.seenErr
}

func (s *stubChatApp) SetTyping(_ context.Context, actorID, conversationID string, isTyping bool) (*services.TypingUpdate, error) {
	return &services.TypingUpdate{ConversationID: conversationID, UserID: actorID, IsTyping: isTyping}, nil
}

func (s *stubChatApp) ActiveTypers(_ context.Context, actorID, conversationID string) ([]string, error) {
	s.lastActorID = actorID
	s.lastConversationID = conversationID
	return s.typersResult, nil
}

type stubMessengerApp struct {
	cards        []models.ConversationCard
	cardsErr     error
	users        []models.User
	startedID    string
	startErr     error
	lastViewerID string
	lastTargetID string
}

func (s *stubMessengerApp) ListConversations(_ context.Context, userID string) ([]models.ConversationCard, error) {
	s.lastViewerID = userID
	return s.cards, s.cardsErr
}

func (s *stubMessengerApp) SearchUsers(_ context.Context, _ string) ([]models.User, error) {
	return s.users, nil
}

func (s *stubMessengerApp) StartOrReuseConversation(_ context.Context, viewerID, targetUserID string) (string, error) {
	s.lastViewerID = viewerID
	s.lastTargetID = targetUserID
	return s.startedID, s.startErr
}

type stubOnlineSetter struct{}

func (s *stubOnlineSetter) SetOnline(_ context.Context, _ string, _ bool) error {
	return nil
}

func newChatTestApp(chat *stubChatApp, messenger *stubMessengerApp) (*fiber.App, *ChatHandler) {
	handler := NewChatHandler(chat, messenger, &stubOnlineSetter{}, chatws.NewHub(), "secret")

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "user_a")
		c.Locals("role", models.RoleMentee)
		return c.Next()
	})
	return app, handler
}

func TestListConversationsReturnsCards(t *testing.T) {
	messenger := &stubMessengerApp{
		cards: []models.ConversationCard{
			{ConversationID: "priv_abc", Name: "Binh", LastMessage: "See you tomorrow", LastUpdate: 200},
		},
	}
	app, handler := newChatTestApp(&stubChatApp{}, messenger)
	app.Get("/api/v1/conversations", handler.ListConversations)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if messenger.lastViewerID != "user_a" {
		t.Fatalf("unexpected viewer id %q", messenger.lastViewerID)
	}

	var body struct {
		Conversations []models.ConversationCard `json:"conversations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Conversations) != 1 || body.Conversations[0].Name != "Binh" {
		t.Fatalf("unexpected response: %+v", body.Conversations)
	}
}

func TestStartConversationReturnsID(t *testing.T) {
	messenger := &stubMessengerApp{startedID: "priv_abc"}
	app, handler := newChatTestApp(&stubChatApp{}, messenger)
	app.Post("/api/v1/conversations", handler.StartConversation)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(`{"target_user_id":"user_b"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if messenger.lastTargetID != "user_b" {
		t.Fatalf("expected target user_b, got %q", messenger.lastTargetID)
	}

	var body struct {
		ConversationID string `json:"conversation_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.ConversationID != "priv_abc" {
		t.Fatalf("unexpected conversation id %q", body.ConversationID)
	}
}

func TestStartConversationMissingTarget(t *testing.T) {
	messenger := &stubMessengerApp{startErr: services.ErrUserNotFound}
	app, handler := newChatTestApp(&stubChatApp{}, messenger)
	app.Post("/api/v1/conversations", handler.StartConversation)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", strings.NewReader(`{"target_user_id":"ghost"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetMessagesForwardsActor(t *testing.T) {
	chat := &stubChatApp{
		messagesResult: []models.Message{
			{ID: "m1", ConversationID: "priv_abc", SenderID: "user_b", Content: "Hi", Type: models.MessageText},
		},
	}
	app, handler := newChatTestApp(chat, &stubMessengerApp{})
	app.Get("/api/v1/conversations/:id/messages", handler.GetMessages)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/priv_abc/messages", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if chat.lastActorID != "user_a" || chat.lastConversationID != "priv_abc" {
		t.Fatalf("unexpected forwarded context: %q %q", chat.lastActorID, chat.lastConversationID)
	}
}

func TestGetMessagesForbidden(t *testing.T) {
	chat := &stubChatApp{messagesErr: services.ErrForbidden}
	app, handler := newChatTestApp(chat, &stubMessengerApp{})
	app.Get("/api/v1/conversations/:id/messages", handler.GetMessages)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/priv_abc/messages", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestSendMessageReturnsCreated(t *testing.T) {
	message := &models.Message{
		ID:             "m1",
		ConversationID: "priv_abc",
		SenderID:       "user_a",
		Content:        "hello",
		Type:           models.MessageText,
		Timestamp:      1700000000000,
	}
	chat := &stubChatApp{
		delivery: &services.ChatDelivery{
			Message:      message,
			Participants: []string{"user_a", "user_b"},
		},
	}
	app, handler := newChatTestApp(chat, &stubMessengerApp{})
	app.Post("/api/v1/conversations/:id/messages", handler.SendMessage)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/priv_abc/messages", strings.NewReader(`{"content":"hello"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if chat.lastContent != "hello" {
		t.Fatalf("expected content forwarded, got %q", chat.lastContent)
	}

	var body struct {
		Message models.Message `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Message.ID != "m1" {
		t.Fatalf("unexpected message in response: %+v", body.Message)
	}
}

func TestSendMessageBlankRejected(t *testing.T) {
	chat := &stubChatApp{sendErr: services.ErrInvalidInput}
	app, handler := newChatTestApp(chat, &stubMessengerApp{})
	app.Post("/api/v1/conversations/:id/messages", handler.SendMessage)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/priv_abc/messages", strings.NewReader(`{"content":"  "}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMarkSeenReturnsNoContent(t *testing.T) {
	chat := &stubChatApp{
		seenUpdate: &services.SeenUpdate{
			ConversationID: "priv_abc",
			MessageID:      "m1",
			UserID:         "user_a",
			Participants:   []string{"user_a", "user_b"},
		},
	}
	app, handler := newChatTestApp(chat, &stubMessengerApp{})
	app.Post("/api/v1/conversations/:id/seen", handler.MarkSeen)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/priv_abc/seen", strings.NewReader(`{"message_id":"m1"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if chat.lastMessageID != "m1" {
		t.Fatalf("expected message id forwarded, got %q", chat.lastMessageID)
	}
}
