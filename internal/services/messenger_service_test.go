package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fino-2401ft/FMentor-v54/internal/models"
)

type stubMessengerConversations struct {
	list                []models.Conversation
	listErr             error
	createdID           string
	createdParticipants []string
	createCalls         int
	createErr           error
}

func (r *stubMessengerConversations) Create(
	_ context.Context,
	conversationID string,
	_ models.ConversationType,
	participants []string,
	_ int64,
) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.createCalls++
	r.createdID = conversationID
	r.createdParticipants = participants
	return nil
}

func (r *stubMessengerConversations) ListForParticipant(_ context.Context, _ string) ([]models.Conversation, error) {
	return r.list, r.listErr
}

func newTestMessengerService(
	conversations *stubMessengerConversations,
	messages *stubMessageStore,
	users *stubUserMap,
	courses *stubCourseCatalog,
) *MessengerService {
	resolver := NewResolverService(&stubConversationStore{}, users, courses)
	svc := NewMessengerService(conversations, messages, users, resolver)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc
}

func TestListConversationsBuildsCards(t *testing.T) {
	conversations := &stubMessengerConversations{
		list: []models.Conversation{
			{
				ID:           "priv_abc",
				Type:         models.ConversationPrivate,
				Participants: []string{"user_a", "user_b"},
				LastUpdate:   200,
			},
		},
	}
	messages := &stubMessageStore{
		lastMessage: &models.Message{ID: "m1", Content: "see you tomorrow", Type: models.MessageText},
	}
	users := &stubUserMap{users: map[string]*models.User{
		"user_b": {ID: "user_b", Username: "Binh", AvatarURL: "https://cdn.example/b.png"},
	}}
	svc := newTestMessengerService(conversations, messages, users, &stubCourseCatalog{})

	cards, err := svc.ListConversations(context.Background(), "user_a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("expected one card, got %d", len(cards))
	}
	card := cards[0]
	if card.Name != "Binh" {
		t.Errorf("expected resolved name, got %q", card.Name)
	}
	if card.LastMessage != "see you tomorrow" {
		t.Errorf("expected text preview, got %q", card.LastMessage)
	}
	if card.LastUpdate != 200 {
		t.Errorf("expected lastUpdate carried over, got %d", card.LastUpdate)
	}
}

func TestListConversationsMediaPreviewPlaceholder(t *testing.T) {
	conversations := &stubMessengerConversations{
		list: []models.Conversation{
			{ID: "priv_abc", Type: models.ConversationPrivate, Participants: []string{"user_a", "user_b"}},
		},
	}
	messages := &stubMessageStore{
		lastMessage: &models.Message{ID: "m1", Content: "https://cdn.example/x.png", Type: models.MessageImage},
	}
	svc := newTestMessengerService(conversations, messages, &stubUserMap{}, &stubCourseCatalog{})

	cards, err := svc.ListConversations(context.Background(), "user_a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cards[0].LastMessage != "Has sent a media" {
		t.Errorf("expected media placeholder preview, got %q", cards[0].LastMessage)
	}
}

func TestListConversationsDegradesInsteadOfDropping(t *testing.T) {
	conversations := &stubMessengerConversations{
		list: []models.Conversation{
			{ID: "priv_abc", Type: models.ConversationPrivate, Participants: []string{"user_a", "ghost"}},
		},
	}
	messages := &stubMessageStore{lastMessageErr: errors.New("log unavailable")}
	svc := newTestMessengerService(conversations, messages, &stubUserMap{}, &stubCourseCatalog{})

	cards, err := svc.ListConversations(context.Background(), "user_a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("card must not be dropped on lookup failure, got %d cards", len(cards))
	}
	if cards[0].Name != "Chat" {
		t.Errorf("expected default name, got %q", cards[0].Name)
	}
	if cards[0].LastMessage != "" {
		t.Errorf("expected empty preview, got %q", cards[0].LastMessage)
	}
}

func TestSearchUsersEmptyTerm(t *testing.T) {
	users := &stubUserMap{searchResult: []models.User{{ID: "user_b"}}}
	svc := newTestMessengerService(&stubMessengerConversations{}, &stubMessageStore{}, users, &stubCourseCatalog{})

	result, err := svc.SearchUsers(context.Background(), "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Fatalf("expected empty result for blank term, got %v", result)
	}
	if users.searchCalls != 0 {
		t.Fatal("blank term must not hit the directory")
	}
}

func TestStartOrReuseConversationValidation(t *testing.T) {
	users := &stubUserMap{users: map[string]*models.User{}}
	svc := newTestMessengerService(&stubMessengerConversations{}, &stubMessageStore{}, users, &stubCourseCatalog{})

	if _, err := svc.StartOrReuseConversation(context.Background(), "user_a", "user_a"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for self chat, got %v", err)
	}
	if _, err := svc.StartOrReuseConversation(context.Background(), "user_a", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty target, got %v", err)
	}
	if _, err := svc.StartOrReuseConversation(context.Background(), "user_a", "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for missing target, got %v", err)
	}
}

func TestStartOrReuseConversationDeterministicID(t *testing.T) {
	users := &stubUserMap{users: map[string]*models.User{
		"user_a": {ID: "user_a"},
		"user_b": {ID: "user_b"},
	}}
	conversations := &stubMessengerConversations{}
	svc := newTestMessengerService(conversations, &stubMessageStore{}, users, &stubCourseCatalog{})

	first, err := svc.StartOrReuseConversation(context.Background(), "user_a", "user_b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.StartOrReuseConversation(context.Background(), "user_b", "user_a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same conversation for both directions, got %q and %q", first, second)
	}
	if len(conversations.createdParticipants) != 2 {
		t.Fatalf("expected both users as participants, got %v", conversations.createdParticipants)
	}
}
