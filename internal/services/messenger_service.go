package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fino-2401ft/FMentor-v54/internal/models"
)

type conversationLister interface {
	Create(ctx context.Context, conversationID string, convType models.ConversationType, participants []string, lastUpdate int64) error
	ListForParticipant(ctx context.Context, participantID string) ([]models.Conversation, error)
}

type lastMessageReader interface {
	GetLast(ctx context.Context, conversationID string) (*models.Message, error)
}

type userSearcher interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	SearchByNameOrID(ctx context.Context, term string) ([]models.User, error)
}

// MessengerService builds the per-user conversation list and starts private
// chats.
type MessengerService struct {
	conversationRepo conversationLister
	messageRepo      lastMessageReader
	userRepo         userSearcher
	resolver         *ResolverService
	now              func() time.Time
}

func NewMessengerService(
	conversationRepo conversationLister,
	messageRepo lastMessageReader,
	userRepo userSearcher,
	resolver *ResolverService,
) *MessengerService {
	return &MessengerService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		resolver:         resolver,
		now:              time.Now,
	}
}

// ListConversations returns the viewer's conversation cards, newest activity
// first. Failed lookups degrade to placeholder identities and empty previews;
// cards are never silently dropped.
func (s *MessengerService) ListConversations(
	ctx context.Context,
	userID string,
) ([]models.ConversationCard, error) {
	conversations, err := s.conversationRepo.ListForParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	cards := make([]models.ConversationCard, 0, len(conversations))
	for i := range conversations {
		conversation := &conversations[i]
		identity := s.resolver.ResolveConversation(ctx, conversation, userID)

		preview := ""
		if last, err := s.messageRepo.GetLast(ctx, conversation.ID); err == nil && last != nil {
			preview = messagePreview(last)
		}

		cards = append(cards, models.ConversationCard{
			ConversationID: conversation.ID,
			Name:           identity.Name,
			AvatarURL:      identity.AvatarURL,
			LastMessage:    preview,
			LastUpdate:     conversation.LastUpdate,
			IsOnline:       identity.IsOnline,
			Type:           conversation.Type,
			Participants:   conversation.Participants,
		})
	}
	return cards, nil
}

// SearchUsers finds chat partners by username or id substring.
func (s *MessengerService) SearchUsers(ctx context.Context, term string) ([]models.User, error) {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return []models.User{}, nil
	}
	return s.userRepo.SearchByNameOrID(ctx, trimmed)
}

// StartOrReuseConversation returns the private conversation between the
// viewer and the target, creating it if needed. The id is derived from the
// sorted user pair, so repeated and concurrent calls converge on one
// conversation.
func (s *MessengerService) StartOrReuseConversation(
	ctx context.Context,
	viewerID string,
	targetUserID string,
) (string, error) {
	if targetUserID == "" || targetUserID == viewerID {
		return "", ErrInvalidInput
	}
	if _, err := s.userRepo.GetByID(ctx, targetUserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	conversationID := models.PrivateConversationID(viewerID, targetUserID)
	err := s.conversationRepo.Create(
		ctx,
		conversationID,
		models.ConversationPrivate,
		[]string{viewerID, targetUserID},
		models.EpochMillis(s.now()),
	)
	if err != nil {
		return "", err
	}
	return conversationID, nil
}

// messagePreview renders the conversation-list preview: media is shown as a
// fixed placeholder rather than the raw URL.
func messagePreview(message *models.Message) string {
	switch {
	case message.IsMedia():
		return "Has sent a media"
	case message.Type == models.MessageMeetingInvite:
		return "Meeting invitation"
	default:
		return message.Content
	}
}
