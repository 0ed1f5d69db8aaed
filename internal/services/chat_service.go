package services

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fino-2401ft/FMentor-v54/internal/models"
	"github.com/fino-2401ft/FMentor-v54/internal/presence"
	"github.com/fino-2401ft/FMentor-v54/pkg/logger"
)

type conversationStore interface {
	GetByID(ctx context.Context, conversationID string) (*models.Conversation, error)
	GetByIDForParticipant(ctx context.Context, conversationID, participantID string) (*models.Conversation, error)
	SetLastMessage(ctx context.Context, conversationID, messageID string, lastUpdate int64) error
}

type messageStore interface {
	Create(ctx context.Context, message *models.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error)
	MarkSeen(ctx context.Context, messageID, conversationID, userID string) error
	MarkManySeen(ctx context.Context, conversationID string, messageIDs []string, userID string) error
	GetLast(ctx context.Context, conversationID string) (*models.Message, error)
}

// MediaUploader pushes a local file to the media host and reports the hosted
// URL plus the inferred message type (Image, Video or File).
type MediaUploader interface {
	UploadMedia(ctx context.Context, file multipart.File, filename string) (string, models.MessageType, error)
}

// ChatService is the per-conversation session surface: sending, listing with
// auto-acknowledge, seen tracking and typing signals.
type ChatService struct {
	conversationRepo conversationStore
	messageRepo      messageStore
	typing           presence.Store
	storage          MediaUploader
	now              func() time.Time
}

// ChatDelivery is the result of a send, carrying the participant set so the
// hub can fan the message out.
type ChatDelivery struct {
	Conversation *models.Conversation
	Message      *models.Message
	Participants []string
}

// TypingUpdate mirrors a typing signal to the other participants.
type TypingUpdate struct {
	ConversationID string
	UserID         string
	IsTyping       bool
	Participants   []string
}

// SeenUpdate reports a grown seen-by set to the other participants.
type SeenUpdate struct {
	ConversationID string
	MessageID      string
	UserID         string
	Participants   []string
}

func NewChatService(
	conversationRepo conversationStore,
	messageRepo messageStore,
	typing presence.Store,
	storage MediaUploader,
) *ChatService {
	return &ChatService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		typing:           typing,
		storage:          storage,
		now:              time.Now,
	}
}

// ListMessages returns the full conversation log ascending by timestamp and
// marks every incoming message as seen by the viewer, the side effect of
// rendering the stream.
func (s *ChatService) ListMessages(
	ctx context.Context,
	actorID string,
	conversationID string,
) ([]models.Message, error) {
	if _, err := s.memberConversation(ctx, conversationID, actorID); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	models.SortMessages(messages)

	unseen := make([]string, 0)
	for i := range messages {
		if messages[i].SenderID != actorID && !messages[i].SeenByUser(actorID) {
			unseen = append(unseen, messages[i].ID)
		}
	}
	if len(unseen) > 0 {
		if err := s.messageRepo.MarkManySeen(ctx, conversationID, unseen, actorID); err != nil {
			return nil, err
		}
		for i := range messages {
			if messages[i].SenderID != actorID && !messages[i].SeenByUser(actorID) {
				messages[i].SeenBy = append(messages[i].SeenBy, actorID)
			}
		}
	}

	return messages, nil
}

// SendText appends a text message. Blank content after trimming is rejected
// before any write so the caller's draft stays intact.
func (s *ChatService) SendText(
	ctx context.Context,
	actorID string,
	conversationID string,
	content string,
) (*ChatDelivery, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}
	return s.send(ctx, actorID, conversationID, trimmed, models.MessageText)
}

// SendMedia uploads the file first and only appends a message once a hosted
// URL exists; an upload failure sends nothing.
func (s *ChatService) SendMedia(
	ctx context.Context,
	actorID string,
	conversationID string,
	file multipart.File,
	filename string,
) (*ChatDelivery, error) {
	if s.storage == nil {
		return nil, ErrInvalidInput
	}
	url, mediaType, err := s.storage.UploadMedia(ctx, file, filename)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, actorID, conversationID, url, mediaType)
}

// SendMeetingInvite posts a meeting link into the conversation. Call setup
// itself is handled by the external video SDK.
func (s *ChatService) SendMeetingInvite(
	ctx context.Context,
	actorID string,
	conversationID string,
	meetingURL string,
) (*ChatDelivery, error) {
	trimmed := strings.TrimSpace(meetingURL)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}
	return s.send(ctx, actorID, conversationID, trimmed, models.MessageMeetingInvite)
}

func (s *ChatService) send(
	ctx context.Context,
	actorID string,
	conversationID string,
	content string,
	messageType models.MessageType,
) (*ChatDelivery, error) {
	conversation, err := s.memberConversation(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ID:             newMessageID(),
		ConversationID: conversationID,
		SenderID:       actorID,
		Content:        content,
		Type:           messageType,
		Timestamp:      models.EpochMillis(s.now()),
		SeenBy:         []string{actorID},
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	// The message is persisted at this point; surfacing a secondary failure
	// would make the caller retry and duplicate it. The pointer is a display
	// cache and readers order from the log, so log and deliver.
	if err := s.conversationRepo.SetLastMessage(ctx, conversationID, message.ID, message.Timestamp); err != nil {
		logger.Warn().
			Err(err).
			Str("conversation_id", conversationID).
			Str("message_id", message.ID).
			Msg("last-message pointer bump failed; message already persisted")
	}

	if err := s.typing.ClearTyping(ctx, conversationID, actorID); err != nil {
		logger.Warn().
			Err(err).
			Str("conversation_id", conversationID).
			Str("user_id", actorID).
			Msg("typing clear failed after send")
	}

	conversation.LastMessageID = &message.ID
	conversation.LastUpdate = message.Timestamp

	return &ChatDelivery{
		Conversation: conversation,
		Message:      message,
		Participants: conversation.Participants,
	}, nil
}

// MarkSeen records that the viewer has observed a message; repeated calls are
// no-ops.
func (s *ChatService) MarkSeen(
	ctx context.Context,
	actorID string,
	conversationID string,
	messageID string,
) (*SeenUpdate, error) {
	conversation, err := s.memberConversation(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.messageRepo.MarkSeen(ctx, messageID, conversationID, actorID); err != nil {
		return nil, err
	}
	return &SeenUpdate{
		ConversationID: conversationID,
		MessageID:      messageID,
		UserID:         actorID,
		Participants:   conversation.Participants,
	}, nil
}

// SetTyping publishes or clears the viewer's typing signal.
func (s *ChatService) SetTyping(
	ctx context.Context,
	actorID string,
	conversationID string,
	isTyping bool,
) (*TypingUpdate, error) {
	conversation, err := s.memberConversation(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}

	if isTyping {
		err = s.typing.SetTyping(ctx, conversationID, actorID, s.now())
	} else {
		err = s.typing.ClearTyping(ctx, conversationID, actorID)
	}
	if err != nil {
		return nil, err
	}

	return &TypingUpdate{
		ConversationID: conversationID,
		UserID:         actorID,
		IsTyping:       isTyping,
		Participants:   conversation.Participants,
	}, nil
}

// ActiveTypers returns the participants currently considered typing, with
// staleness re-evaluated at call time.
func (s *ChatService) ActiveTypers(
	ctx context.Context,
	actorID string,
	conversationID string,
) ([]string, error) {
	if _, err := s.memberConversation(ctx, conversationID, actorID); err != nil {
		return nil, err
	}
	return s.typing.ActiveTypers(ctx, conversationID, s.now())
}

func (s *ChatService) memberConversation(
	ctx context.Context,
	conversationID string,
	actorID string,
) (*models.Conversation, error) {
	conversation, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	return conversation, nil
}

func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
