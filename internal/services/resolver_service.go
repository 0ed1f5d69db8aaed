package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/fino-2401ft/FMentor-v54/internal/models"
)

const (
	defaultPrivateName   = "Chat"
	defaultGroupName     = "Group Chat"
	placeholderAvatarURL = "https://i.pravatar.cc/150?img=1"
)

type userReader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type courseReader interface {
	GetByChatGroupID(ctx context.Context, conversationID string) (*models.Course, error)
}

type conversationReader interface {
	GetByID(ctx context.Context, conversationID string) (*models.Conversation, error)
}

// ConversationIdentity is the user-facing identity of a conversation: the
// counterpart for private chats, the course for group chats.
type ConversationIdentity struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	IsOnline  bool   `json:"isOnline"`
}

// ResolverService derives display identities. Lookups that miss degrade to
// defaults instead of failing, uniformly for both conversation types, so the
// caller can always render a placeholder.
type ResolverService struct {
	conversationRepo conversationReader
	userRepo         userReader
	courseRepo       courseReader
}

func NewResolverService(
	conversationRepo conversationReader,
	userRepo userReader,
	courseRepo courseReader,
) *ResolverService {
	return &ResolverService{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		courseRepo:       courseRepo,
	}
}

// Resolve fetches the conversation and derives its identity for the viewer.
// Only a missing conversation itself is an error.
func (s *ResolverService) Resolve(
	ctx context.Context,
	conversationID string,
	viewerID string,
) (*ConversationIdentity, error) {
	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return s.ResolveConversation(ctx, conversation, viewerID), nil
}

// ResolveConversation derives the identity of an already-loaded conversation.
func (s *ResolverService) ResolveConversation(
	ctx context.Context,
	conversation *models.Conversation,
	viewerID string,
) *ConversationIdentity {
	if conversation.Type == models.ConversationCourseChat {
		return s.resolveCourseChat(ctx, conversation)
	}
	return s.resolvePrivate(ctx, conversation, viewerID)
}

func (s *ResolverService) resolvePrivate(
	ctx context.Context,
	conversation *models.Conversation,
	viewerID string,
) *ConversationIdentity {
	var otherID string
	for _, id := range conversation.Participants {
		if id != viewerID {
			otherID = id
			break
		}
	}

	identity := &ConversationIdentity{
		Name:      defaultPrivateName,
		AvatarURL: placeholderAvatarURL,
	}
	if otherID == "" {
		return identity
	}

	other, err := s.userRepo.GetByID(ctx, otherID)
	if err != nil {
		return identity
	}
	if other.Username != "" {
		identity.Name = other.Username
	}
	if other.AvatarURL != "" {
		identity.AvatarURL = other.AvatarURL
	}
	identity.IsOnline = other.Online
	return identity
}

func (s *ResolverService) resolveCourseChat(
	ctx context.Context,
	conversation *models.Conversation,
) *ConversationIdentity {
	identity := &ConversationIdentity{
		Name:      defaultGroupName,
		AvatarURL: placeholderAvatarURL,
	}

	course, err := s.courseRepo.GetByChatGroupID(ctx, conversation.ID)
	if err != nil {
		return identity
	}
	if course.CourseName != "" {
		identity.Name = course.CourseName
	}
	if course.CoverImage != "" {
		identity.AvatarURL = course.CoverImage
	}

	// Group liveness is proxied by the mentor's presence, not a per-member
	// status.
	if course.MentorID != "" {
		if mentor, err := s.userRepo.GetByID(ctx, course.MentorID); err == nil {
			identity.IsOnline = mentor.Online
		}
	}
	return identity
}
