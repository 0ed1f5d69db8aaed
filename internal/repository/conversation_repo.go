package repository

import (
	"context"

	"github.com/fino-2401ft/FMentor-v54/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts a conversation and its initial participant set. The insert
// is conditional on the id, so callers racing on a deterministic id (private
// pair ids, course chat ids) converge on one row; participant rows are
// set-union merged either way.
func (r *ConversationRepository) Create(
	ctx context.Context,
	conversationID string,
	convType models.ConversationType,
	participants []string,
	lastUpdate int64,
) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO conversations (id, type, last_update)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, conversationID, convType, lastUpdate)
	if err != nil {
		return err
	}

	for _, userID := range participants {
		if err := r.AddParticipant(ctx, conversationID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, conversationID string) (*models.Conversation, error) {
	query := `
		SELECT
			c.id,
			c.type,
			c.last_message_id,
			c.last_update,
			COALESCE(
				(SELECT array_agg(p.user_id ORDER BY p.joined_at, p.user_id)
				 FROM conversation_participants p
				 WHERE p.conversation_id = c.id),
				'{}'
			)
		FROM conversations c
		WHERE c.id = $1
	`
	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, conversationID).Scan(
		&conversation.ID,
		&conversation.Type,
		&conversation.LastMessageID,
		&conversation.LastUpdate,
		&conversation.Participants,
	)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *ConversationRepository) GetByIDForParticipant(
	ctx context.Context,
	conversationID string,
	participantID string,
) (*models.Conversation, error) {
	query := `
		SELECT
			c.id,
			c.type,
			c.last_message_id,
			c.last_update,
			COALESCE(
				(SELECT array_agg(p.user_id ORDER BY p.joined_at, p.user_id)
				 FROM conversation_participants p
				 WHERE p.conversation_id = c.id),
				'{}'
			)
		FROM conversations c
		WHERE c.id = $1
		  AND EXISTS (
			SELECT 1 FROM conversation_participants p
			WHERE p.conversation_id = c.id AND p.user_id = $2
		  )
	`
	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, conversationID, participantID).Scan(
		&conversation.ID,
		&conversation.Type,
		&conversation.LastMessageID,
		&conversation.LastUpdate,
		&conversation.Participants,
	)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// ListForParticipant returns every conversation containing the user, sorted
// by lastUpdate descending.
func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	participantID string,
) ([]models.Conversation, error) {
	query := `
		SELECT
			c.id,
			c.type,
			c.last_message_id,
			c.last_update,
			COALESCE(
				(SELECT array_agg(p.user_id ORDER BY p.joined_at, p.user_id)
				 FROM conversation_participants p
				 WHERE p.conversation_id = c.id),
				'{}'
			)
		FROM conversations c
		WHERE EXISTS (
			SELECT 1 FROM conversation_participants p
			WHERE p.conversation_id = c.id AND p.user_id = $1
		)
		ORDER BY c.last_update DESC, c.id DESC
	`
	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		var conversation models.Conversation
		if err := rows.Scan(
			&conversation.ID,
			&conversation.Type,
			&conversation.LastMessageID,
			&conversation.LastUpdate,
			&conversation.Participants,
		); err != nil {
			return nil, err
		}
		conversations = append(conversations, conversation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return conversations, nil
}

// AddParticipant is an idempotent set-union add; adding an existing member is
// a no-op.
func (r *ConversationRepository) AddParticipant(ctx context.Context, conversationID, userID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO conversation_participants (conversation_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (conversation_id, user_id) DO NOTHING
	`, conversationID, userID)
	return err
}

// RemoveParticipant deletes a single membership row, so concurrent removals
// of different members never clobber each other.
func (r *ConversationRepository) RemoveParticipant(ctx context.Context, conversationID, userID string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM conversation_participants
		WHERE conversation_id = $1 AND user_id = $2
	`, conversationID, userID)
	return err
}

// SetLastMessage bumps the denormalized last-message pointer. The message log
// stays the source of truth; this is display cache only.
func (r *ConversationRepository) SetLastMessage(
	ctx context.Context,
	conversationID string,
	messageID string,
	lastUpdate int64,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET last_message_id = $2, last_update = $3
		WHERE id = $1
	`, conversationID, messageID, lastUpdate)
	return err
}
