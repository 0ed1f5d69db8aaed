package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/fino-2401ft/FMentor-v54/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `
	m.id,
	m.conversation_id,
	m.sender_id,
	m.content,
	m.type,
	m.timestamp,
	COALESCE(
		(SELECT array_agg(s.user_id ORDER BY s.user_id)
		 FROM message_seen s
		 WHERE s.message_id = m.id),
		'{}'
	)`

// Create appends a message and records its initial seen-by set (normally just
// the sender).
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, content, type, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, message.ID, message.ConversationID, message.SenderID, message.Content, message.Type, message.Timestamp)
	if err != nil {
		return err
	}

	for _, userID := range message.SeenBy {
		if err := r.MarkSeen(ctx, message.ID, message.ConversationID, userID); err != nil {
			return err
		}
	}
	return nil
}

// ListByConversation returns the full message log ascending by timestamp,
// ties broken by id.
func (r *MessageRepository) ListByConversation(
	ctx context.Context,
	conversationID string,
) ([]models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		WHERE m.conversation_id = $1
		ORDER BY m.timestamp ASC, m.id ASC
	`
	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.SenderID,
			&message.Content,
			&message.Type,
			&message.Timestamp,
			&message.SeenBy,
		); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkSeen adds the user to the message's seen-by set. Set-union semantics:
// marking an already-seen message is a no-op.
func (r *MessageRepository) MarkSeen(ctx context.Context, messageID, conversationID, userID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO message_seen (message_id, user_id)
		SELECT m.id, $3
		FROM messages m
		WHERE m.id = $1 AND m.conversation_id = $2
		ON CONFLICT (message_id, user_id) DO NOTHING
	`, messageID, conversationID, userID)
	return err
}

func (r *MessageRepository) MarkManySeen(
	ctx context.Context,
	conversationID string,
	messageIDs []string,
	userID string,
) error {
	if len(messageIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO message_seen (message_id, user_id)
		SELECT m.id, $3
		FROM messages m
		WHERE m.id = ANY($1) AND m.conversation_id = $2
		ON CONFLICT (message_id, user_id) DO NOTHING
	`, messageIDs, conversationID, userID)
	return err
}

// GetLast resolves the most recent message from the log itself rather than
// the conversation's pointer, so a stale pointer after a partial write never
// surfaces. Returns nil when the conversation has no messages.
func (r *MessageRepository) GetLast(ctx context.Context, conversationID string) (*models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		WHERE m.conversation_id = $1
		ORDER BY m.timestamp DESC, m.id DESC
		LIMIT 1
	`
	var message models.Message
	err := r.db.QueryRow(ctx, query, conversationID).Scan(
		&message.ID,
		&message.ConversationID,
		&message.SenderID,
		&message.Content,
		&message.Type,
		&message.Timestamp,
		&message.SeenBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}
