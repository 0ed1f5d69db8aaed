package presence

import (
	"context"
	"time"
)

// StaleAfter is the window after which a typing signal is treated as "not
// typing" regardless of what the store holds. Expiry is evaluated on the read
// side; writers are not required to clean up after themselves.
const StaleAfter = 5 * time.Second

// Store holds ephemeral typing signals keyed by (conversation, user).
// Implementations must be safe for concurrent use.
type Store interface {
	// SetTyping records the user's last keystroke time for the conversation.
	SetTyping(ctx context.Context, conversationID, userID string, at time.Time) error

	// ClearTyping removes the signal, typically on send or blur.
	ClearTyping(ctx context.Context, conversationID, userID string) error

	// ActiveTypers returns the users whose signal is younger than StaleAfter
	// as of now.
	ActiveTypers(ctx context.Context, conversationID string, now time.Time) ([]string, error)
}
