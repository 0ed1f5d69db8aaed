package models

import (
	"crypto/sha256"
	"encoding/hex"
)

type ConversationType string

const (
	ConversationPrivate    ConversationType = "Private"
	ConversationCourseChat ConversationType = "CourseChat"
)

type Conversation struct {
	ID            string           `json:"conversationId"`
	Type          ConversationType `json:"type"`
	Participants  []string         `json:"participants"`
	LastMessageID *string          `json:"lastMessageId,omitempty"`
	LastUpdate    int64            `json:"lastUpdate"`
}

// ConversationCard is the display-ready projection of a conversation used by
// the messenger list.
type ConversationCard struct {
	ConversationID string           `json:"conversationId"`
	Name           string           `json:"name"`
	AvatarURL      string           `json:"avatarUrl"`
	LastMessage    string           `json:"lastMessage"`
	LastUpdate     int64            `json:"lastUpdate"`
	IsOnline       bool             `json:"isOnline"`
	Type           ConversationType `json:"type"`
	Participants   []string         `json:"participants"`
}

// PrivateConversationID derives the id of the private conversation between two
// users from the sorted pair, so concurrent creates converge on the same row.
func PrivateConversationID(userID1, userID2 string) string {
	lo, hi := userID1, userID2
	if hi < lo {
		lo, hi = hi, lo
	}
	sum := sha256.Sum256([]byte(lo + "\x00" + hi))
	return "priv_" + hex.EncodeToString(sum[:8])
}

// CourseConversationID derives the chat group id for a course.
func CourseConversationID(courseID string) string {
	return "course_" + courseID
}
