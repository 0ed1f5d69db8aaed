package models

import (
	"sort"
	"time"
)

type MessageType string

const (
	MessageText          MessageType = "Text"
	MessageImage         MessageType = "Image"
	MessageVideo         MessageType = "Video"
	MessageFile          MessageType = "File"
	MessageMeetingInvite MessageType = "MeetingInvite"
)

type Message struct {
	ID             string      `json:"messageId"`
	ConversationID string      `json:"conversationId"`
	SenderID       string      `json:"senderId"`
	Content        string      `json:"content"`
	Type           MessageType `json:"type"`
	Timestamp      int64       `json:"timestamp"`
	SeenBy         []string    `json:"seenBy"`
}

// IsMedia reports whether the message content is a hosted media URL rather
// than user text.
func (m *Message) IsMedia() bool {
	switch m.Type {
	case MessageImage, MessageVideo, MessageFile:
		return true
	default:
		return false
	}
}

// SeenByUser reports whether userID is already in the seen-by set.
func (m *Message) SeenByUser(userID string) bool {
	for _, id := range m.SeenBy {
		if id == userID {
			return true
		}
	}
	return false
}

// SortMessages orders messages ascending by timestamp, ties broken by id.
// Display order is defined by timestamp comparison at read time, not write
// order.
func SortMessages(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].Timestamp != messages[j].Timestamp {
			return messages[i].Timestamp < messages[j].Timestamp
		}
		return messages[i].ID < messages[j].ID
	})
}

// EpochMillis converts a time to the epoch-millisecond representation used
// for message timestamps and conversation lastUpdate values.
func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}
