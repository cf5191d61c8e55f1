package database

import (
	"database/sql"
	"fmt"
	"time"
)

// MessageKind is the closed set of peer kinds a message can originate from.
// It is resolved once at the ingestion boundary and never re-inferred.
type MessageKind string

const (
	KindChannel MessageKind = "Channel"
	KindChat    MessageKind = "Chat"
)

// Message represents one collected chat message. Identity is the composite
// (message_id, chat_id) pair; message IDs are only unique within a chat.
type Message struct {
	MessageID int64          `db:"message_id"`
	ChatID    int64          `db:"chat_id"`
	Sender    sql.NullString `db:"sender"`
	Kind      MessageKind    `db:"kind"`
	Text      sql.NullString `db:"text"`
	Timestamp time.Time      `db:"timestamp"`
	Processed bool           `db:"processed"`
	CreatedAt time.Time      `db:"created_at"`
}

// Key returns the composite identity of the message.
func (m *Message) Key() MessageKey {
	return MessageKey{MessageID: m.MessageID, ChatID: m.ChatID}
}

// SenderName returns the sender display name, or a synthesized label when
// the sender is unknown.
func (m *Message) SenderName() string {
	if m.Sender.Valid && m.Sender.String != "" {
		return m.Sender.String
	}
	return fmt.Sprintf("User %d", m.ChatID)
}

// MessageKey identifies a message by its composite primary key.
type MessageKey struct {
	MessageID int64
	ChatID    int64
}

// Checkpoint is the advisory record of the last message included in the most
// recent successful summarization batch. The processed flag on messages stays
// authoritative; the checkpoint exists for observability and backward
// compatibility with the summary_state table.
type Checkpoint struct {
	LastProcessedAt        time.Time `db:"last_processed_at"`
	LastProcessedMessageID int64     `db:"last_processed_message_id"`
	LastProcessedChatID    int64     `db:"last_processed_chat_id"`
	UpdatedAt              time.Time `db:"updated_at"`
}

// Statistics aggregates message counts for the dashboard.
type Statistics struct {
	Total        int64 `db:"total"`
	Channels     int64 `db:"channels"`
	Chats        int64 `db:"chats"`
	Processed    int64 `db:"processed"`
	NotProcessed int64 `db:"not_processed"`
}
