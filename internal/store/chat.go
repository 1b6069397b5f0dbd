package store

import (
	"fmt"
	"time"
)

// ChatMessage is one persisted advisor exchange line.
type ChatMessage struct {
	ConversationID string
	Role           string // "user" or "assistant"
	Content        string
	SentAt         time.Time
}

// AppendChat stores a chat message.
func (h *History) AppendChat(m ChatMessage) error {
	if m.SentAt.IsZero() {
		m.SentAt = time.Now()
	}
	_, err := h.db.Exec(`INSERT INTO chat_messages (conversation_id, role, content, sent_at)
		VALUES (?, ?, ?, ?)`,
		m.ConversationID, m.Role, m.Content, m.SentAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("store: appending chat: %w", err)
	}
	return nil
}

// Conversation returns the messages of one conversation in send order.
func (h *History) Conversation(id string) ([]ChatMessage, error) {
	rows, err := h.db.Query(`SELECT conversation_id, role, content, sent_at
		FROM chat_messages WHERE conversation_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("store: querying chat: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []ChatMessage
	for rows.Next() {
		var m ChatMessage
		var sent string
		if err := rows.Scan(&m.ConversationID, &m.Role, &m.Content, &sent); err != nil {
			return nil, err
		}
		m.SentAt, _ = time.Parse(timeLayout, sent)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
