package domain

import "time"

// ChatMessage is one entry of a chat thread.
type ChatMessage struct {
	ID        int       `json:"id"`
	Sender    Role      `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatThread is the append-only conversation between a client session and a
// provider. Threads live in memory only.
type ChatThread struct {
	SessionID  string        `json:"-"`
	ProviderID string        `json:"provider_id"`
	Messages   []ChatMessage `json:"messages"`
}
