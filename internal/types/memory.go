package types

import "time"

const (
	// RoleUser marks a message written by the user.
	RoleUser = "user"
	// RoleAssistant marks a reply generated for the persona.
	RoleAssistant = "assistant"
)

const (
	// TagChat marks memories captured from chat turns.
	TagChat = "chat"
	// TagReply marks persona replies.
	TagReply = "reply"
)

// MemoryEntry is one item of a user's memory log.
type MemoryEntry struct {
	ID        int       `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	Embedding []float32 `json:"-"` // embedding vectors, not serialized
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasTags reports whether the entry carries every tag in tags.
func (m MemoryEntry) HasTags(tags []string) bool {
	for _, want := range tags {
		found := false
		for _, have := range m.Tags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// RetrievedMemory is a memory returned by similarity search.
type RetrievedMemory struct {
	Content    string    `json:"content"`
	Role       string    `json:"role"`
	Similarity float64   `json:"similarity"`
	CreatedAt  time.Time `json:"created_at"`
}
