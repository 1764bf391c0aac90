// Package session persists conversations as JSON files under
// ~/.codo/sessions so a conversation can be resumed later.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/yanmxa/codo/internal/provider"
)

// Metadata describes a stored session.
type Metadata struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Cwd          string    `json:"cwd"`
	MessageCount int       `json:"messageCount"`
}

// Session is a complete stored conversation.
type Session struct {
	Metadata Metadata               `json:"metadata"`
	Messages []provider.ChatMessage `json:"messages"`
}

func newSessionID() string {
	return uuid.NewString()
}
