package session

import (
	"strings"
	"unicode/utf8"

	"github.com/yanmxa/codo/internal/provider"
)

// MaxTitleLength is the maximum length for a session title.
const MaxTitleLength = 60

// GenerateTitle derives a title from the first real user message.
func GenerateTitle(messages []provider.ChatMessage) string {
	for _, msg := range messages {
		if msg.Role == provider.ChatUser && msg.Content != "" && msg.ToolOutput == nil {
			return truncateTitle(msg.Content)
		}
	}
	return "Untitled Session"
}

// truncateTitle shortens a string to MaxTitleLength runes, preferring a
// word boundary.
func truncateTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= MaxTitleLength {
		return s
	}

	runes := []rune(s)
	truncated := string(runes[:MaxTitleLength])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > MaxTitleLength/2 {
		truncated = truncated[:lastSpace]
	}
	return strings.TrimSpace(truncated) + "..."
}
