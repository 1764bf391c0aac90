// Package message defines the canonical conversation log types shared across
// the codebase. The controller owns the log; every other package imports from
// here to avoid circular dependencies.
package message

import (
	"time"

	"github.com/google/uuid"
)

// Role represents the role of a log entry.
type Role string

const (
	RoleUser          Role = "user"
	RoleAssistant     Role = "assistant"
	RoleSystem        Role = "system"
	RoleToolExecution Role = "tool_execution"
)

// ToolStatus represents the lifecycle state of a tool execution.
// A pending execution transitions to exactly one terminal state.
type ToolStatus string

const (
	StatusPending   ToolStatus = "pending"
	StatusCompleted ToolStatus = "completed"
	StatusFailed    ToolStatus = "failed"
	StatusCanceled  ToolStatus = "canceled"
)

// ToolResult is the outcome a tool executor reports back.
type ToolResult struct {
	Success      bool   `json:"success"`
	Content      string `json:"content,omitempty"`
	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
	UserRejected bool   `json:"user_rejected,omitempty"`
}

// ToolExecution models one in-flight tool call.
type ToolExecution struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Args          map[string]any `json:"args,omitempty"`
	Status        ToolStatus     `json:"status"`
	NeedsApproval bool           `json:"needs_approval"`
	Result        *ToolResult    `json:"result,omitempty"`
}

// Message represents one entry in the conversation log. Entries are immutable
// once appended, except tool_execution entries whose Content/ToolExecution are
// replaced in place when the underlying tool completes.
type Message struct {
	ID            string         `json:"id"`
	Role          Role           `json:"role"`
	Content       string         `json:"content,omitempty"`
	Reasoning     string         `json:"reasoning,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
	ToolExecution *ToolExecution `json:"tool_execution,omitempty"`
}

// Usage contains token usage reported by a provider for one API call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewID returns a fresh unique identifier for messages and tool executions.
func NewID() string {
	return uuid.NewString()
}
