// Package provider defines the streaming LLM provider interface and the
// conversation types exchanged with it. Concrete providers live in
// subpackages and register themselves by name.
package provider

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/yanmxa/codo/internal/message"
)

// ChatRole is the role of a conversation entry sent to a provider.
type ChatRole string

const (
	ChatUser      ChatRole = "user"
	ChatAssistant ChatRole = "assistant"
	ChatSystem    ChatRole = "system"
)

// ToolCall represents a tool invocation requested by the model.
// Input is the raw JSON argument string as streamed by the provider.
type ToolCall struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Input string `json:"input"`
}

// ToolOutput carries a tool result back into the conversation.
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name,omitempty"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

// ChatMessage is one entry of the provider-side conversation.
type ChatMessage struct {
	Role       ChatRole    `json:"role"`
	Content    string      `json:"content,omitempty"`
	Thinking   string      `json:"thinking,omitempty"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolOutput *ToolOutput `json:"tool_output,omitempty"`
}

// UserChat creates a user conversation entry.
func UserChat(text string) ChatMessage {
	return ChatMessage{Role: ChatUser, Content: text}
}

// AssistantChat creates an assistant conversation entry.
func AssistantChat(text, thinking string, calls []ToolCall) ChatMessage {
	return ChatMessage{Role: ChatAssistant, Content: text, Thinking: thinking, ToolCalls: calls}
}

// ToolOutputChat creates a conversation entry carrying a tool result.
func ToolOutputChat(out ToolOutput) ChatMessage {
	return ChatMessage{Role: ChatUser, ToolOutput: &out}
}

// Tool describes a callable tool advertised to the model.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"` // JSON Schema
}

// CompletionOptions contains options for one completion request.
type CompletionOptions struct {
	Model        string
	Messages     []ChatMessage
	MaxTokens    int
	Tools        []Tool
	SystemPrompt string
}

// CompletionResponse is a fully collected model response.
type CompletionResponse struct {
	Content    string        `json:"content,omitempty"`
	Thinking   string        `json:"thinking,omitempty"`
	ToolCalls  []ToolCall    `json:"tool_calls,omitempty"`
	StopReason string        `json:"stop_reason"` // "end_turn", "tool_use", "max_tokens"
	Usage      message.Usage `json:"usage"`
}

// ChunkType represents the type of a stream chunk.
type ChunkType string

const (
	ChunkTypeText      ChunkType = "text"
	ChunkTypeThinking  ChunkType = "thinking"
	ChunkTypeToolStart ChunkType = "tool_start"
	ChunkTypeToolInput ChunkType = "tool_input"
	ChunkTypeDone      ChunkType = "done"
	ChunkTypeError     ChunkType = "error"
)

// StreamChunk is one event in a streaming response.
type StreamChunk struct {
	Type     ChunkType
	Text     string              // text/thinking/tool_input chunks
	ToolID   string              // tool_start/tool_input chunks
	ToolName string              // tool_start chunks
	Response *CompletionResponse // done chunks
	Error    error               // error chunks
}

// LLMProvider is the interface every provider implements.
type LLMProvider interface {
	// Stream sends a completion request and returns a channel of chunks.
	// The channel is closed after the done or error chunk.
	Stream(ctx context.Context, opts CompletionOptions) <-chan StreamChunk

	// Name returns the provider name.
	Name() string
}

// Collect drains a stream into a complete response, honoring cancellation.
func Collect(ctx context.Context, ch <-chan StreamChunk) (*CompletionResponse, error) {
	var response CompletionResponse

	for chunk := range ch {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		switch chunk.Type {
		case ChunkTypeText:
			response.Content += chunk.Text
		case ChunkTypeThinking:
			response.Thinking += chunk.Text
		case ChunkTypeToolStart:
			response.ToolCalls = append(response.ToolCalls, ToolCall{ID: chunk.ToolID, Name: chunk.ToolName})
		case ChunkTypeToolInput:
			if n := len(response.ToolCalls); n > 0 {
				response.ToolCalls[n-1].Input += chunk.Text
			}
		case ChunkTypeDone:
			if chunk.Response != nil {
				return chunk.Response, nil
			}
			return &response, nil
		case ChunkTypeError:
			return nil, chunk.Error
		}
	}

	return &response, nil
}

// ParseToolInput deserializes a JSON tool input string into a params map.
func ParseToolInput(input string) (map[string]any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return map[string]any{}, nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return nil, err
	}
	return params, nil
}
