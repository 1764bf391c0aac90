// Package anthropic implements the provider interface using the Anthropic SDK.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/yanmxa/codo/internal/log"
	"github.com/yanmxa/codo/internal/provider"
)

func init() {
	provider.Register("anthropic", func(ctx context.Context) (provider.LLMProvider, error) {
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
		}
		return New(anthropic.NewClient(option.WithAPIKey(key))), nil
	})
}

// Client implements provider.LLMProvider using the Anthropic SDK.
type Client struct {
	sdk anthropic.Client
}

// New creates a provider backed by the given SDK client.
func New(sdk anthropic.Client) *Client {
	return &Client{sdk: sdk}
}

// Name returns the provider name.
func (c *Client) Name() string { return "anthropic" }

// Stream sends a completion request and returns a channel of chunks.
func (c *Client) Stream(ctx context.Context, opts provider.CompletionOptions) <-chan provider.StreamChunk {
	ch := make(chan provider.StreamChunk)

	go func() {
		defer close(ch)

		// emit stops delivering once the consumer's context is gone, so an
		// abandoned stream never leaks this goroutine.
		emit := func(chunk provider.StreamChunk) bool {
			select {
			case ch <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(opts.Model),
			MaxTokens: int64(opts.MaxTokens),
			Messages:  convertMessages(opts.Messages),
		}
		if opts.SystemPrompt != "" {
			params.System = []anthropic.TextBlockParam{{Text: opts.SystemPrompt}}
		}
		if len(opts.Tools) > 0 {
			params.Tools = convertTools(opts.Tools)
		}

		stream := c.sdk.Messages.NewStreaming(ctx, params)

		var response provider.CompletionResponse
		var toolID, toolName, toolInput string
		start := time.Now()
		chunks := 0

		for stream.Next() {
			event := stream.Current()
			chunks++

			switch event.Type {
			case "message_start":
				msgStart := event.AsMessageStart()
				response.Usage.PromptTokens = int(msgStart.Message.Usage.InputTokens)

			case "content_block_start":
				block := event.AsContentBlockStart()
				if block.ContentBlock.Type == "tool_use" {
					toolID = block.ContentBlock.ID
					toolName = block.ContentBlock.Name
					toolInput = ""
					if !emit(provider.StreamChunk{Type: provider.ChunkTypeToolStart, ToolID: toolID, ToolName: toolName}) {
						return
					}
				}

			case "content_block_delta":
				delta := event.AsContentBlockDelta()
				switch delta.Delta.Type {
				case "text_delta":
					if delta.Delta.Text != "" {
						if !emit(provider.StreamChunk{Type: provider.ChunkTypeText, Text: delta.Delta.Text}) {
							return
						}
						response.Content += delta.Delta.Text
					}
				case "thinking_delta":
					if delta.Delta.Thinking != "" {
						if !emit(provider.StreamChunk{Type: provider.ChunkTypeThinking, Text: delta.Delta.Thinking}) {
							return
						}
						response.Thinking += delta.Delta.Thinking
					}
				case "input_json_delta":
					if delta.Delta.PartialJSON != "" {
						if !emit(provider.StreamChunk{Type: provider.ChunkTypeToolInput, ToolID: toolID, Text: delta.Delta.PartialJSON}) {
							return
						}
						toolInput += delta.Delta.PartialJSON
					}
				}

			case "content_block_stop":
				if toolID != "" && toolName != "" {
					response.ToolCalls = append(response.ToolCalls, provider.ToolCall{
						ID:    toolID,
						Name:  toolName,
						Input: toolInput,
					})
					toolID, toolName, toolInput = "", "", ""
				}

			case "message_delta":
				msgDelta := event.AsMessageDelta()
				response.StopReason = string(msgDelta.Delta.StopReason)
				response.Usage.CompletionTokens = int(msgDelta.Usage.OutputTokens)
			}
		}

		log.Stream(c.Name(), time.Since(start), chunks)

		if err := stream.Err(); err != nil {
			emit(provider.StreamChunk{Type: provider.ChunkTypeError, Error: wrapError(err)})
			return
		}

		response.Usage.TotalTokens = response.Usage.PromptTokens + response.Usage.CompletionTokens
		emit(provider.StreamChunk{Type: provider.ChunkTypeDone, Response: &response})
	}()

	return ch
}

func convertMessages(msgs []provider.ChatMessage) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case provider.ChatUser:
			if msg.ToolOutput != nil {
				out = append(out, anthropic.NewUserMessage(anthropic.NewToolResultBlock(
					msg.ToolOutput.ToolCallID,
					msg.ToolOutput.Content,
					msg.ToolOutput.IsError,
				)))
			} else {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}

		case provider.ChatAssistant:
			if len(msg.ToolCalls) == 0 {
				out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
				continue
			}
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.ToolCalls)+1)
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input any = map[string]any{}
				if tc.Input != "" {
					if err := json.Unmarshal([]byte(tc.Input), &input); err != nil {
						input = tc.Input
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		}
	}
	return out
}

func convertTools(tools []provider.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := anthropic.ToolInputSchemaParam{}
		if props, ok := t.Parameters.(map[string]any); ok {
			schema.Properties = props["properties"]
			switch required := props["required"].(type) {
			case []string:
				schema.Required = required
			case []any:
				for _, r := range required {
					if s, ok := r.(string); ok {
						schema.Required = append(schema.Required, s)
					}
				}
			}
		}
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: schema,
			},
		})
	}
	return out
}

type errorPayload struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// wrapError maps SDK errors onto provider.APIError so callers can render the
// status code and error body. The error type and message come from the raw
// error body when present. Context cancellation passes through untouched.
func wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		out := &provider.APIError{
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Error(),
		}
		var payload errorPayload
		if raw := apiErr.RawJSON(); raw != "" && json.Unmarshal([]byte(raw), &payload) == nil {
			if payload.Error.Message != "" {
				out.Message = payload.Error.Message
			}
			out.Code = payload.Error.Type
		}
		return out
	}
	return err
}

var _ provider.LLMProvider = (*Client)(nil)
