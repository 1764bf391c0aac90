// Package openai implements the provider interface using the OpenAI SDK's
// Chat Completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/yanmxa/codo/internal/log"
	"github.com/yanmxa/codo/internal/provider"
)

func init() {
	provider.Register("openai", func(ctx context.Context) (provider.LLMProvider, error) {
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return New(openai.NewClient(option.WithAPIKey(key))), nil
	})
}

// Client implements provider.LLMProvider using the OpenAI SDK.
type Client struct {
	sdk openai.Client
}

// New creates a provider backed by the given SDK client.
func New(sdk openai.Client) *Client {
	return &Client{sdk: sdk}
}

// Name returns the provider name.
func (c *Client) Name() string { return "openai" }

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

		params := openai.ChatCompletionNewParams{
			Model:    opts.Model,
			Messages: convertMessages(opts),
		}
		if opts.MaxTokens > 0 {
			params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
		}
		if len(opts.Tools) > 0 {
			params.Tools = convertTools(opts.Tools)
		}

		stream := c.sdk.Chat.Completions.NewStreaming(ctx, params)

		toolCalls := make(map[int]*provider.ToolCall)
		var response provider.CompletionResponse
		start := time.Now()
		chunks := 0

		for stream.Next() {
			chunk := stream.Current()
			chunks++

			for _, choice := range chunk.Choices {
				if choice.Delta.Content != "" {
					if !emit(provider.StreamChunk{Type: provider.ChunkTypeText, Text: choice.Delta.Content}) {
						return
					}
					response.Content += choice.Delta.Content
				}

				for _, tc := range choice.Delta.ToolCalls {
					idx := int(tc.Index)
					if _, exists := toolCalls[idx]; !exists {
						toolCalls[idx] = &provider.ToolCall{ID: tc.ID, Name: tc.Function.Name}
						if !emit(provider.StreamChunk{
							Type:     provider.ChunkTypeToolStart,
							ToolID:   tc.ID,
							ToolName: tc.Function.Name,
						}) {
							return
						}
					}
					if tc.Function.Arguments != "" {
						toolCalls[idx].Input += tc.Function.Arguments
						if !emit(provider.StreamChunk{
							Type:   provider.ChunkTypeToolInput,
							ToolID: toolCalls[idx].ID,
							Text:   tc.Function.Arguments,
						}) {
							return
						}
					}
				}

				switch choice.FinishReason {
				case "":
				case "stop":
					response.StopReason = "end_turn"
				case "tool_calls":
					response.StopReason = "tool_use"
				case "length":
					response.StopReason = "max_tokens"
				default:
					response.StopReason = choice.FinishReason
				}
			}

			if chunk.Usage.PromptTokens > 0 {
				response.Usage.PromptTokens = int(chunk.Usage.PromptTokens)
			}
			if chunk.Usage.CompletionTokens > 0 {
				response.Usage.CompletionTokens = int(chunk.Usage.CompletionTokens)
			}
		}

		log.Stream(c.Name(), time.Since(start), chunks)

		if err := stream.Err(); err != nil {
			emit(provider.StreamChunk{Type: provider.ChunkTypeError, Error: wrapError(err)})
			return
		}

		// Tool call indices are dense, so ordered collection is stable.
		for i := 0; i < len(toolCalls); i++ {
			if tc, ok := toolCalls[i]; ok {
				response.ToolCalls = append(response.ToolCalls, *tc)
			}
		}
		response.Usage.TotalTokens = response.Usage.PromptTokens + response.Usage.CompletionTokens

		emit(provider.StreamChunk{Type: provider.ChunkTypeDone, Response: &response})
	}()

	return ch
}

func convertMessages(opts provider.CompletionOptions) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(opts.Messages)+1)

	if opts.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(opts.SystemPrompt))
	}

	for _, msg := range opts.Messages {
		switch msg.Role {
		case provider.ChatUser:
			if msg.ToolOutput != nil {
				messages = append(messages, openai.ToolMessage(msg.ToolOutput.Content, msg.ToolOutput.ToolCallID))
			} else {
				messages = append(messages, openai.UserMessage(msg.Content))
			}

		case provider.ChatAssistant:
			if len(msg.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(msg.Content))
				continue
			}
			var asst openai.ChatCompletionAssistantMessageParam
			if msg.Content != "" {
				asst.Content.OfString = openai.Opt(msg.Content)
			}
			asst.ToolCalls = make([]openai.ChatCompletionMessageToolCallUnionParam, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				asst.ToolCalls[i] = openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: tc.Input,
						},
					},
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})

		case provider.ChatSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		}
	}
	return messages
}

func convertTools(tools []provider.Tool) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var funcParams openai.FunctionParameters
		if props, ok := t.Parameters.(map[string]any); ok {
			funcParams = props
		}
		out = append(out, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  funcParams,
				},
			},
		})
	}
	return out
}

// wrapError maps SDK errors onto provider.APIError. Context cancellation
// passes through untouched.
func wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &provider.APIError{
			StatusCode: apiErr.StatusCode,
			Code:       apiErr.Code,
			Message:    apiErr.Message,
		}
	}
	return err
}

var _ provider.LLMProvider = (*Client)(nil)
