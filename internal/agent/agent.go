// Package agent drives the conversation loop: it streams responses from a
// model provider, dispatches tool calls through the registry and the
// approval callback, and enforces the iteration ceiling. Callers observe
// progress exclusively through the Callbacks surface.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanmxa/codo/internal/config"
	"github.com/yanmxa/codo/internal/log"
	"github.com/yanmxa/codo/internal/message"
	"github.com/yanmxa/codo/internal/permission"
	"github.com/yanmxa/codo/internal/provider"
	"github.com/yanmxa/codo/internal/tool"
)

const defaultMaxIterations = 25

// Approval is the decision returned by the approval callback.
type Approval struct {
	Approved           bool
	AutoApproveSession bool
}

// Callbacks is the event surface the agent reports through. Nil callbacks
// are skipped; a nil OnToolApproval auto-approves gated tools.
type Callbacks struct {
	// OnThinkingText fires for assistant text produced on a turn that
	// continues with tool calls.
	OnThinkingText func(text, reasoning string)

	// OnFinalMessage fires for the assistant text that ends the request.
	OnFinalMessage func(text, reasoning string)

	// OnToolStart fires before a tool call is gated or executed.
	OnToolStart func(name string, args map[string]any)

	// OnToolEnd fires with the outcome of every tool call, rejected ones
	// included.
	OnToolEnd func(name string, result message.ToolResult)

	// OnApiUsage fires once per model turn with that turn's token usage.
	OnApiUsage func(usage message.Usage)

	// OnToolApproval blocks until the human decides on a gated tool.
	OnToolApproval func(name string, args map[string]any) Approval

	// OnMaxIterations blocks when the turn ceiling is reached; returning
	// true extends the ceiling, false stops the request.
	OnMaxIterations func(n int) bool
}

// Options configures a new Agent.
type Options struct {
	Provider       provider.LLMProvider
	Tools          *tool.Registry
	Classification permission.Classification
	Settings       *config.Settings
	SystemPrompt   string
	Model          string
	MaxTokens      int
	MaxIterations  int
	Cwd            string
}

// Agent is the model client for one conversation. A single Chat call is
// in flight at a time; the caller enforces that.
type Agent struct {
	provider       provider.LLMProvider
	tools          *tool.Registry
	classification permission.Classification
	settings       *config.Settings
	systemPrompt   string
	model          string
	maxTokens      int
	maxIterations  int
	cwd            string

	mu                 sync.Mutex
	messages           []provider.ChatMessage
	callbacks          Callbacks
	sessionAutoApprove bool
	cancel             context.CancelFunc
}

// New creates an Agent. Zero MaxIterations and MaxTokens take defaults.
func New(opts Options) *Agent {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultMaxIterations
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 8192
	}
	if opts.Classification == nil {
		opts.Classification = permission.Default()
	}
	return &Agent{
		provider:       opts.Provider,
		tools:          opts.Tools,
		classification: opts.Classification,
		settings:       opts.Settings,
		systemPrompt:   opts.SystemPrompt,
		model:          opts.Model,
		maxTokens:      opts.MaxTokens,
		maxIterations:  opts.MaxIterations,
		cwd:            opts.Cwd,
	}
}

// SetCallbacks installs the event surface. Call before Chat.
func (a *Agent) SetCallbacks(cb Callbacks) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callbacks = cb
}

// SetSessionAutoApprove flips the sticky session auto-approve flag.
func (a *Agent) SetSessionAutoApprove(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessionAutoApprove = on
}

// SessionAutoApprove reports the current flag.
func (a *Agent) SessionAutoApprove() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionAutoApprove
}

// ClearHistory drops the provider-side conversation.
func (a *Agent) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = nil
}

// Messages returns a copy of the provider-side conversation.
func (a *Agent) Messages() []provider.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]provider.ChatMessage, len(a.messages))
	copy(out, a.messages)
	return out
}

// SetMessages replaces the provider-side conversation, used when resuming
// a stored session.
func (a *Agent) SetMessages(msgs []provider.ChatMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = msgs
}

// Interrupt cancels the in-flight Chat call, if any. Safe to call when
// nothing is running.
func (a *Agent) Interrupt() {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Chat runs one request: appends the user text and loops model turn →
// tool calls → tool results until the model ends its turn, the iteration
// guard stops it, or the context is canceled. Cancellation surfaces as
// context.Canceled.
func (a *Agent) Chat(ctx context.Context, text string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.mu.Lock()
	a.cancel = cancel
	a.messages = append(a.messages, provider.UserChat(text))
	cb := a.callbacks
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.cancel = nil
		a.mu.Unlock()
	}()

	ceiling := a.maxIterations
	for iteration := 1; ; iteration++ {
		if iteration > ceiling {
			cont := false
			if cb.OnMaxIterations != nil {
				cont = cb.OnMaxIterations(a.maxIterations)
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if !cont {
				return nil
			}
			ceiling += a.maxIterations
		}

		resp, err := a.streamTurn(ctx)
		if err != nil {
			return err
		}

		if cb.OnApiUsage != nil {
			cb.OnApiUsage(resp.Usage)
		}

		a.mu.Lock()
		a.messages = append(a.messages, provider.AssistantChat(resp.Content, resp.Thinking, resp.ToolCalls))
		a.mu.Unlock()

		if len(resp.ToolCalls) == 0 {
			if cb.OnFinalMessage != nil {
				cb.OnFinalMessage(resp.Content, resp.Thinking)
			}
			return nil
		}

		if (resp.Content != "" || resp.Thinking != "") && cb.OnThinkingText != nil {
			cb.OnThinkingText(resp.Content, resp.Thinking)
		}

		for _, tc := range resp.ToolCalls {
			if err := ctx.Err(); err != nil {
				return err
			}
			result := a.runToolCall(ctx, cb, tc)
			if err := ctx.Err(); err != nil {
				return err
			}
			if cb.OnToolEnd != nil {
				cb.OnToolEnd(tc.Name, result)
			}
			a.mu.Lock()
			a.messages = append(a.messages, provider.ToolOutputChat(provider.ToolOutput{
				ToolCallID: tc.ID,
				ToolName:   tc.Name,
				Content:    toolOutputContent(result),
				IsError:    !result.Success,
			}))
			a.mu.Unlock()
		}
	}
}

func (a *Agent) streamTurn(ctx context.Context) (*provider.CompletionResponse, error) {
	a.mu.Lock()
	msgs := make([]provider.ChatMessage, len(a.messages))
	copy(msgs, a.messages)
	a.mu.Unlock()

	start := time.Now()
	ch := a.provider.Stream(ctx, provider.CompletionOptions{
		Model:        a.model,
		Messages:     msgs,
		MaxTokens:    a.maxTokens,
		Tools:        a.toolSpecs(),
		SystemPrompt: a.systemPrompt,
	})
	resp, err := provider.Collect(ctx, ch)
	if err != nil {
		return nil, err
	}
	log.Stream(a.provider.Name(), time.Since(start), len(resp.ToolCalls))
	return resp, nil
}

func (a *Agent) toolSpecs() []provider.Tool {
	specs := a.tools.Specs()
	if a.settings == nil || len(a.settings.DisabledTools) == 0 {
		return specs
	}
	out := specs[:0]
	for _, s := range specs {
		if !a.settings.DisabledTools[s.Name] {
			out = append(out, s)
		}
	}
	return out
}

// runToolCall gates one tool call and executes it if allowed.
func (a *Agent) runToolCall(ctx context.Context, cb Callbacks, tc provider.ToolCall) message.ToolResult {
	args, err := provider.ParseToolInput(tc.Input)
	if err != nil {
		return message.ToolResult{Success: false, Error: fmt.Sprintf("invalid tool input: %v", err)}
	}

	if cb.OnToolStart != nil {
		cb.OnToolStart(tc.Name, args)
	}

	gate := a.classification.NeedsGate(tc.Name, a.SessionAutoApprove())
	if a.settings != nil {
		switch a.settings.CheckRules(tc.Name, args) {
		case config.RuleDeny:
			return message.ToolResult{Success: false, Error: "denied by permission rules"}
		case config.RuleAllow:
			gate = false
		case config.RuleAsk:
			gate = true
		}
	}

	if gate && cb.OnToolApproval != nil {
		decision := cb.OnToolApproval(tc.Name, args)
		if decision.AutoApproveSession {
			a.SetSessionAutoApprove(true)
		}
		if !decision.Approved {
			return message.ToolResult{Success: false, UserRejected: true, Error: "rejected by user"}
		}
	}

	start := time.Now()
	result := a.tools.Execute(ctx, tc.Name, args, a.cwd)
	log.Tool(tc.Name, tc.ID, time.Since(start), result.Success)
	if !result.Success {
		log.Logger().Debug("tool failed",
			zap.String("tool", tc.Name),
			zap.String("error", result.Error),
		)
	}
	return result
}

// toolOutputContent renders a tool result for the model.
func toolOutputContent(r message.ToolResult) string {
	switch {
	case r.UserRejected:
		return "Tool execution was rejected by the user."
	case !r.Success:
		return "Error: " + r.Error
	case r.Content == "":
		return r.Message
	default:
		return r.Content
	}
}
