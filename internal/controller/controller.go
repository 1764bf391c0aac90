// Package controller owns the canonical message log and drives one
// user-message-in / final-message-out request cycle: it wires the model
// client's callbacks into the tool-execution state machine, the approval
// gate, the iteration guard, and the metrics tracker, and exposes
// cancellation. All log mutation funnels through AddMessage.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yanmxa/codo/internal/agent"
	"github.com/yanmxa/codo/internal/message"
	"github.com/yanmxa/codo/internal/metrics"
	"github.com/yanmxa/codo/internal/permission"
	"github.com/yanmxa/codo/internal/provider"
)

// Client is the model-client surface the controller drives. *agent.Agent
// satisfies it.
type Client interface {
	Chat(ctx context.Context, text string) error
	SetCallbacks(cb agent.Callbacks)
	SetSessionAutoApprove(on bool)
	ClearHistory()
	Interrupt()
}

// PendingApproval is the suspended approval-gate state exposed to the
// presentation layer. At most one exists at a time.
type PendingApproval struct {
	ToolName string
	ToolArgs map[string]any
	ch       chan agent.Approval
}

// PendingMaxIterations is the suspended iteration-guard state. At most
// one exists at a time, mutually exclusive with PendingApproval.
type PendingMaxIterations struct {
	MaxIterations int
	ch            chan bool
}

// Options configures a Controller.
type Options struct {
	Client         Client
	Classification permission.Classification
	Metrics        *metrics.Tracker

	// OnUpdate is invoked after every observable state change, so a
	// presentation layer can re-render. May be nil.
	OnUpdate func()

	// OnRequestStart/OnRequestEnd fire around each request for external
	// request counting. May be nil.
	OnRequestStart func()
	OnRequestEnd   func()
}

// Controller coordinates one conversation. All exported methods are safe
// for concurrent use; the gates block the request goroutine while the
// presentation layer resolves them from another.
type Controller struct {
	client         Client
	classification permission.Classification
	metrics        *metrics.Tracker
	onUpdate       func()
	onRequestStart func()
	onRequestEnd   func()

	mu                   sync.Mutex
	messages             []message.Message
	inputHistory         []string
	processing           bool
	sessionAutoApprove   bool
	showReasoning        bool
	currentTool          *message.ToolExecution
	currentToolMsgID     string
	pendingApproval      *PendingApproval
	pendingMaxIterations *PendingMaxIterations
}

// New creates a Controller and installs its callbacks on the client.
func New(opts Options) *Controller {
	if opts.Classification == nil {
		opts.Classification = permission.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewTracker()
	}
	c := &Controller{
		client:         opts.Client,
		classification: opts.Classification,
		metrics:        opts.Metrics,
		onUpdate:       opts.OnUpdate,
		onRequestStart: opts.OnRequestStart,
		onRequestEnd:   opts.OnRequestEnd,
	}
	c.client.SetCallbacks(agent.Callbacks{
		OnThinkingText:  c.onAssistantText,
		OnFinalMessage:  c.onAssistantText,
		OnToolStart:     c.onToolStart,
		OnToolEnd:       c.onToolEnd,
		OnApiUsage:      c.onAPIUsage,
		OnToolApproval:  c.onToolApproval,
		OnMaxIterations: c.onMaxIterations,
	})
	return c
}

// --- Request lifecycle ---

// SendMessage runs one request to completion. It is a no-op while a prior
// request is still active. Blocks until the request finishes; run it on
// its own goroutine when driving a UI.
func (c *Controller) SendMessage(ctx context.Context, text string) {
	c.mu.Lock()
	if c.processing {
		c.mu.Unlock()
		return
	}
	c.processing = true
	c.inputHistory = append(c.inputHistory, text)
	c.appendLocked(message.Message{Role: message.RoleUser, Content: text})
	c.mu.Unlock()

	c.metrics.StartRequest()
	if c.onRequestStart != nil {
		c.onRequestStart()
	}
	c.notify()

	err := c.client.Chat(ctx, text)

	c.mu.Lock()
	c.processing = false
	c.currentTool = nil
	c.currentToolMsgID = ""
	c.mu.Unlock()
	c.metrics.CompleteRequest()
	if c.onRequestEnd != nil {
		c.onRequestEnd()
	}

	// Cancellation is not an error; it never reaches the log.
	if err != nil && !errors.Is(err, context.Canceled) {
		c.AddMessage(message.Message{Role: message.RoleSystem, Content: formatError(err)})
	}
	c.notify()
}

// InterruptRequest signals cancellation to the client, force-resolves any
// suspended gate, resets local state, and logs the interruption. Safe to
// call when no request is active.
func (c *Controller) InterruptRequest() {
	c.mu.Lock()
	pa := c.pendingApproval
	pm := c.pendingMaxIterations
	c.pendingApproval = nil
	c.pendingMaxIterations = nil
	c.processing = false
	c.currentTool = nil
	c.currentToolMsgID = ""
	c.appendLocked(message.Message{Role: message.RoleSystem, Content: "User has interrupted the request."})
	c.mu.Unlock()

	c.client.Interrupt()

	// A dangling waiter would wedge the conversation; resolve with the
	// negative outcome.
	if pa != nil {
		c.metrics.Resume()
		pa.ch <- agent.Approval{Approved: false}
	}
	if pm != nil {
		c.metrics.Resume()
		pm.ch <- false
	}
	c.notify()
}

// ClearHistory empties the message log and the input history and tells
// the client to drop its conversation context. Metrics are untouched.
func (c *Controller) ClearHistory() {
	c.mu.Lock()
	c.messages = nil
	c.inputHistory = nil
	c.mu.Unlock()
	c.client.ClearHistory()
	c.notify()
}

// RestoreHistory seeds the message log from a stored provider-side
// conversation, so a resumed session renders its prior turns. User text
// re-enters the input history; tool-output entries carry no display text
// and are skipped. A no-op while a request is active.
func (c *Controller) RestoreHistory(msgs []provider.ChatMessage) {
	c.mu.Lock()
	if c.processing {
		c.mu.Unlock()
		return
	}
	for _, m := range msgs {
		switch m.Role {
		case provider.ChatUser:
			if m.ToolOutput != nil || m.Content == "" {
				continue
			}
			c.inputHistory = append(c.inputHistory, m.Content)
			c.appendLocked(message.Message{Role: message.RoleUser, Content: m.Content})
		case provider.ChatAssistant:
			if m.Content == "" {
				continue
			}
			c.appendLocked(message.Message{
				Role:      message.RoleAssistant,
				Content:   m.Content,
				Reasoning: m.Thinking,
			})
		}
	}
	c.mu.Unlock()
	c.notify()
}

// AddMessage assigns a fresh ID and timestamp, appends, and returns the
// ID. This is the single mutation point for the message log.
func (c *Controller) AddMessage(m message.Message) string {
	c.mu.Lock()
	id := c.appendLocked(m)
	c.mu.Unlock()
	c.notify()
	return id
}

func (c *Controller) appendLocked(m message.Message) string {
	m.ID = message.NewID()
	m.Timestamp = time.Now()
	c.messages = append(c.messages, m)
	return m.ID
}

// --- Model client callbacks ---

func (c *Controller) onAssistantText(text, reasoning string) {
	if text == "" && reasoning == "" {
		return
	}
	c.AddMessage(message.Message{
		Role:      message.RoleAssistant,
		Content:   text,
		Reasoning: reasoning,
	})
}

func (c *Controller) onToolStart(name string, args map[string]any) {
	c.mu.Lock()
	exec := &message.ToolExecution{
		ID:            message.NewID(),
		Name:          name,
		Args:          args,
		Status:        message.StatusPending,
		NeedsApproval: c.classification.NeedsGate(name, c.sessionAutoApprove),
	}
	// A start before the prior end is a protocol violation; the stale
	// entry stays in the log but is no longer current.
	c.currentTool = exec
	c.currentToolMsgID = c.appendLocked(message.Message{
		Role:          message.RoleToolExecution,
		Content:       fmt.Sprintf("Executing %s...", name),
		ToolExecution: exec,
	})
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) onToolEnd(name string, result message.ToolResult) {
	c.mu.Lock()
	exec := c.currentTool
	msgID := c.currentToolMsgID
	c.currentTool = nil
	c.currentToolMsgID = ""
	if exec == nil {
		c.mu.Unlock()
		return
	}

	var content string
	switch {
	case result.UserRejected:
		exec.Status = message.StatusCanceled
		content = fmt.Sprintf("🚫 %s rejected by user", name)
	case !result.Success:
		exec.Status = message.StatusFailed
		content = fmt.Sprintf("🔴 %s failed: %s", name, result.Error)
	default:
		exec.Status = message.StatusCompleted
		content = fmt.Sprintf("✓ %s completed successfully", name)
		if result.Message != "" {
			content += " — " + result.Message
		}
	}
	exec.Result = &result

	for i := range c.messages {
		if c.messages[i].ID == msgID {
			c.messages[i].Content = content
			c.messages[i].ToolExecution = exec
			break
		}
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) onAPIUsage(usage message.Usage) {
	c.metrics.AddAPITokens(usage)
}

// onToolApproval suspends the request until the presentation layer calls
// ApproveToolExecution, pausing the metrics clock while a human decides.
func (c *Controller) onToolApproval(name string, args map[string]any) agent.Approval {
	p := &PendingApproval{ToolName: name, ToolArgs: args, ch: make(chan agent.Approval, 1)}
	c.mu.Lock()
	c.pendingApproval = p
	c.mu.Unlock()
	c.metrics.Pause()
	c.notify()
	return <-p.ch
}

func (c *Controller) onMaxIterations(n int) bool {
	p := &PendingMaxIterations{MaxIterations: n, ch: make(chan bool, 1)}
	c.mu.Lock()
	c.pendingMaxIterations = p
	c.mu.Unlock()
	c.metrics.Pause()
	c.notify()
	return <-p.ch
}

// --- Presentation layer callbacks ---

// ApproveToolExecution resolves the pending approval. No-op when nothing
// is pending; the pending pointer is cleared under the mutex so the gate
// resolves exactly once.
func (c *Controller) ApproveToolExecution(approved, autoApproveSession bool) {
	c.mu.Lock()
	p := c.pendingApproval
	c.pendingApproval = nil
	if p != nil && autoApproveSession {
		c.sessionAutoApprove = true
	}
	c.mu.Unlock()
	if p == nil {
		return
	}
	c.metrics.Resume()
	p.ch <- agent.Approval{Approved: approved, AutoApproveSession: autoApproveSession}
	c.notify()
}

// RespondToMaxIterations resolves the pending iteration-guard prompt.
func (c *Controller) RespondToMaxIterations(shouldContinue bool) {
	c.mu.Lock()
	p := c.pendingMaxIterations
	c.pendingMaxIterations = nil
	c.mu.Unlock()
	if p == nil {
		return
	}
	c.metrics.Resume()
	p.ch <- shouldContinue
	c.notify()
}

// ToggleAutoApprove flips the sticky session auto-approve flag and
// reports the new value.
func (c *Controller) ToggleAutoApprove() bool {
	c.mu.Lock()
	c.sessionAutoApprove = !c.sessionAutoApprove
	on := c.sessionAutoApprove
	c.mu.Unlock()
	c.client.SetSessionAutoApprove(on)
	c.notify()
	return on
}

// ToggleReasoning flips reasoning visibility for the presentation layer.
func (c *Controller) ToggleReasoning() bool {
	c.mu.Lock()
	c.showReasoning = !c.showReasoning
	on := c.showReasoning
	c.mu.Unlock()
	c.notify()
	return on
}

// --- Read accessors ---

// Messages returns a snapshot of the conversation log.
func (c *Controller) Messages() []message.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]message.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// InputHistory returns a snapshot of submitted user inputs.
func (c *Controller) InputHistory() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.inputHistory))
	copy(out, c.inputHistory)
	return out
}

// IsProcessing reports whether a request is in flight.
func (c *Controller) IsProcessing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processing
}

// CurrentToolExecution returns the live tool execution, or nil.
func (c *Controller) CurrentToolExecution() *message.ToolExecution {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTool
}

// PendingApproval returns the suspended approval gate, or nil.
func (c *Controller) PendingApproval() *PendingApproval {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingApproval
}

// PendingMaxIterations returns the suspended iteration prompt, or nil.
func (c *Controller) PendingMaxIterations() *PendingMaxIterations {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingMaxIterations
}

// ShowReasoning reports whether reasoning text should be rendered.
func (c *Controller) ShowReasoning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showReasoning
}

// SessionAutoApprove reports the sticky auto-approve flag.
func (c *Controller) SessionAutoApprove() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionAutoApprove
}

// Metrics returns the request metrics tracker.
func (c *Controller) Metrics() *metrics.Tracker {
	return c.metrics
}

func (c *Controller) notify() {
	if c.onUpdate != nil {
		c.onUpdate()
	}
}

// formatError renders a request error for the log. Provider errors carry
// their transport status and code.
func formatError(err error) string {
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == "" {
			return fmt.Sprintf("API Error (%d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Sprintf("API Error (%d): %s (Code: %s)", apiErr.StatusCode, apiErr.Message, apiErr.Code)
	}
	return "Error: " + err.Error()
}
