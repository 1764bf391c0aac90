package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/yanmxa/codo/internal/config"
	"github.com/yanmxa/codo/internal/message"
	"github.com/yanmxa/codo/internal/provider"
	"github.com/yanmxa/codo/internal/readtrack"
	"github.com/yanmxa/codo/internal/tool"
)

func newTestAgent(fake *provider.FakeProvider, opts Options) *Agent {
	opts.Provider = fake
	if opts.Tools == nil {
		opts.Tools = tool.Default(readtrack.NewTracker(), readtrack.NewValidator())
	}
	if opts.Cwd == "" {
		opts.Cwd = "/tmp"
	}
	return New(opts)
}

func toolCallResponse(name, input string) provider.CompletionResponse {
	return provider.CompletionResponse{
		ToolCalls:  []provider.ToolCall{{ID: "tc-1", Name: name, Input: input}},
		StopReason: "tool_use",
	}
}

func TestChatFinalMessage(t *testing.T) {
	fake := &provider.FakeProvider{Responses: []provider.CompletionResponse{
		{Content: "hello there", StopReason: "end_turn", Usage: message.Usage{CompletionTokens: 7}},
	}}
	a := newTestAgent(fake, Options{})

	var final string
	var usage message.Usage
	a.SetCallbacks(Callbacks{
		OnFinalMessage: func(text, _ string) { final = text },
		OnApiUsage:     func(u message.Usage) { usage = u },
	})

	if err := a.Chat(context.Background(), "hi"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if final != "hello there" {
		t.Errorf("final = %q", final)
	}
	if usage.CompletionTokens != 7 {
		t.Errorf("usage = %+v", usage)
	}

	msgs := a.Messages()
	if len(msgs) != 2 {
		t.Fatalf("conversation length = %d, want user + assistant", len(msgs))
	}
	if msgs[0].Role != provider.ChatUser || msgs[1].Role != provider.ChatAssistant {
		t.Errorf("unexpected roles: %v %v", msgs[0].Role, msgs[1].Role)
	}
}

func TestSetMessagesSeedsConversation(t *testing.T) {
	fake := &provider.FakeProvider{Responses: []provider.CompletionResponse{
		{Content: "welcome back", StopReason: "end_turn"},
	}}
	a := newTestAgent(fake, Options{})

	stored := []provider.ChatMessage{
		provider.UserChat("what is in main.go"),
		provider.AssistantChat("it holds the entrypoint", "", nil),
	}
	a.SetMessages(stored)

	if err := a.Chat(context.Background(), "and the tests?"); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	// The model turn must see the stored history ahead of the new message.
	sent := fake.Calls[0].Messages
	if len(sent) != 3 {
		t.Fatalf("model saw %d messages, want stored 2 + new user", len(sent))
	}
	if sent[0].Content != "what is in main.go" || sent[1].Content != "it holds the entrypoint" {
		t.Errorf("stored history not sent first: %+v", sent[:2])
	}
	if sent[2].Role != provider.ChatUser || sent[2].Content != "and the tests?" {
		t.Errorf("new message = %+v", sent[2])
	}

	msgs := a.Messages()
	if len(msgs) != 4 {
		t.Errorf("conversation length = %d, want stored 2 + user + assistant", len(msgs))
	}
}

func TestChatToolRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fake := &provider.FakeProvider{Responses: []provider.CompletionResponse{
		toolCallResponse("list_files", `{"pattern": "*"}`),
		{Content: "done", StopReason: "end_turn"},
	}}
	a := newTestAgent(fake, Options{Cwd: dir})

	var started, ended string
	var endResult message.ToolResult
	a.SetCallbacks(Callbacks{
		OnToolStart: func(name string, _ map[string]any) { started = name },
		OnToolEnd: func(name string, r message.ToolResult) {
			ended = name
			endResult = r
		},
	})

	if err := a.Chat(context.Background(), "list"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if started != "list_files" || ended != "list_files" {
		t.Errorf("callbacks: started=%q ended=%q", started, ended)
	}
	if !endResult.Success {
		t.Errorf("tool result: %+v", endResult)
	}

	// Second model turn must see the tool output.
	if len(fake.Calls) != 2 {
		t.Fatalf("model calls = %d", len(fake.Calls))
	}
	last := fake.Calls[1].Messages[len(fake.Calls[1].Messages)-1]
	if last.ToolOutput == nil || last.ToolOutput.ToolCallID != "tc-1" {
		t.Errorf("expected tool output in second turn, got %+v", last)
	}
}

func TestChatGatedToolRejected(t *testing.T) {
	fake := &provider.FakeProvider{Responses: []provider.CompletionResponse{
		toolCallResponse("delete_file", `{"file_path": "/tmp/x"}`),
		{Content: "ok", StopReason: "end_turn"},
	}}
	a := newTestAgent(fake, Options{})

	var gatedName string
	var endResult message.ToolResult
	a.SetCallbacks(Callbacks{
		OnToolApproval: func(name string, _ map[string]any) Approval {
			gatedName = name
			return Approval{Approved: false}
		},
		OnToolEnd: func(_ string, r message.ToolResult) { endResult = r },
	})

	if err := a.Chat(context.Background(), "delete it"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if gatedName != "delete_file" {
		t.Errorf("gated tool = %q", gatedName)
	}
	if !endResult.UserRejected || endResult.Success {
		t.Errorf("expected user rejection, got %+v", endResult)
	}

	last := fake.Calls[1].Messages[len(fake.Calls[1].Messages)-1]
	if last.ToolOutput == nil || !last.ToolOutput.IsError {
		t.Errorf("rejection should reach the model as an error output: %+v", last)
	}
}

func TestChatAutoApproveAsymmetry(t *testing.T) {
	fake := &provider.FakeProvider{Responses: []provider.CompletionResponse{
		toolCallResponse("create_file", `{"file_path": "f.txt", "content": "x"}`),
		toolCallResponse("delete_file", `{"file_path": "f.txt"}`),
		{Content: "ok", StopReason: "end_turn"},
	}}
	a := newTestAgent(fake, Options{Cwd: t.TempDir()})

	var gated []string
	a.SetCallbacks(Callbacks{
		OnToolApproval: func(name string, _ map[string]any) Approval {
			gated = append(gated, name)
			return Approval{Approved: true, AutoApproveSession: true}
		},
	})

	if err := a.Chat(context.Background(), "create then delete"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	// create_file prompts once and flips session auto-approve; delete_file
	// is dangerous and must still prompt.
	if len(gated) != 2 || gated[0] != "create_file" || gated[1] != "delete_file" {
		t.Errorf("gated sequence = %v", gated)
	}
	if !a.SessionAutoApprove() {
		t.Error("session auto-approve should be sticky")
	}
}

func TestChatSessionAutoApproveSkipsPrompt(t *testing.T) {
	fake := &provider.FakeProvider{Responses: []provider.CompletionResponse{
		toolCallResponse("create_file", `{"file_path": "f.txt", "content": "x"}`),
		{Content: "ok", StopReason: "end_turn"},
	}}
	a := newTestAgent(fake, Options{Cwd: t.TempDir()})
	a.SetSessionAutoApprove(true)

	prompted := false
	a.SetCallbacks(Callbacks{
		OnToolApproval: func(string, map[string]any) Approval {
			prompted = true
			return Approval{Approved: true}
		},
	})

	if err := a.Chat(context.Background(), "create"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if prompted {
		t.Error("auto-approve session should skip the prompt for create_file")
	}
}

func TestChatDenyRule(t *testing.T) {
	fake := &provider.FakeProvider{Responses: []provider.CompletionResponse{
		toolCallResponse("read_file", `{"file_path": "/home/u/.env"}`),
		{Content: "ok", StopReason: "end_turn"},
	}}
	a := newTestAgent(fake, Options{
		Settings: &config.Settings{Permissions: config.PermissionSettings{
			Deny: []string{"read_file(**/.env)"},
		}},
	})

	var endResult message.ToolResult
	a.SetCallbacks(Callbacks{
		OnToolEnd: func(_ string, r message.ToolResult) { endResult = r },
	})

	if err := a.Chat(context.Background(), "read env"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if endResult.Success || endResult.UserRejected {
		t.Errorf("deny rule should fail without prompting: %+v", endResult)
	}
}

func TestChatIterationGuardStops(t *testing.T) {
	var responses []provider.CompletionResponse
	for i := 0; i < 5; i++ {
		responses = append(responses, toolCallResponse("list_files", `{"pattern": "*"}`))
	}
	fake := &provider.FakeProvider{Responses: responses}
	a := newTestAgent(fake, Options{MaxIterations: 2, Cwd: t.TempDir()})

	asked := 0
	a.SetCallbacks(Callbacks{
		OnMaxIterations: func(n int) bool {
			if n != 2 {
				t.Errorf("ceiling reported as %d", n)
			}
			asked++
			return asked < 2 // continue once, then stop
		},
	})

	if err := a.Chat(context.Background(), "loop"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if asked != 2 {
		t.Errorf("guard asked %d times, want 2", asked)
	}
	// 2 turns, guard continues, 2 more turns, guard stops.
	if len(fake.Calls) != 4 {
		t.Errorf("model calls = %d, want 4", len(fake.Calls))
	}
}

func TestChatStreamError(t *testing.T) {
	wantErr := errors.New("boom")
	fake := &provider.FakeProvider{ErrorAt: 1, ErrorValue: wantErr}
	a := newTestAgent(fake, Options{})

	err := a.Chat(context.Background(), "hi")
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v", err)
	}
}

func TestInterruptCancelsChat(t *testing.T) {
	fake := &provider.FakeProvider{Responses: []provider.CompletionResponse{
		toolCallResponse("create_file", `{"file_path": "f.txt", "content": "x"}`),
	}}
	a := newTestAgent(fake, Options{Cwd: t.TempDir()})

	a.SetCallbacks(Callbacks{
		OnToolApproval: func(string, map[string]any) Approval {
			a.Interrupt()
			return Approval{Approved: false}
		},
	})

	err := a.Chat(context.Background(), "go")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestClearHistory(t *testing.T) {
	fake := &provider.FakeProvider{}
	a := newTestAgent(fake, Options{})
	if err := a.Chat(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
	if len(a.Messages()) == 0 {
		t.Fatal("expected conversation entries")
	}
	a.ClearHistory()
	if len(a.Messages()) != 0 {
		t.Error("history should be empty after ClearHistory")
	}
}
