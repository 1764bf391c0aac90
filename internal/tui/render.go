package tui

import (
	"strings"

	"github.com/yanmxa/codo/internal/message"
)

// renderMessages renders the full conversation log for the viewport.
func (m *model) renderMessages() string {
	msgs := m.opts.Controller.Messages()
	showReasoning := m.opts.Controller.ShowReasoning()

	var b strings.Builder
	for _, msg := range msgs {
		switch msg.Role {
		case message.RoleUser:
			b.WriteString(inputPromptStyle.Render("> "))
			b.WriteString(msg.Content)
		case message.RoleAssistant:
			b.WriteString(m.renderAssistant(msg, showReasoning))
		case message.RoleSystem:
			b.WriteString(systemMsgStyle.Render(msg.Content))
		case message.RoleToolExecution:
			b.WriteString(renderToolLine(msg))
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m *model) renderAssistant(msg message.Message, showReasoning bool) string {
	var b strings.Builder
	if showReasoning && msg.Reasoning != "" {
		b.WriteString(reasoningStyle.Render("∴ " + msg.Reasoning))
		b.WriteString("\n")
	}
	b.WriteString(aiPromptStyle.Render("● "))
	b.WriteString(m.renderMarkdown(msg.Content))
	return b.String()
}

// renderMarkdown runs assistant text through glamour, falling back to the
// raw text when rendering fails.
func (m *model) renderMarkdown(s string) string {
	if m.mdRenderer == nil {
		return s
	}
	out, err := m.mdRenderer.Render(s)
	if err != nil {
		return s
	}
	return strings.TrimRight(out, "\n")
}

func renderToolLine(msg message.Message) string {
	style := toolPendingStyle
	if exec := msg.ToolExecution; exec != nil {
		switch exec.Status {
		case message.StatusCompleted:
			style = toolCompletedStyle
		case message.StatusFailed:
			style = toolFailedStyle
		case message.StatusCanceled:
			style = toolCanceledStyle
		}
	}
	return style.Render("  " + msg.Content)
}
