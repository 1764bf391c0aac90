package tui

import (
	"fmt"
	"strings"

	"github.com/yanmxa/codo/internal/controller"
)

// renderApprovalPrompt renders the pending tool approval, with a diff
// preview for file-modifying tools.
func (m *model) renderApprovalPrompt(p *controller.PendingApproval) string {
	var b strings.Builder
	b.WriteString(promptTitleStyle.Render(fmt.Sprintf("Approve %s?", p.ToolName)))
	b.WriteString("\n")

	switch p.ToolName {
	case "create_file", "edit_file":
		if m.opts.Preview != nil {
			b.WriteString(renderDiff(m.opts.Preview.Generate(p.ToolName, p.ToolArgs, false), m.width))
			b.WriteString("\n")
		}
	case "execute_command":
		if cmd, ok := p.ToolArgs["command"].(string); ok {
			b.WriteString(systemMsgStyle.Render("$ " + cmd))
			b.WriteString("\n")
		}
	case "delete_file":
		if path, ok := p.ToolArgs["file_path"].(string); ok {
			b.WriteString(toolFailedStyle.Render("  delete " + path))
			b.WriteString("\n")
		}
	}

	b.WriteString(promptHintStyle.Render("y approve · a approve for session · n deny"))
	return promptBoxStyle.Width(m.width - 2).Render(b.String())
}

func (m *model) renderMaxIterationsPrompt(p *controller.PendingMaxIterations) string {
	var b strings.Builder
	b.WriteString(promptTitleStyle.Render(
		fmt.Sprintf("Reached %d consecutive turns. Keep going?", p.MaxIterations)))
	b.WriteString("\n")
	b.WriteString(promptHintStyle.Render("y continue · n stop"))
	return promptBoxStyle.Width(m.width - 2).Render(b.String())
}
