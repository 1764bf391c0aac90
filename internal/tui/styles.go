package tui

import "github.com/charmbracelet/lipgloss"

var (
	inputPromptStyle lipgloss.Style
	aiPromptStyle    lipgloss.Style
	separatorStyle   lipgloss.Style
	thinkingStyle    lipgloss.Style
	reasoningStyle   lipgloss.Style
	systemMsgStyle   lipgloss.Style

	toolPendingStyle   lipgloss.Style
	toolCompletedStyle lipgloss.Style
	toolFailedStyle    lipgloss.Style
	toolCanceledStyle  lipgloss.Style

	promptBoxStyle   lipgloss.Style
	promptTitleStyle lipgloss.Style
	promptHintStyle  lipgloss.Style

	statusStyle lipgloss.Style
)

func init() {
	inputPromptStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.Primary).
		Bold(true)

	aiPromptStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.AI).
		Bold(true)

	separatorStyle = lipgloss.NewStyle().
		Faint(true).
		Foreground(CurrentTheme.Separator)

	thinkingStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.Accent)

	reasoningStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.Muted).
		Italic(true)

	systemMsgStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.TextDim).
		PaddingLeft(2)

	toolPendingStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.Accent)

	toolCompletedStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.Success)

	toolFailedStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.Error)

	toolCanceledStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.Muted)

	promptBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(CurrentTheme.Warning).
		Padding(0, 1)

	promptTitleStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.Warning).
		Bold(true)

	promptHintStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.Muted)

	statusStyle = lipgloss.NewStyle().
		Foreground(CurrentTheme.TextDim)
}
