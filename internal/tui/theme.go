package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the color definitions for the UI.
type Theme struct {
	Muted     lipgloss.Color // muted text, placeholders
	Accent    lipgloss.Color // spinner, tool lines
	Primary   lipgloss.Color // user prompt
	AI        lipgloss.Color // assistant responses
	Separator lipgloss.Color

	TextDim      lipgloss.Color
	TextDisabled lipgloss.Color

	Success lipgloss.Color // diff additions, completed tools
	Error   lipgloss.Color // diff removals, failures
	Warning lipgloss.Color // prompts, pending approvals

	Border lipgloss.Color
}

// DarkTheme is the palette for dark terminals.
var DarkTheme = Theme{
	Muted:     lipgloss.Color("#6B7280"),
	Accent:    lipgloss.Color("#F59E0B"),
	Primary:   lipgloss.Color("#60A5FA"),
	AI:        lipgloss.Color("#A78BFA"),
	Separator: lipgloss.Color("#4B5563"),

	TextDim:      lipgloss.Color("#9CA3AF"),
	TextDisabled: lipgloss.Color("#4B5563"),

	Success: lipgloss.Color("#10B981"),
	Error:   lipgloss.Color("#EF4444"),
	Warning: lipgloss.Color("#FBBF24"),

	Border: lipgloss.Color("#374151"),
}

// LightTheme is the palette for light terminals.
var LightTheme = Theme{
	Muted:     lipgloss.Color("#6B7280"),
	Accent:    lipgloss.Color("#D97706"),
	Primary:   lipgloss.Color("#2563EB"),
	AI:        lipgloss.Color("#7C3AED"),
	Separator: lipgloss.Color("#D1D5DB"),

	TextDim:      lipgloss.Color("#4B5563"),
	TextDisabled: lipgloss.Color("#9CA3AF"),

	Success: lipgloss.Color("#059669"),
	Error:   lipgloss.Color("#DC2626"),
	Warning: lipgloss.Color("#B45309"),

	Border: lipgloss.Color("#E5E7EB"),
}

// CurrentTheme is the active palette, chosen from the terminal background.
var CurrentTheme Theme

func init() {
	if lipgloss.HasDarkBackground() {
		CurrentTheme = DarkTheme
	} else {
		CurrentTheme = LightTheme
	}
}
