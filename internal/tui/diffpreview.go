package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/yanmxa/codo/internal/preview"
)

// maxVisibleDiffLines caps how many diff lines the approval prompt shows.
const maxVisibleDiffLines = 20

func diffAddedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Success)
}

func diffRemovedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Error)
}

func diffContextStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
}

func diffLineNoStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(CurrentTheme.TextDisabled).
		Width(5).
		Align(lipgloss.Right)
}

func diffHeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true)
}

// renderDiff renders a preview as colorized diff lines with line numbers.
func renderDiff(p *preview.Preview, width int) string {
	switch p.State {
	case preview.StateError:
		return toolFailedStyle.Render("  " + p.Err)
	case preview.StateNoChanges:
		return diffContextStyle().Render("  (no changes)")
	}

	var b strings.Builder
	header := p.FilePath
	if p.IsNewFile {
		header += " (new file)"
	}
	b.WriteString(diffHeaderStyle().Render(" " + header))
	b.WriteString(diffContextStyle().Render(fmt.Sprintf("  +%d -%d", p.AddedCount, p.RemovedCount)))
	b.WriteString("\n")

	shown := 0
	for _, line := range p.Lines {
		if line.Type == preview.LineHunk || line.Type == preview.LineMeta {
			continue
		}
		if shown >= maxVisibleDiffLines {
			remaining := countContentLines(p.Lines) - shown
			b.WriteString(diffContextStyle().Italic(true).Render(
				fmt.Sprintf("  … %d more lines", remaining)))
			b.WriteString("\n")
			break
		}
		b.WriteString(renderDiffLine(line, width))
		b.WriteString("\n")
		shown++
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderDiffLine(line preview.Line, width int) string {
	var marker string
	var style lipgloss.Style
	var lineNo int

	switch line.Type {
	case preview.LineAdded:
		marker, style, lineNo = "+", diffAddedStyle(), line.NewLineNo
	case preview.LineRemoved:
		marker, style, lineNo = "-", diffRemovedStyle(), line.OldLineNo
	default:
		marker, style, lineNo = " ", diffContextStyle(), line.NewLineNo
	}

	content := line.Content
	if width > 10 {
		content = runewidth.Truncate(content, width-10, "…")
	}
	return diffLineNoStyle().Render(fmt.Sprintf("%d", lineNo)) +
		style.Render(" "+marker+" "+content)
}

func countContentLines(lines []preview.Line) int {
	n := 0
	for _, l := range lines {
		if l.Type != preview.LineHunk && l.Type != preview.LineMeta {
			n++
		}
	}
	return n
}
