package preview

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// LineType classifies one rendered diff line.
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
	LineHunk
	LineMeta
)

// Line is one line-level diff chunk, sufficient for a renderer to color-code.
type Line struct {
	Type      LineType
	Content   string
	OldLineNo int // 0 if not applicable
	NewLineNo int // 0 if not applicable
}

var hunkHeader = regexp.MustCompile(`^@@\s+-(\d+)(?:,\d+)?\s+\+(\d+)(?:,\d+)?\s+@@`)

// computeLines produces line-level diff chunks between two versions of a file
// using the myers algorithm. Identical inputs yield nil.
func computeLines(path, oldContent, newContent string) []Line {
	if oldContent == newContent {
		return nil
	}
	edits := myers.ComputeEdits(span.URIFromPath(path), oldContent, newContent)
	unified := fmt.Sprint(gotextdiff.ToUnified(path, path, oldContent, edits))
	return parseUnified(unified)
}

// parseUnified converts a unified diff into structured lines, tracking old and
// new line numbers from the hunk headers.
func parseUnified(unified string) []Line {
	if unified == "" {
		return nil
	}

	var out []Line
	oldNo, newNo := 0, 0

	for _, raw := range strings.Split(unified, "\n") {
		switch {
		case strings.HasPrefix(raw, "---"), strings.HasPrefix(raw, "+++"):
			continue

		case strings.HasPrefix(raw, "\\"):
			// "\ No newline at end of file" - no line number advance
			out = append(out, Line{Type: LineMeta, Content: strings.TrimPrefix(raw, "\\ ")})
			continue
		}

		if m := hunkHeader.FindStringSubmatch(raw); m != nil {
			oldNo, _ = strconv.Atoi(m[1])
			newNo, _ = strconv.Atoi(m[2])
			out = append(out, Line{Type: LineHunk, Content: raw})
			continue
		}

		content := raw
		marker := byte(' ')
		if len(raw) > 0 {
			marker = raw[0]
			content = raw[1:]
		}

		switch marker {
		case '+':
			out = append(out, Line{Type: LineAdded, Content: content, NewLineNo: newNo})
			newNo++
		case '-':
			out = append(out, Line{Type: LineRemoved, Content: content, OldLineNo: oldNo})
			oldNo++
		default:
			out = append(out, Line{Type: LineContext, Content: content, OldLineNo: oldNo, NewLineNo: newNo})
			oldNo++
			newNo++
		}
	}

	return out
}

// newFileLines renders a brand-new file as a single hunk of additions.
func newFileLines(content string) []Line {
	rows := strings.Split(content, "\n")
	out := make([]Line, 0, len(rows)+1)
	out = append(out, Line{Type: LineHunk, Content: fmt.Sprintf("@@ -0,0 +1,%d @@", len(rows))})
	for i, row := range rows {
		out = append(out, Line{Type: LineAdded, Content: row, NewLineNo: i + 1})
	}
	return out
}
