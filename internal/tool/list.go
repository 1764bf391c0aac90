package tool

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/yanmxa/codo/internal/message"
)

const maxListResults = 200

// ListFiles finds files matching a glob pattern, ** included.
type ListFiles struct{}

func (t *ListFiles) Name() string        { return "list_files" }
func (t *ListFiles) Description() string { return "Find files matching a glob pattern" }

func (t *ListFiles) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pattern": map[string]any{
				"type":        "string",
				"description": "Glob pattern to match files (e.g. '**/*.go', 'src/**/*.ts')",
			},
			"path": map[string]any{
				"type":        "string",
				"description": "Base directory to search in. Default is the working directory.",
			},
		},
		"required": []string{"pattern"},
	}
}

func (t *ListFiles) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	pattern := strParam(params, "pattern")
	if pattern == "" {
		return errResult("pattern is required")
	}

	base := cwd
	if p := strParam(params, "path"); p != "" {
		base = resolvePath(cwd, p)
	}
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		return errResult("path not found or not a directory: " + base)
	}

	matches, err := doublestar.Glob(os.DirFS(base), pattern)
	if err != nil {
		return errResult("invalid pattern: " + err.Error())
	}
	sort.Strings(matches)

	truncated := false
	if len(matches) > maxListResults {
		matches = matches[:maxListResults]
		truncated = true
	}

	if len(matches) == 0 {
		return okResult("No files matched "+pattern, "0 matches")
	}

	var sb strings.Builder
	for _, m := range matches {
		sb.WriteString(m)
		sb.WriteByte('\n')
	}
	if truncated {
		sb.WriteString("...[result truncated]\n")
	}

	return okResult(sb.String(), fmt.Sprintf("%d matches", len(matches)))
}
