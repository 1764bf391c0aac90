package tool

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yanmxa/codo/internal/message"
)

const (
	maxSearchMatches = 50
	maxSearchFiles   = 1000
)

// SearchFiles searches file contents with a regular expression.
type SearchFiles struct{}

func (t *SearchFiles) Name() string        { return "search_files" }
func (t *SearchFiles) Description() string { return "Search file contents for a regex pattern" }

func (t *SearchFiles) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pattern": map[string]any{
				"type":        "string",
				"description": "Regular expression to search for",
			},
			"path": map[string]any{
				"type":        "string",
				"description": "Base directory to search in. Default is the working directory.",
			},
			"include": map[string]any{
				"type":        "string",
				"description": "Only search files matching this suffix or name (e.g. '.go')",
			},
		},
		"required": []string{"pattern"},
	}
}

func (t *SearchFiles) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	pattern := strParam(params, "pattern")
	if pattern == "" {
		return errResult("pattern is required")
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return errResult("invalid pattern: " + err.Error())
	}

	base := cwd
	if p := strParam(params, "path"); p != "" {
		base = resolvePath(cwd, p)
	}
	include := strParam(params, "include")

	var sb strings.Builder
	matches := 0
	searched := 0

	walkErr := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			name := d.Name()
			if name == ".git" || name == "node_modules" {
				return fs.SkipDir
			}
			return nil
		}
		if include != "" && !strings.HasSuffix(path, include) && d.Name() != include {
			return nil
		}
		if searched >= maxSearchFiles || matches >= maxSearchMatches {
			return fs.SkipAll
		}
		searched++

		data, err := os.ReadFile(path)
		if err != nil || bytes.IndexByte(data, 0) >= 0 {
			return nil
		}

		rel, _ := filepath.Rel(base, path)
		scanner := bufio.NewScanner(bytes.NewReader(data))
		scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			if re.MatchString(line) {
				if len(line) > maxLineLength {
					line = line[:maxLineLength] + "..."
				}
				fmt.Fprintf(&sb, "%s:%d: %s\n", rel, lineNo, line)
				matches++
				if matches >= maxSearchMatches {
					break
				}
			}
		}
		return nil
	})
	if walkErr != nil && walkErr != context.Canceled {
		return errResult("search failed: " + walkErr.Error())
	}

	if matches == 0 {
		return okResult("No matches found for "+pattern, "0 matches")
	}
	return okResult(sb.String(), fmt.Sprintf("%d matches", matches))
}
