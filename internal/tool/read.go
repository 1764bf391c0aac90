package tool

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yanmxa/codo/internal/message"
	"github.com/yanmxa/codo/internal/readtrack"
)

const (
	maxReadLines  = 2000
	maxLineLength = 500
)

// ReadFile reads file contents and records the path in the session read
// tracker so later edits pass the read-before-edit check.
type ReadFile struct {
	Tracker *readtrack.Tracker
}

func (t *ReadFile) Name() string        { return "read_file" }
func (t *ReadFile) Description() string { return "Read file contents with line numbers" }

func (t *ReadFile) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{
				"type":        "string",
				"description": "Path to the file to read (absolute or relative to the working directory)",
			},
			"offset": map[string]any{
				"type":        "integer",
				"description": "Line number to start reading from (1-based). Default is 1.",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of lines to read. Default is 2000.",
			},
		},
		"required": []string{"file_path"},
	}
}

func (t *ReadFile) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	path := strParam(params, "file_path")
	if path == "" {
		return errResult("file_path is required")
	}
	path = resolvePath(cwd, path)

	offset := intParam(params, "offset")
	if offset < 1 {
		offset = 1
	}
	limit := intParam(params, "limit")
	if limit <= 0 {
		limit = maxReadLines
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errResult("file not found: " + path)
		}
		return errResult("failed to stat file: " + err.Error())
	}
	if info.IsDir() {
		return errResult("path is a directory: " + path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errResult("failed to read file: " + err.Error())
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return okResult("Binary file detected: "+path, "binary file")
	}

	var sb strings.Builder
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	lineNo := 0
	written := 0
	for scanner.Scan() {
		lineNo++
		if lineNo < offset {
			continue
		}
		if written >= limit {
			break
		}
		line := scanner.Text()
		if len(line) > maxLineLength {
			line = line[:maxLineLength] + "..."
		}
		fmt.Fprintf(&sb, "%6d\t%s\n", lineNo, line)
		written++
	}

	if t.Tracker != nil {
		t.Tracker.Record(path)
	}

	return okResult(sb.String(), fmt.Sprintf("Read %s (%d lines)", path, written))
}
