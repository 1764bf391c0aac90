package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yanmxa/codo/internal/message"
)

// CreateFile writes content to a file, creating parent directories as needed.
type CreateFile struct{}

func (t *CreateFile) Name() string        { return "create_file" }
func (t *CreateFile) Description() string { return "Create a new file or overwrite an existing one" }

func (t *CreateFile) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{
				"type":        "string",
				"description": "Path of the file to create",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "Full content to write",
			},
		},
		"required": []string{"file_path", "content"},
	}
}

func (t *CreateFile) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	path := strParam(params, "file_path")
	if path == "" {
		return errResult("file_path is required")
	}
	content, ok := params["content"].(string)
	if !ok {
		return errResult("content is required")
	}
	path = resolvePath(cwd, path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errResult("failed to create directory: " + err.Error())
	}

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errResult("failed to write file: " + err.Error())
	}

	action := "Created"
	if !isNew {
		action = "Overwrote"
	}
	lines := strings.Count(content, "\n") + 1
	summary := fmt.Sprintf("%s %s (%d lines)", action, path, lines)
	return okResult(summary, summary)
}
