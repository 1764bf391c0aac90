package tool

import (
	"context"
	"os"

	"github.com/yanmxa/codo/internal/message"
)

// DeleteFile removes a single file. Directories are refused.
type DeleteFile struct{}

func (t *DeleteFile) Name() string        { return "delete_file" }
func (t *DeleteFile) Description() string { return "Delete a file" }

func (t *DeleteFile) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{
				"type":        "string",
				"description": "Path of the file to delete",
			},
		},
		"required": []string{"file_path"},
	}
}

func (t *DeleteFile) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	path := strParam(params, "file_path")
	if path == "" {
		return errResult("file_path is required")
	}
	path = resolvePath(cwd, path)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errResult("file not found: " + path)
		}
		return errResult("failed to stat file: " + err.Error())
	}
	if info.IsDir() {
		return errResult("path is a directory, refusing to delete: " + path)
	}

	if err := os.Remove(path); err != nil {
		return errResult("failed to delete file: " + err.Error())
	}

	return okResult("Deleted "+path, "Deleted "+path)
}
