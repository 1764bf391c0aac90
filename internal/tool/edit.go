package tool

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yanmxa/codo/internal/message"
	"github.com/yanmxa/codo/internal/readtrack"
)

// EditFile performs string-replacement edits on files. Edits are gated on the
// file having been read earlier in the session.
type EditFile struct {
	Validator *readtrack.Validator
}

func (t *EditFile) Name() string        { return "edit_file" }
func (t *EditFile) Description() string { return "Edit a file by replacing old_text with new_text" }

func (t *EditFile) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{
				"type":        "string",
				"description": "Path of the file to edit",
			},
			"old_text": map[string]any{
				"type":        "string",
				"description": "Exact text to replace",
			},
			"new_text": map[string]any{
				"type":        "string",
				"description": "Replacement text",
			},
			"replace_all": map[string]any{
				"type":        "boolean",
				"description": "Replace every occurrence instead of the first. Default false.",
			},
		},
		"required": []string{"file_path", "old_text", "new_text"},
	}
}

func (t *EditFile) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	path := strParam(params, "file_path")
	if path == "" {
		return errResult("file_path is required")
	}
	oldText, ok := params["old_text"].(string)
	if !ok || oldText == "" {
		return errResult("old_text is required")
	}
	newText, ok := params["new_text"].(string)
	if !ok {
		return errResult("new_text is required")
	}
	path = resolvePath(cwd, path)

	if t.Validator != nil && !t.Validator.Validate(path) {
		return errResult(t.Validator.ViolationMessage(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errResult("failed to read file: " + err.Error())
	}
	content := string(data)

	count := strings.Count(content, oldText)
	if count == 0 {
		return errResult("old_text not found in " + path)
	}

	replaceAll := boolParam(params, "replace_all")
	if count > 1 && !replaceAll {
		return errResult(fmt.Sprintf("old_text occurs %d times in %s; pass replace_all or make it unique", count, path))
	}

	var updated string
	replaced := 1
	if replaceAll {
		updated = strings.ReplaceAll(content, oldText, newText)
		replaced = count
	} else {
		updated = strings.Replace(content, oldText, newText, 1)
	}

	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return errResult("failed to write file: " + err.Error())
	}

	summary := fmt.Sprintf("Edited %s (%d replacement(s))", path, replaced)
	return okResult(summary, summary)
}
