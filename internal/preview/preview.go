// Package preview turns create_file/edit_file tool arguments into a
// human-reviewable change preview for the approval prompt. Live previews read
// the file's current content; historical previews are synthesized purely from
// the recorded arguments so past actions render independently of disk state.
package preview

import (
	"os"
	"strings"

	"github.com/yanmxa/codo/internal/readtrack"
)

// State is the outcome of preview generation.
type State int

const (
	// StateDiff carries rendered diff lines.
	StateDiff State = iota
	// StateNoChanges means the edit is a no-op. Legitimate, not an error.
	StateNoChanges
	// StateError carries a message to surface instead of a diff.
	StateError
)

// Preview is the renderable result of preparing a file-change preview.
type Preview struct {
	State        State
	Err          string
	FilePath     string
	Lines        []Line
	IsNewFile    bool
	AddedCount   int
	RemovedCount int
}

// Generator builds previews. ReadFile is the live-content collaborator and
// defaults to os.ReadFile; the validator gates live edit previews.
type Generator struct {
	Validator *readtrack.Validator
	ReadFile  func(path string) ([]byte, error)
}

// NewGenerator creates a generator backed by the real filesystem.
func NewGenerator(v *readtrack.Validator) *Generator {
	return &Generator{Validator: v, ReadFile: os.ReadFile}
}

// Generate produces a preview for a create_file or edit_file call.
// Historical previews skip both the read-before-edit check and live file I/O.
func (g *Generator) Generate(toolName string, args map[string]any, historical bool) *Preview {
	path, _ := args["file_path"].(string)
	if path == "" {
		return &Preview{State: StateError, Err: "No file path provided"}
	}

	switch toolName {
	case "create_file":
		return g.createPreview(path, args, historical)
	case "edit_file":
		return g.editPreview(path, args, historical)
	default:
		return &Preview{State: StateNoChanges, FilePath: path}
	}
}

func (g *Generator) createPreview(path string, args map[string]any, historical bool) *Preview {
	content, ok := args["content"].(string)
	if historical && !ok {
		return &Preview{State: StateNoChanges, FilePath: path}
	}
	if content == "" {
		return &Preview{State: StateNoChanges, FilePath: path}
	}
	return finish(path, newFileLines(content), true)
}

func (g *Generator) editPreview(path string, args map[string]any, historical bool) *Preview {
	oldText, hasOld := args["old_text"].(string)
	newText, hasNew := args["new_text"].(string)
	replaceAll, _ := args["replace_all"].(bool)

	if historical {
		if !hasOld || !hasNew {
			return &Preview{State: StateNoChanges, FilePath: path}
		}
		return finish(path, computeLines(path, oldText, newText), false)
	}

	if g.Validator != nil && !g.Validator.Validate(path) {
		return &Preview{State: StateError, Err: g.Validator.ViolationMessage(path), FilePath: path}
	}

	baseline := g.baseline(path)

	switch {
	case oldText != "" && strings.Contains(baseline, oldText):
		// Forward diff: old -> new
		updated := replace(baseline, oldText, newText, replaceAll)
		return finish(path, computeLines(path, baseline, updated), false)

	case newText != "" && strings.Contains(baseline, newText):
		// The file already reflects the new state; reconstruct what the
		// prior state would have looked like.
		prior := replace(baseline, newText, oldText, replaceAll)
		return finish(path, computeLines(path, prior, baseline), false)

	default:
		return &Preview{State: StateNoChanges, FilePath: path}
	}
}

// baseline reads the current file content. A missing file or a read failure
// both yield an empty baseline; the diff still proceeds from supplied content.
func (g *Generator) baseline(path string) string {
	readFile := g.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	data, err := readFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

func replace(s, old, new string, all bool) string {
	if all {
		return strings.ReplaceAll(s, old, new)
	}
	return strings.Replace(s, old, new, 1)
}

// finish wraps computed lines, collapsing an empty diff to the no-changes
// state rather than presenting an empty chunk list as success.
func finish(path string, lines []Line, isNew bool) *Preview {
	if len(lines) == 0 {
		return &Preview{State: StateNoChanges, FilePath: path}
	}

	added, removed := 0, 0
	for _, l := range lines {
		switch l.Type {
		case LineAdded:
			added++
		case LineRemoved:
			removed++
		}
	}

	return &Preview{
		State:        StateDiff,
		FilePath:     path,
		Lines:        lines,
		IsNewFile:    isNew,
		AddedCount:   added,
		RemovedCount: removed,
	}
}
