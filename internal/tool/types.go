// Package tool implements the tool executors the model client can invoke,
// plus the registry that advertises their schemas to providers.
package tool

import (
	"context"
	"path/filepath"

	"github.com/yanmxa/codo/internal/message"
)

// Executor is a single callable tool.
type Executor interface {
	// Name returns the tool name as advertised to the model.
	Name() string

	// Description returns a brief description for the tool schema.
	Description() string

	// Schema returns the JSON schema of the tool's parameters.
	Schema() map[string]any

	// Execute runs the tool. Failures are reported as values, not errors.
	Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult
}

// errResult builds a failed tool result.
func errResult(errMsg string) message.ToolResult {
	return message.ToolResult{Success: false, Error: errMsg}
}

// okResult builds a successful tool result. content goes back to the model;
// msg is a short human-facing summary.
func okResult(content, msg string) message.ToolResult {
	return message.ToolResult{Success: true, Content: content, Message: msg}
}

// strParam extracts a string parameter.
func strParam(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

// intParam extracts an integer parameter. JSON numbers decode as float64.
func intParam(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// boolParam extracts a boolean parameter.
func boolParam(params map[string]any, key string) bool {
	b, _ := params[key].(bool)
	return b
}

// resolvePath joins a relative path onto cwd.
func resolvePath(cwd, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cwd, path)
}
