package tool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/yanmxa/codo/internal/message"
)

const (
	defaultCommandTimeout = 2 * time.Minute
	maxCommandOutput      = 30000
)

// ExecuteCommand runs a shell command and captures its combined output.
type ExecuteCommand struct{}

func (t *ExecuteCommand) Name() string        { return "execute_command" }
func (t *ExecuteCommand) Description() string { return "Execute a shell command" }

func (t *ExecuteCommand) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to execute",
			},
			"timeout": map[string]any{
				"type":        "integer",
				"description": "Timeout in seconds. Default is 120.",
			},
		},
		"required": []string{"command"},
	}
}

func (t *ExecuteCommand) Execute(ctx context.Context, params map[string]any, cwd string) message.ToolResult {
	command := strParam(params, "command")
	if command == "" {
		return errResult("command is required")
	}

	timeout := defaultCommandTimeout
	if secs := intParam(params, "timeout"); secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Dir = cwd

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	output := buf.String()
	if len(output) > maxCommandOutput {
		output = output[:maxCommandOutput] + "\n...[output truncated]"
	}

	if ctx.Err() == context.DeadlineExceeded {
		return errResult(fmt.Sprintf("command timed out after %s", timeout))
	}
	if err != nil {
		if output == "" {
			return errResult(err.Error())
		}
		return message.ToolResult{Success: false, Content: output, Error: err.Error()}
	}

	return okResult(output, "Command completed")
}
