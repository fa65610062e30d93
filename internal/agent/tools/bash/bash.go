// Package bash implements the "bash" tool: it executes a shell
// command and captures stdout/stderr.
package bash

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/traeagent/trae-agent-go/internal/agent/tools"
)

const (
	maxOutputLen     = 16000
	truncatedMessage = "<response clipped><NOTE>To save on context only part of this output has been shown. " +
		"You might want to use file redirection or more specific commands to manage large outputs.</NOTE>"
)

// Tool implements tools.Tool for shell command execution.
type Tool struct{}

// New returns the bash tool.
func New() *Tool { return &Tool{} }

func (*Tool) Name() string { return "bash" }

func (*Tool) Description() string {
	return "Executes a shell command and returns its stdout and stderr. " +
		"Use this for running scripts, system commands, etc. " +
		"Ensure commands are safe and necessary. " +
		"The command is executed in a temporary shell (sh -c 'command')."
}

func (*Tool) Parameters() map[string]tools.ParamDef {
	return map[string]tools.ParamDef{
		"command": {
			Type:        tools.TypeString,
			Description: "The shell command to execute.",
			Required:    true,
		},
		"timeout": {
			Type:        tools.TypeInteger,
			Description: "Optional timeout in seconds for the command execution.",
		},
		"working_directory": {
			Type:        tools.TypeString,
			Description: "Optional directory path where the command should be executed.",
		},
	}
}

func (*Tool) Required() []string { return []string{"command"} }

func (t *Tool) Execute(ctx context.Context, args map[string]any) (*tools.ExecResult, error) {
	command, _ := args["command"].(string)
	if strings.TrimSpace(command) == "" {
		return nil, tools.InvalidArguments(t.Name(), "Command cannot be empty.")
	}

	var timeout time.Duration
	hasTimeout := false
	if v, ok := args["timeout"]; ok && v != nil {
		switch n := v.(type) {
		case float64:
			timeout = time.Duration(n) * time.Second
			hasTimeout = true
		case int:
			timeout = time.Duration(n) * time.Second
			hasTimeout = true
		}
	}

	workDir, _ := args["working_directory"].(string)

	runCtx := ctx
	var cancel context.CancelFunc
	if hasTimeout {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	cmd.Stdin = nil
	if workDir != "" {
		cmd.Dir = workDir
	}

	stdoutBuf := &strings.Builder{}
	stderrBuf := &strings.Builder{}
	cmd.Stdout = stdoutBuf
	cmd.Stderr = stderrBuf

	runErr := cmd.Run()

	if hasTimeout && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		msg := fmt.Sprintf("Command '%s' timed out after %d seconds.", command, int(timeout.Seconds()))
		return &tools.ExecResult{Output: nil, Error: &msg, ErrorCode: 124}, nil
	}

	stdout := maybeTruncate(stdoutBuf.String())
	stderr := maybeTruncate(stderrBuf.String())
	combined := fmt.Sprintf("STDOUT:\n%s\nSTDERR:\n%s", stdout, stderr)

	exitCode := 0
	var errMsg *string
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
			if exitCode < 0 {
				exitCode = 1 // signalled
			}
		} else {
			return nil, tools.ExecutionFailed(t.Name(), fmt.Sprintf("Command '%s' execution failed: %v", command, runErr))
		}
		msg := fmt.Sprintf("Command exited with status: %d", exitCode)
		errMsg = &msg
	}

	return &tools.ExecResult{Output: &combined, Error: errMsg, ErrorCode: exitCode}, nil
}

func maybeTruncate(content string) string {
	if len(content) <= maxOutputLen {
		return content
	}
	if len(truncatedMessage) >= maxOutputLen {
		return content[:maxOutputLen]
	}
	keep := maxOutputLen - len(truncatedMessage)
	return content[:keep] + truncatedMessage
}
