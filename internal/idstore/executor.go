package idstore

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds every external command.
const DefaultCommandTimeout = 5 * time.Second

// CommandExecutor runs an external command and returns its trimmed output.
type CommandExecutor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
}

// ExecCommandExecutor runs commands with os/exec under a timeout.
type ExecCommandExecutor struct {
	Timeout time.Duration
}

func (e *ExecCommandExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output, err := exec.CommandContext(timeoutCtx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("command %q failed: %w", name, err)
	}
	return strings.TrimSpace(string(output)), nil
}
