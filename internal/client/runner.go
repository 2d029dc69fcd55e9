package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// DefaultCommandTimeout bounds every external client invocation. A client
// that hangs is treated as a failed attempt, never waited on forever.
const DefaultCommandTimeout = 30 * time.Second

// Runner executes external commands. The indirection exists so adapter
// behavior can be tested without real client binaries.
type Runner interface {
	// Run executes the command, waits for completion within the runner's
	// timeout, and returns captured combined output. Non-zero exit and
	// timeout both return an error wrapping ErrExternalClient.
	Run(ctx context.Context, stdin io.Reader, name string, args ...string) (string, error)
	// Start launches the command without waiting for it.
	Start(name string, args ...string) error
}

// ExecRunner runs commands through os/exec with a hard timeout and
// structured logging of every invocation.
type ExecRunner struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewExecRunner creates a runner with the given per-command timeout.
func NewExecRunner(timeout time.Duration, logger *zap.Logger) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{timeout: timeout, logger: logger}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, stdin io.Reader, name string, args ...string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	r.logger.Debug("running external client command",
		zap.String("command", name),
		zap.Strings("args", args))

	start := time.Now()
	err := cmd.Run()
	output := buf.String()

	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			r.logger.Warn("external client command timed out",
				zap.String("command", name),
				zap.Duration("timeout", r.timeout))
			return output, fmt.Errorf("%w: %s timed out after %s", ErrExternalClient, name, r.timeout)
		}
		r.logger.Warn("external client command failed",
			zap.String("command", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return output, fmt.Errorf("%w: %s: %v", ErrExternalClient, name, err)
	}

	r.logger.Debug("external client command completed",
		zap.String("command", name),
		zap.Duration("elapsed", time.Since(start)))
	return output, nil
}

// Start implements Runner.
func (r *ExecRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrExternalClient, name, err)
	}
	// Detach: the UI process outlives this invocation.
	go func() { _ = cmd.Wait() }()
	return nil
}
