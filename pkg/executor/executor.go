package executor

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Executor runs a command line and streams its combined output.
type Executor interface {
	Run(ctx context.Context, commandLine string, opts RunOptions) error
	Name() string
}

// RunOptions controls a single invocation.
type RunOptions struct {
	// Timeout is measured from invocation start. Zero means no timeout.
	Timeout time.Duration
	// Output receives stdout and stderr as they arrive. Nil means os.Stdout.
	Output io.Writer
	// Stdin is attached to the child. Nil means /dev/null.
	Stdin io.Reader
}

// ProcessError is returned when a command exits non-zero, times out or cannot be started.
type ProcessError struct {
	CommandLine string
	ExitCode    int
	TimedOut    bool
	Err         error
}

func (e *ProcessError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("run(cmd=%s, timed out)", e.CommandLine)
	}
	return fmt.Sprintf("run(cmd=%s, exit_code=%d)", e.CommandLine, e.ExitCode)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}
