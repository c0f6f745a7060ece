package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"
)

// DefaultKillGrace is how long a timed out child gets between SIGTERM and SIGKILL.
const DefaultKillGrace = 10 * time.Second

type Local struct {
	killGrace time.Duration
	logger    *slog.Logger
}

func NewLocal(killGrace time.Duration, logger *slog.Logger) *Local {
	if killGrace <= 0 {
		killGrace = DefaultKillGrace
	}
	return &Local{
		killGrace: killGrace,
		logger:    logger,
	}
}

func (e *Local) Name() string {
	return "local"
}

// Run splits commandLine with shell quoting rules and starts the executable directly,
// without a shell. Stdout and stderr share a single pipe and are copied to opts.Output
// as they arrive.
func (e *Local) Run(ctx context.Context, commandLine string, opts RunOptions) error {
	argv, err := shellquote.Split(commandLine)
	if err != nil {
		return fmt.Errorf("could not split command line %q: %w", commandLine, err)
	}
	if len(argv) == 0 {
		return fmt.Errorf("empty command line")
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	e.logger.Debug("executing command", slog.String("cmd", commandLine))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = output
	cmd.Stderr = output
	cmd.Stdin = opts.Stdin
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = e.killGrace

	err = cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		e.logger.Warn("command timed out",
			slog.String("cmd", commandLine),
			slog.Duration("timeout", opts.Timeout),
		)
		return &ProcessError{
			CommandLine: commandLine,
			ExitCode:    exitCode(cmd),
			TimedOut:    true,
			Err:         ctx.Err(),
		}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			e.logger.Warn("command failed",
				slog.String("cmd", commandLine),
				slog.Int("exit_code", code),
			)
			return &ProcessError{CommandLine: commandLine, ExitCode: code, Err: err}
		}

		e.logger.Error("command execution error",
			slog.String("cmd", commandLine),
			slog.String("error", err.Error()),
		)
		return &ProcessError{CommandLine: commandLine, ExitCode: -1, Err: err}
	}

	e.logger.Debug("command succeeded", slog.String("cmd", commandLine))
	return nil
}

func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}
