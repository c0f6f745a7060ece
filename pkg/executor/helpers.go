package executor

import (
	"bytes"
	"context"
	"time"

	"github.com/kballard/go-shellquote"
)

// RunAndCapture runs commandLine and returns its combined output.
// The output collected so far is returned alongside any error.
func RunAndCapture(ctx context.Context, exec Executor, commandLine string, timeout time.Duration) (string, error) {
	var buf bytes.Buffer

	err := exec.Run(ctx, commandLine, RunOptions{
		Timeout: timeout,
		Output:  &buf,
	})

	return buf.String(), err
}

// CommandLine joins a binary and its arguments, quoting where needed.
func CommandLine(command string, args ...string) string {
	return shellquote.Join(append([]string{command}, args...)...)
}
