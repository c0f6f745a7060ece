// Package workdir manages the per-run working directory.
package workdir

import (
	"fmt"
	"os"
)

// Create makes a fresh directory under the system temp dir. It is never removed
// automatically so its contents remain available after a failed run.
func Create(pattern string) (string, error) {
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create working directory: %w", err)
	}
	return dir, nil
}

// Enter changes the process working directory to dir and returns a function that
// changes it back. Callers defer the returned function.
func Enter(dir string) (restore func() error, err error) {
	previous, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	if err := os.Chdir(dir); err != nil {
		return nil, fmt.Errorf("failed to enter %s: %w", dir, err)
	}

	return func() error {
		if err := os.Chdir(previous); err != nil {
			return fmt.Errorf("failed to return to %s: %w", previous, err)
		}
		return nil
	}, nil
}
