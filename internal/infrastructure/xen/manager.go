package xen

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/terabiome/ksxen/pkg/executor"
)

// Manager drives domains through the xl command line tool.
type Manager struct {
	exec           executor.Executor
	xlPath         string
	commandTimeout time.Duration
	consoleTimeout time.Duration
	console        io.Writer
	consoleInput   io.Reader
	logger         *slog.Logger
}

// Options configures a Manager. Console and ConsoleInput are attached to `xl console`.
type Options struct {
	XLPath         string
	CommandTimeout time.Duration
	ConsoleTimeout time.Duration
	Console        io.Writer
	ConsoleInput   io.Reader
}

func NewManager(exec executor.Executor, opts Options, logger *slog.Logger) *Manager {
	return &Manager{
		exec:           exec,
		xlPath:         opts.XLPath,
		commandTimeout: opts.CommandTimeout,
		consoleTimeout: opts.ConsoleTimeout,
		console:        opts.Console,
		consoleInput:   opts.ConsoleInput,
		logger:         logger.With(slog.String("component", "xen")),
	}
}

// CreateDomain runs `xl create <configPath>`.
func (m *Manager) CreateDomain(ctx context.Context, configPath string) error {
	m.logger.Info("creating domain", slog.String("config", configPath))

	err := m.exec.Run(ctx, executor.CommandLine(m.xlPath, "create", configPath), executor.RunOptions{
		Timeout: m.commandTimeout,
		Output:  m.console,
	})
	if err != nil {
		return fmt.Errorf("could not create domain from %s: %w", configPath, err)
	}

	return nil
}

// AttachConsole runs `xl console <name>` and blocks until the session ends.
func (m *Manager) AttachConsole(ctx context.Context, name string) error {
	m.logger.Info("attaching to console", slog.String("domain", name))

	err := m.exec.Run(ctx, executor.CommandLine(m.xlPath, "console", name), executor.RunOptions{
		Timeout: m.consoleTimeout,
		Output:  m.console,
		Stdin:   m.consoleInput,
	})
	if err != nil {
		return fmt.Errorf("console session for %s failed: %w", name, err)
	}

	m.logger.Info("console session ended", slog.String("domain", name))
	return nil
}

// IsRunning runs `xl list` and reports whether name appears as the first column of a line.
// A failed listing is returned as an error, never as "not running".
func (m *Manager) IsRunning(ctx context.Context, name string) (bool, error) {
	listing, err := executor.RunAndCapture(ctx, m.exec, executor.CommandLine(m.xlPath, "list"), m.commandTimeout)
	if err != nil {
		return false, fmt.Errorf("could not list domains: %w", err)
	}

	running := ListingContains(listing, name)
	m.logger.Debug("checked domain state",
		slog.String("domain", name),
		slog.Bool("running", running),
	)
	return running, nil
}

// ListingContains reports whether some row of an `xl list` listing starts with name
// immediately followed by whitespace. The first line is the column header and is never
// matched. The match is case-sensitive and anchored at the start of the row, so "web"
// matches "web   3  1024 ..." but neither "web2 ..." nor "Domain-0 ... web".
func ListingContains(listing, name string) bool {
	if name == "" {
		return false
	}

	rows := strings.Split(listing, "\n")
	for _, row := range rows[1:] {
		rest, ok := strings.CutPrefix(row, name)
		if !ok || rest == "" {
			continue
		}
		if unicode.IsSpace(rune(rest[0])) {
			return true
		}
	}
	return false
}
