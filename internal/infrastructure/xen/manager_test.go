package xen

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terabiome/ksxen/pkg/executor"
)

const sampleListing = `Name                                        ID   Mem VCPUs	State	Time(s)
Domain-0                                     0  4096     4     r-----   12345.6
web2                                         7  1024     1     -b----     120.4
db                                          12  2048     2     -b----      88.1
`

type call struct {
	commandLine string
	opts        executor.RunOptions
}

type fakeExecutor struct {
	calls   []call
	outputs map[string]string
	errs    map[string]error
}

func (f *fakeExecutor) Name() string { return "fake" }

func (f *fakeExecutor) Run(_ context.Context, commandLine string, opts executor.RunOptions) error {
	f.calls = append(f.calls, call{commandLine: commandLine, opts: opts})
	if out, ok := f.outputs[commandLine]; ok && opts.Output != nil {
		io.WriteString(opts.Output, out)
	}
	return f.errs[commandLine]
}

func newTestManager(exec executor.Executor) *Manager {
	return NewManager(exec, Options{
		XLPath:         "/usr/sbin/xl",
		CommandTimeout: time.Minute,
		ConsoleTimeout: time.Hour,
		ConsoleInput:   strings.NewReader(""),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListingContains(t *testing.T) {
	tests := []struct {
		name   string
		domain string
		want   bool
	}{
		{name: "exact first column", domain: "db", want: true},
		{name: "dom0", domain: "Domain-0", want: true},
		{name: "prefix of longer name", domain: "web", want: false},
		{name: "longer name itself", domain: "web2", want: true},
		{name: "case sensitive", domain: "DB", want: false},
		{name: "mid-line substring", domain: "VCPUs", want: false},
		{name: "absent", domain: "mail", want: false},
		{name: "empty name", domain: "", want: false},
		{name: "header row is skipped", domain: "Name", want: false},
		{name: "dots are literal", domain: "we.2", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ListingContains(sampleListing, tt.domain))
		})
	}
}

func TestListingContains_DomainNamedLikeHeader(t *testing.T) {
	assert.True(t, ListingContains(sampleListing+"Name                                        15   512     1     -b----       3.0\n", "Name"))
	assert.False(t, ListingContains("", "web"))
}

func TestListingContains_LastLineWithoutTrailingWhitespace(t *testing.T) {
	assert.False(t, ListingContains("Name ID\nweb", "web"))
	assert.True(t, ListingContains("Name ID\nweb\t3", "web"))
}

func TestCreateDomain(t *testing.T) {
	fake := &fakeExecutor{}

	require.NoError(t, newTestManager(fake).CreateDomain(context.Background(), "/etc/xen/web.cfg"))

	require.Len(t, fake.calls, 1)
	assert.Equal(t, "/usr/sbin/xl create /etc/xen/web.cfg", fake.calls[0].commandLine)
	assert.Equal(t, time.Minute, fake.calls[0].opts.Timeout)
}

func TestCreateDomain_PropagatesProcessError(t *testing.T) {
	cmd := "/usr/sbin/xl create /etc/xen/web.cfg"
	fake := &fakeExecutor{errs: map[string]error{
		cmd: &executor.ProcessError{CommandLine: cmd, ExitCode: 1},
	}}

	err := newTestManager(fake).CreateDomain(context.Background(), "/etc/xen/web.cfg")

	var procErr *executor.ProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, 1, procErr.ExitCode)
}

func TestAttachConsole(t *testing.T) {
	fake := &fakeExecutor{}

	require.NoError(t, newTestManager(fake).AttachConsole(context.Background(), "web"))

	require.Len(t, fake.calls, 1)
	assert.Equal(t, "/usr/sbin/xl console web", fake.calls[0].commandLine)
	assert.Equal(t, time.Hour, fake.calls[0].opts.Timeout)
	assert.NotNil(t, fake.calls[0].opts.Stdin)
}

func TestIsRunning(t *testing.T) {
	fake := &fakeExecutor{outputs: map[string]string{"/usr/sbin/xl list": sampleListing}}
	m := newTestManager(fake)

	running, err := m.IsRunning(context.Background(), "db")
	require.NoError(t, err)
	assert.True(t, running)

	running, err = m.IsRunning(context.Background(), "web")
	require.NoError(t, err)
	assert.False(t, running)
}

func TestIsRunning_ListFailureIsNotNotRunning(t *testing.T) {
	fake := &fakeExecutor{errs: map[string]error{
		"/usr/sbin/xl list": &executor.ProcessError{CommandLine: "/usr/sbin/xl list", ExitCode: 1},
	}}

	_, err := newTestManager(fake).IsRunning(context.Background(), "web")
	require.Error(t, err)
}

func TestIsRunning_WithLocalExecutor(t *testing.T) {
	var logs bytes.Buffer
	local := executor.NewLocal(time.Second, slog.New(slog.NewTextHandler(&logs, nil)))

	m := NewManager(local, Options{
		XLPath:         "printf",
		CommandTimeout: 5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// printf echoes "list" with no trailing whitespace, so no row matches.
	running, err := m.IsRunning(context.Background(), "list")
	require.NoError(t, err)
	assert.False(t, running)
}
