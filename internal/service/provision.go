package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/terabiome/ksxen/internal/infrastructure/bootfiles"
	"github.com/terabiome/ksxen/internal/infrastructure/disk"
	"github.com/terabiome/ksxen/internal/infrastructure/kickstart"
	"github.com/terabiome/ksxen/internal/infrastructure/xen"
	"github.com/terabiome/ksxen/pkg/fileserver"
	"github.com/terabiome/ksxen/pkg/netutil"
	"github.com/terabiome/ksxen/pkg/passwd"
	"github.com/terabiome/ksxen/pkg/workdir"
)

const shutdownTimeout = 5 * time.Second

// Host answers questions about the machine the domain is provisioned on.
type Host interface {
	IsPrivileged() bool
	BridgeAddress(name string) (string, error)
}

// DomainStateQuery reports whether a named domain is currently running.
type DomainStateQuery interface {
	IsRunning(ctx context.Context, name string) (bool, error)
}

// DomainController creates domains and attaches to their consoles.
type DomainController interface {
	DomainStateQuery
	CreateDomain(ctx context.Context, configPath string) error
	AttachConsole(ctx context.Context, name string) error
}

// Dependencies are the collaborators a Provisioner drives.
type Dependencies struct {
	Host      Host
	Disks     *disk.Manager
	BootFiles *bootfiles.Manager
	Kickstart *kickstart.Manager
	Configs   *xen.ConfigWriter
	Domains   DomainController
}

// Provisioner runs the install-then-reconfigure sequence for a single domain.
type Provisioner struct {
	deps     Dependencies
	settings Settings
	logger   *slog.Logger
	tracer   trace.Tracer

	provisionDuration metric.Float64Histogram
}

func NewProvisioner(deps Dependencies, settings Settings, logger *slog.Logger) *Provisioner {
	provisionDuration, err := otel.Meter("ksxen/service").Float64Histogram(
		"ksxen.provision.duration",
		metric.WithDescription("Duration of provisioning runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn("failed to create provisionDuration metric", slog.String("error", err.Error()))
	}

	return &Provisioner{
		deps:              deps,
		settings:          settings,
		logger:            logger.With(slog.String("service", "provision")),
		tracer:            otel.Tracer("ksxen/service"),
		provisionDuration: provisionDuration,
	}
}

type provisionRun struct {
	params ProvisionParams
	result Result

	imagePath    string
	configPath   string
	passwordHash string
	server       *fileserver.Server
}

// Provision executes every step in order and stops at the first failure. Nothing is
// rolled back: the working directory, disk image and any created domain stay behind.
// The returned Result is never nil and records the last state reached.
func (p *Provisioner) Provision(ctx context.Context, params ProvisionParams) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "Provision")
	defer span.End()
	span.SetAttributes(attribute.String("domain.name", params.Name))

	start := time.Now()
	run := &provisionRun{
		params: params,
		result: Result{State: StateInit},
	}

	err := p.provision(ctx, run)

	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if p.provisionDuration != nil {
		p.provisionDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.String("state", string(run.result.State)),
		))
	}

	return &run.result, err
}

func (p *Provisioner) provision(ctx context.Context, run *provisionRun) error {
	if !p.deps.Host.IsPrivileged() {
		return ErrPrivilege
	}

	if err := p.prepare(run); err != nil {
		return err
	}

	dir, err := workdir.Create(p.settings.WorkdirPattern)
	if err != nil {
		return err
	}
	run.result.WorkDir = dir

	restore, err := workdir.Enter(dir)
	if err != nil {
		return err
	}
	defer func() {
		if err := restore(); err != nil {
			p.logger.Warn("failed to restore working directory", slog.String("error", err.Error()))
		}
	}()

	p.logger.Info("provisioning domain",
		slog.String("domain", run.params.Name),
		slog.String("uuid", run.result.UUID.String()),
		slog.String("mac", run.result.MACAddress),
		slog.String("workdir", dir),
	)

	if err := p.advance(ctx, run, StateDiskPrepared, p.prepareDisk); err != nil {
		return err
	}

	defer p.stopServer(run)

	steps := []struct {
		next State
		fn   func(context.Context, *provisionRun) error
	}{
		{StateServingBootFiles, p.serveBootFiles},
		{StateArtifactsFetched, p.fetchArtifacts},
		{StateKickstartWritten, p.writeKickstart},
		{StateInstallConfigWritten, p.writeInstallConfig},
		{StateInstallBooting, p.bootInstaller},
		{StateInstallAttached, p.attachInstaller},
		{StateSteadyConfigWritten, p.writeSteadyConfig},
	}
	for _, step := range steps {
		if err := p.advance(ctx, run, step.next, step.fn); err != nil {
			return err
		}
	}

	if err := sleep(ctx, p.settings.SettleDelay); err != nil {
		return err
	}

	var running bool
	err = p.advance(ctx, run, StateVerified, func(ctx context.Context, run *provisionRun) error {
		up, err := p.deps.Domains.IsRunning(ctx, run.params.Name)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDomainState, err)
		}
		running = up
		return nil
	})
	if err != nil {
		return err
	}

	if running {
		p.logger.Info("domain already running, not starting it again", slog.String("domain", run.params.Name))
		run.result.State = StateAlreadyRunning
		return nil
	}

	return p.advance(ctx, run, StateRestarted, func(ctx context.Context, run *provisionRun) error {
		return p.deps.Domains.CreateDomain(ctx, run.configPath)
	})
}

// advance runs fn inside its own span and moves the run to next when fn succeeds.
func (p *Provisioner) advance(ctx context.Context, run *provisionRun, next State, fn func(context.Context, *provisionRun) error) error {
	ctx, span := p.tracer.Start(ctx, string(next))
	defer span.End()

	if err := fn(ctx, run); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Error("provisioning step failed",
			slog.String("from", string(run.result.State)),
			slog.String("to", string(next)),
			slog.String("error", err.Error()),
		)
		return err
	}

	p.logger.Debug("state transition",
		slog.String("from", string(run.result.State)),
		slog.String("to", string(next)),
	)
	run.result.State = next
	return nil
}

// prepare resolves paths against the caller's working directory and generates the
// per-run identity shared by both domain configurations.
func (p *Provisioner) prepare(run *provisionRun) error {
	imagePath, err := filepath.Abs(run.params.ImagePath)
	if err != nil {
		return fmt.Errorf("could not resolve image path: %w", err)
	}
	configPath, err := filepath.Abs(run.params.ConfigPath)
	if err != nil {
		return fmt.Errorf("could not resolve config path: %w", err)
	}
	run.imagePath = imagePath
	run.configPath = configPath

	hash, err := passwd.Hash(p.settings.PasswordScheme, run.params.RootPassword)
	if err != nil {
		return err
	}
	run.passwordHash = hash

	mac, err := netutil.GenerateMAC()
	if err != nil {
		return err
	}
	run.result.MACAddress = netutil.FormatMAC(mac)
	run.result.UUID = uuid.New()

	return nil
}

func (p *Provisioner) prepareDisk(_ context.Context, run *provisionRun) error {
	backup, moved, err := p.deps.Disks.BackupExisting(run.imagePath, p.settings.BackupSuffix)
	if err != nil {
		return err
	}
	if moved {
		run.result.BackupPath = backup
	}

	return p.deps.Disks.CreateSparse(run.imagePath, run.params.DiskSizeMB)
}

func (p *Provisioner) serveBootFiles(_ context.Context, run *provisionRun) error {
	server, err := fileserver.ServeAddress(p.settings.ListenAddress, run.result.WorkDir, p.logger)
	if err != nil {
		return err
	}
	run.server = server
	run.result.Port = server.Port()

	address, err := p.deps.Host.BridgeAddress(run.params.BridgeName)
	if err != nil {
		return fmt.Errorf("could not resolve address of bridge %s: %w", run.params.BridgeName, err)
	}

	hostPort := net.JoinHostPort(address, strconv.Itoa(server.Port()))
	run.result.KickstartURL = fmt.Sprintf("http://%s/%s", hostPort, p.settings.KickstartFile)
	return nil
}

func (p *Provisioner) stopServer(run *provisionRun) {
	if run.server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := run.server.Shutdown(ctx); err != nil {
		p.logger.Warn("failed to stop file server", slog.String("error", err.Error()))
	}
}

func (p *Provisioner) fetchArtifacts(ctx context.Context, run *provisionRun) error {
	p.deps.BootFiles.FetchAll(ctx, run.params.InstallURL, p.settings.ArtifactPath, p.settings.Artifacts, run.result.WorkDir)
	return nil
}

func (p *Provisioner) writeKickstart(ctx context.Context, run *provisionRun) error {
	return p.deps.Kickstart.Write(ctx,
		run.params.KickstartURL,
		filepath.Join(run.result.WorkDir, p.settings.KickstartFile),
		kickstart.TemplateVars{
			RootPasswordHash: run.passwordHash,
			InstallURL:       run.params.InstallURL,
			Extra:            run.params.Extra,
			Name:             run.params.Name,
		},
	)
}

func (p *Provisioner) writeInstallConfig(_ context.Context, run *provisionRun) error {
	_, err := os.Stat(run.configPath)
	if err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, run.configPath)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not check domain configuration %s: %w", run.configPath, err)
	}

	return p.deps.Configs.WriteInstall(run.configPath, xen.InstallTemplateVars{
		DomainTemplateVars: p.domainVars(run),
		BootDir:            run.result.WorkDir,
		KickstartURL:       run.result.KickstartURL,
	})
}

func (p *Provisioner) bootInstaller(ctx context.Context, run *provisionRun) error {
	return p.deps.Domains.CreateDomain(ctx, run.configPath)
}

func (p *Provisioner) attachInstaller(ctx context.Context, run *provisionRun) error {
	return p.deps.Domains.AttachConsole(ctx, run.params.Name)
}

func (p *Provisioner) writeSteadyConfig(_ context.Context, run *provisionRun) error {
	return p.deps.Configs.WriteSteady(run.configPath, p.domainVars(run))
}

func (p *Provisioner) domainVars(run *provisionRun) xen.DomainTemplateVars {
	return xen.DomainTemplateVars{
		Name:       run.params.Name,
		UUID:       run.result.UUID,
		MemoryMB:   run.params.MemoryMB,
		MACAddress: run.result.MACAddress,
		ImagePath:  run.imagePath,
		Bridge:     run.params.BridgeName,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
