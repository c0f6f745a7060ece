package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/terabiome/ksxen/internal/adapter"
	"github.com/terabiome/ksxen/internal/api"
	"github.com/terabiome/ksxen/internal/config"
	"github.com/terabiome/ksxen/internal/infrastructure/bootfiles"
	"github.com/terabiome/ksxen/internal/infrastructure/disk"
	"github.com/terabiome/ksxen/internal/infrastructure/host"
	"github.com/terabiome/ksxen/internal/infrastructure/kickstart"
	"github.com/terabiome/ksxen/internal/infrastructure/xen"
	"github.com/terabiome/ksxen/internal/service"
	"github.com/terabiome/ksxen/pkg/constants"
	"github.com/terabiome/ksxen/pkg/executor"
	"github.com/terabiome/ksxen/pkg/fetch"
	"github.com/terabiome/ksxen/pkg/logger"
	"github.com/terabiome/ksxen/pkg/telemetry"
	"github.com/terabiome/ksxen/pkg/templator"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Debug("ksxen starting",
		slog.String("log_level", cfg.LogLevel),
		slog.String("log_format", cfg.LogFormat),
		slog.Bool("telemetry_enabled", cfg.TelemetryEnabled),
	)

	var tel *telemetry.Telemetry
	if cfg.TelemetryEnabled {
		tel, err = telemetry.Initialize("ksxen", os.Stderr)
		if err != nil {
			log.Error("failed to initialize telemetry", slog.String("error", err.Error()))
			os.Exit(1)
		}
		log.Debug("telemetry initialized")
	}

	go func() {
		sig := <-sigChan
		log.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	app := &cli.App{
		Name:      "ksxen",
		Usage:     "Provision a Xen domain from a kickstart template",
		UsageText: "ksxen -c CFG -i IMG -u INSTALL_URL -s MB -p PASSWD -b BRIDGE -k KSURL -n NAME -r MB [-x EXTRA]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "request",
				Usage: "JSON file holding the provisioning request; flags given on the command line take precedence",
			},
			&cli.StringFlag{
				Name:    "cfg-path",
				Aliases: []string{"c"},
				Usage:   "Xen domain configuration `FILE` to create",
			},
			&cli.StringFlag{
				Name:    "img-path",
				Aliases: []string{"i"},
				Usage:   "disk image `FILE` to create",
			},
			&cli.StringFlag{
				Name:    "install-url",
				Aliases: []string{"u"},
				Usage:   "base `URL` of the install tree",
			},
			&cli.Int64Flag{
				Name:    "disk-size",
				Aliases: []string{"s"},
				Usage:   "disk image size in `MB`",
			},
			&cli.StringFlag{
				Name:    "root-passwd",
				Aliases: []string{"p"},
				Usage:   "plaintext root password, hashed before it is written to the kickstart",
				EnvVars: []string{"KSXEN_ROOT_PASSWD"},
			},
			&cli.StringFlag{
				Name:    "bridge-name",
				Aliases: []string{"b"},
				Usage:   "host bridge `DEVICE` the domain is attached to",
			},
			&cli.StringFlag{
				Name:    "ksurl",
				Aliases: []string{"k"},
				Usage:   "`URL` of the kickstart template",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "domain `NAME`",
			},
			&cli.Int64Flag{
				Name:    "ram",
				Aliases: []string{"r"},
				Usage:   "domain memory in `MB`",
			},
			&cli.StringFlag{
				Name:    "extra",
				Aliases: []string{"x"},
				Usage:   "extra kickstart directives",
			},
		},
		Action: func(cliCtx *cli.Context) error {
			req, err := requestFromContext(cliCtx)
			if err != nil {
				return err
			}

			if err := req.Validate(); err != nil {
				cli.ShowAppHelp(cliCtx)
				return fmt.Errorf("invalid arguments: %w", err)
			}

			provisioner, err := initProvisioner(cfg, log)
			if err != nil {
				return err
			}

			result, err := provisioner.Provision(ctx, adapter.AdaptProvision(req))
			if err != nil {
				return fmt.Errorf("provisioning %s stopped after %s: %w", req.Name, result.State, err)
			}

			log.Info("domain provisioned",
				slog.String("domain", req.Name),
				slog.String("state", string(result.State)),
				slog.String("mac", result.MACAddress),
				slog.String("uuid", result.UUID.String()),
				slog.String("workdir", result.WorkDir),
			)
			return nil
		},
	}

	runErr := app.Run(os.Args)

	if tel != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown telemetry", slog.String("error", err.Error()))
		}
		shutdownCancel()
	}

	if runErr != nil {
		log.Error("application error", slog.String("error", runErr.Error()))
		os.Exit(1)
	}
}

// requestFromContext builds the request from the optional JSON file and the flags.
func requestFromContext(cliCtx *cli.Context) (api.ProvisionRequest, error) {
	var req api.ProvisionRequest

	if path := cliCtx.String("request"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return req, err
		}
		defer f.Close()

		if err := json.NewDecoder(f).Decode(&req); err != nil {
			return req, fmt.Errorf("unable to decode request %s: %w", path, err)
		}
	}

	stringFlags := map[string]*string{
		"cfg-path":    &req.ConfigPath,
		"img-path":    &req.ImagePath,
		"install-url": &req.InstallURL,
		"root-passwd": &req.RootPassword,
		"bridge-name": &req.BridgeName,
		"ksurl":       &req.KickstartURL,
		"name":        &req.Name,
		"extra":       &req.Extra,
	}
	for flag, field := range stringFlags {
		if cliCtx.IsSet(flag) {
			*field = cliCtx.String(flag)
		}
	}

	if cliCtx.IsSet("disk-size") {
		req.DiskSizeMB = cliCtx.Int64("disk-size")
	}
	if cliCtx.IsSet("ram") {
		req.RAMMB = cliCtx.Int64("ram")
	}

	return req, nil
}

func initProvisioner(cfg *config.Config, log *slog.Logger) (*service.Provisioner, error) {
	engine := templator.NewXenEngine()

	if cfg.InstallTemplate != "" {
		if err := engine.LoadTemplate(constants.TemplateXenInstall, cfg.InstallTemplate); err != nil {
			return nil, err
		}
	}

	if cfg.SteadyTemplate != "" {
		if err := engine.LoadTemplate(constants.TemplateXenSteady, cfg.SteadyTemplate); err != nil {
			return nil, err
		}
	}

	client := fetch.NewClient(cfg.HTTPTimeout, log)
	exec := executor.NewLocal(cfg.KillGrace, log)

	domains := xen.NewManager(exec, xen.Options{
		XLPath:         cfg.XLPath,
		CommandTimeout: cfg.CommandTimeout,
		ConsoleTimeout: cfg.ConsoleTimeout,
		Console:        os.Stdout,
		ConsoleInput:   os.Stdin,
	}, log)

	return service.NewProvisioner(service.Dependencies{
		Host:      host.System{},
		Disks:     disk.NewManager(log),
		BootFiles: bootfiles.NewManager(client, log),
		Kickstart: kickstart.NewManager(client, log),
		Configs:   xen.NewConfigWriter(engine, log),
		Domains:   domains,
	}, adapter.AdaptSettings(cfg), log), nil
}
