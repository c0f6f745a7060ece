package xen

import (
	"fmt"
	"log/slog"

	"github.com/terabiome/ksxen/pkg/constants"
	"github.com/terabiome/ksxen/pkg/templator"
)

// ConfigWriter renders xl domain configuration files.
type ConfigWriter struct {
	engine *templator.Engine
	logger *slog.Logger
}

func NewConfigWriter(engine *templator.Engine, logger *slog.Logger) *ConfigWriter {
	return &ConfigWriter{
		engine: engine,
		logger: logger.With(slog.String("component", "xen-config")),
	}
}

// WriteInstall writes the configuration that boots the downloaded kernel and initrd
// with the kickstart URL on the kernel command line.
func (w *ConfigWriter) WriteInstall(path string, vars InstallTemplateVars) error {
	if err := w.engine.RenderToFile(constants.TemplateXenInstall, path, vars.toVars()); err != nil {
		return fmt.Errorf("could not write install configuration: %w", err)
	}
	w.logger.Info("wrote install configuration",
		slog.String("path", path),
		slog.String("domain", vars.Name),
		slog.String("mac", vars.MACAddress),
	)
	return nil
}

// WriteSteady writes the configuration that boots from the installed disk via pygrub.
func (w *ConfigWriter) WriteSteady(path string, vars DomainTemplateVars) error {
	if err := w.engine.RenderToFile(constants.TemplateXenSteady, path, vars.toVars()); err != nil {
		return fmt.Errorf("could not write steady-state configuration: %w", err)
	}
	w.logger.Info("wrote steady-state configuration",
		slog.String("path", path),
		slog.String("domain", vars.Name),
		slog.String("mac", vars.MACAddress),
	)
	return nil
}
