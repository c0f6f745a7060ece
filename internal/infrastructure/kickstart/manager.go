package kickstart

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/terabiome/ksxen/pkg/fetch"
	"github.com/terabiome/ksxen/pkg/templator"
)

// TemplateVars are the values a remote kickstart template may reference.
type TemplateVars struct {
	RootPasswordHash string
	InstallURL       string
	Extra            string
	Name             string
}

func (v TemplateVars) toVars() templator.Vars {
	return templator.Vars{
		"root_passwd": v.RootPasswordHash,
		"install_url": v.InstallURL,
		"extra":       v.Extra,
		"name":        v.Name,
	}
}

// Manager renders the kickstart answer file served to the installer.
type Manager struct {
	client *fetch.Client
	logger *slog.Logger
}

func NewManager(client *fetch.Client, logger *slog.Logger) *Manager {
	return &Manager{
		client: client,
		logger: logger.With(slog.String("component", "kickstart")),
	}
}

// Write fetches the template at templateURL, renders it and writes the result to
// outputPath. Nothing is written when the fetch or the render fails.
func (m *Manager) Write(ctx context.Context, templateURL, outputPath string, vars TemplateVars) error {
	text, err := m.client.FetchText(ctx, templateURL)
	if err != nil {
		return fmt.Errorf("could not fetch kickstart template: %w", err)
	}

	rendered, err := templator.Render(text, vars.toVars())
	if err != nil {
		return fmt.Errorf("could not render kickstart template %s: %w", templateURL, err)
	}

	if err := os.WriteFile(outputPath, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("could not write kickstart file: %w", err)
	}

	m.logger.Info("wrote kickstart file",
		slog.String("template", templateURL),
		slog.String("path", outputPath),
		slog.Int("bytes", len(rendered)),
	)
	return nil
}
