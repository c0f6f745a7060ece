package bootfiles

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/terabiome/ksxen/pkg/fetch"
)

// Manager downloads the network boot artifacts from an install tree.
type Manager struct {
	client   *fetch.Client
	failures metric.Int64Counter
	logger   *slog.Logger
}

func NewManager(client *fetch.Client, logger *slog.Logger) *Manager {
	failures, err := otel.Meter("github.com/terabiome/ksxen/bootfiles").Int64Counter(
		"ksxen.bootfiles.failures",
		metric.WithDescription("Boot artifacts that could not be downloaded"),
	)
	if err != nil {
		otel.Handle(err)
	}

	return &Manager{
		client:   client,
		failures: failures,
		logger:   logger.With(slog.String("component", "bootfiles")),
	}
}

// FetchAll downloads <installURL>/<artifactPath>/<name> into dir for every name.
// A failed download is logged and skipped. The names that were fetched are returned.
func (m *Manager) FetchAll(ctx context.Context, installURL, artifactPath string, names []string, dir string) []string {
	fetched := make([]string, 0, len(names))

	for _, name := range names {
		uri := fetch.JoinURL(installURL, artifactPath, name)

		if _, err := m.client.DownloadFile(ctx, uri, dir, name); err != nil {
			m.logger.Warn("could not download boot artifact, continuing",
				slog.String("url", uri),
				slog.String("error", err.Error()),
			)
			if m.failures != nil {
				m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("artifact", name)))
			}
			continue
		}

		fetched = append(fetched, name)
	}

	m.logger.Info("fetched boot artifacts",
		slog.Int("requested", len(names)),
		slog.Int("fetched", len(fetched)),
	)
	return fetched
}
