package disk

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

const bytesPerMB = 1024 * 1024

// ErrImageExists is returned when a file already occupies the image path at allocation time.
var ErrImageExists = errors.New("cannot make sparse file, one exists already")

// Manager manages disk image operations.
type Manager struct {
	logger *slog.Logger
}

// NewManager creates a new disk manager.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger: logger.With(slog.String("component", "disk")),
	}
}

// BackupExisting renames an existing image at path to path+suffix. It reports whether a
// rename happened. An existing backup is replaced.
func (m *Manager) BackupExisting(path, suffix string) (string, bool, error) {
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("cannot access image %s: %w", path, err)
	}

	backup := path + suffix
	m.logger.Info("backing up previous image",
		slog.String("path", path),
		slog.String("backup", backup),
	)

	if err := os.Rename(path, backup); err != nil {
		return "", false, fmt.Errorf("failed to back up image %s: %w", path, err)
	}

	return backup, true, nil
}

// CreateSparse creates a file of exactly sizeMB MiB at path by writing a single trailing
// zero byte.
func (m *Manager) CreateSparse(path string, sizeMB int64) error {
	if sizeMB <= 0 {
		return fmt.Errorf("disk size must be positive, got %d MB", sizeMB)
	}

	m.logger.Debug("creating sparse image",
		slog.String("path", path),
		slog.Int64("size_mb", sizeMB),
	)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrImageExists, path)
	}
	if err != nil {
		return fmt.Errorf("failed to create image %s: %w", path, err)
	}

	if _, err := file.WriteAt([]byte{0}, sizeMB*bytesPerMB-1); err != nil {
		file.Close()
		return fmt.Errorf("failed to size image %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close image %s: %w", path, err)
	}

	m.logger.Info("created sparse image",
		slog.String("path", path),
		slog.Int64("size_mb", sizeMB),
	)

	return nil
}
