package workspace

import (
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
	"git.home.luguber.info/inful/updatesnap/internal/logfields"
)

// Prefix starts the name of every scratch directory.
const Prefix = "updatesnap-"

// Manager handles one scratch directory.
type Manager struct {
	baseDir string
	dir     string
	logger  *slog.Logger
}

// NewManager creates a manager for directories below baseDir, or below the
// system temp directory when baseDir is empty.
func NewManager(baseDir string, logger *slog.Logger) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{baseDir: baseDir, logger: logger}
}

// Create makes a fresh, uniquely named directory.
func (m *Manager) Create() error {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create workspace base").
			WithContext("path", m.baseDir).
			Build()
	}
	dir, err := os.MkdirTemp(m.baseDir, Prefix+"*")
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create workspace").
			WithContext("path", m.baseDir).
			Build()
	}
	m.dir = dir
	m.logger.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// Path returns the directory, or "" before Create.
func (m *Manager) Path() string { return m.dir }

// Subdir creates name inside the workspace.
func (m *Manager) Subdir(name string) (string, error) {
	if m.dir == "" {
		return "", errors.InternalError("workspace not created").Build()
	}
	sub := filepath.Join(m.dir, name)
	if err := os.MkdirAll(sub, 0o750); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to create subdirectory").
			WithContext("path", sub).
			Build()
	}
	return sub, nil
}

// Cleanup removes the directory. It is safe to call more than once.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to clean up workspace").
			WithContext("path", m.dir).
			Build()
	}
	m.logger.Debug("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
