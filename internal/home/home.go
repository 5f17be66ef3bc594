package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the engine home directory.
	DefaultDirName = ".mathengine"

	// OutputsDirName is the subdirectory for rendered videos.
	OutputsDirName = "outputs"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// DBFileName is the SQLite database file name.
	DBFileName = "mathengine.db"
)

// Dir represents the mathengine home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.mathengine).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// DBPath returns the path to the SQLite database file.
func (d *Dir) DBPath() string {
	return filepath.Join(d.path, DBFileName)
}

// OutputsDir returns the directory for rendered videos.
func (d *Dir) OutputsDir() string {
	return filepath.Join(d.path, OutputsDirName)
}

// OutputPath returns the path for a rendered video by result ID.
func (d *Dir) OutputPath(resultID string) string {
	return filepath.Join(d.OutputsDir(), fmt.Sprintf("%s.mp4", resultID))
}

// AudioDir returns the directory for narration working files.
func (d *Dir) AudioDir() string {
	return filepath.Join(d.path, "audio")
}

// NarratedPath returns the path for a narrated video by result ID.
func (d *Dir) NarratedPath(resultID string) string {
	return filepath.Join(d.OutputsDir(), fmt.Sprintf("%s_narrated.mp4", resultID))
}

// IngestDir returns the directory for ingested worksheet markdown.
func (d *Dir) IngestDir(docID string) string {
	return filepath.Join(d.path, "ingest", docID)
}

// IngestPagePath returns the markdown path for a single ingested page.
// Page numbers are 1-indexed.
func (d *Dir) IngestPagePath(docID string, pageNum int) string {
	return filepath.Join(d.IngestDir(docID), fmt.Sprintf("page_%04d.md", pageNum))
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.OutputsDir(), d.AudioDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// EnsureIngestDir creates the ingest directory for a document.
func (d *Dir) EnsureIngestDir(docID string) error {
	return os.MkdirAll(d.IngestDir(docID), 0o755)
}
