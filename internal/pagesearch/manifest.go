package pagesearch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ManifestVersion is the current schema version
	ManifestVersion = 1

	// ManifestFilename is the name of the manifest written next to results.csv
	ManifestFilename = "export.yaml"
)

// Manifest describes the artifacts of one export run.
type Manifest struct {
	Version   int                `yaml:"version"`
	RunID     string             `yaml:"run_id"`
	CreatedAt time.Time          `yaml:"created_at"`
	Input     string             `yaml:"input"`
	CSV       string             `yaml:"csv"`
	Documents []ExportedDocument `yaml:"documents"`
}

// NewManifest builds the manifest of an export summary.
func NewManifest(s *ExportSummary) *Manifest {
	return &Manifest{
		Version:   ManifestVersion,
		RunID:     s.Run.ID,
		CreatedAt: s.Run.CreatedAt.UTC(),
		Input:     s.Run.InputDir,
		CSV:       filepath.Base(s.CSVPath),
		Documents: s.Documents,
	}
}

// LoadManifest reads a manifest from disk.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Save writes the manifest to path atomically.
func (m *Manifest) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename manifest file: %w", err)
	}
	return nil
}
