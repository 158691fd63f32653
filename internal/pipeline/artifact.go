// Package pipeline trains, persists and serves the decision model.
package pipeline

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"decision-service/internal/features"
	"decision-service/internal/forest"
)

// artifactMode is the permission of a saved artifact.
const artifactMode = 0644

// Artifact bundles everything inference needs. It is written once by
// training and only ever replaced as a whole.
type Artifact struct {
	Vectorizer *features.Vectorizer
	Forest     *forest.Forest
	Mindsets   features.MindsetEncoder
}

// Validate checks that the three parts fit together.
func (a *Artifact) Validate() error {
	if a == nil {
		return errors.New("artifact is nil")
	}
	if err := a.Vectorizer.Validate(); err != nil {
		return fmt.Errorf("invalid vectorizer: %w", err)
	}
	if a.Forest == nil || len(a.Forest.Trees) == 0 {
		return errors.New("artifact has no trained forest")
	}
	if want := a.Vectorizer.Width() + 1; a.Forest.NFeatures != want {
		return fmt.Errorf("forest expects %d features but vectorizer produces %d", a.Forest.NFeatures, want)
	}
	if len(a.Mindsets.Codes) == 0 {
		return errors.New("artifact has no mindset codes")
	}
	return nil
}

// Info summarises the artifact for logs and health checks.
func (a *Artifact) Info() map[string]interface{} {
	return map[string]interface{}{
		"vocabulary_size": a.Vectorizer.Width(),
		"trees":           len(a.Forest.Trees),
		"classes":         a.Forest.Classes,
	}
}

// SaveArtifact writes a to path atomically: the blob goes to a temp file in
// the same directory, is synced, then renamed over path.
func SaveArtifact(path string, a *Artifact) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	// CreateTemp makes the file owner-only; the server may run as another user
	if err := tmp.Chmod(artifactMode); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set artifact permissions: %w", err)
	}
	if err := gob.NewEncoder(tmp).Encode(a); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to encode artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close artifact: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize artifact %s: %w", path, err)
	}
	return nil
}

// LoadArtifact reads and validates the artifact at path.
func LoadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %s: %w", path, err)
	}
	defer f.Close()

	var a Artifact
	if err := gob.NewDecoder(f).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	return &a, nil
}
