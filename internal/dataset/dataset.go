// Package dataset reads, writes and synthesizes labeled comparison records.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"decision-service/internal/models"
)

// Default locations, relative to the working directory.
const (
	DefaultPath         = "dataset/dataset.json"
	DefaultArtifactPath = "models/decision_model/decision.gob"
)

// ErrNoRecords is returned when a dataset file holds an empty array.
var ErrNoRecords = errors.New("dataset contains no records")

// LoadJSON reads an array of records from path.
func LoadJSON(path string) ([]models.DatasetRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}

	var records []models.DatasetRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset %s: %w", path, ErrNoRecords)
	}
	return records, nil
}

// SaveJSON writes records to path as an indented JSON array, replacing the
// file atomically.
func SaveJSON(path string, records []models.DatasetRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dataset in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set dataset permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close dataset: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename dataset: %w", err)
	}
	return nil
}

// Samples converts records to training samples.
func Samples(records []models.DatasetRecord) []models.Sample {
	samples := make([]models.Sample, len(records))
	for i, r := range records {
		samples[i] = r.Sample()
	}
	return samples
}
