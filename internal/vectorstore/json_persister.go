package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"docchat/internal/helper"
	"docchat/internal/models"
)

// JSONPersister keeps the snapshot as a single JSON array on disk.
type JSONPersister struct {
	path string
}

func NewJSONPersister(path string) *JSONPersister {
	return &JSONPersister{path: path}
}

func (p *JSONPersister) Load(ctx context.Context) ([]models.Record, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", p.path, err)
	}

	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", p.path, err)
	}
	return records, nil
}

// Save writes to a temp file in the same directory and renames it over the
// snapshot. A crash mid-write leaves the previous snapshot in place.
func (p *JSONPersister) Save(ctx context.Context, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := helper.CreateFolder(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot %s: %w", p.path, err)
	}
	return nil
}

func (p *JSONPersister) Close() error { return nil }
