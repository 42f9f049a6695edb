// Package store persists a job collection as one JSON document.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jimezsa/upjobs/internal/models"
)

// Load reads a JSON array of records from path.
func Load(path string) ([]models.JobRecord, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []models.JobRecord{}, nil
	}

	var records []models.JobRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if records == nil {
		return []models.JobRecord{}, nil
	}
	for i := range records {
		if records[i].Skills == nil {
			records[i].Skills = []string{}
		}
	}
	return records, nil
}

// LoadAllowMissing reads records and treats a missing file as an empty collection.
func LoadAllowMissing(path string) ([]models.JobRecord, error) {
	records, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.JobRecord{}, nil
		}
		return nil, err
	}
	return records, nil
}

// Save rewrites path with the whole collection. The new content is written
// to a temporary file in the same directory and renamed over path, so a
// crash leaves either the old or the new collection.
func Save(path string, records []models.JobRecord) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is required")
	}

	data, err := Encode(records)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Encode renders records as indented JSON without escaping HTML or
// non-ASCII characters.
func Encode(records []models.JobRecord) ([]byte, error) {
	if records == nil {
		records = []models.JobRecord{}
	}
	normalized := make([]models.JobRecord, len(records))
	for i, record := range records {
		if record.Skills == nil {
			record.Skills = []string{}
		}
		normalized[i] = record
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
