// Package dataset reads and writes the intermediate harvest files: the raw
// CSV appended by crawls and the cleaned JSON consumed by uploads.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pevans/newsdesk"
	"github.com/pevans/newsdesk/archive"
)

// Default file names.
const (
	DefaultRawFile     = "ettoday_raw_data.csv"
	DefaultCleanedFile = "cleaned_news.json"
)

// rawColumns are the raw file header names, kept readable by earlier
// tooling.
var rawColumns = []string{"date_str", "category", "title", "link", "content"}

var rawFields = []string{
	newsdesk.FieldDateStr, newsdesk.FieldCategory, newsdesk.FieldTitle, newsdesk.FieldAddress, newsdesk.FieldBody,
}

// AppendRaw appends harvested articles to the raw file at path, writing the
// header only when the file is new.
func AppendRaw(path string, articles []newsdesk.Article) error {
	if len(articles) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create raw directory: %w", err)
	}

	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open raw file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(rawColumns); err != nil {
			return fmt.Errorf("failed to write raw header: %w", err)
		}
	}

	row := make([]string, len(rawFields))
	for _, a := range articles {
		r := a.Record()
		for i, field := range rawFields {
			row[i] = r.Get(field)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write raw row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush raw file: %w", err)
	}
	return f.Close()
}

// ReadRaw reads the raw file at path as records without byline or
// keywords.
func ReadRaw(path string) ([]newsdesk.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw file: %w", err)
	}
	defer f.Close()

	records, err := archive.ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw file %s: %w", path, err)
	}
	return records, nil
}

// WriteCleaned writes records as an indented JSON array.
func WriteCleaned(path string, records []newsdesk.Record) error {
	if records == nil {
		records = []newsdesk.Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cleaned records: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cleaned directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cleaned file: %w", err)
	}
	return nil
}

// ReadCleaned reads a cleaned JSON array. Objects with the earlier field
// names are accepted.
func ReadCleaned(path string) ([]newsdesk.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cleaned file: %w", err)
	}

	var objects []map[string]any
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cleaned file %s: %w", path, err)
	}

	records := make([]newsdesk.Record, 0, len(objects))
	for _, obj := range objects {
		records = append(records, newsdesk.RecordFromFields(obj))
	}
	return records, nil
}
