// Package archive holds the cold tabular copy of the record collection and
// its date watermark.
package archive

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pevans/newsdesk"
)

// DefaultWatermark is used when the archive is absent or empty.
const DefaultWatermark = "2025-11-01"

// DefaultFileName is the archive file name.
const DefaultFileName = "news_history.csv"

const byteOrderMark = "\ufeff"

// Archive is a CSV file of records, one row per record.
type Archive struct {
	path string
}

// New returns the archive stored at path.
func New(path string) *Archive {
	return &Archive{path: path}
}

// Path returns the archive file path.
func (a *Archive) Path() string {
	return a.path
}

// Load reads every record of the archive. A missing file is an empty
// archive.
func (a *Archive) Load() ([]newsdesk.Record, error) {
	f, err := os.Open(a.path)
	if errors.Is(err, os.ErrNotExist) {
		return []newsdesk.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	records, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", a.path, err)
	}
	return records, nil
}

// Save replaces the archive with records. The file is written beside the
// archive and renamed over it, so readers never see a partial file.
func (a *Archive) Save(records []newsdesk.Record) error {
	dir := filepath.Dir(a.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".archive-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteRecords(tmp, records); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp archive: %w", err)
	}

	if err := os.Rename(tmp.Name(), a.path); err != nil {
		return fmt.Errorf("failed to replace archive: %w", err)
	}
	return nil
}

// Watermark returns the latest calendar day of the archive.
func (a *Archive) Watermark() (string, error) {
	records, err := a.Load()
	if err != nil {
		return "", err
	}
	return Watermark(records), nil
}

// Watermark returns the latest YYYY-MM-DD day among records, or
// DefaultWatermark when no record carries a date.
func Watermark(records []newsdesk.Record) string {
	latest := ""
	for _, r := range records {
		if day := newsdesk.LabelDay(r.DateStr); day > latest {
			latest = day
		}
	}
	if latest == "" {
		return DefaultWatermark
	}
	return latest
}

// WriteRecords writes a header row and one row per record.
func WriteRecords(w io.Writer, records []newsdesk.Record) error {
	if _, err := io.WriteString(w, byteOrderMark); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(newsdesk.RecordFields); err != nil {
		return err
	}

	row := make([]string, len(newsdesk.RecordFields))
	for _, r := range records {
		for i, field := range newsdesk.RecordFields {
			row[i] = r.Get(field)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadRecords reads a CSV with a header row. Columns are matched by name,
// legacy names are accepted and unknown columns are ignored.
func ReadRecords(r io.Reader) ([]newsdesk.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return []newsdesk.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = newsdesk.CanonicalField(name)
	}

	records := []newsdesk.Record{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		var rec newsdesk.Record
		for i, value := range row {
			if i < len(columns) && columns[i] != "" {
				rec.Set(columns[i], value)
			}
		}
		if rec.Keywords == nil {
			rec.Keywords = newsdesk.Keywords{}
		}
		rec.DateStr = newsdesk.NormalizeDateStr(rec.DateStr)
		records = append(records, rec)
	}

	return records, nil
}
