package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/amishk599/jobdigest/internal/model"
)

// Ensure CSVWriter implements model.TableWriter.
var _ model.TableWriter = (*CSVWriter)(nil)

// CSVWriter replaces the snapshot file on every run. Readers never observe a
// half-written table: rows go to a temp file that is renamed into place.
type CSVWriter struct {
	path string
}

// NewCSVWriter returns a writer for the snapshot at path.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Path returns the snapshot file path.
func (w *CSVWriter) Path() string { return w.path }

// WriteRecords writes the header and one row per record, in order.
func (w *CSVWriter) WriteRecords(_ context.Context, records []model.JobRecord) (err error) {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", w.path, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(w.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("writing snapshot %s: %w", w.path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	cw := csv.NewWriter(tmp)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", w.path, err)
	}
	for _, r := range records {
		if err := cw.Write(Row(r)); err != nil {
			return fmt.Errorf("writing snapshot %s: %w", w.path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", w.path, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing snapshot %s: close: %w", w.path, err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		return fmt.Errorf("writing snapshot %s: rename: %w", w.path, err)
	}
	return nil
}
