package persist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/apptrack/apptrack/internal/record"
	"go.uber.org/zap"
)

// Save serializes the snapshot to a CSV file at path. The write is
// atomic: a temp file in the same directory is written, synced, and
// renamed into place, so a crash can never leave a truncated or mixed
// file behind.
func Save(path string, snap record.Snapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(record.Columns); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, app := range snap {
		row := []string{app.Company, app.Position, app.PortalURL, app.DateApplied, string(app.Status)}
		if err := w.Write(row); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush rows: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Load reads the snapshot from path. A missing file yields an empty
// snapshot, not an error; an unreadable or corrupt file is logged and
// likewise yields an empty snapshot — the table must stay usable even
// when the disk copy is not.
func Load(path string, logger *zap.Logger) record.Snapshot {
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("applications file unreadable, starting empty",
				zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // rows may be ragged; missing cells become ""
	rows, err := r.ReadAll()
	if err != nil {
		logger.Warn("applications file corrupt, starting empty",
			zap.String("path", path), zap.Error(err))
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	// Skip the header row when present.
	if rows[0][0] == record.FieldCompany {
		rows = rows[1:]
	}

	snap := make(record.Snapshot, 0, len(rows))
	for _, row := range rows {
		snap = append(snap, record.Application{
			Company:     cell(row, 0),
			Position:    cell(row, 1),
			PortalURL:   cell(row, 2),
			DateApplied: cell(row, 3),
			Status:      record.Status(cell(row, 4)),
		})
	}
	return record.Normalize(snap)
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
