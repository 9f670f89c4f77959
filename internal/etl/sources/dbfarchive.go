package sources

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"ppdmloader/internal/etl"
)

// ── DBF Archive Source ──────────────────────────────────────
// Reads the attribute table of a zipped shapefile, or a bare .dbf file.

type dbfArchiveSource struct{}

func init() { etl.RegisterSource(&dbfArchiveSource{}) }

func (s *dbfArchiveSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  "dbf_archive",
		Label: "Zipped Shapefile (DBF)",
		ConfigFields: []etl.ConfigField{
			{Key: "filePath", Label: "File Path", Type: "file", Required: true, Help: "Path to the .zip archive or a bare .dbf file"},
			{Key: "entry", Label: "Archive Entry", Type: "string", Required: false, Help: "Name of the .dbf inside the archive (matched case-insensitively)"},
		},
	}
}

func (s *dbfArchiveSource) Discover(ctx context.Context, cfg etl.SourceConfig) (*etl.Schema, error) {
	table, err := openDBF(cfg)
	if err != nil {
		return nil, err
	}
	defer table.Close()
	return table.Schema(), nil
}

func (s *dbfArchiveSource) Read(ctx context.Context, cfg etl.SourceConfig) (<-chan etl.Record, <-chan error) {
	out := make(chan etl.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		table, err := openDBF(cfg)
		if err != nil {
			errCh <- err
			return
		}
		defer table.Close()

		for {
			data, err := table.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- err
				return
			}
			select {
			case out <- etl.Record{Data: data}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errCh
}

// openDBF opens the configured .dbf. An entry inside a zip is extracted to
// a scratch directory that is removed when the table is closed.
func openDBF(cfg etl.SourceConfig) (*dbfTable, error) {
	filePath, _ := cfg["filePath"].(string)
	if filePath == "" {
		return nil, fmt.Errorf("filePath is required")
	}

	if strings.EqualFold(filepath.Ext(filePath), ".dbf") {
		if _, err := os.Stat(filePath); err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		return openDBFTable(filePath, nil)
	}

	entry, _ := cfg["entry"].(string)
	if entry == "" {
		return nil, fmt.Errorf("entry is required for archive %s", filePath)
	}

	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	for _, zf := range zr.File {
		if !strings.EqualFold(path.Base(zf.Name), entry) {
			continue
		}
		dir, err := os.MkdirTemp("", "ppdmloader-dbf-*")
		if err != nil {
			return nil, fmt.Errorf("create scratch dir: %w", err)
		}
		cleanup := func() error { return os.RemoveAll(dir) }
		dst := filepath.Join(dir, path.Base(zf.Name))
		if err := extractEntry(zf, dst); err != nil {
			runCleanup(cleanup)
			return nil, err
		}
		return openDBFTable(dst, cleanup)
	}

	return nil, fmt.Errorf("file %q not found in archive %s", entry, filePath)
}

func extractEntry(zf *zip.File, dst string) error {
	rc, err := zf.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", zf.Name, err)
	}
	defer rc.Close()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("extract archive entry %s: %w", zf.Name, err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return fmt.Errorf("extract archive entry %s: %w", zf.Name, err)
	}
	return f.Close()
}
