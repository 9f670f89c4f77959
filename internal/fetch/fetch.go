package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"ppdmloader/internal/etl"
)

// DefaultTimeout bounds a single dataset download.
const DefaultTimeout = 2 * time.Minute

// Dataset describes where one published dataset comes from.
type Dataset struct {
	// Name identifies the dataset in logs ("surface", "bottom_hole").
	Name string `json:"name" mapstructure:"name"`
	// URL is downloaded when set; otherwise Path must already exist.
	URL  string `json:"url,omitempty" mapstructure:"url"`
	Path string `json:"path,omitempty" mapstructure:"path"`
	// Archive is the file name the download is saved under.
	Archive string `json:"archive" mapstructure:"archive"`
	// Entry is the table inside the archive, e.g. Wells.dbf.
	Entry string `json:"entry" mapstructure:"entry"`
	// Format is the etl source type used to read the file.
	Format string `json:"format" mapstructure:"format"`
	// Columns renames source columns to the expected field names,
	// e.g. {"api_number": "API"} for a CSV export.
	Columns map[string]string `json:"columns,omitempty" mapstructure:"columns"`
}

// SourceConfig returns the etl source configuration that reads the dataset
// from the local file at filePath.
func (d Dataset) SourceConfig(filePath string) etl.SourceConfig {
	return etl.SourceConfig{"filePath": filePath, "entry": d.Entry}
}

// Fetcher retrieves datasets into a local download directory.
type Fetcher struct {
	Dir     string
	Timeout time.Duration
	Client  *http.Client
	logger  *zap.Logger
}

// New creates a Fetcher that downloads into dir.
func New(dir string, timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		Dir:     dir,
		Timeout: timeout,
		Client:  &http.Client{},
		logger:  logger.Named("fetch"),
	}
}

// Fetch returns the local path of the dataset, downloading it first when it
// has a URL. The download is bounded by the fetcher timeout and written
// through a temporary file so a partial archive never replaces a good one.
func (f *Fetcher) Fetch(ctx context.Context, ds Dataset) (string, error) {
	if ds.URL == "" {
		if ds.Path == "" {
			return "", fmt.Errorf("dataset %s has neither url nor path", ds.Name)
		}
		if _, err := os.Stat(ds.Path); err != nil {
			return "", errors.Wrapf(err, "dataset %s", ds.Name)
		}
		f.logger.Debug("using local dataset", zap.String("dataset", ds.Name), zap.String("path", ds.Path))
		return ds.Path, nil
	}

	name := ds.Archive
	if name == "" {
		name = path.Base(ds.URL)
	}
	dest := filepath.Join(f.Dir, name)

	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return "", errors.Wrap(err, "create download directory")
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ds.URL, nil)
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "download %s", ds.Name)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("download %s: http %d: %s", ds.Name, resp.StatusCode, string(body))
	}

	tmp, err := os.CreateTemp(f.Dir, "."+name+"-*")
	if err != nil {
		return "", errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", errors.Wrapf(err, "download %s", ds.Name)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", errors.Wrap(err, "move download into place")
	}

	f.logger.Info("dataset downloaded",
		zap.String("dataset", ds.Name),
		zap.String("path", dest),
		zap.Int64("bytes", n),
		zap.Duration("elapsed", time.Since(start)))
	return dest, nil
}
