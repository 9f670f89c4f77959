package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"ppdmloader/internal/etl"
)

// ── CSV File Source ─────────────────────────────────────────
// Reads records from a local CSV export of a dataset.
// Values stay text; typed casts happen at lookup time so identifiers
// such as API numbers keep their leading zeros.

type csvFileSource struct{}

func init() { etl.RegisterSource(&csvFileSource{}) }

func (s *csvFileSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  "csv_file",
		Label: "CSV File",
		ConfigFields: []etl.ConfigField{
			{Key: "filePath", Label: "File Path", Type: "file", Required: true, Help: "Absolute path to the CSV file"},
			{Key: "delimiter", Label: "Delimiter", Type: "string", Required: false, Default: ",", Help: "Column delimiter (default: comma)"},
			{Key: "hasHeader", Label: "Has Header", Type: "select", Required: false, Options: []string{"true", "false"}, Default: "true", Help: "Whether the first row contains column names"},
		},
	}
}

func (s *csvFileSource) Discover(ctx context.Context, cfg etl.SourceConfig) (*etl.Schema, error) {
	f, reader, err := openCSVFile(cfg)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	headers, _, err := readCSVHeader(reader, cfg)
	if err != nil {
		return nil, err
	}

	schema := &etl.Schema{Fields: make([]etl.Field, len(headers))}
	for i, h := range headers {
		schema.Fields[i] = etl.Field{Name: h, Type: "text"}
	}
	return schema, nil
}

func (s *csvFileSource) Read(ctx context.Context, cfg etl.SourceConfig) (<-chan etl.Record, <-chan error) {
	out := make(chan etl.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		f, reader, err := openCSVFile(cfg)
		if err != nil {
			errCh <- err
			return
		}
		defer f.Close()

		headers, first, err := readCSVHeader(reader, cfg)
		if err != nil {
			errCh <- err
			return
		}

		row := first
		for {
			if row == nil {
				row, err = reader.Read()
				if err == io.EOF {
					return
				}
				if err != nil {
					errCh <- fmt.Errorf("parse csv: %w", err)
					return
				}
			}

			data := make(map[string]any, len(headers))
			for j, h := range headers {
				if j < len(row) {
					data[h] = csvValue(row[j])
				}
			}
			row = nil

			select {
			case out <- etl.Record{Data: data}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errCh
}

func openCSVFile(cfg etl.SourceConfig) (*os.File, *csv.Reader, error) {
	filePath, _ := cfg["filePath"].(string)
	if filePath == "" {
		return nil, nil, fmt.Errorf("filePath is required")
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open file: %w", err)
	}

	reader := csv.NewReader(f)

	// Configure delimiter.
	if delim, ok := cfg["delimiter"].(string); ok && len(delim) > 0 {
		reader.Comma = rune(delim[0])
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	return f, reader, nil
}

// readCSVHeader returns the column names. Without a header row the first
// data row is returned too so it is not lost.
func readCSVHeader(reader *csv.Reader, cfg etl.SourceConfig) ([]string, []string, error) {
	first, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("empty csv file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}

	hasHeader := true
	if h, ok := cfg["hasHeader"].(string); ok {
		hasHeader = strings.ToLower(h) != "false"
	}
	if hasHeader {
		return first, nil, nil
	}

	// Generate column names: col_1, col_2, ...
	headers := make([]string, len(first))
	for i := range headers {
		headers[i] = fmt.Sprintf("col_%d", i+1)
	}
	return headers, first, nil
}

// csvValue maps blank cells to nil and keeps everything else verbatim.
func csvValue(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
