package sources

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/Valentin-Kaiser/go-dbase/dbase"
	"golang.org/x/text/encoding/charmap"

	"ppdmloader/internal/etl"
)

// ── DBF table ───────────────────────────────────────────────
// A dBASE III attribute table opened through go-dbase. The library reads
// the header, the field descriptors and the raw rows and converts cells;
// blank, unknown and overflowed cells are mapped to nil first so optional
// numbers and dates stay absent instead of reading as zero.

type dbfTable struct {
	file    *dbase.File
	columns []*dbase.Column
	next    uint32
	cleanup func() error
}

// openDBFTable opens the .dbf at path. Text is decoded as Windows-1252, the
// code page the state's shapefiles are published in. cleanup, when set,
// runs after the table is closed.
func openDBFTable(path string, cleanup func() error) (*dbfTable, error) {
	file, err := dbase.OpenTable(&dbase.Config{
		Filename:  path,
		Converter: dbase.NewDefaultConverter(charmap.Windows1252),
		ReadOnly:  true,
		Untested:  true, // accept dBASE III (0x03) headers
	})
	if err != nil {
		runCleanup(cleanup)
		return nil, fmt.Errorf("open dbf: %w", err)
	}

	t := &dbfTable{file: file, columns: file.Columns(), cleanup: cleanup}
	if len(t.columns) == 0 {
		t.Close()
		return nil, fmt.Errorf("dbf has no fields")
	}
	width := 1 // deletion flag
	for _, c := range t.columns {
		width += int(c.Length)
	}
	if recordLen := int(file.Header().RowLength); width != recordLen {
		t.Close()
		return nil, fmt.Errorf("dbf record length %d does not match field widths %d", recordLen, width)
	}
	return t, nil
}

func runCleanup(cleanup func() error) {
	if cleanup != nil {
		_ = cleanup()
	}
}

// Schema maps DBF field types onto ETL field types.
func (t *dbfTable) Schema() *etl.Schema {
	schema := &etl.Schema{Fields: make([]etl.Field, len(t.columns))}
	for i, c := range t.columns {
		typ := "text"
		switch dbase.DataType(c.DataType) {
		case dbase.Numeric, dbase.Float:
			typ = "number"
		case dbase.Date:
			typ = "datetime"
		case dbase.Logical:
			typ = "boolean"
		}
		schema.Fields[i] = etl.Field{Name: c.Name(), Type: typ}
	}
	return schema
}

// Next returns the next live record, skipping deleted rows.
// It returns io.EOF after the last record.
func (t *dbfTable) Next() (map[string]any, error) {
	for t.next < t.file.RowsCount() {
		pos := t.next
		raw, err := t.file.ReadRow(pos)
		if err != nil {
			return nil, fmt.Errorf("read dbf record %d: %w", pos, err)
		}
		t.next++
		if dbase.Marker(raw[0]) == dbase.Deleted {
			continue
		}
		return t.decode(raw[1:])
	}
	return nil, io.EOF
}

// Close releases the table and runs the cleanup hook.
func (t *dbfTable) Close() error {
	err := t.file.Close()
	if t.cleanup != nil {
		if cerr := t.cleanup(); err == nil {
			err = cerr
		}
	}
	return err
}

func (t *dbfTable) decode(raw []byte) (map[string]any, error) {
	data := make(map[string]any, len(t.columns))
	off := 0
	for _, c := range t.columns {
		cell := raw[off : off+int(c.Length)]
		off += int(c.Length)
		v, err := t.cell(c, cell)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", c.Name(), err)
		}
		data[c.Name()] = v
	}
	return data, nil
}

// blankCell reports whether a cell holds only padding or unknown markers.
func blankCell(cell []byte) bool {
	return len(bytes.Trim(cell, " \x00*?")) == 0
}

// cell converts one fixed-width cell. Blank cells are nil; a number or date
// the library cannot parse is nil too, only undecodable text is an error.
func (t *dbfTable) cell(c *dbase.Column, cell []byte) (any, error) {
	if blankCell(cell) {
		return nil, nil
	}
	switch dbase.DataType(c.DataType) {
	case dbase.Logical:
		switch cell[0] {
		case 'T', 't', 'Y', 'y':
			return true, nil
		case 'F', 'f', 'N', 'n':
			return false, nil
		}
		return nil, nil
	case dbase.Character:
		v, err := t.file.Interpret(cell, c)
		if err != nil {
			return nil, err
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected %T for text", v)
		}
		return strings.TrimRight(s, " \x00"), nil
	default:
		v, err := t.file.Interpret(cell, c)
		if err != nil {
			return nil, nil
		}
		return v, nil
	}
}
