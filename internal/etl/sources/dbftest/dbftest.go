// Package dbftest builds small dBASE III tables and zipped shapefile
// archives for tests.
package dbftest

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"testing"
)

// Field is one column descriptor. Type is 'C', 'N', 'F', 'D' or 'L'.
type Field struct {
	Name     string
	Type     byte
	Length   int
	Decimals int
}

// Row is one record. Values are raw cell text in field order; numeric
// cells are right-aligned, everything else left-aligned.
type Row struct {
	Deleted bool
	Values  []string
}

// Build encodes a table.
func Build(fields []Field, rows []Row) []byte {
	var buf bytes.Buffer

	recordLen := 1
	for _, f := range fields {
		recordLen += f.Length
	}
	headerLen := 32 + 32*len(fields) + 1

	header := make([]byte, 32)
	header[0] = 0x03
	header[1], header[2], header[3] = 124, 1, 15
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(rows)))
	binary.LittleEndian.PutUint16(header[8:10], uint16(headerLen))
	binary.LittleEndian.PutUint16(header[10:12], uint16(recordLen))
	buf.Write(header)

	for _, f := range fields {
		d := make([]byte, 32)
		copy(d[:11], f.Name)
		d[11] = f.Type
		d[16] = byte(f.Length)
		d[17] = byte(f.Decimals)
		buf.Write(d)
	}
	buf.WriteByte(0x0D)

	for _, r := range rows {
		if r.Deleted {
			buf.WriteByte('*')
		} else {
			buf.WriteByte(' ')
		}
		for i, f := range fields {
			v := ""
			if i < len(r.Values) {
				v = r.Values[i]
			}
			if len(v) > f.Length {
				v = v[:f.Length]
			}
			pad := strings.Repeat(" ", f.Length-len(v))
			if f.Type == 'N' || f.Type == 'F' {
				buf.WriteString(pad + v)
			} else {
				buf.WriteString(v + pad)
			}
		}
	}
	buf.WriteByte(0x1A)
	return buf.Bytes()
}

// WriteZip writes an archive holding the given entries to path.
func WriteZip(t testing.TB, path string, entries map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
}

// SurfaceFields is the subset of the surface well table the loader reads.
var SurfaceFields = []Field{
	{Name: "API", Type: 'C', Length: 8},
	{Name: "Operator", Type: 'C', Length: 50},
	{Name: "Well_Name", Type: 'C', Length: 50},
	{Name: "Field_Name", Type: 'C', Length: 50},
	{Name: "Spud_Date", Type: 'D', Length: 8},
	{Name: "Ground_Ele", Type: 'N', Length: 10},
	{Name: "Max_MD", Type: 'N', Length: 10},
	{Name: "Facil_Stat", Type: 'C', Length: 2},
	{Name: "Stat_Date", Type: 'D', Length: 8},
	{Name: "Latitude", Type: 'N', Length: 19, Decimals: 11},
	{Name: "Longitude", Type: 'N', Length: 19, Decimals: 11},
	{Name: "Well_Title", Type: 'C', Length: 80},
}

// BottomHoleFields is the subset of the bottom-hole table the loader reads.
var BottomHoleFields = []Field{
	{Name: "API", Type: 'C', Length: 10},
	{Name: "Operator", Type: 'C', Length: 50},
	{Name: "Well_Name", Type: 'C', Length: 50},
	{Name: "Lat", Type: 'N', Length: 19, Decimals: 11},
	{Name: "Long", Type: 'N', Length: 19, Decimals: 11},
	{Name: "MD", Type: 'N', Length: 10},
}

// Float formats a coordinate the way the published tables do.
func Float(v float64) string { return fmt.Sprintf("%.11f", v) }
