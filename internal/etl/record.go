package etl

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ── Record ─────────────────────────────────────────────────
// Common intermediate data format.
// All sources emit Records; the loader maps them onto well locations.

// Field describes a single column in a dataset.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"` // "text" | "number" | "boolean" | "datetime"
}

// Schema describes the shape of records coming from a source.
type Schema struct {
	Fields []Field `json:"fields"`
}

// FieldNames returns an ordered list of field names.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Record is a single row of data flowing through the pipeline.
// Values are string, int64, float64, bool, time.Time or nil.
type Record struct {
	Data map[string]any `json:"data"`
}

// dateLayouts are tried in order when a date arrives as text.
var dateLayouts = []string{"20060102", "2006-01-02", time.RFC3339, "01/02/2006", "1/2/2006"}

// lookup finds a field by exact name, then case-insensitively.
func (r Record) lookup(name string) (any, bool) {
	if v, ok := r.Data[name]; ok {
		return v, v != nil
	}
	for k, v := range r.Data {
		if strings.EqualFold(k, name) {
			return v, v != nil
		}
	}
	return nil, false
}

// String returns the field as text. Missing and null fields yield ok=false.
func (r Record) String(name string) (string, bool) {
	v, ok := r.lookup(name)
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case time.Time:
		return val.Format("2006-01-02"), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return fmt.Sprint(val), true
	}
}

// Float returns the field as a float64. Blank or unparsable text yields ok=false.
func (r Record) Float(name string) (float64, bool) {
	v, ok := r.lookup(name)
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Int returns the field as an int64, truncating fractional numbers.
func (r Record) Int(name string) (int64, bool) {
	v, ok := r.lookup(name)
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case float64:
		return int64(val), true
	case string:
		s := strings.TrimSpace(val)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

// Date returns the field as a time.Time. Zero times and unparsable text yield ok=false.
func (r Record) Date(name string) (time.Time, bool) {
	v, ok := r.lookup(name)
	if !ok {
		return time.Time{}, false
	}
	switch val := v.(type) {
	case time.Time:
		return val, !val.IsZero()
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
