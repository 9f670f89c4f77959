package etl

import (
	"fmt"
	"strings"
)

// ── Transformer ────────────────────────────────────────────
// Transformers modify records in-flight between source and loader.
// They are composable: each takes a record, returns a (possibly modified)
// record and a boolean indicating whether to keep it.

// Transformer processes a single record.
// Returns (transformed record, keep). If keep is false, the record is dropped.
type Transformer interface {
	Transform(Record) (Record, bool)
}

// ── Built-in Transforms ────────────────────────────────────

// RequireTransform drops records whose field is missing, null or blank.
type RequireTransform struct {
	Field string
}

func (t *RequireTransform) Transform(r Record) (Record, bool) {
	v, ok := r.String(t.Field)
	return r, ok && strings.TrimSpace(v) != ""
}

// RenameTransform renames fields in a record. Old names match case-insensitively.
type RenameTransform struct {
	Mapping map[string]string // oldName → newName
}

func (t *RenameTransform) Transform(r Record) (Record, bool) {
	for old, new_ := range t.Mapping {
		for k, v := range r.Data {
			if strings.EqualFold(k, old) {
				delete(r.Data, k)
				r.Data[new_] = v
				break
			}
		}
	}
	return r, true
}

// SelectTransform keeps only the specified fields (matched case-insensitively).
type SelectTransform struct {
	Fields []string
}

func (t *SelectTransform) Transform(r Record) (Record, bool) {
	filtered := make(map[string]any, len(t.Fields))
	for _, f := range t.Fields {
		if v, ok := r.lookup(f); ok {
			filtered[f] = v
		}
	}
	r.Data = filtered
	return r, true
}

// DedupeTransform drops records with duplicate values for the given key.
// The first occurrence wins.
type DedupeTransform struct {
	Key  string
	seen map[string]bool
}

func NewDedupeTransform(key string) *DedupeTransform {
	return &DedupeTransform{Key: key, seen: make(map[string]bool)}
}

func (t *DedupeTransform) Transform(r Record) (Record, bool) {
	raw, _ := r.lookup(t.Key)
	v := strings.TrimSpace(fmt.Sprint(raw))
	if t.seen[v] {
		return r, false
	}
	t.seen[v] = true
	return r, true
}

// ── Helpers ────────────────────────────────────────────────

// ApplyTransformers runs a chain of transformers on a record.
func ApplyTransformers(r Record, ts []Transformer) (Record, bool) {
	for _, t := range ts {
		var keep bool
		r, keep = t.Transform(r)
		if !keep {
			return r, false
		}
	}
	return r, true
}
