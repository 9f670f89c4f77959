package etl

import (
	"context"
	"fmt"
)

// ── Engine ─────────────────────────────────────────────────
// Orchestrates: source.Read → transform chain → collected records.

// Extraction is the outcome of reading one dataset.
type Extraction struct {
	Schema   *Schema  `json:"schema"`
	Records  []Record `json:"records"`
	RowsRead int      `json:"rowsRead"`
}

// Engine reads datasets through the registered sources.
type Engine struct{}

// Extract reads every record of a dataset and applies the transformer chain.
// It resolves the source from the registry, discovers its schema, then
// collects the records the chain keeps.
func (e *Engine) Extract(ctx context.Context, sourceType string, cfg SourceConfig, ts []Transformer) (*Extraction, error) {
	source, err := GetSource(sourceType)
	if err != nil {
		return nil, err
	}

	schema, err := source.Discover(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	records, readErr := Drain(ctx, source, cfg)

	out := &Extraction{Schema: schema, RowsRead: len(records)}
	for _, rec := range records {
		transformed, keep := ApplyTransformers(rec, ts)
		if keep {
			out.Records = append(out.Records, transformed)
		}
	}

	if readErr != nil {
		return out, fmt.Errorf("read: %w", readErr)
	}
	return out, nil
}

// Preview executes only the source read phase and returns up to maxRows records.
func (e *Engine) Preview(ctx context.Context, sourceType string, cfg SourceConfig, maxRows int) ([]Record, *Schema, error) {
	source, err := GetSource(sourceType)
	if err != nil {
		return nil, nil, err
	}

	schema, err := source.Discover(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("discover: %w", err)
	}

	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	recCh, errCh := source.Read(readCtx, cfg)

	var records []Record
	for rec := range recCh {
		records = append(records, rec)
		if len(records) >= maxRows {
			break
		}
	}

	// Stop the reader and drain what it already produced.
	cancel()
	for range recCh {
	}
	if err := <-errCh; err != nil {
		return records, schema, err
	}

	return records, schema, nil
}
