package etl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource serves cfg["rows"] as records, then cfg["err"] if set.
type sliceSource struct{}

func init() { RegisterSource(sliceSource{}) }

func (sliceSource) Spec() SourceSpec { return SourceSpec{Type: "test_slice", Label: "Slice"} }

func (sliceSource) Discover(ctx context.Context, cfg SourceConfig) (*Schema, error) {
	return &Schema{Fields: []Field{{Name: "API", Type: "text"}}}, nil
}

func (sliceSource) Read(ctx context.Context, cfg SourceConfig) (<-chan Record, <-chan error) {
	out := make(chan Record)
	errCh := make(chan error, 1)
	rows, _ := cfg["rows"].([]string)
	go func() {
		defer close(out)
		defer close(errCh)
		for _, api := range rows {
			select {
			case out <- Record{Data: map[string]any{"API": api}}:
			case <-ctx.Done():
				return
			}
		}
		if err, ok := cfg["err"].(error); ok {
			errCh <- err
		}
	}()
	return out, errCh
}

func TestEngine_Extract(t *testing.T) {
	var e Engine
	cfg := SourceConfig{"rows": []string{"1", "2", "1", "", "3"}}

	ex, err := e.Extract(context.Background(), "test_slice", cfg,
		[]Transformer{&RequireTransform{Field: "API"}, NewDedupeTransform("API")})
	require.NoError(t, err)
	assert.Equal(t, 5, ex.RowsRead)
	require.Len(t, ex.Records, 3)
	assert.Equal(t, "3", ex.Records[2].Data["API"])
	assert.Equal(t, []string{"API"}, ex.Schema.FieldNames())
}

func TestEngine_ExtractErrors(t *testing.T) {
	var e Engine

	_, err := e.Extract(context.Background(), "nope", nil, nil)
	assert.ErrorContains(t, err, "unknown source type")

	boom := errors.New("truncated record")
	ex, err := e.Extract(context.Background(), "test_slice", SourceConfig{"rows": []string{"1"}, "err": boom}, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ex.RowsRead)
}

func TestEngine_Preview(t *testing.T) {
	var e Engine
	cfg := SourceConfig{"rows": []string{"1", "2", "3", "4"}}

	records, schema, err := e.Preview(context.Background(), "test_slice", cfg, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.NotNil(t, schema)

	records, _, err = e.Preview(context.Background(), "test_slice", cfg, 10)
	require.NoError(t, err)
	assert.Len(t, records, 4)
}
