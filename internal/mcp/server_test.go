package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppdmloader/internal/domain"
	"ppdmloader/internal/etl"
	"ppdmloader/internal/loader"
	"ppdmloader/internal/service"
	"ppdmloader/internal/storage"
)

type stubRunner struct {
	runErr error
}

func (r *stubRunner) Run(context.Context) (*loader.Result, error) {
	return &loader.Result{Stats: domain.RunStats{WellsReconciled: 2, Inserted: map[string]int{"WELL": 2}}}, r.runErr
}

func (r *stubRunner) ResolveSchema(context.Context) (*loader.SchemaReport, error) {
	return &loader.SchemaReport{Table: "WELL", Missing: []string{"ASSIGNED_FIELD"}}, nil
}

func (r *stubRunner) Preview(_ context.Context, dataset string, maxRows int) ([]etl.Record, *etl.Schema, error) {
	if dataset != "surface" {
		return nil, nil, fmt.Errorf("%w: %s", loader.ErrSourceUnavailable, dataset)
	}
	recs := make([]etl.Record, maxRows)
	for i := range recs {
		recs[i] = etl.Record{Data: map[string]any{"API": fmt.Sprintf("%08d", i)}}
	}
	return recs, &etl.Schema{}, nil
}

func newTestServer(t *testing.T, runner service.Runner) *Server {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	notifier := &Notifier{}
	svc := service.NewLoaderService(runner, storage.NewRunStore(db), notifier, nil)
	return New(Deps{Loader: svc, Notifier: notifier})
}

func callTool(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, r)
	require.NotEmpty(t, r.Content)
	tc, ok := r.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestRunLoadAndListRuns(t *testing.T) {
	s := newTestServer(t, &stubRunner{})
	ctx := context.Background()

	res, err := s.handleRunLoad(ctx, callTool(nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var run domain.RunLog
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &run))
	assert.Equal(t, domain.RunSuccess, run.Status)
	assert.Equal(t, "mcp", run.Trigger)
	assert.Equal(t, 2, run.Stats.WellsReconciled)

	res, err = s.handleListRuns(ctx, callTool(map[string]any{"limit": float64(5)}))
	require.NoError(t, err)
	var runs []domain.RunLog
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestRunLoad_ClassifiedFailure(t *testing.T) {
	s := newTestServer(t, &stubRunner{runErr: fmt.Errorf("%w: WELL: boom", loader.ErrPersistence)})

	res, err := s.handleRunLoad(context.Background(), callTool(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Persistence failure")
}

// gatedRunner blocks in Run until release is closed.
type gatedRunner struct {
	stubRunner
	started chan struct{}
	release chan struct{}
}

func (r *gatedRunner) Run(ctx context.Context) (*loader.Result, error) {
	close(r.started)
	<-r.release
	return r.stubRunner.Run(ctx)
}

func TestRunLoad_RefusesOverlap(t *testing.T) {
	runner := &gatedRunner{started: make(chan struct{}), release: make(chan struct{})}
	s := newTestServer(t, runner)

	done := make(chan error, 1)
	go func() {
		_, err := s.loader.Run(context.Background(), service.TriggerSchedule)
		done <- err
	}()
	<-runner.started

	res, err := s.handleRunLoad(context.Background(), callTool(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "A schedule load started at")

	close(runner.release)
	require.NoError(t, <-done)
}

func TestListRuns_Empty(t *testing.T) {
	s := newTestServer(t, &stubRunner{})
	res, err := s.handleListRuns(context.Background(), callTool(nil))
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded yet", resultText(t, res))
}

func TestPreviewSource(t *testing.T) {
	s := newTestServer(t, &stubRunner{})
	ctx := context.Background()

	res, err := s.handlePreviewSource(ctx, callTool(map[string]any{"dataset": "surface", "maxRows": float64(500)}))
	require.NoError(t, err)
	var preview service.PreviewResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &preview))
	assert.Len(t, preview.Records, 100, "maxRows is capped")

	res, err = s.handlePreviewSource(ctx, callTool(map[string]any{"dataset": "bottom_hole"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handlePreviewSource(ctx, callTool(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestResolveSchema(t *testing.T) {
	s := newTestServer(t, &stubRunner{})
	res, err := s.handleResolveSchema(context.Background(), callTool(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "ASSIGNED_FIELD")
}

func TestNotifier_DropsBeforeAttach(t *testing.T) {
	var n Notifier
	assert.NotPanics(t, func() { n.Emit(context.Background(), service.EventLoadCompleted, nil) })
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 20, clamp(0, 20, 1, 200))
	assert.Equal(t, 200, clamp(1000, 20, 1, 200))
	assert.Equal(t, 7, clamp(7, 20, 1, 200))
}
