package service

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"ppdmloader/internal/domain"
	"ppdmloader/internal/etl"
	"ppdmloader/internal/loader"
)

// Trigger names recorded on run logs.
const (
	TriggerManual    = "manual"
	TriggerSchedule  = "schedule"
	TriggerFileWatch = "file_watch"
	TriggerMCP       = "mcp"
)

const (
	loadJobID      = "load"
	watchDebounce  = 500 * time.Millisecond
	defaultRunsMax = 20
)

// ErrAlreadyRunning is returned when a load is triggered while one is in progress.
var ErrAlreadyRunning = errors.New("load already running")

// Runner is the loader pipeline as seen by the service.
type Runner interface {
	Run(ctx context.Context) (*loader.Result, error)
	ResolveSchema(ctx context.Context) (*loader.SchemaReport, error)
	Preview(ctx context.Context, dataset string, maxRows int) ([]etl.Record, *etl.Schema, error)
}

// RunLogStore persists run history.
type RunLogStore interface {
	CreateRunLog(log *domain.RunLog) error
	FinishRunLog(log *domain.RunLog) error
	ListRunLogs(limit int) ([]domain.RunLog, error)
}

// LoaderService runs the loader on demand, on a cron schedule, or when a
// dataset archive lands in the watched directory. At most one run is in
// progress at any time.
type LoaderService struct {
	loader  Runner
	runs    RunLogStore
	emitter EventEmitter
	logger  *zap.Logger

	running runGuard

	mu          sync.Mutex
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// NewLoaderService creates a LoaderService. runs may be nil to skip history.
func NewLoaderService(l Runner, runs RunLogStore, emitter EventEmitter, logger *zap.Logger) *LoaderService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoaderService{
		loader:  l,
		runs:    runs,
		emitter: emitter,
		logger:  logger.Named("service"),
	}
}

// ── Runs ──────────────────────────────────────────────────

// Run executes one load and records it. The returned log is complete even
// when the run fails.
func (s *LoaderService) Run(ctx context.Context, trigger string) (*domain.RunLog, error) {
	if holder, ok := s.running.Acquire(loadJobID, trigger); !ok {
		return nil, errors.Wrapf(ErrAlreadyRunning, "started by %s at %s",
			holder.Trigger, holder.StartedAt.Format(time.RFC3339))
	}
	defer s.running.Release(loadJobID)

	runLog := &domain.RunLog{Trigger: trigger, StartedAt: time.Now(), Status: domain.RunRunning}
	if s.runs != nil {
		if err := s.runs.CreateRunLog(runLog); err != nil {
			s.logger.Warn("record run start failed", zap.Error(err))
		}
	}
	s.logger.Info("load started", zap.String("trigger", trigger), zap.String("run", runLog.ID))

	res, runErr := s.loader.Run(ctx)

	runLog.FinishedAt = time.Now()
	runLog.Status = domain.RunSuccess
	if res != nil {
		runLog.Stats = res.Stats
		runLog.Sources = res.Sources
	}
	if runErr != nil {
		runLog.Status = domain.RunError
		runLog.Error = runErr.Error()
	}
	if s.runs != nil && runLog.ID != "" {
		if err := s.runs.FinishRunLog(runLog); err != nil {
			s.logger.Warn("record run finish failed", zap.String("run", runLog.ID), zap.Error(err))
		}
	}

	if runErr != nil {
		s.logger.Error("load failed",
			zap.String("trigger", trigger),
			zap.String("run", runLog.ID),
			zap.Error(runErr))
		s.emitter.Emit(ctx, EventLoadFailed, runLog)
		return runLog, runErr
	}

	s.logger.Info("load finished",
		zap.String("trigger", trigger),
		zap.String("run", runLog.ID),
		zap.Duration("elapsed", runLog.FinishedAt.Sub(runLog.StartedAt)))
	s.emitter.Emit(ctx, EventLoadCompleted, runLog)
	return runLog, nil
}

// ListRuns returns the most recent run logs, newest first.
func (s *LoaderService) ListRuns(limit int) ([]domain.RunLog, error) {
	if s.runs == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultRunsMax
	}
	return s.runs.ListRunLogs(limit)
}

// ResolveSchema reports the column lengths the next run would apply.
func (s *LoaderService) ResolveSchema(ctx context.Context) (*loader.SchemaReport, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return s.loader.ResolveSchema(ctx)
}

// PreviewResult is the response from Preview.
type PreviewResult struct {
	Schema  *etl.Schema  `json:"schema"`
	Records []etl.Record `json:"records"`
}

// Preview reads the first maxRows records of a dataset without persisting.
func (s *LoaderService) Preview(ctx context.Context, dataset string, maxRows int) (*PreviewResult, error) {
	records, schema, err := s.loader.Preview(ctx, dataset, maxRows)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{Schema: schema, Records: records}, nil
}

// ── Watchers (cron + file_watch) ──────────────────────────

// StartSchedule runs the loader on a cron expression (five fields or a
// descriptor such as @daily) until Stop. A tick that finds a run in
// progress is skipped.
func (s *LoaderService) StartSchedule(ctx context.Context, expr string) error {
	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		s.logger.Info("scheduled load", zap.String("cron", expr))
		s.runTriggered(ctx, TriggerSchedule)
	})
	if err != nil {
		return errors.Wrapf(err, "invalid cron expression %q", expr)
	}

	s.mu.Lock()
	if s.cronSched != nil {
		s.cronSched.Stop()
	}
	s.cronSched = c
	s.mu.Unlock()

	c.Start()
	s.logger.Info("schedule started", zap.String("cron", expr))
	return nil
}

// StartWatch reruns the loader when a dataset file in dir is written or
// created. Bursts of events within 500ms collapse into one run; hidden
// files such as in-progress downloads are ignored. Events during a load,
// or within 500ms of its end, come from the load's own downloads and are
// ignored too.
func (s *LoaderService) StartWatch(ctx context.Context, dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrapf(err, "bad watch path %q", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	if err := watcher.Add(absDir); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "watch dir %q", absDir)
	}

	watchCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.stopWatchLocked()
	s.watcher = watcher
	s.watchCancel = cancel
	s.mu.Unlock()

	go func() {
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if !isDatasetFile(event.Name) {
					continue
				}
				if !s.running.Settled(loadJobID, watchDebounce) {
					s.logger.Debug("ignoring change during load", zap.String("path", event.Name))
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				name := event.Name
				timer = time.AfterFunc(watchDebounce, func() {
					if watchCtx.Err() != nil {
						return
					}
					s.logger.Info("dataset changed", zap.String("path", name))
					s.runTriggered(watchCtx, TriggerFileWatch)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}()

	s.logger.Info("watching for datasets", zap.String("dir", absDir))
	return nil
}

// runTriggered runs a load started by a schedule or watcher, where there is
// no caller to hand the error to.
func (s *LoaderService) runTriggered(ctx context.Context, trigger string) {
	if _, err := s.Run(ctx, trigger); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			s.logger.Info("load skipped, previous run still in progress", zap.String("trigger", trigger))
		}
	}
}

func isDatasetFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".zip", ".dbf", ".csv":
		return true
	}
	return false
}

// Active returns the load in progress, if any.
func (s *LoaderService) Active() (ActiveRun, bool) {
	return s.running.Holder(loadJobID)
}

// WaitRunning blocks until the running load finishes or ctx is cancelled.
// Used for graceful shutdown.
func (s *LoaderService) WaitRunning(ctx context.Context) {
	s.running.Wait(ctx)
}

// Stop tears down the watcher and scheduler. It does not cancel a run in progress.
func (s *LoaderService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopWatchLocked()
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}

func (s *LoaderService) stopWatchLocked() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
}
