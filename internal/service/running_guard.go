package service

import (
	"context"
	"sync"
	"time"
)

// ExportedRunGuard lets the _test package drive the guard directly.
type ExportedRunGuard = runGuard

// ── Run guard ─────────────────────────────────────────────

// ActiveRun describes a load that holds the guard.
type ActiveRun struct {
	Trigger   string    `json:"trigger"`
	StartedAt time.Time `json:"startedAt"`
}

// runGuard admits one holder per job and remembers which trigger holds it.
// A second trigger for a busy job is refused rather than queued.
type runGuard struct {
	mu       sync.Mutex
	active   map[string]ActiveRun
	released map[string]time.Time
	wg       sync.WaitGroup
}

// Acquire claims job for trigger. It reports false and the current holder
// when the job is already active.
func (g *runGuard) Acquire(job, trigger string) (ActiveRun, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if holder, busy := g.active[job]; busy {
		return holder, false
	}
	if g.active == nil {
		g.active = make(map[string]ActiveRun)
	}
	run := ActiveRun{Trigger: trigger, StartedAt: time.Now()}
	g.active[job] = run
	g.wg.Add(1)
	return run, true
}

// Release frees job. Call it exactly once per successful Acquire.
func (g *runGuard) Release(job string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.active[job]; !ok {
		return
	}
	delete(g.active, job)
	if g.released == nil {
		g.released = make(map[string]time.Time)
	}
	g.released[job] = time.Now()
	g.wg.Done()
}

// Holder returns the active run for job, if any.
func (g *runGuard) Holder(job string) (ActiveRun, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	run, ok := g.active[job]
	return run, ok
}

// Settled reports whether job is not active and was last released at
// least quiet ago.
func (g *runGuard) Settled(job string, quiet time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[job]; busy {
		return false
	}
	last, ok := g.released[job]
	return !ok || time.Since(last) >= quiet
}

// Wait blocks until no job is active or ctx is done.
func (g *runGuard) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
