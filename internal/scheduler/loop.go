package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Loop drives the tick engine on a fixed interval. It is a
// single-threaded cooperative poll loop: ticks never overlap, and
// exactly one Loop instance may run per deployment — a second instance
// would double-fire due jobs.
type Loop struct {
	engine    *Engine
	jobs      []Job
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.RWMutex
	lastTick  time.Time
}

// NewLoop creates a poll loop over the given jobs.
func NewLoop(engine *Engine, jobs []Job, interval time.Duration) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		engine:   engine,
		jobs:     jobs,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the poll loop.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.isRunning {
		return fmt.Errorf("scheduler loop is already running")
	}

	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.isRunning = true

	l.wg.Add(1)
	go l.run()

	logrus.Infof("Scheduler loop started with interval %v", l.interval)
	return nil
}

func (l *Loop) run() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.tick()
	for {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			l.tick()
		}
	}
}

func (l *Loop) tick() {
	now := time.Now().UTC()
	enqueued, err := l.engine.Tick(l.ctx, l.jobs, now)
	if err != nil {
		logrus.Errorf("Scheduler tick failed: %v", err)
	}
	l.mu.Lock()
	l.lastTick = now
	l.mu.Unlock()
	if enqueued > 0 {
		logrus.Infof("Scheduler tick enqueued %d job(s)", enqueued)
	}
}

// RunOnce evaluates all jobs immediately (for manual triggering).
func (l *Loop) RunOnce() (int, error) {
	return l.engine.Tick(l.ctx, l.jobs, time.Now().UTC())
}

// Stop cancels the loop and waits for the in-flight tick to finish.
func (l *Loop) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.isRunning {
		return nil
	}

	l.cancel()
	l.isRunning = false
	return nil
}

// IsRunning returns whether the loop is active.
func (l *Loop) IsRunning() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.isRunning
}

// LastTick returns the time of the most recent tick.
func (l *Loop) LastTick() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastTick
}

// Wait blocks until the loop goroutine exits.
func (l *Loop) Wait() {
	l.wg.Wait()
}
