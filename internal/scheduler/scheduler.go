// Package scheduler fires pipeline jobs on a cron-like cadence, exactly
// once per due interval, through the work queue.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"outreach-engine-go/internal/metrics"
	"outreach-engine-go/internal/queue"
)

// Job couples a name with its cron expression (standard five-field
// syntax).
type Job struct {
	Name     string
	Schedule string
}

// Store persists the last-run timestamp per job name across restarts.
type Store interface {
	GetLastRun(name string) (time.Time, bool, error)
	SetLastRun(name string, ts time.Time) error
}

// Engine evaluates job due-times against the last-run store and
// enqueues due work.
type Engine struct {
	store   Store
	queue   queue.Queue
	metrics *metrics.Metrics
}

// NewEngine creates a tick engine. metrics may be nil.
func NewEngine(store Store, q queue.Queue, m *metrics.Metrics) *Engine {
	return &Engine{store: store, queue: q, metrics: m}
}

// IsDue reports whether the schedule's next fire time after lastRun has
// arrived.
func IsDue(schedule string, lastRun, now time.Time) (bool, error) {
	spec, err := cron.ParseStandard(schedule)
	if err != nil {
		return false, fmt.Errorf("invalid cron expression %q: %w", schedule, err)
	}
	return !spec.Next(lastRun).After(now), nil
}

// Tick evaluates every job once and returns the number enqueued. A job
// seen for the first time only records "now" as its last run and does
// not fire, so a cold start cannot launch every job at once.
func (e *Engine) Tick(ctx context.Context, jobs []Job, now time.Time) (int, error) {
	enqueued := 0
	for _, job := range jobs {
		lastRun, found, err := e.store.GetLastRun(job.Name)
		if err != nil {
			return enqueued, fmt.Errorf("failed to load last run for %s: %w", job.Name, err)
		}
		if !found {
			if err := e.store.SetLastRun(job.Name, now); err != nil {
				return enqueued, fmt.Errorf("failed to initialize last run for %s: %w", job.Name, err)
			}
			logrus.Infof("Initialized schedule for job %s without firing", job.Name)
			continue
		}

		due, err := IsDue(job.Schedule, lastRun, now)
		if err != nil {
			return enqueued, err
		}
		if !due {
			continue
		}

		jobID, err := e.queue.Enqueue(ctx, job.Name)
		if err != nil {
			return enqueued, fmt.Errorf("failed to enqueue job %s: %w", job.Name, err)
		}
		if err := e.store.SetLastRun(job.Name, now); err != nil {
			return enqueued, fmt.Errorf("failed to record last run for %s: %w", job.Name, err)
		}
		enqueued++
		if e.metrics != nil {
			e.metrics.JobsEnqueued.Inc()
		}
		logrus.Infof("Enqueued job %s (%s)", job.Name, jobID)
	}
	return enqueued, nil
}
