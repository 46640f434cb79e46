package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"outreach-engine-go/internal/queue"
)

func TestIsDue(t *testing.T) {
	lastRun := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	// "*/15 * * * *" next fires at 09:15
	due, err := IsDue("*/15 * * * *", lastRun, lastRun.Add(10*time.Minute))
	assert.NoError(t, err)
	assert.False(t, due)

	due, err = IsDue("*/15 * * * *", lastRun, lastRun.Add(15*time.Minute))
	assert.NoError(t, err)
	assert.True(t, due)

	// Well past due still fires
	due, err = IsDue("0 8 * * *", lastRun, lastRun.Add(48*time.Hour))
	assert.NoError(t, err)
	assert.True(t, due)

	_, err = IsDue("not a cron expr", lastRun, lastRun)
	assert.Error(t, err)
}

func TestTickColdStartDoesNotFire(t *testing.T) {
	store := NewMemoryStore()
	q := queue.NewMemoryQueue()
	engine := NewEngine(store, q, nil)
	jobs := []Job{
		{Name: queue.JobDiscover, Schedule: "0 8 * * *"},
		{Name: queue.JobSendOutbox, Schedule: "*/15 * * * *"},
	}
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	enqueued, err := engine.Tick(context.Background(), jobs, now)
	assert.NoError(t, err)
	assert.Equal(t, 0, enqueued)
	assert.Empty(t, q.Enqueued)

	// Cold start must still record a last run, otherwise the next tick
	// would cold-start again.
	lastRun, found, err := store.GetLastRun(queue.JobDiscover)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, now, lastRun)
}

func TestTickFiresDueJobExactlyOnce(t *testing.T) {
	store := NewMemoryStore()
	q := queue.NewMemoryQueue()
	engine := NewEngine(store, q, nil)
	jobs := []Job{{Name: queue.JobSendOutbox, Schedule: "*/15 * * * *"}}

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	assert.NoError(t, store.SetLastRun(queue.JobSendOutbox, start))

	// Not yet due
	enqueued, err := engine.Tick(context.Background(), jobs, start.Add(5*time.Minute))
	assert.NoError(t, err)
	assert.Equal(t, 0, enqueued)

	// Due: fires once and advances last run
	now := start.Add(16 * time.Minute)
	enqueued, err = engine.Tick(context.Background(), jobs, now)
	assert.NoError(t, err)
	assert.Equal(t, 1, enqueued)
	assert.Equal(t, []string{queue.JobSendOutbox}, q.Names())

	// Immediate re-tick at the same instant must not double-fire
	enqueued, err = engine.Tick(context.Background(), jobs, now)
	assert.NoError(t, err)
	assert.Equal(t, 0, enqueued)
	assert.Len(t, q.Enqueued, 1)
}

func TestTickEvaluatesJobsIndependently(t *testing.T) {
	store := NewMemoryStore()
	q := queue.NewMemoryQueue()
	engine := NewEngine(store, q, nil)
	jobs := []Job{
		{Name: queue.JobDiscover, Schedule: "0 8 * * *"},
		{Name: queue.JobSendOutbox, Schedule: "*/15 * * * *"},
	}

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	store.SetLastRun(queue.JobDiscover, start)
	store.SetLastRun(queue.JobSendOutbox, start)

	// 20 minutes later only the 15-minute job is due
	enqueued, err := engine.Tick(context.Background(), jobs, start.Add(20*time.Minute))
	assert.NoError(t, err)
	assert.Equal(t, 1, enqueued)
	assert.Equal(t, []string{queue.JobSendOutbox}, q.Names())
}

func TestLoopRestart(t *testing.T) {
	engine := NewEngine(NewMemoryStore(), queue.NewMemoryQueue(), nil)
	jobs := []Job{{Name: queue.JobSendOutbox, Schedule: "*/15 * * * *"}}
	loop := NewLoop(engine, jobs, time.Hour)

	if err := loop.Start(); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	if !loop.IsRunning() {
		t.Fatalf("loop should be running after Start")
	}
	if err := loop.Start(); err == nil {
		t.Fatalf("second Start while running should fail")
	}
	if err := loop.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	loop.Wait()
	if loop.IsRunning() {
		t.Fatalf("loop should not be running after Stop")
	}
	if err := loop.Start(); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if !loop.IsRunning() {
		t.Fatalf("loop should be running after restart")
	}
	loop.Stop()
	loop.Wait()
}

func TestLoopRunOnce(t *testing.T) {
	store := NewMemoryStore()
	q := queue.NewMemoryQueue()
	engine := NewEngine(store, q, nil)
	jobs := []Job{{Name: queue.JobOutreach, Schedule: "*/15 * * * *"}}
	loop := NewLoop(engine, jobs, time.Hour)

	// First manual run initializes the schedule without firing
	enqueued, err := loop.RunOnce()
	assert.NoError(t, err)
	assert.Equal(t, 0, enqueued)

	// Pushing the last run into the past makes the job due
	store.SetLastRun(queue.JobOutreach, time.Now().UTC().Add(-time.Hour))
	enqueued, err = loop.RunOnce()
	assert.NoError(t, err)
	assert.Equal(t, 1, enqueued)
	assert.Equal(t, []string{queue.JobOutreach}, q.Names())
}
