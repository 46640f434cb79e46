// Package queue hands pipeline-stage work from the scheduler to the
// worker processes.
package queue

import "context"

// Pipeline job names. The scheduler enqueues these on their cron
// cadence; workers register handlers for the stages they own.
const (
	JobDiscover   = "discover"
	JobQualify    = "qualify"
	JobEnrich     = "enrich"
	JobOutreach   = "outreach"
	JobSendOutbox = "send_outbox"
)

// Payload is the JSON body of one enqueued job.
type Payload struct {
	JobID   string `json:"job_id"`
	JobName string `json:"job_name"`
}

// Queue enqueues named jobs for asynchronous processing.
type Queue interface {
	Enqueue(ctx context.Context, jobName string) (string, error)
}

// Handler processes one delivered job.
type Handler func(ctx context.Context, payload Payload) error
