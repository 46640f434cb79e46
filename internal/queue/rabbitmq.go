package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const queuePrefix = "q.jobs."

// RabbitMQ is the broker-backed queue shared by the scheduler and the
// worker processes. One durable queue per job name.
type RabbitMQ struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewRabbitMQ connects to the broker and declares the job queues.
func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	for _, name := range []string{JobDiscover, JobQualify, JobEnrich, JobOutreach, JobSendOutbox} {
		if _, err := ch.QueueDeclare(queuePrefix+name, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to declare queue for %s: %w", name, err)
		}
	}

	return &RabbitMQ{conn: conn, ch: ch}, nil
}

// Enqueue publishes one persistent job message and returns its id.
func (r *RabbitMQ) Enqueue(ctx context.Context, jobName string) (string, error) {
	payload := Payload{
		JobID:   uuid.NewString(),
		JobName: jobName,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	err = r.ch.PublishWithContext(ctx,
		"",                  // default exchange
		queuePrefix+jobName, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to publish job %s: %w", jobName, err)
	}
	return payload.JobID, nil
}

// Consume runs handlers for the given job names until ctx is cancelled.
// Deliveries are acked only after the handler returns nil; handler
// errors nack without requeue so a poisoned batch cannot loop forever.
func (r *RabbitMQ) Consume(ctx context.Context, handlers map[string]Handler) error {
	for jobName, handler := range handlers {
		msgs, err := r.ch.Consume(queuePrefix+jobName, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("failed to consume queue for %s: %w", jobName, err)
		}

		go func(jobName string, handler Handler, msgs <-chan amqp.Delivery) {
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-msgs:
					if !ok {
						return
					}
					var payload Payload
					if err := json.Unmarshal(d.Body, &payload); err != nil {
						logrus.Errorf("Dropping malformed %s job: %v", jobName, err)
						d.Nack(false, false)
						continue
					}
					if err := handler(ctx, payload); err != nil {
						logrus.Errorf("Job %s (%s) failed: %v", jobName, payload.JobID, err)
						d.Nack(false, false)
						continue
					}
					d.Ack(false)
				}
			}
		}(jobName, handler, msgs)
	}

	<-ctx.Done()
	return nil
}

// Close shuts down the channel and connection.
func (r *RabbitMQ) Close() error {
	if err := r.ch.Close(); err != nil {
		return err
	}
	return r.conn.Close()
}
