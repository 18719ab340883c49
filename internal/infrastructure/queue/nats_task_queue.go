// Package queue implements ports.TaskQueue (§4.8) on top of NATS
// JetStream. It is a delivery accelerator only: Postgres's TaskRepository
// stays authoritative for status/attempts/lease, per ports.TaskQueue's own
// doc comment, so a dropped or duplicated message here is never fatal -
// the worker pool's lease-sweep poll (settlement.Worker.ProcessNext against
// ClaimNextPending) finds the task regardless. No example repo in the
// corpus wires up JetStream; this client follows the stream/subject/
// consumer shape ports.TaskQueue's own comment already specifies
// (stream SETTLEMENT, subject settlement.vas) and go-redis/pgx's
// connect-then-wrap constructor style used by the rest of this package's
// infrastructure clients.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	streamName   = "SETTLEMENT"
	subject      = "settlement.vas"
	durableGroup = "settlement-workers"
)

// PollOnlyTaskQueue implements ports.TaskQueue without any transport:
// Publish is a no-op and Subscribe simply blocks until ctx is cancelled.
// This is a legitimate TaskQueue per the interface's own doc comment -
// Postgres's ClaimNextPending stays authoritative regardless, so a
// deployment without NATS configured just runs the worker pool on its
// lease-sweep poll interval instead of getting an early wake-up signal.
type PollOnlyTaskQueue struct{}

// NewPollOnlyTaskQueue builds a TaskQueue for deployments with no NATS URL
// configured (config.QueueConfig.Enabled() == false).
func NewPollOnlyTaskQueue() *PollOnlyTaskQueue {
	return &PollOnlyTaskQueue{}
}

// Publish is a no-op - the worker pool will find the task on its next poll.
func (q *PollOnlyTaskQueue) Publish(ctx context.Context, taskID uuid.UUID) error {
	return nil
}

// Subscribe blocks until ctx is cancelled; it never calls handler.
func (q *PollOnlyTaskQueue) Subscribe(ctx context.Context, handler func(ctx context.Context, taskID uuid.UUID) error) error {
	<-ctx.Done()
	return ctx.Err()
}

// NatsTaskQueue implements ports.TaskQueue against a NATS JetStream stream.
type NatsTaskQueue struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *slog.Logger
}

// NewNatsTaskQueue connects to url and ensures the SETTLEMENT stream
// exists, creating it if this is the first instance to start against a
// fresh NATS server.
func NewNatsTaskQueue(url string, logger *slog.Logger) (*NatsTaskQueue, error) {
	conn, err := nats.Connect(url,
		nats.Name("vaswallet-settlement"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("queue: connect nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("queue: open jetstream context: %w", err)
	}

	if _, err := js.StreamInfo(streamName); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			conn.Close()
			return nil, fmt.Errorf("queue: inspect stream %s: %w", streamName, err)
		}
		if _, err := js.AddStream(&nats.StreamConfig{
			Name:      streamName,
			Subjects:  []string{subject},
			Retention: nats.WorkQueuePolicy,
			Storage:   nats.FileStorage,
			MaxAge:    24 * time.Hour,
		}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("queue: create stream %s: %w", streamName, err)
		}
	}

	return &NatsTaskQueue{conn: conn, js: js, logger: logger}, nil
}

// Close drains the underlying connection.
func (q *NatsTaskQueue) Close() {
	q.conn.Close()
}

// Publish signals that taskID is PENDING and ready for a worker to claim.
func (q *NatsTaskQueue) Publish(ctx context.Context, taskID uuid.UUID) error {
	_, err := q.js.Publish(subject, []byte(taskID.String()), nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("queue: publish task %s: %w", taskID, err)
	}
	return nil
}

// Subscribe registers a durable pull consumer and invokes handler for each
// delivery until ctx is cancelled. Acks only after handler returns nil, so
// a crash mid-handler redelivers the message rather than losing it; since
// ClaimNextPending is the idempotency boundary, a redelivered taskID that
// another worker already claimed simply finds nothing PENDING to claim.
func (q *NatsTaskQueue) Subscribe(ctx context.Context, handler func(ctx context.Context, taskID uuid.UUID) error) error {
	sub, err := q.js.PullSubscribe(subject, durableGroup, nats.ManualAck())
	if err != nil {
		return fmt.Errorf("queue: pull subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msgs, err := sub.Fetch(1, nats.MaxWait(2*time.Second))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			return fmt.Errorf("queue: fetch: %w", err)
		}

		for _, msg := range msgs {
			taskID, parseErr := uuid.Parse(string(msg.Data))
			if parseErr != nil {
				q.logger.Warn("queue: dropping message with unparseable task id", "raw", string(msg.Data), "error", parseErr)
				msg.Ack()
				continue
			}
			if err := handler(ctx, taskID); err != nil {
				q.logger.Warn("queue: handler failed, leaving message for redelivery", "task_id", taskID, "error", err)
				msg.Nak()
				continue
			}
			msg.Ack()
		}
	}
}
