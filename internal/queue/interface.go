package queue

import (
	"context"
	"time"
)

// MessageInterface is a delivered job awaiting acknowledgement.
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue is the interface for job queues
type JobQueue interface {
	// Enqueue publishes a job. Jobs with a future NotBefore are delayed.
	Enqueue(ctx context.Context, job *Job) error

	// Consume delivers messages until ctx is cancelled. prefetchCount caps
	// unacknowledged messages per consumer. Both channels close when
	// delivery stops.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	// Close closes the queue connection
	Close() error

	// HealthCheck verifies the queue connection is healthy
	HealthCheck(ctx context.Context) error
}

// DLQPurger removes dead-lettered messages older than retention and reports
// how many were dropped.
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
