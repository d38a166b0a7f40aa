// Package queue provides the background task plumbing on top of asynq and
// the bookkeeping tasks the ingest pipeline schedules. Bookkeeping updates
// are derived state; losing one under process termination is acceptable.
package queue

import (
	"context"
	"time"
)

// Task is a queued unit of work with a JSON payload.
type Task struct {
	Type    string
	Payload []byte
}

// Client enqueues tasks for asynchronous execution.
type Client interface {
	// Enqueue schedules the task to run after delay (0 = as soon as possible).
	Enqueue(ctx context.Context, t Task, delay time.Duration) error
	Close() error
}

// Handler processes one dequeued task.
type Handler func(ctx context.Context, t Task) error

// Server dequeues tasks and dispatches them to registered handlers.
type Server interface {
	Register(taskType string, h Handler)
	Start() error
	Shutdown()
}
