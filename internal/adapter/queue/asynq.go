package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// AsynqClient implements Client using github.com/hibiken/asynq with Redis
// as the backing store.
type AsynqClient struct {
	client *asynq.Client
}

// NewAsynqClient constructs a client from a Redis URL.
func NewAsynqClient(redisURL string) (*AsynqClient, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis url: %w", err)
	}
	return &AsynqClient{client: asynq.NewClient(opt)}, nil
}

var _ Client = (*AsynqClient)(nil)

// Enqueue schedules the task. Bookkeeping tasks carry a small delay so
// bursts of votes coalesce; retries are capped because the updates are
// advisory.
func (a *AsynqClient) Enqueue(ctx context.Context, t Task, delay time.Duration) error {
	if t.Type == "" {
		return fmt.Errorf("asynq: task type is required")
	}

	opts := []asynq.Option{asynq.MaxRetry(3)}
	if delay > 0 {
		opts = append(opts, asynq.ProcessIn(delay))
	}

	if _, err := a.client.EnqueueContext(ctx, asynq.NewTask(t.Type, t.Payload), opts...); err != nil {
		return fmt.Errorf("asynq: enqueue %s: %w", t.Type, err)
	}
	return nil
}

func (a *AsynqClient) Close() error {
	return a.client.Close()
}

// AsynqServer implements Server using github.com/hibiken/asynq.
type AsynqServer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewAsynqServer constructs a worker server.
func NewAsynqServer(redisURL string, concurrency int) (*AsynqServer, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis url: %w", err)
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
	})

	return &AsynqServer{server: srv, mux: asynq.NewServeMux()}, nil
}

var _ Server = (*AsynqServer)(nil)

func (s *AsynqServer) Register(taskType string, h Handler) {
	s.mux.HandleFunc(taskType, func(ctx context.Context, t *asynq.Task) error {
		return h(ctx, Task{Type: t.Type(), Payload: t.Payload()})
	})
}

func (s *AsynqServer) Start() error {
	return s.server.Start(s.mux)
}

func (s *AsynqServer) Shutdown() {
	s.server.Shutdown()
}
