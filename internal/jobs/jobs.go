// Package jobs owns the shared asynq client and worker server. Packages
// register their task handlers with Handle before Start runs the workers.
package jobs

import (
	"context"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tradebit/internal/config"
	"github.com/sudo-init-do/tradebit/internal/logger"
)

const (
	QueueTrades = "trades"
	QueueEmails = "emails"
)

var (
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
)

// Init builds the client, mux and server. It does not start the workers.
func Init() {
	opts := asynq.RedisClientOpt{Addr: config.App.RedisAddr}
	client = asynq.NewClient(opts)
	mux = asynq.NewServeMux()
	server = asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueTrades: 10,
			QueueEmails: 5,
		},
	})
}

// Handle registers a handler for a task type. Call before Start.
func Handle(pattern string, fn func(context.Context, *asynq.Task) error) {
	ensureClient()
	mux.HandleFunc(pattern, fn)
}

// Start runs the worker server in the background.
func Start() {
	ensureClient()
	go func() {
		if err := server.Run(mux); err != nil {
			logger.Log.Error("asynq server stopped", zap.Error(err))
		}
	}()
	logger.Log.Info("asynq workers started", zap.String("addr", config.App.RedisAddr))
}

// Enqueue submits a task to its queue.
func Enqueue(task *asynq.Task, opts ...asynq.Option) error {
	_, err := ensureClient().Enqueue(task, opts...)
	return err
}

// Close releases the client and stops the workers.
func Close() {
	if client != nil {
		_ = client.Close()
	}
	if server != nil {
		server.Shutdown()
	}
}

func ensureClient() *asynq.Client {
	if client == nil {
		Init()
	}
	return client
}
