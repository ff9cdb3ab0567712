package main

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"studio_billing/cmd/notifier/handlers"
	"studio_billing/internal/mq/rabbitmq"
)

// NotifierApp holds the components of the notifier application.
type NotifierApp struct {
	consumer *rabbitmq.Consumer
	logger   *zap.Logger
}

// NewNotifierApp creates a new notifier application and registers all handlers.
func NewNotifierApp(consumer *rabbitmq.Consumer, logger *zap.Logger, handlers []handlers.MessageHandler) *NotifierApp {
	// Register all handlers passed by Wire
	for _, h := range handlers {
		logger.Info("Registering handler", zap.String("queue", h.QueueName()))
		consumer.RegisterHandler(h.QueueName(), h.Handle)
	}

	return &NotifierApp{
		consumer: consumer,
		logger:   logger,
	}
}

// Run starts the consumer and blocks until the context is cancelled or the
// consumer fails.
func (a *NotifierApp) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("Starting RabbitMQ consumer")
		return a.consumer.Start(gCtx)
	})

	return g.Wait()
}
