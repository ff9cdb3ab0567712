//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"studio_billing/cmd/notifier/handlers"
	"studio_billing/internal/conf"
	"studio_billing/internal/logger"
	"studio_billing/internal/mq/rabbitmq"
	"studio_billing/internal/provider"
)

// provideHandlers collects all individual MessageHandlers into a slice.
func provideHandlers(notificationHandler *handlers.NotificationHandler) []handlers.MessageHandler {
	return []handlers.MessageHandler{
		notificationHandler,
	}
}

// provideConsumer creates the RabbitMQ consumer together with its cleanup.
func provideConsumer(cfg *conf.RabbitMQConfig, logger *zap.Logger) (*rabbitmq.Consumer, func(), error) {
	consumer, err := rabbitmq.NewConsumer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return consumer, func() { consumer.Close() }, nil
}

// InitializeNotifierApp creates the notifier application and its dependencies.
func InitializeNotifierApp(appConfig *conf.AppConfig) (*NotifierApp, func(), error) {
	wire.Build(
		// Config Providers
		wire.FieldsOf(new(*conf.AppConfig), "LogConfig", "RabbitMQConfig", "MailerConfig"),

		// Common Components
		logger.NewLogger,
		provider.ProvideMailerClient,

		// MQ Consumer
		provideConsumer,

		// Handlers
		handlers.NewNotificationHandler,
		provideHandlers,

		// Final App
		NewNotifierApp,
	)
	return nil, nil, nil
}
