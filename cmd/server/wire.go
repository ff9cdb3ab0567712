//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"studio_billing/internal/app"
	"studio_billing/internal/conf"
	"studio_billing/internal/dao/mongodb"
	"studio_billing/internal/dao/repository"
	"studio_billing/internal/gateway"
	"studio_billing/internal/limiter"
	"studio_billing/internal/logger"
	"studio_billing/internal/logic"
	"studio_billing/internal/middleware/http"
	"studio_billing/internal/provider"
	"studio_billing/internal/service"
	"studio_billing/internal/webhook"
	"studio_billing/internal/worker"
	"studio_billing/pkg/snowflake"
)

// baseProviders holds the shared infrastructure: config fields, logging,
// storage, gateway, and the logic layer.
var baseProviders = wire.NewSet(
	wire.FieldsOf(new(*conf.AppConfig),
		"LogConfig", "MongodbConfig", "StripeConfig", "WorkerConfig",
		"RabbitMQConfig", "JwtConfig", "RedisConfig", "RateLimiterConfig"),
	provider.ProvideAppMode,
	logger.NewLogger,
	mongodb.NewMongoDB,
	provider.ProvideDatabase,
	provider.ProvideMachineID,
	provider.ProvideNotificationTopic,
	provider.ProvideTransactionManager,
	provider.ProvideJwtGenerator,
	provider.ProvideRedisNamespace,
	provider.ProvideRedisClient,
	provider.ProvidePublisher,
	limiter.NewManager,
	snowflake.NewGenerator,
	gateway.NewStripeGateway,
	wire.Bind(new(gateway.Gateway), new(*gateway.StripeGateway)),
	mongodb.NewClientsDAO,
	wire.Bind(new(repository.ClientsRepository), new(*mongodb.ClientsDAO)),
	mongodb.NewInvoicesDAO,
	wire.Bind(new(repository.InvoicesRepository), new(*mongodb.InvoicesDAO)),
	mongodb.NewSubscriptionsDAO,
	wire.Bind(new(repository.SubscriptionsRepository), new(*mongodb.SubscriptionsDAO)),
	mongodb.NewPaymentPlansDAO,
	wire.Bind(new(repository.PaymentPlansRepository), new(*mongodb.PaymentPlansDAO)),
	mongodb.NewPaymentsDAO,
	wire.Bind(new(repository.PaymentsRepository), new(*mongodb.PaymentsDAO)),
	mongodb.NewAuditLogDAO,
	wire.Bind(new(repository.AuditLogRepository), new(*mongodb.AuditLogDAO)),
	mongodb.NewOutboxDAO,
	wire.Bind(new(repository.OutboxRepository), new(*mongodb.OutboxDAO)),
	logic.NewNotificationPublisher,
	logic.NewInvoiceLogic,
	logic.NewSubscriptionLogic,
	logic.NewPaymentPlanLogic,
	logic.NewReconcileLogic,
)

// provideServerWorkers collects the background workers the server runs.
func provideServerWorkers(outbox *worker.OutboxProcessor, expirer *worker.CheckoutExpirer) []worker.Worker {
	return []worker.Worker{outbox, expirer}
}

func InitializeServerApp(appConfig *conf.AppConfig) (*app.App, func(), error) {
	wire.Build(
		baseProviders,
		wire.FieldsOf(new(*conf.AppConfig), "Port"),
		service.NewBillingAdminService,
		webhook.NewHandler,
		http.NewAuthMiddleware,
		app.NewHttpHandlerRegister,
		worker.NewOutboxProcessor,
		worker.NewCheckoutExpirer,
		provideServerWorkers,
		app.NewApp,
	)
	return nil, nil, nil
}
