package mongodb

const (
	CollectionClients      = "clients"
	CollectionInvoices     = "invoices"
	CollectionSubscription = "subscriptions"
	CollectionPaymentPlans = "payment_plans"
	CollectionPayments     = "payments"
	CollectionCounters     = "counters"
	CollectionOutbox       = "outbox"
	CollectionAuditLogs    = "audit_logs"
)
