package app

import (
	"net/http"

	"studio_billing/internal/limiter"
	http_middleware "studio_billing/internal/middleware/http"
	"studio_billing/internal/service"
	"studio_billing/internal/webhook"
)

// NewHttpHandlerRegister creates the registrar function for all HTTP handlers.
// Admin endpoints sit behind auth and per-operator rate limiting; the webhook
// endpoint is open because its authentication is the signature check.
func NewHttpHandlerRegister(
	authMiddleware http_middleware.AuthMiddleware,
	limiterManager *limiter.Manager,
	adminService *service.BillingAdminService,
	webhookHandler *webhook.Handler,
) HttpHandlerRegister {
	return func(mux *http.ServeMux) {
		adminRateLimiter := http_middleware.CreateRateLimitMiddleware(limiterManager, "admin_billing")

		admin := func(h http.HandlerFunc) http.Handler {
			return authMiddleware(adminRateLimiter(h))
		}

		mux.Handle("POST /api/v1/admin/subscriptions", admin(adminService.CreateSubscription))
		mux.Handle("POST /api/v1/admin/subscriptions/cancel", admin(adminService.CancelSubscription))
		mux.Handle("POST /api/v1/admin/payment-plans", admin(adminService.CreatePaymentPlan))
		mux.Handle("POST /api/v1/admin/invoices", admin(adminService.CreateInvoice))
		mux.Handle("POST /api/v1/admin/invoices/send", admin(adminService.SendInvoice))
		mux.Handle("GET /api/v1/admin/invoices", admin(adminService.ListInvoices))
		mux.Handle("GET /api/v1/admin/payments/{id}", admin(adminService.GetPaymentHistory))

		mux.HandleFunc("POST /api/v1/webhooks/stripe", webhookHandler.HandleStripeEvent)
	}
}
