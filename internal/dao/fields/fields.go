package fields

const (
	FieldObjectId  = "_id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
	FieldStatus    = "status"

	FieldInvoiceNumber   = "invoice_number"
	FieldInvoiceDueDate  = "due_date"
	FieldPaymentLinkID   = "payment_link_id"
	FieldPaymentLink     = "payment_link"
	FieldPaymentIntentID = "payment_intent_id"
	FieldPaidAt          = "paid_at"
	FieldSentAt          = "sent_at"

	FieldCheckoutSessionID    = "checkout_session_id"
	FieldStripeSubscriptionID = "stripe_subscription_id"
	FieldGatewayStatus        = "gateway_status"
	FieldCurrentPeriodEnd     = "current_period_end"
	FieldCancelAtPeriodEnd    = "cancel_at_period_end"
	FieldLastPaymentAt        = "last_payment_at"
	FieldLastPaymentAmount    = "last_payment_amount"
	FieldFailureReason        = "failure_reason"
	FieldFailedAt             = "failed_at"
	FieldCancelledAt          = "cancelled_at"
	FieldCompletedAt          = "completed_at"

	FieldPaymentsCompleted   = "payments_completed"
	FieldNumberOfPayments    = "number_of_payments"
	FieldProcessedInvoiceIDs = "processed_invoice_ids"

	FieldCounterSeq = "seq"
)
