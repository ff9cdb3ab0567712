package constants

// NotificationKind defines the type for notification events in messaging.
// Using a dedicated type enhances type safety.
type NotificationKind string

const (
	NotificationPaymentReceived NotificationKind = "payment_received"
	NotificationPaymentFailed   NotificationKind = "payment_failed"
	NotificationPlanCompleted   NotificationKind = "plan_completed"
	NotificationInvoicePaid     NotificationKind = "invoice_paid"
)

// String returns the string representation of the NotificationKind.
func (k NotificationKind) String() string {
	return string(k)
}
