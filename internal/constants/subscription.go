package constants

// Recurring record kinds. Subscriptions and payment plans share the same
// lifecycle; payment plans additionally terminate at `completed`.
const (
	RecurringKindSubscription = "subscription"
	RecurringKindPaymentPlan  = "payment_plan"
)

type SubscriptionStatus int

const (
	SubscriptionStatusUnknown SubscriptionStatus = iota
	SubscriptionStatusPendingPayment
	SubscriptionStatusActive
	SubscriptionStatusPaymentFailed
	SubscriptionStatusCancelling
	SubscriptionStatusCancelled
	SubscriptionStatusCompleted
)

func (s SubscriptionStatus) String() string {
	switch s {
	case SubscriptionStatusPendingPayment:
		return "pending_payment"
	case SubscriptionStatusActive:
		return "active"
	case SubscriptionStatusPaymentFailed:
		return "payment_failed"
	case SubscriptionStatusCancelling:
		return "cancelling"
	case SubscriptionStatusCancelled:
		return "cancelled"
	case SubscriptionStatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further lifecycle transitions are allowed.
func (s SubscriptionStatus) Terminal() bool {
	return s == SubscriptionStatusCancelled || s == SubscriptionStatusCompleted
}

var subscriptionStatusMap = map[string]SubscriptionStatus{
	"pending_payment": SubscriptionStatusPendingPayment,
	"active":          SubscriptionStatusActive,
	"payment_failed":  SubscriptionStatusPaymentFailed,
	"cancelling":      SubscriptionStatusCancelling,
	"cancelled":       SubscriptionStatusCancelled,
	"completed":       SubscriptionStatusCompleted,
	"unknown":         SubscriptionStatusUnknown,
}

func ParseSubscriptionStatus(s string) SubscriptionStatus {
	if status, ok := subscriptionStatusMap[s]; ok {
		return status
	}
	return SubscriptionStatusUnknown
}
