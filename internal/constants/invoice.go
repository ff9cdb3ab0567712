package constants

type InvoiceStatus int

const (
	InvoiceStatusUnknown InvoiceStatus = iota
	InvoiceStatusDraft
	InvoiceStatusPending
	InvoiceStatusPaid
)

func (s InvoiceStatus) String() string {
	switch s {
	case InvoiceStatusDraft:
		return "draft"
	case InvoiceStatusPending:
		return "pending"
	case InvoiceStatusPaid:
		return "paid"
	default:
		return "unknown"
	}
}

var invoiceStatusMap = map[string]InvoiceStatus{
	"draft":   InvoiceStatusDraft,
	"pending": InvoiceStatusPending,
	"paid":    InvoiceStatusPaid,
	"unknown": InvoiceStatusUnknown,
}

func ParseInvoiceStatus(s string) InvoiceStatus {
	if status, ok := invoiceStatusMap[s]; ok {
		return status
	}
	return InvoiceStatusUnknown
}
