package logic

import "errors"

var (
	ErrClientNotFound          = errors.New("client not found")
	ErrRecordNotFound          = errors.New("billing record not found")
	ErrUnknownPlanPrice        = errors.New("no price configured for plan")
	ErrInvoiceNotDraft         = errors.New("only draft invoices can be sent")
	ErrInvalidLineItems        = errors.New("invoice needs at least one line item with a positive amount")
	ErrInvoiceAlreadyPaid      = errors.New("invoice has already been paid")
	ErrInvalidPaymentPlanTerms = errors.New("invalid payment plan terms")
	ErrGateway                 = errors.New("payment gateway request failed")
	ErrPermanent               = errors.New("a permanent error occurred that should not be retried")
)
