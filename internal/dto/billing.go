package dto

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"studio_billing/internal/models"
)

// --- CreateSubscription DTOs ---

type CreateSubscriptionRequest struct {
	clientID primitive.ObjectID
	planType string
	planTier string
	operator *models.Operator
}

func NewCreateSubscriptionRequest(clientID primitive.ObjectID, planType, planTier string, operator *models.Operator) *CreateSubscriptionRequest {
	return &CreateSubscriptionRequest{
		clientID: clientID,
		planType: planType,
		planTier: planTier,
		operator: operator,
	}
}

func (r *CreateSubscriptionRequest) GetClientID() primitive.ObjectID {
	return r.clientID
}

func (r *CreateSubscriptionRequest) GetPlanType() string {
	return r.planType
}

func (r *CreateSubscriptionRequest) GetPlanTier() string {
	return r.planTier
}

func (r *CreateSubscriptionRequest) GetOperator() *models.Operator {
	return r.operator
}

// SubscriptionCheckout is the result of creating a subscription: the local
// record id and the URL the client pays at.
type SubscriptionCheckout struct {
	SubscriptionID primitive.ObjectID
	CheckoutURL    string
}

// --- CreatePaymentPlan DTOs ---

type CreatePaymentPlanRequest struct {
	clientID         primitive.ObjectID
	projectName      string
	description      string
	totalAmount      primitive.Decimal128
	numberOfPayments int
	billingStartsAt  *time.Time
	operator         *models.Operator
}

func NewCreatePaymentPlanRequest(clientID primitive.ObjectID, projectName, description string, totalAmount primitive.Decimal128, numberOfPayments int, billingStartsAt *time.Time, operator *models.Operator) *CreatePaymentPlanRequest {
	return &CreatePaymentPlanRequest{
		clientID:         clientID,
		projectName:      projectName,
		description:      description,
		totalAmount:      totalAmount,
		numberOfPayments: numberOfPayments,
		billingStartsAt:  billingStartsAt,
		operator:         operator,
	}
}

func (r *CreatePaymentPlanRequest) GetClientID() primitive.ObjectID {
	return r.clientID
}

func (r *CreatePaymentPlanRequest) GetProjectName() string {
	return r.projectName
}

func (r *CreatePaymentPlanRequest) GetDescription() string {
	return r.description
}

func (r *CreatePaymentPlanRequest) GetTotalAmount() primitive.Decimal128 {
	return r.totalAmount
}

func (r *CreatePaymentPlanRequest) GetNumberOfPayments() int {
	return r.numberOfPayments
}

func (r *CreatePaymentPlanRequest) GetBillingStartsAt() *time.Time {
	return r.billingStartsAt
}

func (r *CreatePaymentPlanRequest) GetOperator() *models.Operator {
	return r.operator
}

// PlanCheckout is the result of creating a payment plan.
type PlanCheckout struct {
	PaymentPlanID primitive.ObjectID
	CheckoutURL   string
	MonthlyAmount primitive.Decimal128
}

// --- CancelSubscription DTOs ---

type CancelSubscriptionRequest struct {
	id                primitive.ObjectID
	cancelImmediately bool
	reason            string
	operator          *models.Operator
}

func NewCancelSubscriptionRequest(id primitive.ObjectID, cancelImmediately bool, reason string, operator *models.Operator) *CancelSubscriptionRequest {
	return &CancelSubscriptionRequest{
		id:                id,
		cancelImmediately: cancelImmediately,
		reason:            reason,
		operator:          operator,
	}
}

func (r *CancelSubscriptionRequest) GetID() primitive.ObjectID {
	return r.id
}

func (r *CancelSubscriptionRequest) GetCancelImmediately() bool {
	return r.cancelImmediately
}

func (r *CancelSubscriptionRequest) GetReason() string {
	return r.reason
}

func (r *CancelSubscriptionRequest) GetOperator() *models.Operator {
	return r.operator
}

// CancelResult reports the post-cancel state of the record.
type CancelResult struct {
	Status            string
	CancelAtPeriodEnd bool
}

// --- Invoice DTOs ---

type LineItemRequest struct {
	description string
	quantity    int64
	unitPrice   primitive.Decimal128
}

func NewLineItemRequest(description string, quantity int64, unitPrice primitive.Decimal128) *LineItemRequest {
	return &LineItemRequest{
		description: description,
		quantity:    quantity,
		unitPrice:   unitPrice,
	}
}

func (r *LineItemRequest) GetDescription() string {
	return r.description
}

func (r *LineItemRequest) GetQuantity() int64 {
	return r.quantity
}

func (r *LineItemRequest) GetUnitPrice() primitive.Decimal128 {
	return r.unitPrice
}

type CreateInvoiceRequest struct {
	clientID    primitive.ObjectID
	description string
	dueDate     *time.Time
	lineItems   []*LineItemRequest
	operator    *models.Operator
}

func NewCreateInvoiceRequest(clientID primitive.ObjectID, description string, dueDate *time.Time, lineItems []*LineItemRequest, operator *models.Operator) *CreateInvoiceRequest {
	return &CreateInvoiceRequest{
		clientID:    clientID,
		description: description,
		dueDate:     dueDate,
		lineItems:   lineItems,
		operator:    operator,
	}
}

func (r *CreateInvoiceRequest) GetClientID() primitive.ObjectID {
	return r.clientID
}

func (r *CreateInvoiceRequest) GetDescription() string {
	return r.description
}

func (r *CreateInvoiceRequest) GetDueDate() *time.Time {
	return r.dueDate
}

func (r *CreateInvoiceRequest) GetLineItems() []*LineItemRequest {
	return r.lineItems
}

func (r *CreateInvoiceRequest) GetOperator() *models.Operator {
	return r.operator
}

type SendInvoiceRequest struct {
	invoiceID primitive.ObjectID
	operator  *models.Operator
}

func NewSendInvoiceRequest(invoiceID primitive.ObjectID, operator *models.Operator) *SendInvoiceRequest {
	return &SendInvoiceRequest{
		invoiceID: invoiceID,
		operator:  operator,
	}
}

func (r *SendInvoiceRequest) GetInvoiceID() primitive.ObjectID {
	return r.invoiceID
}

func (r *SendInvoiceRequest) GetOperator() *models.Operator {
	return r.operator
}

// SentInvoice reports the assigned number and payment link after sending.
type SentInvoice struct {
	InvoiceNumber string
	PaymentLink   string
}
