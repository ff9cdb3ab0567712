package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"studio_billing/internal/dto"
	"studio_billing/internal/logic"
	"studio_billing/pkg/pagination"
)

// BillingAdminService exposes the operator-facing HTTP endpoints: checkout
// creation, cancellation, and the invoice lifecycle.
type BillingAdminService struct {
	subscriptionLogic *logic.SubscriptionLogic
	planLogic         *logic.PaymentPlanLogic
	invoiceLogic      *logic.InvoiceLogic
	logger            *zap.Logger
}

// NewBillingAdminService creates a new BillingAdminService.
func NewBillingAdminService(
	subscriptionLogic *logic.SubscriptionLogic,
	planLogic *logic.PaymentPlanLogic,
	invoiceLogic *logic.InvoiceLogic,
	logger *zap.Logger,
) *BillingAdminService {
	return &BillingAdminService{
		subscriptionLogic: subscriptionLogic,
		planLogic:         planLogic,
		invoiceLogic:      invoiceLogic,
		logger:            logger.Named("BillingAdminService"),
	}
}

// writeLogicError maps logic sentinel errors onto HTTP status codes.
func (s *BillingAdminService) writeLogicError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, logic.ErrClientNotFound), errors.Is(err, logic.ErrRecordNotFound):
		WriteHttpError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, logic.ErrUnknownPlanPrice),
		errors.Is(err, logic.ErrInvalidPaymentPlanTerms),
		errors.Is(err, logic.ErrInvalidLineItems),
		errors.Is(err, logic.ErrInvoiceNotDraft):
		WriteHttpError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, logic.ErrInvoiceAlreadyPaid):
		WriteHttpError(w, http.StatusConflict, err.Error())
	case errors.Is(err, logic.ErrGateway):
		s.logger.Error(op+": gateway call failed", zap.Error(err))
		WriteHttpError(w, http.StatusBadGateway, "payment gateway request failed")
	default:
		s.logger.Error(op+": request failed", zap.Error(err))
		WriteHttpError(w, http.StatusInternalServerError, "internal server error")
	}
}

type createSubscriptionRequest struct {
	ClientID string `json:"client_id"`
	PlanType string `json:"plan_type"`
	PlanTier string `json:"plan_tier"`
}

// CreateSubscription handles POST /api/v1/admin/subscriptions.
func (s *BillingAdminService) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var in createSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteHttpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	clientID, err := primitive.ObjectIDFromHex(in.ClientID)
	if err != nil {
		s.logger.Warn("CreateSubscription: invalid client_id format", zap.String("client_id", in.ClientID))
		WriteHttpError(w, http.StatusBadRequest, "invalid client_id")
		return
	}
	if in.PlanType == "" || in.PlanTier == "" {
		WriteHttpError(w, http.StatusBadRequest, "plan_type and plan_tier are required")
		return
	}

	d := dto.NewCreateSubscriptionRequest(clientID, in.PlanType, in.PlanTier, OperatorFromContext(r.Context()))
	checkout, err := s.subscriptionLogic.CreateSubscription(r.Context(), d)
	if err != nil {
		s.writeLogicError(w, "CreateSubscription", err)
		return
	}

	WriteHttpSuccess(w, map[string]interface{}{
		"subscription_id": checkout.SubscriptionID.Hex(),
		"checkout_url":    checkout.CheckoutURL,
	})
}

type createPaymentPlanRequest struct {
	ClientID         string     `json:"client_id"`
	ProjectName      string     `json:"project_name"`
	Description      string     `json:"description"`
	TotalAmount      string     `json:"total_amount"`
	NumberOfPayments int        `json:"number_of_payments"`
	BillingStartsAt  *time.Time `json:"billing_starts_at,omitempty"`
}

// CreatePaymentPlan handles POST /api/v1/admin/payment-plans.
func (s *BillingAdminService) CreatePaymentPlan(w http.ResponseWriter, r *http.Request) {
	var in createPaymentPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteHttpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	clientID, err := primitive.ObjectIDFromHex(in.ClientID)
	if err != nil {
		s.logger.Warn("CreatePaymentPlan: invalid client_id format", zap.String("client_id", in.ClientID))
		WriteHttpError(w, http.StatusBadRequest, "invalid client_id")
		return
	}
	if in.ProjectName == "" {
		WriteHttpError(w, http.StatusBadRequest, "project_name is required")
		return
	}
	totalAmount, err := primitive.ParseDecimal128(in.TotalAmount)
	if err != nil {
		WriteHttpError(w, http.StatusBadRequest, "invalid total_amount")
		return
	}

	d := dto.NewCreatePaymentPlanRequest(clientID, in.ProjectName, in.Description, totalAmount, in.NumberOfPayments, in.BillingStartsAt, OperatorFromContext(r.Context()))
	checkout, err := s.planLogic.CreatePaymentPlan(r.Context(), d)
	if err != nil {
		s.writeLogicError(w, "CreatePaymentPlan", err)
		return
	}

	WriteHttpSuccess(w, map[string]interface{}{
		"payment_plan_id": checkout.PaymentPlanID.Hex(),
		"checkout_url":    checkout.CheckoutURL,
		"monthly_amount":  checkout.MonthlyAmount.String(),
	})
}

type cancelSubscriptionRequest struct {
	ID                string `json:"id"`
	CancelImmediately bool   `json:"cancel_immediately"`
	Reason            string `json:"reason"`
}

// CancelSubscription handles POST /api/v1/admin/subscriptions/cancel. The id
// may belong to either a subscription or a payment plan.
func (s *BillingAdminService) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	var in cancelSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteHttpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := primitive.ObjectIDFromHex(in.ID)
	if err != nil {
		s.logger.Warn("CancelSubscription: invalid id format", zap.String("id", in.ID))
		WriteHttpError(w, http.StatusBadRequest, "invalid id")
		return
	}

	d := dto.NewCancelSubscriptionRequest(id, in.CancelImmediately, in.Reason, OperatorFromContext(r.Context()))
	result, err := s.subscriptionLogic.CancelSubscription(r.Context(), d)
	if err != nil {
		s.writeLogicError(w, "CancelSubscription", err)
		return
	}

	WriteHttpSuccess(w, map[string]interface{}{
		"status":               result.Status,
		"cancel_at_period_end": result.CancelAtPeriodEnd,
	})
}

type lineItemRequest struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

type createInvoiceRequest struct {
	ClientID    string            `json:"client_id"`
	Description string            `json:"description"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
	LineItems   []lineItemRequest `json:"line_items"`
}

// CreateInvoice handles POST /api/v1/admin/invoices.
func (s *BillingAdminService) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var in createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteHttpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	clientID, err := primitive.ObjectIDFromHex(in.ClientID)
	if err != nil {
		s.logger.Warn("CreateInvoice: invalid client_id format", zap.String("client_id", in.ClientID))
		WriteHttpError(w, http.StatusBadRequest, "invalid client_id")
		return
	}

	items := make([]*dto.LineItemRequest, 0, len(in.LineItems))
	for _, item := range in.LineItems {
		unitPrice, err := primitive.ParseDecimal128(item.UnitPrice)
		if err != nil {
			WriteHttpError(w, http.StatusBadRequest, "invalid unit_price")
			return
		}
		items = append(items, dto.NewLineItemRequest(item.Description, item.Quantity, unitPrice))
	}

	d := dto.NewCreateInvoiceRequest(clientID, in.Description, in.DueDate, items, OperatorFromContext(r.Context()))
	invoice, err := s.invoiceLogic.CreateInvoice(r.Context(), d)
	if err != nil {
		s.writeLogicError(w, "CreateInvoice", err)
		return
	}

	WriteHttpSuccess(w, map[string]interface{}{
		"invoice_id": invoice.ID.Hex(),
		"status":     invoice.Status,
		"total":      invoice.Total.String(),
	})
}

type sendInvoiceRequest struct {
	InvoiceID string `json:"invoice_id"`
}

// SendInvoice handles POST /api/v1/admin/invoices/send.
func (s *BillingAdminService) SendInvoice(w http.ResponseWriter, r *http.Request) {
	var in sendInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteHttpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	invoiceID, err := primitive.ObjectIDFromHex(in.InvoiceID)
	if err != nil {
		s.logger.Warn("SendInvoice: invalid invoice_id format", zap.String("invoice_id", in.InvoiceID))
		WriteHttpError(w, http.StatusBadRequest, "invalid invoice_id")
		return
	}

	d := dto.NewSendInvoiceRequest(invoiceID, OperatorFromContext(r.Context()))
	sent, err := s.invoiceLogic.SendInvoice(r.Context(), d)
	if err != nil {
		s.writeLogicError(w, "SendInvoice", err)
		return
	}

	WriteHttpSuccess(w, map[string]interface{}{
		"invoice_number": sent.InvoiceNumber,
		"payment_link":   sent.PaymentLink,
	})
}

// ListInvoices handles GET /api/v1/admin/invoices.
func (s *BillingAdminService) ListInvoices(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	result, err := s.invoiceLogic.ListInvoices(r.Context(), pagination.NewPageRequest(page, pageSize))
	if err != nil {
		s.writeLogicError(w, "ListInvoices", err)
		return
	}
	WriteHttpSuccess(w, result)
}

// GetPaymentHistory handles GET /api/v1/admin/payments/{id}: the receipt
// trail for a subscription, payment plan or invoice.
func (s *BillingAdminService) GetPaymentHistory(w http.ResponseWriter, r *http.Request) {
	parentID, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		WriteHttpError(w, http.StatusBadRequest, "invalid id")
		return
	}

	records, err := s.planLogic.PaymentHistory(r.Context(), parentID)
	if err != nil {
		s.writeLogicError(w, "GetPaymentHistory", err)
		return
	}
	WriteHttpSuccess(w, records)
}
