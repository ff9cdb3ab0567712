package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"studio_billing/internal/constants"
	"studio_billing/internal/dao/mongodb"
	"studio_billing/internal/dao/repository"
	"studio_billing/internal/db"
	"studio_billing/internal/dto"
	"studio_billing/internal/gateway"
	"studio_billing/internal/helper"
	"studio_billing/internal/models"
	"studio_billing/pkg/pagination"
	"studio_billing/pkg/snowflake"
)

// InvoiceLogic handles the one-time invoice lifecycle: draft, send, paid.
type InvoiceLogic struct {
	clientRepo   repository.ClientsRepository
	invoiceRepo  repository.InvoicesRepository
	paymentsRepo repository.PaymentsRepository
	auditRepo    repository.AuditLogRepository
	gateway      gateway.Gateway
	txManager    db.TransactionManager
	idGen        *snowflake.Generator
	notifier     *NotificationPublisher
	logger       *zap.Logger
}

// NewInvoiceLogic creates a new InvoiceLogic.
func NewInvoiceLogic(
	clientRepo repository.ClientsRepository,
	invoiceRepo repository.InvoicesRepository,
	paymentsRepo repository.PaymentsRepository,
	auditRepo repository.AuditLogRepository,
	gw gateway.Gateway,
	txManager db.TransactionManager,
	idGen *snowflake.Generator,
	notifier *NotificationPublisher,
	logger *zap.Logger,
) *InvoiceLogic {
	return &InvoiceLogic{
		clientRepo:   clientRepo,
		invoiceRepo:  invoiceRepo,
		paymentsRepo: paymentsRepo,
		auditRepo:    auditRepo,
		gateway:      gw,
		txManager:    txManager,
		idGen:        idGen,
		notifier:     notifier,
		logger:       logger.Named("InvoiceLogic"),
	}
}

// CreateInvoice creates a draft invoice for a client. Amounts are derived
// from the line items; the invoice number is not assigned until SendInvoice.
func (l *InvoiceLogic) CreateInvoice(ctx context.Context, d *dto.CreateInvoiceRequest) (*models.Invoice, error) {
	client, err := l.clientRepo.GetClientByID(ctx, d.GetClientID())
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	items := d.GetLineItems()
	if len(items) == 0 {
		return nil, ErrInvalidLineItems
	}

	lineItems := make([]models.LineItem, 0, len(items))
	var subtotalCents int64
	for _, item := range items {
		unitCents, err := helper.DecimalToCents(item.GetUnitPrice())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLineItems, err)
		}
		if item.GetQuantity() <= 0 || unitCents <= 0 {
			return nil, ErrInvalidLineItems
		}
		amountCents := unitCents * item.GetQuantity()
		amount, err := helper.CentsToDecimal(amountCents)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLineItems, err)
		}
		lineItems = append(lineItems, models.LineItem{
			Description: item.GetDescription(),
			Quantity:    item.GetQuantity(),
			UnitPrice:   item.GetUnitPrice(),
			Amount:      amount,
		})
		subtotalCents += amountCents
	}
	subtotal, err := helper.CentsToDecimal(subtotalCents)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLineItems, err)
	}

	now := time.Now()
	invoice := &models.Invoice{
		Client: &models.ClientInfo{
			ID:    client.ID,
			Name:  client.Name,
			Email: client.Email,
		},
		LineItems:   lineItems,
		Subtotal:    subtotal,
		Total:       subtotal,
		Status:      constants.InvoiceStatusDraft.String(),
		Description: d.GetDescription(),
		DueDate:     d.GetDueDate(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := l.invoiceRepo.CreateInvoice(ctx, invoice)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	invoice.ID = id

	if err := l.auditRepo.Create(ctx, NewAuditLog(d.GetOperator(), "invoice.create", "invoice", id, nil, invoice)); err != nil {
		l.logger.Warn("failed to write audit log for invoice creation", zap.Error(err), zap.Stringer("invoiceID", id))
	}

	l.logger.Info("invoice created", zap.Stringer("invoiceID", id), zap.Stringer("clientID", client.ID))
	return invoice, nil
}

// SendInvoice assigns the next invoice number for the current year, creates a
// hosted payment link at the gateway, and moves the invoice from draft to
// pending. The draft guard on the update makes concurrent sends lose cleanly.
func (l *InvoiceLogic) SendInvoice(ctx context.Context, d *dto.SendInvoiceRequest) (*dto.SentInvoice, error) {
	invoice, err := l.invoiceRepo.GetInvoiceByID(ctx, d.GetInvoiceID())
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	switch constants.ParseInvoiceStatus(invoice.Status) {
	case constants.InvoiceStatusDraft:
		// The only status a send is valid from.
	case constants.InvoiceStatusPaid:
		return nil, ErrInvoiceAlreadyPaid
	default:
		return nil, ErrInvoiceNotDraft
	}

	number, err := l.invoiceRepo.NextInvoiceNumber(ctx, time.Now().Year())
	if err != nil {
		return nil, fmt.Errorf("failed to reserve invoice number: %w", err)
	}

	totalCents, err := helper.DecimalToCents(invoice.Total)
	if err != nil {
		return nil, fmt.Errorf("invoice total is not chargeable: %w", err)
	}

	link, err := l.gateway.CreateInvoicePaymentLink(ctx, invoice.ID.Hex(), invoice.Description, totalCents)
	if err != nil {
		return nil, fmt.Errorf("%w: create payment link: %v", ErrGateway, err)
	}

	now := time.Now()
	err = l.invoiceRepo.UpdateInvoice(ctx, invoice.ID,
		repository.WithStatus(constants.InvoiceStatusPending.String()),
		repository.WithStatusGuard(constants.InvoiceStatusDraft.String()),
		repository.WithInvoiceNumber(number),
		repository.WithPaymentLink(link.ID, link.URL),
		repository.WithSentAt(now),
	)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			// A concurrent send won the draft guard.
			return nil, ErrInvoiceNotDraft
		}
		return nil, fmt.Errorf("failed to mark invoice sent: %w", err)
	}

	if err := l.auditRepo.Create(ctx, NewAuditLog(d.GetOperator(), "invoice.send", "invoice", invoice.ID,
		map[string]interface{}{"status": invoice.Status},
		map[string]interface{}{"status": constants.InvoiceStatusPending.String(), "invoice_number": number},
	)); err != nil {
		l.logger.Warn("failed to write audit log for invoice send", zap.Error(err), zap.Stringer("invoiceID", invoice.ID))
	}

	l.logger.Info("invoice sent",
		zap.Stringer("invoiceID", invoice.ID),
		zap.String("invoiceNumber", number))
	return &dto.SentInvoice{
		InvoiceNumber: number,
		PaymentLink:   link.URL,
	}, nil
}

// GetInvoice fetches a single invoice.
func (l *InvoiceLogic) GetInvoice(ctx context.Context, id primitive.ObjectID) (*models.Invoice, error) {
	invoice, err := l.invoiceRepo.GetInvoiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

// ListInvoices returns a page of invoices, newest first.
func (l *InvoiceLogic) ListInvoices(ctx context.Context, page *pagination.PageRequest) (*pagination.PageResult, error) {
	invoices, total, err := l.invoiceRepo.ListInvoices(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return pagination.NewPageResult(invoices, total, page), nil
}

// MarkPaidFromGateway reconciles a completed gateway checkout against a local
// invoice. The paid transition, the payment record, and the notification
// outbox message commit together; a delivery for an already-paid invoice is a
// logged no-op, and an id that matches nothing is dropped after a warning.
func (l *InvoiceLogic) MarkPaidFromGateway(ctx context.Context, invoiceID, paymentIntentID string, paidAt time.Time) error {
	oid, err := primitive.ObjectIDFromHex(invoiceID)
	if err != nil {
		l.logger.Warn("gateway metadata carries a malformed invoice id", zap.String("invoiceID", invoiceID))
		return nil
	}

	_, err = l.txManager.WithTransaction(ctx, func(sessCtx context.Context) (interface{}, error) {
		invoice, applied, err := l.invoiceRepo.MarkInvoicePaid(sessCtx, oid, paymentIntentID, paidAt)
		if err != nil {
			if errors.Is(err, mongodb.ErrNotFound) {
				l.logger.Warn("paid checkout matches no local invoice", zap.String("invoiceID", invoiceID))
				return nil, nil
			}
			return nil, fmt.Errorf("failed to mark invoice paid: %w", err)
		}
		if !applied {
			l.logger.Info("invoice already paid, ignoring duplicate delivery", zap.Stringer("invoiceID", oid))
			return nil, nil
		}

		receipt, err := newReceiptNumber(l.idGen)
		if err != nil {
			return nil, err
		}
		record := &models.PaymentRecord{
			ReceiptNumber: receipt,
			Type:          "invoice",
			ParentID:      invoice.ID,
			Client:        invoice.Client,
			Amount:        invoice.Total,
			PaidAt:        paidAt,
			CreatedAt:     time.Now(),
		}
		if _, err := l.paymentsRepo.CreatePaymentRecord(sessCtx, record); err != nil {
			return nil, fmt.Errorf("failed to create payment record: %w", err)
		}

		event := &NotificationEvent{
			Kind:       constants.NotificationInvoicePaid.String(),
			EntityType: "invoice",
			EntityID:   invoice.ID.Hex(),
			Amount:     invoice.Total.String(),
			Reference:  invoice.InvoiceNumber,
			OccurredAt: paidAt.Format(time.RFC3339),
		}
		if invoice.Client != nil {
			event.RecipientEmail = invoice.Client.Email
			event.RecipientName = invoice.Client.Name
		}
		if err := l.notifier.Publish(sessCtx, event); err != nil {
			return nil, err
		}

		l.logger.Info("invoice paid",
			zap.Stringer("invoiceID", invoice.ID),
			zap.String("invoiceNumber", invoice.InvoiceNumber),
			zap.String("receiptNumber", receipt))
		return nil, nil
	})
	return err
}
