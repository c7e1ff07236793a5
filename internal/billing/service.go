package billing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/texfab-erp/texfab-erp/internal/sales/orders"
	"github.com/texfab-erp/texfab-erp/internal/shared"
	"github.com/texfab-erp/texfab-erp/internal/workflow"
)

// SalesPort is the slice of the sales service invoicing needs.
type SalesPort interface {
	Get(ctx context.Context, companyID, id int64) (*orders.SalesOrder, error)
}

// AuditPort records billing events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service drafts invoices from sales orders and settles them.
type Service struct {
	repo   Repository
	sales  SalesPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService constructs the Service.
func NewService(repo Repository, sales SalesPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, sales: sales, audit: audit, logger: logger}
}

// CreateFromSalesOrder drafts an invoice covering every priced line of the
// order. Only dispatched or delivered orders are invoiceable.
// Customer-material lines with a zero price are processing charges and still
// billable; an order with no lines at all is rejected.
func (s *Service) CreateFromSalesOrder(ctx context.Context, companyID int64, req CreateInvoiceRequest, createdBy int64) (*Invoice, error) {
	order, err := s.sales.Get(ctx, companyID, req.SalesOrderID)
	if err != nil {
		return nil, fmt.Errorf("load sales order: %w", err)
	}
	if order.Status != orders.StatusDispatched && order.Status != orders.StatusDelivered {
		return nil, fmt.Errorf("%w: order is %s", ErrOrderNotInvoiceable, order.Status)
	}
	if len(order.Lines) == 0 {
		return nil, ErrOrderNotInvoiceable
	}
	if req.TaxRate.IsNegative() {
		return nil, fmt.Errorf("%w: negative tax rate", ErrInvalidAmount)
	}

	invoiceNo, err := s.repo.NextInvoiceNo(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("allocate invoice no: %w", err)
	}

	inv := Invoice{
		CompanyID:    companyID,
		InvoiceNo:    invoiceNo,
		SalesOrderID: order.ID,
		CustomerID:   order.CustomerID,
		Status:       StatusDraft,
		DueDate:      req.DueDate,
		Currency:     order.Currency,
		TaxRate:      req.TaxRate,
		AmountPaid:   decimal.Zero,
		Notes:        req.Notes,
		CreatedBy:    createdBy,
	}

	subtotal := decimal.Zero
	for _, l := range order.Lines {
		qty := decimal.NewFromFloat(l.Qty)
		unitPrice := decimal.NewFromFloat(l.UnitPrice)
		lineTotal := qty.Mul(unitPrice).Round(2)
		subtotal = subtotal.Add(lineTotal)
		inv.Lines = append(inv.Lines, InvoiceLine{
			ItemCode:    l.ItemCode,
			Description: l.Description,
			Qty:         qty,
			Unit:        l.Unit,
			UnitPrice:   unitPrice,
			LineTotal:   lineTotal,
		})
	}
	inv.Subtotal = subtotal
	inv.TaxAmount = subtotal.Mul(req.TaxRate).Round(2)
	inv.Total = subtotal.Add(inv.TaxAmount)

	id, err := s.repo.Create(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	inv.ID = id
	s.recordAudit(ctx, companyID, createdBy, "invoice.created", id, map[string]any{
		"invoice_no": invoiceNo, "total": inv.Total.String(),
	})
	return &inv, nil
}

// Get fetches one invoice with lines and payments, scoped to the company.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, companyID, id)
}

// List pages invoice headers.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	return s.repo.List(ctx, req)
}

// Transition issues or voids an invoice. Payment-driven statuses cannot be
// requested directly.
func (s *Service) Transition(ctx context.Context, companyID, id int64, target Status, actorID int64) (*Invoice, error) {
	if !requestable(target) {
		return nil, fmt.Errorf("%w: %s is payment-driven", workflow.ErrInvalidTransition, string(target))
	}
	inv, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := statusMachine.Check(inv.Status, target); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, companyID, id, inv.Status, target); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	s.recordAudit(ctx, companyID, actorID, "invoice.status_changed", id, map[string]any{
		"from": string(inv.Status), "to": string(target),
	})
	inv.Status = target
	if target == StatusIssued && inv.IssueDate == nil {
		now := time.Now()
		inv.IssueDate = &now
	}
	return inv, nil
}

// RecordPayment settles part or all of the outstanding balance. Overpayment is
// rejected outright rather than truncated.
func (s *Service) RecordPayment(ctx context.Context, companyID, id int64, req PaymentRequest, receivedBy int64) (*Invoice, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	inv, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !payable(inv.Status) {
		return nil, fmt.Errorf("%w: status %s", ErrNotPayable, string(inv.Status))
	}
	outstanding := inv.Outstanding()
	if req.Amount.GreaterThan(outstanding) {
		return nil, fmt.Errorf("%w: outstanding %s, got %s",
			ErrOverpayment, outstanding.String(), req.Amount.String())
	}

	newStatus := StatusPartiallyPaid
	if req.Amount.Equal(outstanding) {
		newStatus = StatusPaid
	}
	paidAt := time.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	payment := Payment{
		InvoiceID:  inv.ID,
		Amount:     req.Amount,
		Method:     req.Method,
		Reference:  req.Reference,
		PaidAt:     paidAt,
		ReceivedBy: receivedBy,
	}
	paymentID, err := s.repo.RecordPayment(ctx, companyID, payment, newStatus, inv.Status)
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	payment.ID = paymentID

	inv.AmountPaid = inv.AmountPaid.Add(req.Amount)
	inv.Status = newStatus
	inv.Payments = append(inv.Payments, payment)
	s.recordAudit(ctx, companyID, receivedBy, "invoice.payment_recorded", id, map[string]any{
		"amount": req.Amount.String(), "status": string(newStatus),
	})
	return inv, nil
}

func (s *Service) recordAudit(ctx context.Context, companyID, actorID int64, action string, invoiceID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		CompanyID: companyID,
		ActorID:   actorID,
		Action:    action,
		Entity:    "invoice",
		EntityID:  strconv.FormatInt(invoiceID, 10),
		Meta:      meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
