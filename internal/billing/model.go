package billing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusIssued        Status = "issued"
	StatusPartiallyPaid Status = "partially_paid"
	StatusPaid          Status = "paid"
	StatusVoid          Status = "void"
)

var (
	// ErrNotFound indicates the invoice is absent or owned by another tenant.
	ErrNotFound = errors.New("invoice not found")
	// ErrNotPayable indicates a payment against a draft, paid or void invoice.
	ErrNotPayable = errors.New("invoice is not open for payment")
	// ErrOverpayment indicates a payment above the outstanding balance.
	ErrOverpayment = errors.New("payment exceeds outstanding balance")
	// ErrInvalidAmount indicates a zero or negative payment.
	ErrInvalidAmount = errors.New("payment amount must be positive")
	// ErrOrderNotInvoiceable indicates the source order has no billable
	// lines or has not been dispatched yet.
	ErrOrderNotInvoiceable = errors.New("sales order not invoiceable")
)

// Invoice bills a customer for a sales order. All money fields are decimals;
// floating point never touches an amount.
type Invoice struct {
	ID           int64           `json:"id"`
	CompanyID    int64           `json:"company_id"`
	InvoiceNo    string          `json:"invoice_no"`
	SalesOrderID int64           `json:"sales_order_id"`
	CustomerID   int64           `json:"customer_id"`
	Status       Status          `json:"status"`
	IssueDate    *time.Time      `json:"issue_date,omitempty"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
	Currency     string          `json:"currency"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	Total        decimal.Decimal `json:"total"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	Notes        *string         `json:"notes,omitempty"`
	CreatedBy    int64           `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Lines        []InvoiceLine   `json:"lines,omitempty"`
	Payments     []Payment       `json:"payments,omitempty"`
}

// Outstanding is the unpaid remainder.
func (i Invoice) Outstanding() decimal.Decimal {
	return i.Total.Sub(i.AmountPaid)
}

// InvoiceLine is one billed item.
type InvoiceLine struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	ItemCode    string          `json:"item_code"`
	Description string          `json:"description"`
	Qty         decimal.Decimal `json:"qty"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Payment is one receipt against an invoice.
type Payment struct {
	ID         int64           `json:"id"`
	InvoiceID  int64           `json:"invoice_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Reference  *string         `json:"reference,omitempty"`
	PaidAt     time.Time       `json:"paid_at"`
	ReceivedBy int64           `json:"received_by"`
}

// ListInvoicesRequest filters the listing.
type ListInvoicesRequest struct {
	CompanyID  int64
	CustomerID *int64
	Status     *Status
	Search     string
	Limit      int
	Offset     int
}
