package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest drafts an invoice from a sales order.
type CreateInvoiceRequest struct {
	SalesOrderID int64           `json:"sales_order_id" validate:"required,gt=0"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
}

// TransitionRequest asks for a status change (issue or void).
type TransitionRequest struct {
	Status Status `json:"status" validate:"required"`
}

// PaymentRequest records a receipt against an invoice.
type PaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Method    string          `json:"method" validate:"required,oneof=cash bank_transfer cheque card"`
	Reference *string         `json:"reference,omitempty" validate:"omitempty,max=100"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
}
