package procurement

import (
	"errors"
	"time"
)

// Status is the purchase order lifecycle state.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusPendingApproval   Status = "pending_approval"
	StatusApproved          Status = "approved"
	StatusOrdered           Status = "ordered"
	StatusPartiallyReceived Status = "partially_received"
	StatusReceived          Status = "received"
	StatusCancelled         Status = "cancelled"
)

var (
	// ErrNotFound indicates the PO is absent or owned by another tenant.
	ErrNotFound = errors.New("purchase order not found")
	// ErrNoLines indicates a PO submitted without line items.
	ErrNoLines = errors.New("purchase order requires at least one line")
	// ErrLineNotEditable indicates a line change on a non-draft PO.
	ErrLineNotEditable = errors.New("purchase order lines are editable only in draft")
	// ErrNotReceivable indicates a receipt against a PO not yet ordered.
	ErrNotReceivable = errors.New("purchase order is not open for receiving")
	// ErrOverReceipt indicates a receipt quantity above what is outstanding.
	ErrOverReceipt = errors.New("receipt exceeds outstanding quantity")
	// ErrEmptyReceipt indicates a receipt with no lines.
	ErrEmptyReceipt = errors.New("receipt requires at least one line")
)

// PurchaseOrder is an order placed on a supplier for raw material.
type PurchaseOrder struct {
	ID           int64               `json:"id"`
	CompanyID    int64               `json:"company_id"`
	PONo         string              `json:"po_no"`
	SupplierID   int64               `json:"supplier_id"`
	Status       Status              `json:"status"`
	OrderDate    time.Time           `json:"order_date"`
	ExpectedDate *time.Time          `json:"expected_date,omitempty"`
	Currency     string              `json:"currency"`
	TotalAmount  float64             `json:"total_amount"`
	Notes        *string             `json:"notes,omitempty"`
	CreatedBy    int64               `json:"created_by"`
	ApprovedBy   *int64              `json:"approved_by,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Lines        []PurchaseOrderLine `json:"lines,omitempty"`
}

// PurchaseOrderLine is one material item on the PO. ReceivedQty accumulates
// across receipts and never exceeds Qty.
type PurchaseOrderLine struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"order_id"`
	ItemCode    string  `json:"item_code"`
	Description string  `json:"description"`
	Qty         float64 `json:"qty"`
	Unit        string  `json:"unit"`
	UnitCost    float64 `json:"unit_cost"`
	ReceivedQty float64 `json:"received_qty"`
	LineTotal   float64 `json:"line_total"`
}

// Outstanding is the quantity still expected on the line.
func (l PurchaseOrderLine) Outstanding() float64 {
	return l.Qty - l.ReceivedQty
}

// ListOrdersRequest filters the listing.
type ListOrdersRequest struct {
	CompanyID  int64
	SupplierID *int64
	Status     *Status
	Search     string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
