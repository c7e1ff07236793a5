package procurement

import "time"

// CreateOrderRequest opens a draft purchase order.
type CreateOrderRequest struct {
	SupplierID   int64              `json:"supplier_id" validate:"required,gt=0"`
	OrderDate    time.Time          `json:"order_date" validate:"required"`
	ExpectedDate *time.Time         `json:"expected_date,omitempty"`
	Currency     string             `json:"currency" validate:"required,len=3"`
	Notes        *string            `json:"notes,omitempty"`
	Lines        []OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// OrderLineRequest is one line on create or draft replace.
type OrderLineRequest struct {
	ItemCode    string  `json:"item_code" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=500"`
	Qty         float64 `json:"qty" validate:"required,gt=0"`
	Unit        string  `json:"unit" validate:"required,max=20"`
	UnitCost    float64 `json:"unit_cost" validate:"gte=0"`
}

// UpdateDraftRequest replaces header fields and lines while still in draft.
type UpdateDraftRequest struct {
	SupplierID   *int64             `json:"supplier_id,omitempty" validate:"omitempty,gt=0"`
	ExpectedDate *time.Time         `json:"expected_date,omitempty"`
	Notes        *string            `json:"notes,omitempty"`
	Lines        []OrderLineRequest `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}

// TransitionRequest asks for a status change.
type TransitionRequest struct {
	Status Status  `json:"status" validate:"required"`
	Note   *string `json:"note,omitempty"`
}

// ReceiptRequest posts received quantities against PO lines. ReceiptNo doubles
// as the idempotency key so a re-posted goods receipt note is rejected.
type ReceiptRequest struct {
	ReceiptNo string               `json:"receipt_no" validate:"required,max=100"`
	Location  string               `json:"location" validate:"max=100"`
	Lines     []ReceiptLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ReceiptLineRequest is one received line.
type ReceiptLineRequest struct {
	LineID int64   `json:"line_id" validate:"required,gt=0"`
	Qty    float64 `json:"qty" validate:"required,gt=0"`
}
