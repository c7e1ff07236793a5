package orders

import (
	"errors"
	"time"
)

// Status is the sales order lifecycle state.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusConfirmed        Status = "confirmed"
	StatusInProduction     Status = "in_production"
	StatusQualityCheck     Status = "quality_check"
	StatusReadyForDispatch Status = "ready_for_dispatch"
	StatusDispatched       Status = "dispatched"
	StatusDelivered        Status = "delivered"
	StatusCancelled        Status = "cancelled"
)

// MaterialSource says whose fabric a line consumes. Customer-supplied material
// never touches the company's stock balances.
type MaterialSource string

const (
	SourceOwnStock         MaterialSource = "own_stock"
	SourceCustomerMaterial MaterialSource = "customer_material"
)

var (
	// ErrNotFound indicates the order is absent or owned by another tenant.
	ErrNotFound = errors.New("sales order not found")
	// ErrNoLines indicates an order submitted without line items.
	ErrNoLines = errors.New("sales order requires at least one line")
	// ErrLineNotEditable indicates a line change on a non-draft order.
	ErrLineNotEditable = errors.New("sales order lines are editable only in draft")
)

// SalesOrder is a customer order for processed fabric.
type SalesOrder struct {
	ID           int64            `json:"id"`
	CompanyID    int64            `json:"company_id"`
	OrderNo      string           `json:"order_no"`
	CustomerID   int64            `json:"customer_id"`
	Status       Status           `json:"status"`
	OrderDate    time.Time        `json:"order_date"`
	DeliveryDate *time.Time       `json:"delivery_date,omitempty"`
	Currency     string           `json:"currency"`
	TotalAmount  float64          `json:"total_amount"`
	Notes        *string          `json:"notes,omitempty"`
	CreatedBy    int64            `json:"created_by"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Lines        []SalesOrderLine `json:"lines,omitempty"`
}

// SalesOrderLine is one fabric item on the order.
type SalesOrderLine struct {
	ID             int64          `json:"id"`
	OrderID        int64          `json:"order_id"`
	ItemCode       string         `json:"item_code"`
	Description    string         `json:"description"`
	MaterialSource MaterialSource `json:"material_source"`
	Qty            float64        `json:"qty"`
	Unit           string         `json:"unit"`
	UnitPrice      float64        `json:"unit_price"`
	LineTotal      float64        `json:"line_total"`
}

// ListOrdersRequest filters the listing.
type ListOrdersRequest struct {
	CompanyID  int64
	CustomerID *int64
	Status     *Status
	Search     string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
