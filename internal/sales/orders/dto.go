package orders

import "time"

// CreateOrderRequest opens a draft sales order.
type CreateOrderRequest struct {
	CustomerID   int64              `json:"customer_id" validate:"required,gt=0"`
	OrderDate    time.Time          `json:"order_date" validate:"required"`
	DeliveryDate *time.Time         `json:"delivery_date,omitempty"`
	Currency     string             `json:"currency" validate:"required,len=3"`
	Notes        *string            `json:"notes,omitempty"`
	Lines        []OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// OrderLineRequest is one line on create or draft replace.
type OrderLineRequest struct {
	ItemCode       string         `json:"item_code" validate:"required,max=100"`
	Description    string         `json:"description" validate:"max=500"`
	MaterialSource MaterialSource `json:"material_source" validate:"required,oneof=own_stock customer_material"`
	Qty            float64        `json:"qty" validate:"required,gt=0"`
	Unit           string         `json:"unit" validate:"required,max=20"`
	UnitPrice      float64        `json:"unit_price" validate:"gte=0"`
}

// UpdateDraftRequest replaces header fields and lines while still in draft.
type UpdateDraftRequest struct {
	CustomerID   *int64             `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	DeliveryDate *time.Time         `json:"delivery_date,omitempty"`
	Notes        *string            `json:"notes,omitempty"`
	Lines        []OrderLineRequest `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}

// TransitionRequest asks for a status change.
type TransitionRequest struct {
	Status Status  `json:"status" validate:"required"`
	Note   *string `json:"note,omitempty"`
}
