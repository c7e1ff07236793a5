package production

import (
	"errors"
	"time"
)

// OrderStatus is the production order lifecycle state. It is derived from the
// stages underneath it, except for cancellation.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderOnHold     OrderStatus = "on_hold"
	OrderCancelled  OrderStatus = "cancelled"
)

// StageStatus is the per-stage lifecycle state.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
	StageOnHold     StageStatus = "on_hold"
)

// StageName identifies one of the fixed processing steps.
type StageName string

const (
	StageGreyInspection StageName = "grey_inspection"
	StageBatching       StageName = "batching"
	StagePretreatment   StageName = "pretreatment"
	StageDyeing         StageName = "dyeing"
	StagePrinting       StageName = "printing"
	StageWashing        StageName = "washing"
	StageFinishing      StageName = "finishing"
	StageInspection     StageName = "inspection"
	StageCutting        StageName = "cutting"
	StagePacking        StageName = "packing"
)

// StageSequence is the fixed processing route every production order follows,
// in execution order.
var StageSequence = []StageName{
	StageGreyInspection,
	StageBatching,
	StagePretreatment,
	StageDyeing,
	StagePrinting,
	StageWashing,
	StageFinishing,
	StageInspection,
	StageCutting,
	StagePacking,
}

var (
	// ErrNotFound indicates the order or stage is absent or owned by
	// another tenant.
	ErrNotFound = errors.New("production order not found")
	// ErrStageNotFound indicates the sequence number is out of range.
	ErrStageNotFound = errors.New("production stage not found")
	// ErrPredecessorIncomplete indicates a stage started before the
	// previous one completed.
	ErrPredecessorIncomplete = errors.New("previous stage not completed")
	// ErrOrderClosed indicates a stage change on a completed or cancelled
	// order.
	ErrOrderClosed = errors.New("production order is closed")
	// ErrHoldReasonRequired indicates a hold request without a reason.
	ErrHoldReasonRequired = errors.New("hold reason is required")
)

// ProductionOrder tracks one lot of fabric through the processing route.
type ProductionOrder struct {
	ID           int64             `json:"id"`
	CompanyID    int64             `json:"company_id"`
	ProdNo       string            `json:"prod_no"`
	SalesOrderID *int64            `json:"sales_order_id,omitempty"`
	ItemCode     string            `json:"item_code"`
	Qty          float64           `json:"qty"`
	Unit         string            `json:"unit"`
	Status       OrderStatus       `json:"status"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	Notes        *string           `json:"notes,omitempty"`
	CreatedBy    int64             `json:"created_by"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Stages       []ProductionStage `json:"stages,omitempty"`
}

// ProductionStage is one step of the route. Seq runs 1..len(StageSequence).
type ProductionStage struct {
	ID           int64       `json:"id"`
	OrderID      int64       `json:"order_id"`
	Seq          int         `json:"seq"`
	Name         StageName   `json:"name"`
	Status       StageStatus `json:"status"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	HoldReason   *string     `json:"hold_reason,omitempty"`
	OperatorID   *int64      `json:"operator_id,omitempty"`
	OutputQty    *float64    `json:"output_qty,omitempty"`
	DefectQty    *float64    `json:"defect_qty,omitempty"`
	QualityGrade *string     `json:"quality_grade,omitempty"`
	Notes        *string     `json:"notes,omitempty"`
}

// ListOrdersRequest filters the listing.
type ListOrdersRequest struct {
	CompanyID    int64
	SalesOrderID *int64
	Status       *OrderStatus
	Search       string
	Limit        int
	Offset       int
}
