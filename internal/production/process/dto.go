package process

// CreateRecordRequest opens a process record against a production order.
type CreateRecordRequest struct {
	ProductionOrderID int64          `json:"production_order_id" validate:"required,gt=0"`
	Params            map[string]any `json:"params,omitempty"`
	Notes             *string        `json:"notes,omitempty"`
}

// StartRequest moves the record to in_progress.
type StartRequest struct {
	OperatorID *int64         `json:"operator_id,omitempty" validate:"omitempty,gt=0"`
	Params     map[string]any `json:"params,omitempty"`
}

// CompleteRequest moves the record to completed with output figures.
type CompleteRequest struct {
	OutputQty     *float64           `json:"output_qty,omitempty" validate:"omitempty,gte=0"`
	WastageQty    *float64           `json:"wastage_qty,omitempty" validate:"omitempty,gte=0"`
	CostBreakdown map[string]float64 `json:"cost_breakdown,omitempty" validate:"omitempty,dive,gte=0"`
	Notes         *string            `json:"notes,omitempty"`
}

// QualityCheckRequest records an inspection verdict.
type QualityCheckRequest struct {
	Result  CheckResult `json:"result" validate:"required,oneof=pass fail"`
	Score   *float64    `json:"score,omitempty" validate:"omitempty,gte=0,lte=100"`
	Remarks *string     `json:"remarks,omitempty" validate:"omitempty,max=1000"`
}

// IssueRequest reports a problem on a record.
type IssueRequest struct {
	Severity    IssueSeverity `json:"severity" validate:"required,oneof=minor major critical"`
	Description string        `json:"description" validate:"required,max=1000"`
}
