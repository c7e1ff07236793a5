package production

// CreateOrderRequest opens a production order. The full stage route is
// created up front, all stages pending.
type CreateOrderRequest struct {
	SalesOrderID *int64  `json:"sales_order_id,omitempty" validate:"omitempty,gt=0"`
	ItemCode     string  `json:"item_code" validate:"required,max=100"`
	Qty          float64 `json:"qty" validate:"required,gt=0"`
	Unit         string  `json:"unit" validate:"required,max=20"`
	Notes        *string `json:"notes,omitempty"`
}

// StageActionRequest carries the optional fields of a stage action. The
// output fields only apply when completing a stage.
type StageActionRequest struct {
	OperatorID   *int64   `json:"operator_id,omitempty" validate:"omitempty,gt=0"`
	Reason       *string  `json:"reason,omitempty" validate:"omitempty,max=500"`
	OutputQty    *float64 `json:"output_qty,omitempty" validate:"omitempty,gte=0"`
	DefectQty    *float64 `json:"defect_qty,omitempty" validate:"omitempty,gte=0"`
	QualityGrade *string  `json:"quality_grade,omitempty" validate:"omitempty,oneof=A B C reject"`
	Notes        *string  `json:"notes,omitempty" validate:"omitempty,max=1000"`
}
