package process

import (
	"errors"
	"time"
)

// Status is the process record lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// CheckResult is the verdict of a quality check.
type CheckResult string

const (
	ResultPass CheckResult = "pass"
	ResultFail CheckResult = "fail"
)

// IssueSeverity grades reported issues.
type IssueSeverity string

const (
	SeverityMinor    IssueSeverity = "minor"
	SeverityMajor    IssueSeverity = "major"
	SeverityCritical IssueSeverity = "critical"
)

var (
	// ErrNotFound indicates the record is absent or owned by another tenant.
	ErrNotFound = errors.New("process record not found")
	// ErrUnknownParam indicates a parameter key outside the definition.
	ErrUnknownParam = errors.New("parameter not in process definition")
	// ErrNotCompleted indicates a quality check on an unfinished record.
	ErrNotCompleted = errors.New("process record not completed")
)

// Record is one run of a process type against a production order.
type Record struct {
	ID                int64              `json:"id"`
	CompanyID         int64              `json:"company_id"`
	ProductionOrderID int64              `json:"production_order_id"`
	ProcessCode       string             `json:"process_code"`
	Status            Status             `json:"status"`
	Params            map[string]any     `json:"params,omitempty"`
	OperatorID        *int64             `json:"operator_id,omitempty"`
	StartedAt         *time.Time         `json:"started_at,omitempty"`
	CompletedAt       *time.Time         `json:"completed_at,omitempty"`
	OutputQty         *float64           `json:"output_qty,omitempty"`
	WastageQty        *float64           `json:"wastage_qty,omitempty"`
	CostBreakdown     map[string]float64 `json:"cost_breakdown,omitempty"`
	TotalCost         *float64           `json:"total_cost,omitempty"`
	Notes             *string            `json:"notes,omitempty"`
	CreatedBy         int64              `json:"created_by"`
	CreatedAt         time.Time          `json:"created_at"`
	QualityChecks     []QualityCheck     `json:"quality_checks,omitempty"`
	Issues            []Issue            `json:"issues,omitempty"`
}

// QualityCheck is one inspection verdict on a completed record.
type QualityCheck struct {
	ID        int64       `json:"id"`
	RecordID  int64       `json:"record_id"`
	Result    CheckResult `json:"result"`
	Score     *float64    `json:"score,omitempty"`
	Remarks   *string     `json:"remarks,omitempty"`
	CheckedBy int64       `json:"checked_by"`
	CheckedAt time.Time   `json:"checked_at"`
}

// Issue is a problem reported during a process run.
type Issue struct {
	ID          int64         `json:"id"`
	RecordID    int64         `json:"record_id"`
	Severity    IssueSeverity `json:"severity"`
	Description string        `json:"description"`
	ReportedBy  int64         `json:"reported_by"`
	ReportedAt  time.Time     `json:"reported_at"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
}

// Analytics summarises one process type for one company. AvgEfficiency is
// output over output plus wastage, averaged across completed runs that
// reported both figures.
type Analytics struct {
	ProcessCode     string  `json:"process_code"`
	TotalRecords    int     `json:"total_records"`
	Pending         int     `json:"pending"`
	InProgress      int     `json:"in_progress"`
	Completed       int     `json:"completed"`
	AvgDurationMins float64 `json:"avg_duration_mins"`
	AvgEfficiency   float64 `json:"avg_efficiency"`
	PassRate        float64 `json:"pass_rate"`
	TotalCost       float64 `json:"total_cost"`
	OpenIssues      int     `json:"open_issues"`
}

// ListRecordsRequest filters the listing.
type ListRecordsRequest struct {
	CompanyID         int64
	ProcessCode       string
	ProductionOrderID *int64
	Status            *Status
	Limit             int
	Offset            int
}
