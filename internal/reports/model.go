package reports

import (
	"errors"
	"time"
)

// Kind names one of the built-in report datasets.
type Kind string

const (
	KindOrderRegister     Kind = "order-register"
	KindStockMovements    Kind = "stock-movements"
	KindProductionSummary Kind = "production-summary"
)

// Format is the requested export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

var (
	// ErrUnknownReport indicates an unrecognised report kind.
	ErrUnknownReport = errors.New("unknown report")
	// ErrUnknownFormat indicates an unsupported export format.
	ErrUnknownFormat = errors.New("unsupported export format")
)

// Filter scopes a report run to one tenant and date window.
type Filter struct {
	CompanyID int64
	From      time.Time
	To        time.Time
}

// OrderRegisterRow is one sales order in the register.
type OrderRegisterRow struct {
	OrderNo      string
	CustomerName string
	Status       string
	Currency     string
	TotalAmount  float64
	CreatedAt    time.Time
}

// StockMovementRow is one inventory movement in the register.
type StockMovementRow struct {
	ItemCode  string
	Type      string
	Qty       float64
	UnitCost  float64
	RefModule string
	RefID     string
	PostedAt  time.Time
}

// ProductionSummaryRow is one production order with its stage progress.
type ProductionSummaryRow struct {
	ProdNo          string
	OrderNo         string
	Status          string
	StagesCompleted int
	StagesTotal     int
	StartedAt       *time.Time
	CompletedAt     *time.Time
}
