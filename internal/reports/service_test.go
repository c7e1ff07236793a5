package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryReportRepo struct {
	orders    []OrderRegisterRow
	movements []StockMovementRow
	summaries []ProductionSummaryRow
}

func (m *memoryReportRepo) OrderRegister(_ context.Context, _ Filter) ([]OrderRegisterRow, error) {
	return m.orders, nil
}

func (m *memoryReportRepo) StockMovements(_ context.Context, _ Filter) ([]StockMovementRow, error) {
	return m.movements, nil
}

func (m *memoryReportRepo) ProductionSummary(_ context.Context, _ Filter) ([]ProductionSummaryRow, error) {
	return m.summaries, nil
}

func TestBuildOrderRegister(t *testing.T) {
	created := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	repo := &memoryReportRepo{orders: []OrderRegisterRow{
		{OrderNo: "SO-000001", CustomerName: "Arvind Textiles", Status: "confirmed",
			Currency: "INR", TotalAmount: 12500.5, CreatedAt: created},
	}}
	svc := NewService(repo)

	ds, err := svc.Build(context.Background(), KindOrderRegister, Filter{CompanyID: 1})
	require.NoError(t, err)
	require.Equal(t, "Sales Order Register", ds.Title)
	require.Equal(t, []string{"Order No", "Customer", "Status", "Currency", "Total", "Created"}, ds.Columns)
	require.Len(t, ds.Rows, 1)
	require.Equal(t,
		[]string{"SO-000001", "Arvind Textiles", "confirmed", "INR", "12500.50", "2026-03-14"},
		ds.Rows[0])
}

func TestBuildStockMovements(t *testing.T) {
	posted := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	repo := &memoryReportRepo{movements: []StockMovementRow{
		{ItemCode: "FAB-GREY-001", Type: "IN", Qty: 1200, UnitCost: 42.75,
			RefModule: "purchase_receipt", RefID: "GRN-001", PostedAt: posted},
	}}
	svc := NewService(repo)

	ds, err := svc.Build(context.Background(), KindStockMovements, Filter{CompanyID: 1})
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)
	require.Equal(t,
		[]string{"FAB-GREY-001", "IN", "1200", "42.75", "purchase_receipt", "GRN-001", "2026-03-14 09:30"},
		ds.Rows[0])
}

func TestBuildProductionSummary(t *testing.T) {
	started := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	repo := &memoryReportRepo{summaries: []ProductionSummaryRow{
		{ProdNo: "PRD-2603-0001", OrderNo: "SO-000001", Status: "in_progress",
			StagesCompleted: 4, StagesTotal: 10, StartedAt: &started},
	}}
	svc := NewService(repo)

	ds, err := svc.Build(context.Background(), KindProductionSummary, Filter{CompanyID: 1})
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)
	require.Equal(t,
		[]string{"PRD-2603-0001", "SO-000001", "in_progress", "4/10", "2026-03-01", ""},
		ds.Rows[0])
}

func TestBuildUnknownReport(t *testing.T) {
	svc := NewService(&memoryReportRepo{})

	_, err := svc.Build(context.Background(), Kind("payroll"), Filter{CompanyID: 1})
	require.ErrorIs(t, err, ErrUnknownReport)
}

func TestBuildEmptyDatasetKeepsColumns(t *testing.T) {
	svc := NewService(&memoryReportRepo{})

	ds, err := svc.Build(context.Background(), KindOrderRegister, Filter{CompanyID: 1})
	require.NoError(t, err)
	require.NotEmpty(t, ds.Columns)
	require.Empty(t, ds.Rows)
	require.False(t, ds.GeneratedAt.IsZero())
}
