package reports

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/texfab-erp/texfab-erp/internal/reports/export"
)

// Service builds report datasets from the transactional tables.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Build runs the named report over the filter window.
func (s *Service) Build(ctx context.Context, kind Kind, f Filter) (export.Dataset, error) {
	switch kind {
	case KindOrderRegister:
		return s.orderRegister(ctx, f)
	case KindStockMovements:
		return s.stockMovements(ctx, f)
	case KindProductionSummary:
		return s.productionSummary(ctx, f)
	default:
		return export.Dataset{}, fmt.Errorf("%w: %s", ErrUnknownReport, kind)
	}
}

func (s *Service) orderRegister(ctx context.Context, f Filter) (export.Dataset, error) {
	rows, err := s.repo.OrderRegister(ctx, f)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("order register: %w", err)
	}
	ds := newDataset("Sales Order Register",
		[]string{"Order No", "Customer", "Status", "Currency", "Total", "Created"})
	for _, r := range rows {
		ds.Rows = append(ds.Rows, []string{
			r.OrderNo,
			r.CustomerName,
			r.Status,
			r.Currency,
			formatAmount(r.TotalAmount),
			r.CreatedAt.Format("2006-01-02"),
		})
	}
	return ds, nil
}

func (s *Service) stockMovements(ctx context.Context, f Filter) (export.Dataset, error) {
	rows, err := s.repo.StockMovements(ctx, f)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("stock movements: %w", err)
	}
	ds := newDataset("Stock Movement Register",
		[]string{"Item", "Type", "Qty", "Unit Cost", "Ref Module", "Ref ID", "Posted"})
	for _, r := range rows {
		ds.Rows = append(ds.Rows, []string{
			r.ItemCode,
			r.Type,
			formatQty(r.Qty),
			formatAmount(r.UnitCost),
			r.RefModule,
			r.RefID,
			r.PostedAt.Format("2006-01-02 15:04"),
		})
	}
	return ds, nil
}

func (s *Service) productionSummary(ctx context.Context, f Filter) (export.Dataset, error) {
	rows, err := s.repo.ProductionSummary(ctx, f)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("production summary: %w", err)
	}
	ds := newDataset("Production Summary",
		[]string{"Prod No", "Sales Order", "Status", "Stages Done", "Started", "Completed"})
	for _, r := range rows {
		ds.Rows = append(ds.Rows, []string{
			r.ProdNo,
			r.OrderNo,
			r.Status,
			fmt.Sprintf("%d/%d", r.StagesCompleted, r.StagesTotal),
			formatOptTime(r.StartedAt),
			formatOptTime(r.CompletedAt),
		})
	}
	return ds, nil
}

func newDataset(title string, columns []string) export.Dataset {
	return export.Dataset{
		Title:       title,
		GeneratedAt: time.Now().UTC(),
		Columns:     columns,
		Rows:        [][]string{},
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
