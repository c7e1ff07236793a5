package reports

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads report datasets. Queries are read-only aggregates over
// the transactional tables.
type Repository interface {
	OrderRegister(ctx context.Context, f Filter) ([]OrderRegisterRow, error)
	StockMovements(ctx context.Context, f Filter) ([]StockMovementRow, error)
	ProductionSummary(ctx context.Context, f Filter) ([]ProductionSummaryRow, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) OrderRegister(ctx context.Context, f Filter) ([]OrderRegisterRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT o.order_no, c.name, o.status, o.currency, o.total_amount, o.created_at
		 FROM sales_orders o
		 JOIN customers c ON c.id = o.customer_id
		 WHERE o.company_id = $1 AND o.created_at >= $2 AND o.created_at < $3
		 ORDER BY o.created_at, o.id`,
		f.CompanyID, f.From, f.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRegisterRow
	for rows.Next() {
		var row OrderRegisterRow
		if err := rows.Scan(&row.OrderNo, &row.CustomerName, &row.Status, &row.Currency,
			&row.TotalAmount, &row.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *repository) StockMovements(ctx context.Context, f Filter) ([]StockMovementRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT item_code, type, qty, unit_cost, ref_module, ref_id, posted_at
		 FROM stock_movements
		 WHERE company_id = $1 AND posted_at >= $2 AND posted_at < $3
		 ORDER BY posted_at, id`,
		f.CompanyID, f.From, f.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockMovementRow
	for rows.Next() {
		var row StockMovementRow
		if err := rows.Scan(&row.ItemCode, &row.Type, &row.Qty, &row.UnitCost,
			&row.RefModule, &row.RefID, &row.PostedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *repository) ProductionSummary(ctx context.Context, f Filter) ([]ProductionSummaryRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.prod_no, COALESCE(o.order_no, ''), p.status,
			COUNT(*) FILTER (WHERE s.status = 'completed'),
			COUNT(s.id),
			p.started_at, p.completed_at
		 FROM production_orders p
		 LEFT JOIN sales_orders o ON o.id = p.sales_order_id
		 LEFT JOIN production_stages s ON s.order_id = p.id
		 WHERE p.company_id = $1 AND p.created_at >= $2 AND p.created_at < $3
		 GROUP BY p.id, o.order_no
		 ORDER BY p.created_at, p.id`,
		f.CompanyID, f.From, f.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProductionSummaryRow
	for rows.Next() {
		var row ProductionSummaryRow
		if err := rows.Scan(&row.ProdNo, &row.OrderNo, &row.Status,
			&row.StagesCompleted, &row.StagesTotal, &row.StartedAt, &row.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
