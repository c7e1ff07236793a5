package procurement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists purchase orders and their lines.
type Repository interface {
	Get(ctx context.Context, companyID, id int64) (*PurchaseOrder, error)
	List(ctx context.Context, req ListOrdersRequest) ([]PurchaseOrder, int, error)
	Create(ctx context.Context, order PurchaseOrder) (int64, error)
	ReplaceDraft(ctx context.Context, order PurchaseOrder) error
	UpdateStatus(ctx context.Context, companyID, id int64, from, to Status, approvedBy *int64) error
	AddReceivedQty(ctx context.Context, companyID, orderID, lineID int64, qty float64) error
	NextPONo(ctx context.Context, companyID int64) (string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const orderColumns = `id, company_id, po_no, supplier_id, status, order_date, expected_date,
	currency, total_amount, notes, created_by, approved_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, companyID, id int64) (*PurchaseOrder, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM purchase_orders WHERE company_id = $1 AND id = $2`, companyID, id)

	var o PurchaseOrder
	err := row.Scan(&o.ID, &o.CompanyID, &o.PONo, &o.SupplierID, &o.Status, &o.OrderDate,
		&o.ExpectedDate, &o.Currency, &o.TotalAmount, &o.Notes, &o.CreatedBy, &o.ApprovedBy,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, item_code, description, qty, unit, unit_cost, received_qty, line_total
		 FROM purchase_order_lines WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l PurchaseOrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ItemCode, &l.Description, &l.Qty, &l.Unit,
			&l.UnitCost, &l.ReceivedQty, &l.LineTotal); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) List(ctx context.Context, req ListOrdersRequest) ([]PurchaseOrder, int, error) {
	conditions := []string{"company_id = $1"}
	args := []any{req.CompanyID}
	argPos := 2

	if req.SupplierID != nil {
		conditions = append(conditions, fmt.Sprintf("supplier_id = $%d", argPos))
		args = append(args, *req.SupplierID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("po_no ILIKE $%d", argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}
	if req.From != nil {
		conditions = append(conditions, fmt.Sprintf("order_date >= $%d", argPos))
		args = append(args, *req.From)
		argPos++
	}
	if req.To != nil {
		conditions = append(conditions, fmt.Sprintf("order_date <= $%d", argPos))
		args = append(args, *req.To)
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM purchase_orders "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT "+orderColumns+" FROM purchase_orders %s ORDER BY order_date DESC, id DESC LIMIT $%d OFFSET $%d",
		where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []PurchaseOrder
	for rows.Next() {
		var o PurchaseOrder
		if err := rows.Scan(&o.ID, &o.CompanyID, &o.PONo, &o.SupplierID, &o.Status, &o.OrderDate,
			&o.ExpectedDate, &o.Currency, &o.TotalAmount, &o.Notes, &o.CreatedBy, &o.ApprovedBy,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// Create inserts the header and all lines in one transaction.
func (r *repository) Create(ctx context.Context, order PurchaseOrder) (int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO purchase_orders
			(company_id, po_no, supplier_id, status, order_date, expected_date, currency,
			 total_amount, notes, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		order.CompanyID, order.PONo, order.SupplierID, order.Status, order.OrderDate,
		order.ExpectedDate, order.Currency, order.TotalAmount, order.Notes, order.CreatedBy).Scan(&id)
	if err != nil {
		return 0, err
	}

	if err := insertLines(ctx, tx, id, order.Lines); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// ReplaceDraft rewrites header fields and lines while still in draft.
func (r *repository) ReplaceDraft(ctx context.Context, order PurchaseOrder) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE purchase_orders SET
			supplier_id = $3, expected_date = $4, total_amount = $5, notes = $6, updated_at = NOW()
		 WHERE company_id = $1 AND id = $2 AND status = 'draft'`,
		order.CompanyID, order.ID, order.SupplierID, order.ExpectedDate, order.TotalAmount, order.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM purchase_order_lines WHERE order_id = $1`, order.ID); err != nil {
		return err
	}
	if err := insertLines(ctx, tx, order.ID, order.Lines); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateStatus performs a compare-and-set on the status column.
func (r *repository) UpdateStatus(ctx context.Context, companyID, id int64, from, to Status, approvedBy *int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE purchase_orders SET status = $4, approved_by = COALESCE($5, approved_by), updated_at = NOW()
		 WHERE company_id = $1 AND id = $2 AND status = $3`,
		companyID, id, from, to, approvedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddReceivedQty accumulates a receipt onto the line, guarded against
// over-receipt at the database level too.
func (r *repository) AddReceivedQty(ctx context.Context, companyID, orderID, lineID int64, qty float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE purchase_order_lines l SET received_qty = l.received_qty + $4
		 FROM purchase_orders o
		 WHERE l.id = $3 AND l.order_id = $2 AND o.id = l.order_id AND o.company_id = $1
		   AND l.received_qty + $4 <= l.qty`,
		companyID, orderID, lineID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOverReceipt
	}
	return nil
}

// NextPONo suggests PO-{SEQ} per company.
func (r *repository) NextPONo(ctx context.Context, companyID int64) (string, error) {
	var count int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM purchase_orders WHERE company_id = $1`, companyID).Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("PO-%06d", count+1), nil
}

func insertLines(ctx context.Context, tx pgx.Tx, orderID int64, lines []PurchaseOrderLine) error {
	for _, l := range lines {
		_, err := tx.Exec(ctx,
			`INSERT INTO purchase_order_lines
				(order_id, item_code, description, qty, unit, unit_cost, received_qty, line_total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			orderID, l.ItemCode, l.Description, l.Qty, l.Unit, l.UnitCost, l.ReceivedQty, l.LineTotal)
		if err != nil {
			return err
		}
	}
	return nil
}
