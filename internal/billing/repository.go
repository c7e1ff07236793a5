package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/texfab-erp/texfab-erp/internal/platform/db"
)

// Repository persists invoices, lines and payments. Payment insertion and the
// running paid amount move together in one transaction.
type Repository interface {
	Get(ctx context.Context, companyID, id int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	Create(ctx context.Context, invoice Invoice) (int64, error)
	UpdateStatus(ctx context.Context, companyID, id int64, from, to Status) error
	RecordPayment(ctx context.Context, companyID int64, payment Payment, newStatus Status, fromStatus Status) (int64, error)
	NextInvoiceNo(ctx context.Context, companyID int64) (string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const invoiceColumns = `id, company_id, invoice_no, sales_order_id, customer_id, status,
	issue_date, due_date, currency, subtotal, tax_rate, tax_amount, total, amount_paid,
	notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE company_id = $1 AND id = $2`, companyID, id)

	var inv Invoice
	err := row.Scan(&inv.ID, &inv.CompanyID, &inv.InvoiceNo, &inv.SalesOrderID, &inv.CustomerID,
		&inv.Status, &inv.IssueDate, &inv.DueDate, &inv.Currency, &inv.Subtotal, &inv.TaxRate,
		&inv.TaxAmount, &inv.Total, &inv.AmountPaid, &inv.Notes, &inv.CreatedBy,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lineRows, err := r.pool.Query(ctx,
		`SELECT id, invoice_id, item_code, description, qty, unit, unit_price, line_total
		 FROM invoice_lines WHERE invoice_id = $1 ORDER BY id`, inv.ID)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var l InvoiceLine
		if err := lineRows.Scan(&l.ID, &l.InvoiceID, &l.ItemCode, &l.Description, &l.Qty,
			&l.Unit, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, l)
	}
	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	payRows, err := r.pool.Query(ctx,
		`SELECT id, invoice_id, amount, method, reference, paid_at, received_by
		 FROM invoice_payments WHERE invoice_id = $1 ORDER BY paid_at, id`, inv.ID)
	if err != nil {
		return nil, err
	}
	defer payRows.Close()
	for payRows.Next() {
		var p Payment
		if err := payRows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Reference,
			&p.PaidAt, &p.ReceivedBy); err != nil {
			return nil, err
		}
		inv.Payments = append(inv.Payments, p)
	}
	if err := payRows.Err(); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	conditions := []string{"company_id = $1"}
	args := []any{req.CompanyID}
	argPos := 2

	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("invoice_no ILIKE $%d", argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM invoices "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT "+invoiceColumns+" FROM invoices %s ORDER BY id DESC LIMIT $%d OFFSET $%d",
		where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.CompanyID, &inv.InvoiceNo, &inv.SalesOrderID,
			&inv.CustomerID, &inv.Status, &inv.IssueDate, &inv.DueDate, &inv.Currency,
			&inv.Subtotal, &inv.TaxRate, &inv.TaxAmount, &inv.Total, &inv.AmountPaid,
			&inv.Notes, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, invoice Invoice) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO invoices
				(company_id, invoice_no, sales_order_id, customer_id, status, due_date, currency,
				 subtotal, tax_rate, tax_amount, total, amount_paid, notes, created_by)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			 RETURNING id`,
			invoice.CompanyID, invoice.InvoiceNo, invoice.SalesOrderID, invoice.CustomerID,
			invoice.Status, invoice.DueDate, invoice.Currency, invoice.Subtotal, invoice.TaxRate,
			invoice.TaxAmount, invoice.Total, invoice.AmountPaid, invoice.Notes, invoice.CreatedBy).Scan(&id)
		if err != nil {
			return err
		}
		for _, l := range invoice.Lines {
			_, err := tx.Exec(ctx,
				`INSERT INTO invoice_lines (invoice_id, item_code, description, qty, unit, unit_price, line_total)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				id, l.ItemCode, l.Description, l.Qty, l.Unit, l.UnitPrice, l.LineTotal)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateStatus performs a compare-and-set; issuing stamps the issue date.
func (r *repository) UpdateStatus(ctx context.Context, companyID, id int64, from, to Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices SET status = $4,
			issue_date = CASE WHEN $4 = 'issued' THEN NOW() ELSE issue_date END,
			updated_at = NOW()
		 WHERE company_id = $1 AND id = $2 AND status = $3`,
		companyID, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordPayment inserts the payment, bumps amount_paid and moves the status,
// all inside one transaction with the invoice row locked.
func (r *repository) RecordPayment(ctx context.Context, companyID int64, payment Payment, newStatus Status, fromStatus Status) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE invoices SET amount_paid = amount_paid + $4, status = $5, updated_at = NOW()
			 WHERE company_id = $1 AND id = $2 AND status = $3 AND amount_paid + $4 <= total`,
			companyID, payment.InvoiceID, fromStatus, payment.Amount, newStatus)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrOverpayment
		}
		return tx.QueryRow(ctx,
			`INSERT INTO invoice_payments (invoice_id, amount, method, reference, paid_at, received_by)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			payment.InvoiceID, payment.Amount, payment.Method, payment.Reference,
			payment.PaidAt, payment.ReceivedBy).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// NextInvoiceNo suggests INV-{SEQ} per company.
func (r *repository) NextInvoiceNo(ctx context.Context, companyID int64) (string, error) {
	var count int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM invoices WHERE company_id = $1`, companyID).Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%06d", count+1), nil
}
