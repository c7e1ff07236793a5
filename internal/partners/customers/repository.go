package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates the customer is absent or owned by another tenant.
	ErrNotFound = errors.New("customer not found")
	// ErrDuplicateCode indicates the code is taken within the company.
	ErrDuplicateCode = errors.New("customer code already exists")
	// ErrDuplicateEmail indicates the email is taken within the company.
	ErrDuplicateEmail = errors.New("customer email already exists")
)

// Repository persists customers.
type Repository interface {
	Get(ctx context.Context, companyID, id int64) (*Customer, error)
	GetByCode(ctx context.Context, companyID int64, code string) (*Customer, error)
	EmailExists(ctx context.Context, companyID int64, email string, excludeID int64) (bool, error)
	List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error)
	Create(ctx context.Context, customer Customer) (int64, error)
	Update(ctx context.Context, customer Customer) error
	NextCode(ctx context.Context, companyID int64) (string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const customerColumns = `id, company_id, code, name, email, phone, tax_id, category_id,
	credit_limit, payment_terms_days, rating, address_line1, address_line2, city, country,
	is_active, notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Customer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE company_id = $1 AND id = $2`, companyID, id)
	return scanCustomer(row)
}

func (r *repository) GetByCode(ctx context.Context, companyID int64, code string) (*Customer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE company_id = $1 AND code = $2`, companyID, code)
	return scanCustomer(row)
}

func (r *repository) EmailExists(ctx context.Context, companyID int64, email string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE company_id = $1 AND lower(email) = lower($2) AND id <> $3)`,
		companyID, email, excludeID).Scan(&exists)
	return exists, err
}

func (r *repository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	conditions := []string{"company_id = $1"}
	args := []any{req.CompanyID}
	argPos := 2

	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}
	if req.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argPos))
		args = append(args, *req.CategoryID)
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d OR email ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT "+customerColumns+" FROM customers %s ORDER BY code LIMIT $%d OFFSET $%d", where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.TaxID,
			&c.CategoryID, &c.CreditLimit, &c.PaymentTermsDays, &c.Rating, &c.AddressLine1,
			&c.AddressLine2, &c.City, &c.Country, &c.IsActive, &c.Notes,
			&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, customer Customer) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customers
			(company_id, code, name, email, phone, tax_id, category_id, credit_limit,
			 payment_terms_days, rating, address_line1, address_line2, city, country,
			 is_active, notes, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 RETURNING id`,
		customer.CompanyID, customer.Code, customer.Name, customer.Email, customer.Phone,
		customer.TaxID, customer.CategoryID, customer.CreditLimit, customer.PaymentTermsDays,
		customer.Rating, customer.AddressLine1, customer.AddressLine2, customer.City,
		customer.Country, customer.IsActive, customer.Notes, customer.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, customer Customer) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE customers SET
			name = $3, email = $4, phone = $5, tax_id = $6, category_id = $7,
			credit_limit = $8, payment_terms_days = $9, rating = $10,
			address_line1 = $11, address_line2 = $12, city = $13, country = $14,
			is_active = $15, notes = $16, updated_at = NOW()
		 WHERE company_id = $1 AND id = $2`,
		customer.CompanyID, customer.ID, customer.Name, customer.Email, customer.Phone,
		customer.TaxID, customer.CategoryID, customer.CreditLimit, customer.PaymentTermsDays,
		customer.Rating, customer.AddressLine1, customer.AddressLine2, customer.City,
		customer.Country, customer.IsActive, customer.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NextCode suggests CUST-{SEQ}. Best effort for form pre-fill; uniqueness is
// still checked on create.
func (r *repository) NextCode(ctx context.Context, companyID int64) (string, error) {
	var count int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM customers WHERE company_id = $1`, companyID).Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("CUST-%05d", count+1), nil
}

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.TaxID,
		&c.CategoryID, &c.CreditLimit, &c.PaymentTermsDays, &c.Rating, &c.AddressLine1,
		&c.AddressLine2, &c.City, &c.Country, &c.IsActive, &c.Notes,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
