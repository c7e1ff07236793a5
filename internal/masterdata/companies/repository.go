package companies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates a missing company.
	ErrNotFound = errors.New("company not found")
	// ErrDuplicateCode indicates the company code is taken.
	ErrDuplicateCode = errors.New("company code already exists")
)

// Repository persists companies.
type Repository interface {
	Get(ctx context.Context, id int64) (*Company, error)
	GetByCode(ctx context.Context, code string) (*Company, error)
	List(ctx context.Context, search string, isActive *bool, limit, offset int) ([]Company, int, error)
	Create(ctx context.Context, company Company) (int64, error)
	Update(ctx context.Context, company Company) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const companyColumns = `id, code, name, legal_name, registration_no, tax_number, sales_tax_number,
	email, phone, address_line1, address_line2, city, country, bank_accounts, is_active, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Company, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	return scanCompany(row)
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Company, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE code = $1`, code)
	return scanCompany(row)
}

func (r *repository) List(ctx context.Context, search string, isActive *bool, limit, offset int) ([]Company, int, error) {
	conditions := []string{"TRUE"}
	var args []any
	argPos := 1

	if search != "" {
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+search+"%")
		argPos++
	}
	if isActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *isActive)
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM companies "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT "+companyColumns+" FROM companies %s ORDER BY code LIMIT $%d OFFSET $%d", where, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		c, err := scanCompanyRow(rows)
		if err != nil {
			return nil, 0, err
		}
		companies = append(companies, *c)
	}
	return companies, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, company Company) (int64, error) {
	accounts, err := json.Marshal(company.BankAccounts)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.pool.QueryRow(ctx,
		`INSERT INTO companies
			(code, name, legal_name, registration_no, tax_number, sales_tax_number,
			 email, phone, address_line1, address_line2, city, country, bank_accounts, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		company.Code, company.Name, company.LegalName, company.RegistrationNo,
		company.TaxNumber, company.SalesTaxNumber, company.Email, company.Phone,
		company.AddressLine1, company.AddressLine2, company.City, company.Country,
		accounts, company.IsActive).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, company Company) error {
	accounts, err := json.Marshal(company.BankAccounts)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE companies SET
			name = $2, legal_name = $3, registration_no = $4, tax_number = $5,
			sales_tax_number = $6, email = $7, phone = $8, address_line1 = $9,
			address_line2 = $10, city = $11, country = $12, bank_accounts = $13,
			is_active = $14, updated_at = NOW()
		 WHERE id = $1`,
		company.ID, company.Name, company.LegalName, company.RegistrationNo,
		company.TaxNumber, company.SalesTaxNumber, company.Email, company.Phone,
		company.AddressLine1, company.AddressLine2, company.City, company.Country,
		accounts, company.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row pgx.Row) (*Company, error) {
	c, err := scanCompanyRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func scanCompanyRow(row rowScanner) (*Company, error) {
	var c Company
	var accounts []byte
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.LegalName, &c.RegistrationNo,
		&c.TaxNumber, &c.SalesTaxNumber, &c.Email, &c.Phone, &c.AddressLine1,
		&c.AddressLine2, &c.City, &c.Country, &accounts, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(accounts) > 0 {
		if err := json.Unmarshal(accounts, &c.BankAccounts); err != nil {
			return nil, err
		}
	}
	return &c, nil
}
