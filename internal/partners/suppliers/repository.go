package suppliers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates the supplier is absent or owned by another tenant.
	ErrNotFound = errors.New("supplier not found")
	// ErrDuplicateCode indicates the code is taken within the company.
	ErrDuplicateCode = errors.New("supplier code already exists")
)

// Repository persists suppliers.
type Repository interface {
	Get(ctx context.Context, companyID, id int64) (*Supplier, error)
	GetByCode(ctx context.Context, companyID int64, code string) (*Supplier, error)
	List(ctx context.Context, req ListSuppliersRequest) ([]Supplier, int, error)
	Create(ctx context.Context, supplier Supplier) (int64, error)
	Update(ctx context.Context, supplier Supplier) error
	NextCode(ctx context.Context, companyID int64) (string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const supplierColumns = `id, company_id, code, name, contact_person, email, phone, tax_id,
	category_id, payment_terms_days, bank_name, bank_account_no, address_line1, city,
	country, is_active, notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Supplier, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE company_id = $1 AND id = $2`, companyID, id)
	return scanSupplier(row)
}

func (r *repository) GetByCode(ctx context.Context, companyID int64, code string) (*Supplier, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE company_id = $1 AND code = $2`, companyID, code)
	return scanSupplier(row)
}

func (r *repository) List(ctx context.Context, req ListSuppliersRequest) ([]Supplier, int, error) {
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
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM suppliers "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT "+supplierColumns+" FROM suppliers %s ORDER BY code LIMIT $%d OFFSET $%d", where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.CompanyID, &s.Code, &s.Name, &s.ContactPerson, &s.Email,
			&s.Phone, &s.TaxID, &s.CategoryID, &s.PaymentTermsDays, &s.BankName, &s.BankAccountNo,
			&s.AddressLine1, &s.City, &s.Country, &s.IsActive, &s.Notes,
			&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, supplier Supplier) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO suppliers
			(company_id, code, name, contact_person, email, phone, tax_id, category_id,
			 payment_terms_days, bank_name, bank_account_no, address_line1, city, country,
			 is_active, notes, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 RETURNING id`,
		supplier.CompanyID, supplier.Code, supplier.Name, supplier.ContactPerson, supplier.Email,
		supplier.Phone, supplier.TaxID, supplier.CategoryID, supplier.PaymentTermsDays,
		supplier.BankName, supplier.BankAccountNo, supplier.AddressLine1, supplier.City,
		supplier.Country, supplier.IsActive, supplier.Notes, supplier.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, supplier Supplier) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE suppliers SET
			name = $3, contact_person = $4, email = $5, phone = $6, tax_id = $7,
			category_id = $8, payment_terms_days = $9, bank_name = $10, bank_account_no = $11,
			address_line1 = $12, city = $13, country = $14, is_active = $15, notes = $16,
			updated_at = NOW()
		 WHERE company_id = $1 AND id = $2`,
		supplier.CompanyID, supplier.ID, supplier.Name, supplier.ContactPerson, supplier.Email,
		supplier.Phone, supplier.TaxID, supplier.CategoryID, supplier.PaymentTermsDays,
		supplier.BankName, supplier.BankAccountNo, supplier.AddressLine1, supplier.City,
		supplier.Country, supplier.IsActive, supplier.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NextCode suggests SUPP-{SEQ}. Best effort for form pre-fill; uniqueness is
// still checked on create.
func (r *repository) NextCode(ctx context.Context, companyID int64) (string, error) {
	var count int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM suppliers WHERE company_id = $1`, companyID).Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("SUPP-%05d", count+1), nil
}

func scanSupplier(row pgx.Row) (*Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.CompanyID, &s.Code, &s.Name, &s.ContactPerson, &s.Email,
		&s.Phone, &s.TaxID, &s.CategoryID, &s.PaymentTermsDays, &s.BankName, &s.BankAccountNo,
		&s.AddressLine1, &s.City, &s.Country, &s.IsActive, &s.Notes,
		&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
