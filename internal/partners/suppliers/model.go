package suppliers

import "time"

// Supplier is a vendor account scoped to one company.
type Supplier struct {
	ID               int64     `json:"id"`
	CompanyID        int64     `json:"company_id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	ContactPerson    *string   `json:"contact_person,omitempty"`
	Email            *string   `json:"email,omitempty"`
	Phone            *string   `json:"phone,omitempty"`
	TaxID            *string   `json:"tax_id,omitempty"`
	CategoryID       *int64    `json:"category_id,omitempty"`
	PaymentTermsDays int       `json:"payment_terms_days"`
	BankName         *string   `json:"bank_name,omitempty"`
	BankAccountNo    *string   `json:"bank_account_no,omitempty"`
	AddressLine1     *string   `json:"address_line1,omitempty"`
	City             *string   `json:"city,omitempty"`
	Country          string    `json:"country"`
	IsActive         bool      `json:"is_active"`
	Notes            *string   `json:"notes,omitempty"`
	CreatedBy        int64     `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
