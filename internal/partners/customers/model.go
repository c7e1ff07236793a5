package customers

import "time"

// Customer is a buyer account scoped to one company.
type Customer struct {
	ID               int64     `json:"id"`
	CompanyID        int64     `json:"company_id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	Email            *string   `json:"email,omitempty"`
	Phone            *string   `json:"phone,omitempty"`
	TaxID            *string   `json:"tax_id,omitempty"`
	CategoryID       *int64    `json:"category_id,omitempty"`
	CreditLimit      float64   `json:"credit_limit"`
	PaymentTermsDays int       `json:"payment_terms_days"`
	Rating           int       `json:"rating"`
	AddressLine1     *string   `json:"address_line1,omitempty"`
	AddressLine2     *string   `json:"address_line2,omitempty"`
	City             *string   `json:"city,omitempty"`
	Country          string    `json:"country"`
	IsActive         bool      `json:"is_active"`
	Notes            *string   `json:"notes,omitempty"`
	CreatedBy        int64     `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
