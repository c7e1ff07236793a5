package companies

import "time"

// BankAccount is one settlement account owned by a company.
type BankAccount struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountTitle  string `json:"account_title"`
	IBAN          string `json:"iban,omitempty"`
	Branch        string `json:"branch,omitempty"`
}

// Company is the tenant root. Every business record is scoped to one company.
type Company struct {
	ID              int64         `json:"id"`
	Code            string        `json:"code"`
	Name            string        `json:"name"`
	LegalName       string        `json:"legal_name,omitempty"`
	RegistrationNo  string        `json:"registration_no,omitempty"`
	TaxNumber       string        `json:"tax_number,omitempty"`
	SalesTaxNumber  string        `json:"sales_tax_number,omitempty"`
	Email           string        `json:"email,omitempty"`
	Phone           string        `json:"phone,omitempty"`
	AddressLine1    string        `json:"address_line1,omitempty"`
	AddressLine2    string        `json:"address_line2,omitempty"`
	City            string        `json:"city,omitempty"`
	Country         string        `json:"country"`
	BankAccounts    []BankAccount `json:"bank_accounts,omitempty"`
	IsActive        bool          `json:"is_active"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
