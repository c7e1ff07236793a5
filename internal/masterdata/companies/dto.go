package companies

// CreateCompanyRequest registers a new tenant.
type CreateCompanyRequest struct {
	Code           string        `json:"code" validate:"required,max=50"`
	Name           string        `json:"name" validate:"required,max=200"`
	LegalName      string        `json:"legal_name" validate:"max=200"`
	RegistrationNo string        `json:"registration_no" validate:"max=100"`
	TaxNumber      string        `json:"tax_number" validate:"max=50"`
	SalesTaxNumber string        `json:"sales_tax_number" validate:"max=50"`
	Email          string        `json:"email" validate:"omitempty,email"`
	Phone          string        `json:"phone" validate:"max=50"`
	AddressLine1   string        `json:"address_line1" validate:"max=200"`
	AddressLine2   string        `json:"address_line2" validate:"max=200"`
	City           string        `json:"city" validate:"max=100"`
	Country        string        `json:"country" validate:"required,len=2"`
	BankAccounts   []BankAccount `json:"bank_accounts" validate:"dive"`
}

// UpdateCompanyRequest carries partial updates; nil fields are left untouched.
type UpdateCompanyRequest struct {
	Name           *string        `json:"name,omitempty" validate:"omitempty,max=200"`
	LegalName      *string        `json:"legal_name,omitempty" validate:"omitempty,max=200"`
	RegistrationNo *string        `json:"registration_no,omitempty" validate:"omitempty,max=100"`
	TaxNumber      *string        `json:"tax_number,omitempty" validate:"omitempty,max=50"`
	SalesTaxNumber *string        `json:"sales_tax_number,omitempty" validate:"omitempty,max=50"`
	Email          *string        `json:"email,omitempty" validate:"omitempty,email"`
	Phone          *string        `json:"phone,omitempty" validate:"omitempty,max=50"`
	AddressLine1   *string        `json:"address_line1,omitempty"`
	AddressLine2   *string        `json:"address_line2,omitempty"`
	City           *string        `json:"city,omitempty"`
	Country        *string        `json:"country,omitempty" validate:"omitempty,len=2"`
	BankAccounts   *[]BankAccount `json:"bank_accounts,omitempty" validate:"omitempty,dive"`
	IsActive       *bool          `json:"is_active,omitempty"`
}
