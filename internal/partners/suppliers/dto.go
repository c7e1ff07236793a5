package suppliers

// CreateSupplierRequest creates a supplier within the caller's company.
type CreateSupplierRequest struct {
	Code             string  `json:"code" validate:"required,max=50"`
	Name             string  `json:"name" validate:"required,max=200"`
	ContactPerson    *string `json:"contact_person,omitempty" validate:"omitempty,max=100"`
	Email            *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone            *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	TaxID            *string `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	CategoryID       *int64  `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	PaymentTermsDays int     `json:"payment_terms_days" validate:"gte=0,lte=365"`
	BankName         *string `json:"bank_name,omitempty" validate:"omitempty,max=100"`
	BankAccountNo    *string `json:"bank_account_no,omitempty" validate:"omitempty,max=50"`
	AddressLine1     *string `json:"address_line1,omitempty" validate:"omitempty,max=200"`
	City             *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Country          string  `json:"country" validate:"required,len=2"`
	Notes            *string `json:"notes,omitempty"`
}

// UpdateSupplierRequest carries partial updates.
type UpdateSupplierRequest struct {
	Name             *string `json:"name,omitempty" validate:"omitempty,max=200"`
	ContactPerson    *string `json:"contact_person,omitempty" validate:"omitempty,max=100"`
	Email            *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone            *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	TaxID            *string `json:"tax_id,omitempty"`
	CategoryID       *int64  `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	PaymentTermsDays *int    `json:"payment_terms_days,omitempty" validate:"omitempty,gte=0,lte=365"`
	BankName         *string `json:"bank_name,omitempty" validate:"omitempty,max=100"`
	BankAccountNo    *string `json:"bank_account_no,omitempty" validate:"omitempty,max=50"`
	AddressLine1     *string `json:"address_line1,omitempty"`
	City             *string `json:"city,omitempty"`
	Country          *string `json:"country,omitempty" validate:"omitempty,len=2"`
	IsActive         *bool   `json:"is_active,omitempty"`
	Notes            *string `json:"notes,omitempty"`
}

// ListSuppliersRequest filters the listing.
type ListSuppliersRequest struct {
	CompanyID  int64
	IsActive   *bool
	CategoryID *int64
	Search     string
	Limit      int
	Offset     int
}
