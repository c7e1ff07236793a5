package customers

// CreateCustomerRequest creates a customer within the caller's company.
type CreateCustomerRequest struct {
	Code             string  `json:"code" validate:"required,max=50"`
	Name             string  `json:"name" validate:"required,max=200"`
	Email            *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone            *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	TaxID            *string `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	CategoryID       *int64  `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	CreditLimit      float64 `json:"credit_limit" validate:"gte=0"`
	PaymentTermsDays int     `json:"payment_terms_days" validate:"gte=0,lte=365"`
	Rating           int     `json:"rating" validate:"gte=0,lte=5"`
	AddressLine1     *string `json:"address_line1,omitempty" validate:"omitempty,max=200"`
	AddressLine2     *string `json:"address_line2,omitempty" validate:"omitempty,max=200"`
	City             *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Country          string  `json:"country" validate:"required,len=2"`
	Notes            *string `json:"notes,omitempty"`
}

// UpdateCustomerRequest carries partial updates.
type UpdateCustomerRequest struct {
	Name             *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Email            *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone            *string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	TaxID            *string  `json:"tax_id,omitempty"`
	CategoryID       *int64   `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	CreditLimit      *float64 `json:"credit_limit,omitempty" validate:"omitempty,gte=0"`
	PaymentTermsDays *int     `json:"payment_terms_days,omitempty" validate:"omitempty,gte=0,lte=365"`
	Rating           *int     `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	AddressLine1     *string  `json:"address_line1,omitempty"`
	AddressLine2     *string  `json:"address_line2,omitempty"`
	City             *string  `json:"city,omitempty"`
	Country          *string  `json:"country,omitempty" validate:"omitempty,len=2"`
	IsActive         *bool    `json:"is_active,omitempty"`
	Notes            *string  `json:"notes,omitempty"`
}

// ListCustomersRequest filters the listing.
type ListCustomersRequest struct {
	CompanyID  int64
	IsActive   *bool
	CategoryID *int64
	Search     string
	Limit      int
	Offset     int
}
