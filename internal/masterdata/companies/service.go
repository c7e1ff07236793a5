package companies

import (
	"context"
	"errors"
	"fmt"
)

// Service wraps company business rules.
type Service struct {
	repo Repository
}

// NewService constructs the Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a tenant after checking code uniqueness.
func (s *Service) Create(ctx context.Context, req CreateCompanyRequest) (*Company, error) {
	existing, err := s.repo.GetByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing company: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateCode
	}

	company := Company{
		Code:           req.Code,
		Name:           req.Name,
		LegalName:      req.LegalName,
		RegistrationNo: req.RegistrationNo,
		TaxNumber:      req.TaxNumber,
		SalesTaxNumber: req.SalesTaxNumber,
		Email:          req.Email,
		Phone:          req.Phone,
		AddressLine1:   req.AddressLine1,
		AddressLine2:   req.AddressLine2,
		City:           req.City,
		Country:        req.Country,
		BankAccounts:   req.BankAccounts,
		IsActive:       true,
	}
	id, err := s.repo.Create(ctx, company)
	if err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	company.ID = id
	return &company, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, req UpdateCompanyRequest) (*Company, error) {
	company, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.LegalName != nil {
		company.LegalName = *req.LegalName
	}
	if req.RegistrationNo != nil {
		company.RegistrationNo = *req.RegistrationNo
	}
	if req.TaxNumber != nil {
		company.TaxNumber = *req.TaxNumber
	}
	if req.SalesTaxNumber != nil {
		company.SalesTaxNumber = *req.SalesTaxNumber
	}
	if req.Email != nil {
		company.Email = *req.Email
	}
	if req.Phone != nil {
		company.Phone = *req.Phone
	}
	if req.AddressLine1 != nil {
		company.AddressLine1 = *req.AddressLine1
	}
	if req.AddressLine2 != nil {
		company.AddressLine2 = *req.AddressLine2
	}
	if req.City != nil {
		company.City = *req.City
	}
	if req.Country != nil {
		company.Country = *req.Country
	}
	if req.BankAccounts != nil {
		company.BankAccounts = *req.BankAccounts
	}
	if req.IsActive != nil {
		company.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, *company); err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	return company, nil
}

// Get fetches one company.
func (s *Service) Get(ctx context.Context, id int64) (*Company, error) {
	return s.repo.Get(ctx, id)
}

// List pages companies.
func (s *Service) List(ctx context.Context, search string, isActive *bool, limit, offset int) ([]Company, int, error) {
	return s.repo.List(ctx, search, isActive, limit, offset)
}
