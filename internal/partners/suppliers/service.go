package suppliers

import (
	"context"
	"errors"
	"fmt"
)

// Service wraps supplier business rules.
type Service struct {
	repo Repository
}

// NewService constructs the Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create inserts a supplier. Code must be unique within the company.
func (s *Service) Create(ctx context.Context, companyID int64, req CreateSupplierRequest, createdBy int64) (*Supplier, error) {
	existing, err := s.repo.GetByCode(ctx, companyID, req.Code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing supplier: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateCode
	}

	supplier := Supplier{
		CompanyID:        companyID,
		Code:             req.Code,
		Name:             req.Name,
		ContactPerson:    req.ContactPerson,
		Email:            req.Email,
		Phone:            req.Phone,
		TaxID:            req.TaxID,
		CategoryID:       req.CategoryID,
		PaymentTermsDays: req.PaymentTermsDays,
		BankName:         req.BankName,
		BankAccountNo:    req.BankAccountNo,
		AddressLine1:     req.AddressLine1,
		City:             req.City,
		Country:          req.Country,
		IsActive:         true,
		Notes:            req.Notes,
		CreatedBy:        createdBy,
	}
	id, err := s.repo.Create(ctx, supplier)
	if err != nil {
		return nil, fmt.Errorf("create supplier: %w", err)
	}
	supplier.ID = id
	return &supplier, nil
}

// Update applies a partial update within the caller's company.
func (s *Service) Update(ctx context.Context, companyID, id int64, req UpdateSupplierRequest) (*Supplier, error) {
	supplier, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		supplier.Name = *req.Name
	}
	if req.ContactPerson != nil {
		supplier.ContactPerson = req.ContactPerson
	}
	if req.Email != nil {
		supplier.Email = req.Email
	}
	if req.Phone != nil {
		supplier.Phone = req.Phone
	}
	if req.TaxID != nil {
		supplier.TaxID = req.TaxID
	}
	if req.CategoryID != nil {
		supplier.CategoryID = req.CategoryID
	}
	if req.PaymentTermsDays != nil {
		supplier.PaymentTermsDays = *req.PaymentTermsDays
	}
	if req.BankName != nil {
		supplier.BankName = req.BankName
	}
	if req.BankAccountNo != nil {
		supplier.BankAccountNo = req.BankAccountNo
	}
	if req.AddressLine1 != nil {
		supplier.AddressLine1 = req.AddressLine1
	}
	if req.City != nil {
		supplier.City = req.City
	}
	if req.Country != nil {
		supplier.Country = *req.Country
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}
	if req.Notes != nil {
		supplier.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, *supplier); err != nil {
		return nil, fmt.Errorf("update supplier: %w", err)
	}
	return supplier, nil
}

// Get fetches one supplier scoped to the company.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*Supplier, error) {
	return s.repo.Get(ctx, companyID, id)
}

// List pages suppliers.
func (s *Service) List(ctx context.Context, req ListSuppliersRequest) ([]Supplier, int, error) {
	return s.repo.List(ctx, req)
}

// SuggestCode proposes the next supplier code for form pre-fill.
func (s *Service) SuggestCode(ctx context.Context, companyID int64) (string, error) {
	return s.repo.NextCode(ctx, companyID)
}
