package customers

import (
	"context"
	"errors"
	"fmt"
)

// Service wraps customer business rules.
type Service struct {
	repo Repository
}

// NewService constructs the Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create inserts a customer. Code and primary email must be unique within the
// company; the same values under another company are accepted.
func (s *Service) Create(ctx context.Context, companyID int64, req CreateCustomerRequest, createdBy int64) (*Customer, error) {
	existing, err := s.repo.GetByCode(ctx, companyID, req.Code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing customer: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateCode
	}
	if req.Email != nil && *req.Email != "" {
		taken, err := s.repo.EmailExists(ctx, companyID, *req.Email, 0)
		if err != nil {
			return nil, fmt.Errorf("check customer email: %w", err)
		}
		if taken {
			return nil, ErrDuplicateEmail
		}
	}

	customer := Customer{
		CompanyID:        companyID,
		Code:             req.Code,
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		TaxID:            req.TaxID,
		CategoryID:       req.CategoryID,
		CreditLimit:      req.CreditLimit,
		PaymentTermsDays: req.PaymentTermsDays,
		Rating:           req.Rating,
		AddressLine1:     req.AddressLine1,
		AddressLine2:     req.AddressLine2,
		City:             req.City,
		Country:          req.Country,
		IsActive:         true,
		Notes:            req.Notes,
		CreatedBy:        createdBy,
	}
	id, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	customer.ID = id
	return &customer, nil
}

// Update applies a partial update within the caller's company.
func (s *Service) Update(ctx context.Context, companyID, id int64, req UpdateCustomerRequest) (*Customer, error) {
	customer, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != "" {
		taken, err := s.repo.EmailExists(ctx, companyID, *req.Email, id)
		if err != nil {
			return nil, fmt.Errorf("check customer email: %w", err)
		}
		if taken {
			return nil, ErrDuplicateEmail
		}
	}

	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.Email != nil {
		customer.Email = req.Email
	}
	if req.Phone != nil {
		customer.Phone = req.Phone
	}
	if req.TaxID != nil {
		customer.TaxID = req.TaxID
	}
	if req.CategoryID != nil {
		customer.CategoryID = req.CategoryID
	}
	if req.CreditLimit != nil {
		customer.CreditLimit = *req.CreditLimit
	}
	if req.PaymentTermsDays != nil {
		customer.PaymentTermsDays = *req.PaymentTermsDays
	}
	if req.Rating != nil {
		customer.Rating = *req.Rating
	}
	if req.AddressLine1 != nil {
		customer.AddressLine1 = req.AddressLine1
	}
	if req.AddressLine2 != nil {
		customer.AddressLine2 = req.AddressLine2
	}
	if req.City != nil {
		customer.City = req.City
	}
	if req.Country != nil {
		customer.Country = *req.Country
	}
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}
	if req.Notes != nil {
		customer.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, *customer); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return customer, nil
}

// Get fetches one customer scoped to the company.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*Customer, error) {
	return s.repo.Get(ctx, companyID, id)
}

// List pages customers.
func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	return s.repo.List(ctx, req)
}

// SuggestCode proposes the next customer code for form pre-fill.
func (s *Service) SuggestCode(ctx context.Context, companyID int64) (string, error) {
	return s.repo.NextCode(ctx, companyID)
}
