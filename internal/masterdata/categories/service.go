package categories

import (
	"context"
	"errors"
	"fmt"
)

// Service wraps category business rules.
type Service struct {
	repo Repository
}

// NewService constructs the Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create inserts a category, rejecting duplicate codes within the company
// and kind. The same code under another company is fine.
func (s *Service) Create(ctx context.Context, companyID int64, req CreateCategoryRequest) (*Category, error) {
	existing, err := s.repo.GetByCode(ctx, companyID, req.Kind, req.Code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing category: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateCode
	}

	category := Category{
		CompanyID:   companyID,
		Code:        req.Code,
		Name:        req.Name,
		Kind:        req.Kind,
		Description: req.Description,
		IsActive:    true,
	}
	id, err := s.repo.Create(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	category.ID = id
	return &category, nil
}

// Update applies a partial update within the caller's company.
func (s *Service) Update(ctx context.Context, companyID, id int64, req UpdateCategoryRequest) (*Category, error) {
	category, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, *category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

// Get fetches one category scoped to the company.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*Category, error) {
	return s.repo.Get(ctx, companyID, id)
}

// List pages categories scoped to the company.
func (s *Service) List(ctx context.Context, companyID int64, kind Kind, search string, limit, offset int) ([]Category, int, error) {
	return s.repo.List(ctx, companyID, kind, search, limit, offset)
}
