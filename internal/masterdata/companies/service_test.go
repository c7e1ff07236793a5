package companies

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryCompanyRepo struct {
	nextID    int64
	companies map[int64]Company
}

func newMemoryCompanyRepo() *memoryCompanyRepo {
	return &memoryCompanyRepo{nextID: 1, companies: map[int64]Company{}}
}

func (m *memoryCompanyRepo) Get(_ context.Context, id int64) (*Company, error) {
	c, ok := m.companies[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := c
	return &out, nil
}

func (m *memoryCompanyRepo) GetByCode(_ context.Context, code string) (*Company, error) {
	for _, c := range m.companies {
		if c.Code == code {
			out := c
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryCompanyRepo) List(_ context.Context, search string, isActive *bool, limit, offset int) ([]Company, int, error) {
	var out []Company
	for _, c := range m.companies {
		if search != "" && !strings.Contains(c.Code, search) && !strings.Contains(c.Name, search) {
			continue
		}
		if isActive != nil && c.IsActive != *isActive {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *memoryCompanyRepo) Create(_ context.Context, company Company) (int64, error) {
	company.ID = m.nextID
	m.nextID++
	m.companies[company.ID] = company
	return company.ID, nil
}

func (m *memoryCompanyRepo) Update(_ context.Context, company Company) error {
	if _, ok := m.companies[company.ID]; !ok {
		return ErrNotFound
	}
	m.companies[company.ID] = company
	return nil
}

func TestCreateCompany(t *testing.T) {
	svc := NewService(newMemoryCompanyRepo())

	c, err := svc.Create(context.Background(), CreateCompanyRequest{
		Code: "NTM", Name: "Noor Textile Mills", Country: "PK",
		BankAccounts: []BankAccount{{BankName: "HBL", AccountNumber: "0011223344", AccountTitle: "Noor Textile Mills"}},
	})
	require.NoError(t, err)
	require.NotZero(t, c.ID)
	require.True(t, c.IsActive)
	require.Len(t, c.BankAccounts, 1)
}

func TestDuplicateCompanyCodeRejected(t *testing.T) {
	svc := NewService(newMemoryCompanyRepo())

	_, err := svc.Create(context.Background(), CreateCompanyRequest{Code: "NTM", Name: "Noor Textile Mills", Country: "PK"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateCompanyRequest{Code: "NTM", Name: "Another Mill", Country: "PK"})
	require.ErrorIs(t, err, ErrDuplicateCode)
}

func TestUpdateCompanyPartialFields(t *testing.T) {
	svc := NewService(newMemoryCompanyRepo())
	c, err := svc.Create(context.Background(), CreateCompanyRequest{Code: "NTM", Name: "Noor Textile Mills", Country: "PK"})
	require.NoError(t, err)

	phone := "+92-42-1234567"
	inactive := false
	got, err := svc.Update(context.Background(), c.ID, UpdateCompanyRequest{
		Phone: &phone, IsActive: &inactive,
	})
	require.NoError(t, err)
	require.Equal(t, phone, got.Phone)
	require.False(t, got.IsActive)
	// Untouched fields survive.
	require.Equal(t, "Noor Textile Mills", got.Name)
	require.Equal(t, "NTM", got.Code)
}

func TestUpdateMissingCompany(t *testing.T) {
	svc := NewService(newMemoryCompanyRepo())

	name := "Ghost Mills"
	_, err := svc.Update(context.Background(), 99, UpdateCompanyRequest{Name: &name})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersByActive(t *testing.T) {
	svc := NewService(newMemoryCompanyRepo())
	a, err := svc.Create(context.Background(), CreateCompanyRequest{Code: "NTM", Name: "Noor Textile Mills", Country: "PK"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateCompanyRequest{Code: "ATM", Name: "Arain Textile Mills", Country: "PK"})
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(context.Background(), a.ID, UpdateCompanyRequest{IsActive: &inactive})
	require.NoError(t, err)

	active := true
	got, total, err := svc.List(context.Background(), "", &active, 20, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "ATM", got[0].Code)
}
