package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/texfab-erp/texfab-erp/internal/sales/orders"
	"github.com/texfab-erp/texfab-erp/internal/workflow"
)

type memoryInvoiceRepo struct {
	nextID   int64
	invoices map[int64]*Invoice
}

func newMemoryInvoiceRepo() *memoryInvoiceRepo {
	return &memoryInvoiceRepo{nextID: 1, invoices: map[int64]*Invoice{}}
}

func (m *memoryInvoiceRepo) Get(_ context.Context, companyID, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok || inv.CompanyID != companyID {
		return nil, ErrNotFound
	}
	out := *inv
	out.Lines = append([]InvoiceLine(nil), inv.Lines...)
	out.Payments = append([]Payment(nil), inv.Payments...)
	return &out, nil
}

func (m *memoryInvoiceRepo) List(_ context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		if inv.CompanyID == req.CompanyID {
			out = append(out, *inv)
		}
	}
	return out, len(out), nil
}

func (m *memoryInvoiceRepo) Create(_ context.Context, invoice Invoice) (int64, error) {
	invoice.ID = m.nextID
	m.nextID++
	m.invoices[invoice.ID] = &invoice
	return invoice.ID, nil
}

func (m *memoryInvoiceRepo) UpdateStatus(_ context.Context, companyID, id int64, from, to Status) error {
	inv, ok := m.invoices[id]
	if !ok || inv.CompanyID != companyID || inv.Status != from {
		return ErrNotFound
	}
	inv.Status = to
	if to == StatusIssued {
		now := time.Now()
		inv.IssueDate = &now
	}
	return nil
}

func (m *memoryInvoiceRepo) RecordPayment(_ context.Context, companyID int64, payment Payment, newStatus, fromStatus Status) (int64, error) {
	inv, ok := m.invoices[payment.InvoiceID]
	if !ok || inv.CompanyID != companyID || inv.Status != fromStatus {
		return 0, ErrNotFound
	}
	if inv.AmountPaid.Add(payment.Amount).GreaterThan(inv.Total) {
		return 0, ErrOverpayment
	}
	payment.ID = m.nextID
	m.nextID++
	inv.AmountPaid = inv.AmountPaid.Add(payment.Amount)
	inv.Status = newStatus
	inv.Payments = append(inv.Payments, payment)
	return payment.ID, nil
}

func (m *memoryInvoiceRepo) NextInvoiceNo(_ context.Context, companyID int64) (string, error) {
	return fmt.Sprintf("INV-%06d", m.nextID), nil
}

type fakeSales struct {
	orders map[int64]*orders.SalesOrder
}

func (f *fakeSales) Get(_ context.Context, companyID, id int64) (*orders.SalesOrder, error) {
	o, ok := f.orders[id]
	if !ok || o.CompanyID != companyID {
		return nil, orders.ErrNotFound
	}
	return o, nil
}

func newTestService(t *testing.T) (*Service, *memoryInvoiceRepo) {
	t.Helper()
	repo := newMemoryInvoiceRepo()
	sales := &fakeSales{orders: map[int64]*orders.SalesOrder{
		42: {
			ID: 42, CompanyID: 1, CustomerID: 7, Currency: "USD",
			Status: orders.StatusDispatched,
			Lines: []orders.SalesOrderLine{
				{ItemCode: "FAB-GREY", Qty: 5, Unit: "m", UnitPrice: 12.5},
				{ItemCode: "FAB-DYED", Qty: 3, Unit: "m", UnitPrice: 20},
			},
		},
	}}
	return NewService(repo, sales, nil, nil), repo
}

func issuedInvoice(t *testing.T, svc *Service) *Invoice {
	t.Helper()
	inv, err := svc.CreateFromSalesOrder(context.Background(), 1, CreateInvoiceRequest{
		SalesOrderID: 42,
		TaxRate:      decimal.RequireFromString("0.17"),
	}, 10)
	require.NoError(t, err)
	inv, err = svc.Transition(context.Background(), 1, inv.ID, StatusIssued, 10)
	require.NoError(t, err)
	return inv
}

func TestCreateFromSalesOrderComputesDecimalTotals(t *testing.T) {
	svc, _ := newTestService(t)

	inv, err := svc.CreateFromSalesOrder(context.Background(), 1, CreateInvoiceRequest{
		SalesOrderID: 42,
		TaxRate:      decimal.RequireFromString("0.17"),
	}, 10)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, inv.Status)
	require.Equal(t, int64(7), inv.CustomerID)
	require.Equal(t, "USD", inv.Currency)

	// 5*12.50 + 3*20 = 122.50; tax 17% = 20.83 (rounded); total 143.33
	require.True(t, inv.Subtotal.Equal(decimal.RequireFromString("122.50")), inv.Subtotal.String())
	require.True(t, inv.TaxAmount.Equal(decimal.RequireFromString("20.83")), inv.TaxAmount.String())
	require.True(t, inv.Total.Equal(decimal.RequireFromString("143.33")), inv.Total.String())
}

func TestUndispatchedOrderNotInvoiceable(t *testing.T) {
	for _, status := range []orders.Status{orders.StatusDraft, orders.StatusConfirmed, orders.StatusCancelled} {
		repo := newMemoryInvoiceRepo()
		sales := &fakeSales{orders: map[int64]*orders.SalesOrder{
			42: {
				ID: 42, CompanyID: 1, CustomerID: 7, Currency: "USD",
				Status: status,
				Lines: []orders.SalesOrderLine{
					{ItemCode: "FAB-GREY", Qty: 5, Unit: "m", UnitPrice: 12.5},
				},
			},
		}}
		svc := NewService(repo, sales, nil, nil)

		_, err := svc.CreateFromSalesOrder(context.Background(), 1, CreateInvoiceRequest{
			SalesOrderID: 42,
			TaxRate:      decimal.RequireFromString("0.17"),
		}, 10)
		require.ErrorIs(t, err, ErrOrderNotInvoiceable, string(status))
	}
}

func TestDeliveredOrderInvoiceable(t *testing.T) {
	svc, _ := newTestService(t)
	svc.sales.(*fakeSales).orders[42].Status = orders.StatusDelivered

	inv, err := svc.CreateFromSalesOrder(context.Background(), 1, CreateInvoiceRequest{
		SalesOrderID: 42,
		TaxRate:      decimal.Zero,
	}, 10)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, inv.Status)
}

func TestPaymentDrivenStatusNotRequestable(t *testing.T) {
	svc, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.Transition(context.Background(), 1, inv.ID, StatusPaid, 10)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestPartialThenFullPayment(t *testing.T) {
	svc, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	inv, err := svc.RecordPayment(context.Background(), 1, inv.ID, PaymentRequest{
		Amount: decimal.RequireFromString("100.00"), Method: "bank_transfer",
	}, 12)
	require.NoError(t, err)
	require.Equal(t, StatusPartiallyPaid, inv.Status)
	require.True(t, inv.Outstanding().Equal(decimal.RequireFromString("43.33")))

	inv, err = svc.RecordPayment(context.Background(), 1, inv.ID, PaymentRequest{
		Amount: decimal.RequireFromString("43.33"), Method: "cash",
	}, 12)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, inv.Status)
	require.True(t, inv.Outstanding().IsZero())
	require.Len(t, inv.Payments, 2)
}

func TestOverpaymentRejected(t *testing.T) {
	svc, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.RecordPayment(context.Background(), 1, inv.ID, PaymentRequest{
		Amount: decimal.RequireFromString("200.00"), Method: "cash",
	}, 12)
	require.ErrorIs(t, err, ErrOverpayment)
}

func TestPaymentRequiresIssuedInvoice(t *testing.T) {
	svc, _ := newTestService(t)

	inv, err := svc.CreateFromSalesOrder(context.Background(), 1, CreateInvoiceRequest{
		SalesOrderID: 42, TaxRate: decimal.Zero,
	}, 10)
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), 1, inv.ID, PaymentRequest{
		Amount: decimal.RequireFromString("10.00"), Method: "cash",
	}, 12)
	require.ErrorIs(t, err, ErrNotPayable)
}

func TestVoidOnlyBeforePayment(t *testing.T) {
	svc, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.RecordPayment(context.Background(), 1, inv.ID, PaymentRequest{
		Amount: decimal.RequireFromString("1.00"), Method: "cash",
	}, 12)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), 1, inv.ID, StatusVoid, 10)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestNonPositivePaymentRejected(t *testing.T) {
	svc, _ := newTestService(t)
	inv := issuedInvoice(t, svc)

	_, err := svc.RecordPayment(context.Background(), 1, inv.ID, PaymentRequest{
		Amount: decimal.Zero, Method: "cash",
	}, 12)
	require.ErrorIs(t, err, ErrInvalidAmount)
}
