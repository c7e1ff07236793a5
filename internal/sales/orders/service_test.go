package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/texfab-erp/texfab-erp/internal/inventory"
	"github.com/texfab-erp/texfab-erp/internal/workflow"
)

type memoryOrderRepo struct {
	nextID int64
	orders map[int64]SalesOrder
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{nextID: 1, orders: map[int64]SalesOrder{}}
}

func (m *memoryOrderRepo) Get(_ context.Context, companyID, id int64) (*SalesOrder, error) {
	o, ok := m.orders[id]
	if !ok || o.CompanyID != companyID {
		return nil, ErrNotFound
	}
	out := o
	return &out, nil
}

func (m *memoryOrderRepo) List(_ context.Context, req ListOrdersRequest) ([]SalesOrder, int, error) {
	var out []SalesOrder
	for _, o := range m.orders {
		if o.CompanyID == req.CompanyID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (m *memoryOrderRepo) Create(_ context.Context, order SalesOrder) (int64, error) {
	order.ID = m.nextID
	m.nextID++
	m.orders[order.ID] = order
	return order.ID, nil
}

func (m *memoryOrderRepo) ReplaceDraft(_ context.Context, order SalesOrder) error {
	existing, ok := m.orders[order.ID]
	if !ok || existing.CompanyID != order.CompanyID || existing.Status != StatusDraft {
		return ErrNotFound
	}
	m.orders[order.ID] = order
	return nil
}

func (m *memoryOrderRepo) UpdateStatus(_ context.Context, companyID, id int64, from, to Status) error {
	o, ok := m.orders[id]
	if !ok || o.CompanyID != companyID || o.Status != from {
		return ErrNotFound
	}
	o.Status = to
	m.orders[id] = o
	return nil
}

func (m *memoryOrderRepo) NextOrderNo(_ context.Context, companyID int64) (string, error) {
	return fmt.Sprintf("SO-%06d", m.nextID), nil
}

// fakeStock tracks reservations and OUT movements per item.
type fakeStock struct {
	reserved map[string]float64
	onHand   map[string]float64
	outMoves []inventory.Movement
}

func newFakeStock() *fakeStock {
	return &fakeStock{reserved: map[string]float64{}, onHand: map[string]float64{}}
}

func (f *fakeStock) Reserve(_ context.Context, in inventory.ReservationInput) error {
	if f.onHand[in.ItemCode]-f.reserved[in.ItemCode] < in.Qty {
		return inventory.ErrInsufficientStock
	}
	f.reserved[in.ItemCode] += in.Qty
	return nil
}

func (f *fakeStock) Release(_ context.Context, in inventory.ReservationInput) error {
	if f.reserved[in.ItemCode] < in.Qty {
		return inventory.ErrInvalidQuantity
	}
	f.reserved[in.ItemCode] -= in.Qty
	return nil
}

func (f *fakeStock) Deduct(_ context.Context, in inventory.DeductInput) (inventory.Movement, error) {
	if f.onHand[in.ItemCode] < in.Qty {
		return inventory.Movement{}, inventory.ErrNegativeStock
	}
	f.onHand[in.ItemCode] -= in.Qty
	mv := inventory.Movement{
		CompanyID: in.CompanyID,
		ItemCode:  in.ItemCode,
		Type:      inventory.MovementOut,
		Qty:       in.Qty,
		RefModule: in.RefModule,
		RefID:     in.RefID,
	}
	f.outMoves = append(f.outMoves, mv)
	return mv, nil
}

func newTestService(t *testing.T) (*Service, *memoryOrderRepo, *fakeStock) {
	t.Helper()
	repo := newMemoryOrderRepo()
	stock := newFakeStock()
	return NewService(repo, stock, nil, nil), repo, stock
}

func twoLineOrder() CreateOrderRequest {
	return CreateOrderRequest{
		CustomerID: 7,
		OrderDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Currency:   "USD",
		Lines: []OrderLineRequest{
			{ItemCode: "FAB-GREY", MaterialSource: SourceOwnStock, Qty: 5, Unit: "m", UnitPrice: 12},
			{ItemCode: "FAB-DYED", MaterialSource: SourceOwnStock, Qty: 3, Unit: "m", UnitPrice: 20},
		},
	}
}

func advance(t *testing.T, svc *Service, id int64, targets ...Status) {
	t.Helper()
	for _, target := range targets {
		_, err := svc.Transition(context.Background(), 1, id, target, 10)
		require.NoError(t, err)
	}
}

func TestCreateComputesTotals(t *testing.T) {
	svc, _, _ := newTestService(t)

	order, err := svc.Create(context.Background(), 1, twoLineOrder(), 10)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, order.Status)
	require.Equal(t, float64(5*12+3*20), order.TotalAmount)
	require.Len(t, order.Lines, 2)
	require.Equal(t, float64(60), order.Lines[0].LineTotal)
}

func TestConfirmReservesOwnStockOnly(t *testing.T) {
	svc, _, stock := newTestService(t)
	stock.onHand["FAB-GREY"] = 100

	req := CreateOrderRequest{
		CustomerID: 7,
		OrderDate:  time.Now(),
		Currency:   "USD",
		Lines: []OrderLineRequest{
			{ItemCode: "FAB-GREY", MaterialSource: SourceOwnStock, Qty: 5, Unit: "m", UnitPrice: 12},
			{ItemCode: "CUST-FAB", MaterialSource: SourceCustomerMaterial, Qty: 40, Unit: "m", UnitPrice: 0},
		},
	}
	order, err := svc.Create(context.Background(), 1, req, 10)
	require.NoError(t, err)

	advance(t, svc, order.ID, StatusConfirmed)
	require.Equal(t, float64(5), stock.reserved["FAB-GREY"])
	require.Zero(t, stock.reserved["CUST-FAB"])
}

func TestConfirmFailsOnInsufficientStock(t *testing.T) {
	svc, repo, stock := newTestService(t)
	stock.onHand["FAB-GREY"] = 3

	order, err := svc.Create(context.Background(), 1, twoLineOrder(), 10)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), 1, order.ID, StatusConfirmed, 10)
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)

	stored, err := repo.Get(context.Background(), 1, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, stored.Status)
}

func TestDispatchDeductsFullQuantityAndClearsReservation(t *testing.T) {
	svc, _, stock := newTestService(t)
	stock.onHand["FAB-GREY"] = 100
	stock.onHand["FAB-DYED"] = 50

	order, err := svc.Create(context.Background(), 1, twoLineOrder(), 10)
	require.NoError(t, err)

	advance(t, svc, order.ID,
		StatusConfirmed, StatusInProduction, StatusQualityCheck, StatusReadyForDispatch, StatusDispatched)

	var deducted float64
	for _, mv := range stock.outMoves {
		require.Equal(t, inventory.MovementOut, mv.Type)
		deducted += mv.Qty
	}
	require.Equal(t, float64(8), deducted)
	require.Len(t, stock.outMoves, 2)
	require.Zero(t, stock.reserved["FAB-GREY"])
	require.Zero(t, stock.reserved["FAB-DYED"])
	require.Equal(t, float64(95), stock.onHand["FAB-GREY"])
	require.Equal(t, float64(47), stock.onHand["FAB-DYED"])
}

func TestCancelReleasesReservation(t *testing.T) {
	svc, repo, stock := newTestService(t)
	stock.onHand["FAB-GREY"] = 100
	stock.onHand["FAB-DYED"] = 50

	order, err := svc.Create(context.Background(), 1, twoLineOrder(), 10)
	require.NoError(t, err)

	advance(t, svc, order.ID, StatusConfirmed, StatusCancelled)
	require.Zero(t, stock.reserved["FAB-GREY"])
	require.Zero(t, stock.reserved["FAB-DYED"])

	stored, err := repo.Get(context.Background(), 1, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, stored.Status)
}

func TestCancelFromDraftTouchesNoStock(t *testing.T) {
	svc, _, stock := newTestService(t)

	order, err := svc.Create(context.Background(), 1, twoLineOrder(), 10)
	require.NoError(t, err)

	advance(t, svc, order.ID, StatusCancelled)
	require.Empty(t, stock.reserved)
	require.Empty(t, stock.outMoves)
}

func TestIllegalTransitionRejected(t *testing.T) {
	svc, _, _ := newTestService(t)

	order, err := svc.Create(context.Background(), 1, twoLineOrder(), 10)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), 1, order.ID, StatusDispatched, 10)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)

	_, err = svc.Transition(context.Background(), 1, order.ID, StatusDelivered, 10)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestDraftEditLockedAfterConfirm(t *testing.T) {
	svc, _, stock := newTestService(t)
	stock.onHand["FAB-GREY"] = 100
	stock.onHand["FAB-DYED"] = 50

	order, err := svc.Create(context.Background(), 1, twoLineOrder(), 10)
	require.NoError(t, err)
	advance(t, svc, order.ID, StatusConfirmed)

	_, err = svc.UpdateDraft(context.Background(), 1, order.ID, UpdateDraftRequest{
		Lines: []OrderLineRequest{{ItemCode: "FAB-GREY", MaterialSource: SourceOwnStock, Qty: 1, Unit: "m", UnitPrice: 1}},
	}, 10)
	require.ErrorIs(t, err, ErrLineNotEditable)
}
