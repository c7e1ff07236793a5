package procurement

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/texfab-erp/texfab-erp/internal/inventory"
	"github.com/texfab-erp/texfab-erp/internal/shared"
	"github.com/texfab-erp/texfab-erp/internal/workflow"
)

type memoryPORepo struct {
	nextID     int64
	nextLineID int64
	orders     map[int64]PurchaseOrder
}

func newMemoryPORepo() *memoryPORepo {
	return &memoryPORepo{nextID: 1, nextLineID: 1, orders: map[int64]PurchaseOrder{}}
}

func (m *memoryPORepo) Get(_ context.Context, companyID, id int64) (*PurchaseOrder, error) {
	o, ok := m.orders[id]
	if !ok || o.CompanyID != companyID {
		return nil, ErrNotFound
	}
	out := o
	out.Lines = append([]PurchaseOrderLine(nil), o.Lines...)
	return &out, nil
}

func (m *memoryPORepo) List(_ context.Context, req ListOrdersRequest) ([]PurchaseOrder, int, error) {
	var out []PurchaseOrder
	for _, o := range m.orders {
		if o.CompanyID == req.CompanyID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (m *memoryPORepo) Create(_ context.Context, order PurchaseOrder) (int64, error) {
	order.ID = m.nextID
	m.nextID++
	for i := range order.Lines {
		order.Lines[i].ID = m.nextLineID
		order.Lines[i].OrderID = order.ID
		m.nextLineID++
	}
	m.orders[order.ID] = order
	return order.ID, nil
}

func (m *memoryPORepo) ReplaceDraft(_ context.Context, order PurchaseOrder) error {
	existing, ok := m.orders[order.ID]
	if !ok || existing.CompanyID != order.CompanyID || existing.Status != StatusDraft {
		return ErrNotFound
	}
	for i := range order.Lines {
		if order.Lines[i].ID == 0 {
			order.Lines[i].ID = m.nextLineID
			order.Lines[i].OrderID = order.ID
			m.nextLineID++
		}
	}
	m.orders[order.ID] = order
	return nil
}

func (m *memoryPORepo) UpdateStatus(_ context.Context, companyID, id int64, from, to Status, approvedBy *int64) error {
	o, ok := m.orders[id]
	if !ok || o.CompanyID != companyID || o.Status != from {
		return ErrNotFound
	}
	o.Status = to
	if approvedBy != nil {
		o.ApprovedBy = approvedBy
	}
	m.orders[id] = o
	return nil
}

func (m *memoryPORepo) AddReceivedQty(_ context.Context, companyID, orderID, lineID int64, qty float64) error {
	o, ok := m.orders[orderID]
	if !ok || o.CompanyID != companyID {
		return ErrNotFound
	}
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			if o.Lines[i].ReceivedQty+qty > o.Lines[i].Qty {
				return ErrOverReceipt
			}
			o.Lines[i].ReceivedQty += qty
			m.orders[orderID] = o
			return nil
		}
	}
	return ErrOverReceipt
}

func (m *memoryPORepo) NextPONo(_ context.Context, companyID int64) (string, error) {
	return fmt.Sprintf("PO-%06d", m.nextID), nil
}

type fakeInbound struct {
	moves []inventory.InboundInput
	fail  bool
}

func (f *fakeInbound) PostInbound(_ context.Context, in inventory.InboundInput) (inventory.Movement, error) {
	if f.fail {
		return inventory.Movement{}, inventory.ErrInvalidQuantity
	}
	f.moves = append(f.moves, in)
	return inventory.Movement{ItemCode: in.ItemCode, Qty: in.Qty, Type: inventory.MovementIn}, nil
}

type memoryIdem struct {
	keys map[string]bool
}

func newMemoryIdem() *memoryIdem { return &memoryIdem{keys: map[string]bool{}} }

func (m *memoryIdem) CheckAndInsert(_ context.Context, key, module string) error {
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memoryIdem) Delete(_ context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryPORepo, *fakeInbound, *memoryIdem) {
	t.Helper()
	repo := newMemoryPORepo()
	stock := &fakeInbound{}
	idem := newMemoryIdem()
	return NewService(repo, stock, nil, idem, nil), repo, stock, idem
}

func samplePO() CreateOrderRequest {
	return CreateOrderRequest{
		SupplierID: 3,
		OrderDate:  time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Currency:   "USD",
		Lines: []OrderLineRequest{
			{ItemCode: "YARN-30S", Qty: 1000, Unit: "kg", UnitCost: 2.5},
			{ItemCode: "DYE-RED", Qty: 50, Unit: "kg", UnitCost: 18},
		},
	}
}

func orderedPO(t *testing.T, svc *Service) *PurchaseOrder {
	t.Helper()
	order, err := svc.Create(context.Background(), 1, samplePO(), 10)
	require.NoError(t, err)
	for _, target := range []Status{StatusPendingApproval, StatusApproved, StatusOrdered} {
		order, err = svc.Transition(context.Background(), 1, order.ID, target, 11)
		require.NoError(t, err)
	}
	return order
}

func TestApprovalStampsApprover(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	order, err := svc.Create(context.Background(), 1, samplePO(), 10)
	require.NoError(t, err)
	require.Equal(t, float64(1000*2.5+50*18), order.TotalAmount)

	order, err = svc.Transition(context.Background(), 1, order.ID, StatusPendingApproval, 10)
	require.NoError(t, err)
	order, err = svc.Transition(context.Background(), 1, order.ID, StatusApproved, 42)
	require.NoError(t, err)
	require.NotNil(t, order.ApprovedBy)
	require.Equal(t, int64(42), *order.ApprovedBy)
}

func TestReceiptDrivenStatusNotRequestable(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	order, err := svc.Create(context.Background(), 1, samplePO(), 10)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), 1, order.ID, StatusReceived, 10)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
	_, err = svc.Transition(context.Background(), 1, order.ID, StatusOrdered, 10)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestPartialReceiptPostsInboundAndKeepsPOOpen(t *testing.T) {
	svc, _, stock, _ := newTestService(t)
	order := orderedPO(t, svc)

	got, err := svc.PostReceipt(context.Background(), 1, order.ID, ReceiptRequest{
		ReceiptNo: "GRN-001",
		Location:  "WH-1",
		Lines:     []ReceiptLineRequest{{LineID: order.Lines[0].ID, Qty: 400}},
	}, 12)
	require.NoError(t, err)
	require.Equal(t, StatusPartiallyReceived, got.Status)

	require.Len(t, stock.moves, 1)
	require.Equal(t, "YARN-30S", stock.moves[0].ItemCode)
	require.Equal(t, float64(400), stock.moves[0].Qty)
	require.Equal(t, 2.5, stock.moves[0].UnitCost)
}

func TestFullReceiptClosesPO(t *testing.T) {
	svc, _, stock, _ := newTestService(t)
	order := orderedPO(t, svc)

	got, err := svc.PostReceipt(context.Background(), 1, order.ID, ReceiptRequest{
		ReceiptNo: "GRN-001",
		Lines: []ReceiptLineRequest{
			{LineID: order.Lines[0].ID, Qty: 1000},
			{LineID: order.Lines[1].ID, Qty: 50},
		},
	}, 12)
	require.NoError(t, err)
	require.Equal(t, StatusReceived, got.Status)
	require.Len(t, stock.moves, 2)
}

func TestOverReceiptRejectedBeforeStockMoves(t *testing.T) {
	svc, _, stock, _ := newTestService(t)
	order := orderedPO(t, svc)

	_, err := svc.PostReceipt(context.Background(), 1, order.ID, ReceiptRequest{
		ReceiptNo: "GRN-001",
		Lines:     []ReceiptLineRequest{{LineID: order.Lines[0].ID, Qty: 1200}},
	}, 12)
	require.ErrorIs(t, err, ErrOverReceipt)
	require.Empty(t, stock.moves)
}

func TestDuplicateReceiptNumberRejected(t *testing.T) {
	svc, _, stock, _ := newTestService(t)
	order := orderedPO(t, svc)

	_, err := svc.PostReceipt(context.Background(), 1, order.ID, ReceiptRequest{
		ReceiptNo: "GRN-001",
		Lines:     []ReceiptLineRequest{{LineID: order.Lines[0].ID, Qty: 400}},
	}, 12)
	require.NoError(t, err)

	_, err = svc.PostReceipt(context.Background(), 1, order.ID, ReceiptRequest{
		ReceiptNo: "GRN-001",
		Lines:     []ReceiptLineRequest{{LineID: order.Lines[0].ID, Qty: 400}},
	}, 12)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Len(t, stock.moves, 1)
}

func TestFailedReceiptReleasesIdempotencyKey(t *testing.T) {
	svc, _, stock, idem := newTestService(t)
	order := orderedPO(t, svc)
	stock.fail = true

	_, err := svc.PostReceipt(context.Background(), 1, order.ID, ReceiptRequest{
		ReceiptNo: "GRN-001",
		Lines:     []ReceiptLineRequest{{LineID: order.Lines[0].ID, Qty: 400}},
	}, 12)
	require.Error(t, err)
	require.Empty(t, idem.keys)

	stock.fail = false
	_, err = svc.PostReceipt(context.Background(), 1, order.ID, ReceiptRequest{
		ReceiptNo: "GRN-001",
		Lines:     []ReceiptLineRequest{{LineID: order.Lines[0].ID, Qty: 400}},
	}, 12)
	require.NoError(t, err)
}

func TestReceiptRequiresOpenPO(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	order, err := svc.Create(context.Background(), 1, samplePO(), 10)
	require.NoError(t, err)

	_, err = svc.PostReceipt(context.Background(), 1, order.ID, ReceiptRequest{
		ReceiptNo: "GRN-001",
		Lines:     []ReceiptLineRequest{{LineID: 1, Qty: 10}},
	}, 12)
	require.ErrorIs(t, err, ErrNotReceivable)
}
