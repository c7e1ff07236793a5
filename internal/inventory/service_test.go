package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryStockRepo struct {
	balances  map[string]Balance
	movements []Movement
	nextID    int64
}

func newMemoryStockRepo() *memoryStockRepo {
	return &memoryStockRepo{balances: make(map[string]Balance)}
}

func balanceKey(companyID int64, itemCode string) string {
	return fmt.Sprintf("%d/%s", companyID, itemCode)
}

func (r *memoryStockRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryStockTx{repo: r})
}

func (r *memoryStockRepo) GetBalance(ctx context.Context, companyID int64, itemCode string) (Balance, error) {
	b, ok := r.balances[balanceKey(companyID, itemCode)]
	if !ok {
		return Balance{}, ErrNotFound
	}
	return b, nil
}

func (r *memoryStockRepo) ListBalances(ctx context.Context, companyID int64, search string, limit, offset int) ([]Balance, int, error) {
	var out []Balance
	for _, b := range r.balances {
		if b.CompanyID == companyID {
			out = append(out, b)
		}
	}
	return out, len(out), nil
}

func (r *memoryStockRepo) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, int, error) {
	var out []Movement
	for _, m := range r.movements {
		if m.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

type memoryStockTx struct {
	repo *memoryStockRepo
}

func (t *memoryStockTx) GetBalanceForUpdate(ctx context.Context, companyID int64, itemCode string) (Balance, error) {
	b, ok := t.repo.balances[balanceKey(companyID, itemCode)]
	if !ok {
		return Balance{CompanyID: companyID, ItemCode: itemCode}, nil
	}
	return b, nil
}

func (t *memoryStockTx) SaveBalance(ctx context.Context, balance Balance) error {
	t.repo.balances[balanceKey(balance.CompanyID, balance.ItemCode)] = balance
	return nil
}

func (t *memoryStockTx) InsertMovement(ctx context.Context, movement Movement) (int64, error) {
	t.repo.nextID++
	movement.ID = t.repo.nextID
	t.repo.movements = append(t.repo.movements, movement)
	return movement.ID, nil
}

func TestPostInboundUpdatesWeightedAvgCost(t *testing.T) {
	repo := newMemoryStockRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.PostInbound(ctx, InboundInput{CompanyID: 1, ItemCode: "FAB-001", Qty: 100, UnitCost: 10, ActorID: 1})
	require.NoError(t, err)
	_, err = svc.PostInbound(ctx, InboundInput{CompanyID: 1, ItemCode: "FAB-001", Qty: 100, UnitCost: 20, ActorID: 1})
	require.NoError(t, err)

	b, err := svc.GetBalance(ctx, 1, "FAB-001")
	require.NoError(t, err)
	require.InDelta(t, 200.0, b.OnHand, 1e-9)
	require.InDelta(t, 15.0, b.AvgCost, 1e-9)
}

func TestReserveRequiresAvailableStock(t *testing.T) {
	repo := newMemoryStockRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.PostInbound(ctx, InboundInput{CompanyID: 1, ItemCode: "FAB-001", Qty: 10, UnitCost: 5, ActorID: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Reserve(ctx, ReservationInput{CompanyID: 1, ItemCode: "FAB-001", Qty: 8, RefID: "SO-1"}))

	err = svc.Reserve(ctx, ReservationInput{CompanyID: 1, ItemCode: "FAB-001", Qty: 3, RefID: "SO-2"})
	require.ErrorIs(t, err, ErrInsufficientStock)

	b, err := svc.GetBalance(ctx, 1, "FAB-001")
	require.NoError(t, err)
	require.InDelta(t, 8.0, b.Reserved, 1e-9)
	require.InDelta(t, 2.0, b.Available(), 1e-9)
}

func TestReleaseCannotExceedReservation(t *testing.T) {
	repo := newMemoryStockRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.PostInbound(ctx, InboundInput{CompanyID: 1, ItemCode: "FAB-001", Qty: 10, UnitCost: 5, ActorID: 1})
	require.NoError(t, err)
	require.NoError(t, svc.Reserve(ctx, ReservationInput{CompanyID: 1, ItemCode: "FAB-001", Qty: 4, RefID: "SO-1"}))

	err = svc.Release(ctx, ReservationInput{CompanyID: 1, ItemCode: "FAB-001", Qty: 5, RefID: "SO-1"})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	require.NoError(t, svc.Release(ctx, ReservationInput{CompanyID: 1, ItemCode: "FAB-001", Qty: 4, RefID: "SO-1"}))
	b, _ := svc.GetBalance(ctx, 1, "FAB-001")
	require.Zero(t, b.Reserved)
}

func TestDeductGuardsNegativeStock(t *testing.T) {
	repo := newMemoryStockRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.PostInbound(ctx, InboundInput{CompanyID: 1, ItemCode: "FAB-001", Qty: 5, UnitCost: 5, ActorID: 1})
	require.NoError(t, err)

	_, err = svc.Deduct(ctx, DeductInput{CompanyID: 1, ItemCode: "FAB-001", Qty: 6, RefID: "SO-1"})
	require.ErrorIs(t, err, ErrNegativeStock)

	movement, err := svc.Deduct(ctx, DeductInput{CompanyID: 1, ItemCode: "FAB-001", Qty: 5, RefModule: "sales", RefID: "SO-1"})
	require.NoError(t, err)
	require.Equal(t, MovementOut, movement.Type)

	b, _ := svc.GetBalance(ctx, 1, "FAB-001")
	require.Zero(t, b.OnHand)
}

func TestAdjustmentRejectsNegativeResult(t *testing.T) {
	repo := newMemoryStockRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.PostAdjustment(ctx, AdjustmentInput{CompanyID: 1, ItemCode: "FAB-001", Qty: -2, ActorID: 1})
	require.ErrorIs(t, err, ErrNegativeStock)

	_, err = svc.PostAdjustment(ctx, AdjustmentInput{CompanyID: 1, ItemCode: "FAB-001", Qty: 0, ActorID: 1})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestTransferKeepsCompanyQuantity(t *testing.T) {
	repo := newMemoryStockRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.PostInbound(ctx, InboundInput{CompanyID: 1, ItemCode: "FAB-001", Qty: 10, UnitCost: 5, ActorID: 1})
	require.NoError(t, err)

	movement, err := svc.PostTransfer(ctx, TransferInput{
		CompanyID: 1, ItemCode: "FAB-001", Qty: 4,
		FromLocation: "warehouse-a", ToLocation: "warehouse-b", ActorID: 1,
	})
	require.NoError(t, err)
	require.Equal(t, MovementTransfer, movement.Type)

	b, _ := svc.GetBalance(ctx, 1, "FAB-001")
	require.InDelta(t, 10.0, b.OnHand, 1e-9)

	_, err = svc.PostTransfer(ctx, TransferInput{
		CompanyID: 1, ItemCode: "FAB-001", Qty: 4,
		FromLocation: "warehouse-a", ToLocation: "warehouse-a", ActorID: 1,
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}
