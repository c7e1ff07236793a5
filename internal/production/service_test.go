package production

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/texfab-erp/texfab-erp/internal/workflow"
)

// memoryProdRepo implements both RepositoryPort and TxRepository; WithTx just
// invokes the callback against itself.
type memoryProdRepo struct {
	nextID      int64
	nextStageID int64
	orders      map[int64]*ProductionOrder
}

func newMemoryProdRepo() *memoryProdRepo {
	return &memoryProdRepo{nextID: 1, nextStageID: 1, orders: map[int64]*ProductionOrder{}}
}

func (m *memoryProdRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryProdRepo) Get(_ context.Context, companyID, id int64) (*ProductionOrder, error) {
	o, ok := m.orders[id]
	if !ok || o.CompanyID != companyID {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (m *memoryProdRepo) GetForUpdate(ctx context.Context, companyID, id int64) (*ProductionOrder, error) {
	return m.Get(ctx, companyID, id)
}

func (m *memoryProdRepo) List(_ context.Context, req ListOrdersRequest) ([]ProductionOrder, int, error) {
	var out []ProductionOrder
	for _, o := range m.orders {
		if o.CompanyID == req.CompanyID {
			out = append(out, *cloneOrder(o))
		}
	}
	return out, len(out), nil
}

func (m *memoryProdRepo) Create(_ context.Context, order ProductionOrder) (int64, error) {
	order.ID = m.nextID
	m.nextID++
	for i := range order.Stages {
		order.Stages[i].ID = m.nextStageID
		order.Stages[i].OrderID = order.ID
		m.nextStageID++
	}
	m.orders[order.ID] = cloneOrder(&order)
	return order.ID, nil
}

func (m *memoryProdRepo) UpdateStage(_ context.Context, stage ProductionStage) error {
	o, ok := m.orders[stage.OrderID]
	if !ok {
		return ErrStageNotFound
	}
	for i := range o.Stages {
		if o.Stages[i].ID == stage.ID {
			o.Stages[i] = stage
			return nil
		}
	}
	return ErrStageNotFound
}

func (m *memoryProdRepo) UpdateOrder(_ context.Context, order ProductionOrder) error {
	o, ok := m.orders[order.ID]
	if !ok || o.CompanyID != order.CompanyID {
		return ErrNotFound
	}
	o.Status = order.Status
	o.StartedAt = order.StartedAt
	o.CompletedAt = order.CompletedAt
	return nil
}

func (m *memoryProdRepo) NextProdNo(_ context.Context, companyID int64) (string, error) {
	return fmt.Sprintf("PRD-%04d", m.nextID), nil
}

func cloneOrder(o *ProductionOrder) *ProductionOrder {
	out := *o
	out.Stages = append([]ProductionStage(nil), o.Stages...)
	return &out
}

func newOrder(t *testing.T, svc *Service) *ProductionOrder {
	t.Helper()
	order, err := svc.Create(context.Background(), 1, CreateOrderRequest{
		ItemCode: "FAB-GREY", Qty: 1200, Unit: "m",
	}, 10)
	require.NoError(t, err)
	return order
}

func runStage(t *testing.T, svc *Service, orderID int64, seq int) *ProductionOrder {
	t.Helper()
	_, err := svc.StartStage(context.Background(), 1, orderID, seq, StageActionRequest{}, 10)
	require.NoError(t, err)
	order, err := svc.CompleteStage(context.Background(), 1, orderID, seq, StageActionRequest{}, 10)
	require.NoError(t, err)
	return order
}

func TestCreateBuildsFullStageRoute(t *testing.T) {
	repo := newMemoryProdRepo()
	svc := NewService(repo, nil, nil)

	order := newOrder(t, svc)
	require.Equal(t, OrderPending, order.Status)
	require.Len(t, order.Stages, len(StageSequence))
	for i, st := range order.Stages {
		require.Equal(t, i+1, st.Seq)
		require.Equal(t, StageSequence[i], st.Name)
		require.Equal(t, StagePending, st.Status)
	}
}

func TestStageCannotStartBeforePredecessorCompletes(t *testing.T) {
	repo := newMemoryProdRepo()
	svc := NewService(repo, nil, nil)
	order := newOrder(t, svc)

	_, err := svc.StartStage(context.Background(), 1, order.ID, 2, StageActionRequest{}, 10)
	require.ErrorIs(t, err, ErrPredecessorIncomplete)

	// In-progress is not completed either.
	_, err = svc.StartStage(context.Background(), 1, order.ID, 1, StageActionRequest{}, 10)
	require.NoError(t, err)
	_, err = svc.StartStage(context.Background(), 1, order.ID, 2, StageActionRequest{}, 10)
	require.ErrorIs(t, err, ErrPredecessorIncomplete)

	_, err = svc.CompleteStage(context.Background(), 1, order.ID, 1, StageActionRequest{}, 10)
	require.NoError(t, err)
	got, err := svc.StartStage(context.Background(), 1, order.ID, 2, StageActionRequest{}, 10)
	require.NoError(t, err)
	require.Equal(t, StageInProgress, got.Stages[1].Status)
}

func TestFirstStageStartMarksOrderInProgress(t *testing.T) {
	repo := newMemoryProdRepo()
	svc := NewService(repo, nil, nil)
	order := newOrder(t, svc)

	got, err := svc.StartStage(context.Background(), 1, order.ID, 1, StageActionRequest{}, 10)
	require.NoError(t, err)
	require.Equal(t, OrderInProgress, got.Status)
	require.NotNil(t, got.StartedAt)
}

func TestCompletingLastStageCompletesOrder(t *testing.T) {
	repo := newMemoryProdRepo()
	svc := NewService(repo, nil, nil)
	order := newOrder(t, svc)

	var got *ProductionOrder
	for seq := 1; seq <= len(StageSequence); seq++ {
		got = runStage(t, svc, order.ID, seq)
		if seq < len(StageSequence) {
			require.Equal(t, OrderInProgress, got.Status)
			require.Nil(t, got.CompletedAt)
		}
	}
	require.Equal(t, OrderCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
}

func TestCompleteStageRecordsOutput(t *testing.T) {
	repo := newMemoryProdRepo()
	svc := NewService(repo, nil, nil)
	order := newOrder(t, svc)

	_, err := svc.StartStage(context.Background(), 1, order.ID, 1, StageActionRequest{}, 10)
	require.NoError(t, err)

	output, defects := 1180.0, 20.0
	grade := "A"
	got, err := svc.CompleteStage(context.Background(), 1, order.ID, 1, StageActionRequest{
		OutputQty:    &output,
		DefectQty:    &defects,
		QualityGrade: &grade,
	}, 10)
	require.NoError(t, err)

	st := got.Stages[0]
	require.Equal(t, StageCompleted, st.Status)
	require.Equal(t, &output, st.OutputQty)
	require.Equal(t, &defects, st.DefectQty)
	require.Equal(t, &grade, st.QualityGrade)
}

func TestHoldAndResume(t *testing.T) {
	repo := newMemoryProdRepo()
	svc := NewService(repo, nil, nil)
	order := newOrder(t, svc)

	_, err := svc.StartStage(context.Background(), 1, order.ID, 1, StageActionRequest{}, 10)
	require.NoError(t, err)

	reason := "boiler down"
	got, err := svc.HoldStage(context.Background(), 1, order.ID, 1, StageActionRequest{Reason: &reason}, 10)
	require.NoError(t, err)
	require.Equal(t, OrderOnHold, got.Status)
	require.Equal(t, StageOnHold, got.Stages[0].Status)
	require.Equal(t, "boiler down", *got.Stages[0].HoldReason)

	got, err = svc.ResumeStage(context.Background(), 1, order.ID, 1, StageActionRequest{}, 10)
	require.NoError(t, err)
	require.Equal(t, OrderInProgress, got.Status)
	require.Equal(t, StageInProgress, got.Stages[0].Status)
	require.Nil(t, got.Stages[0].HoldReason)
}

func TestHoldWithoutReasonRejected(t *testing.T) {
	repo := newMemoryProdRepo()
	svc := NewService(repo, nil, nil)
	order := newOrder(t, svc)

	_, err := svc.StartStage(context.Background(), 1, order.ID, 1, StageActionRequest{}, 10)
	require.NoError(t, err)

	_, err = svc.HoldStage(context.Background(), 1, order.ID, 1, StageActionRequest{}, 10)
	require.ErrorIs(t, err, ErrHoldReasonRequired)

	blank := "   "
	_, err = svc.HoldStage(context.Background(), 1, order.ID, 1, StageActionRequest{Reason: &blank}, 10)
	require.ErrorIs(t, err, ErrHoldReasonRequired)

	got, err := svc.Get(context.Background(), 1, order.ID)
	require.NoError(t, err)
	require.Equal(t, StageInProgress, got.Stages[0].Status)
}

func TestHoldRequiresInProgressStage(t *testing.T) {
	repo := newMemoryProdRepo()
	svc := NewService(repo, nil, nil)
	order := newOrder(t, svc)

	_, err := svc.HoldStage(context.Background(), 1, order.ID, 1, StageActionRequest{}, 10)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestCompletedStageIsImmutable(t *testing.T) {
	repo := newMemoryProdRepo()
	svc := NewService(repo, nil, nil)
	order := newOrder(t, svc)
	runStage(t, svc, order.ID, 1)

	_, err := svc.StartStage(context.Background(), 1, order.ID, 1, StageActionRequest{}, 10)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
	_, err = svc.CompleteStage(context.Background(), 1, order.ID, 1, StageActionRequest{}, 10)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestClosedOrderRejectsStageActions(t *testing.T) {
	repo := newMemoryProdRepo()
	svc := NewService(repo, nil, nil)
	order := newOrder(t, svc)

	_, err := svc.Cancel(context.Background(), 1, order.ID, 10)
	require.NoError(t, err)

	_, err = svc.StartStage(context.Background(), 1, order.ID, 1, StageActionRequest{}, 10)
	require.ErrorIs(t, err, ErrOrderClosed)

	_, err = svc.Cancel(context.Background(), 1, order.ID, 10)
	require.ErrorIs(t, err, ErrOrderClosed)
}
