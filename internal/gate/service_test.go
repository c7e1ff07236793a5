package gate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryGateRepo struct {
	vehicles   map[int64]Vehicle
	passes     map[int64]GatePass
	nextVehID  int64
	nextPassID int64
}

func newMemoryGateRepo() *memoryGateRepo {
	return &memoryGateRepo{
		vehicles: make(map[int64]Vehicle),
		passes:   make(map[int64]GatePass),
	}
}

func (m *memoryGateRepo) RegisterVehicle(_ context.Context, v Vehicle) (int64, error) {
	for _, existing := range m.vehicles {
		if existing.CompanyID == v.CompanyID && strings.EqualFold(existing.PlateNo, v.PlateNo) {
			return 0, ErrDuplicatePlate
		}
	}
	m.nextVehID++
	v.ID = m.nextVehID
	v.CreatedAt = time.Now().UTC()
	m.vehicles[v.ID] = v
	return v.ID, nil
}

func (m *memoryGateRepo) GetVehicle(_ context.Context, companyID, id int64) (*Vehicle, error) {
	v, ok := m.vehicles[id]
	if !ok || v.CompanyID != companyID {
		return nil, ErrVehicleNotFound
	}
	out := v
	return &out, nil
}

func (m *memoryGateRepo) ListVehicles(_ context.Context, companyID int64, _ string, _, _ int) ([]Vehicle, int, error) {
	var out []Vehicle
	for _, v := range m.vehicles {
		if v.CompanyID == companyID {
			out = append(out, v)
		}
	}
	return out, len(out), nil
}

func (m *memoryGateRepo) CreatePass(_ context.Context, p GatePass) (int64, error) {
	m.nextPassID++
	p.ID = m.nextPassID
	for i := range p.Items {
		p.Items[i].ID = int64(i + 1)
		p.Items[i].PassID = p.ID
	}
	m.passes[p.ID] = p
	return p.ID, nil
}

func (m *memoryGateRepo) GetPass(_ context.Context, companyID, id int64) (*GatePass, error) {
	p, ok := m.passes[id]
	if !ok || p.CompanyID != companyID {
		return nil, ErrPassNotFound
	}
	out := p
	out.Items = append([]GatePassItem(nil), p.Items...)
	return &out, nil
}

func (m *memoryGateRepo) ListPasses(_ context.Context, req ListPassesRequest) ([]GatePass, int, error) {
	var out []GatePass
	for _, p := range m.passes {
		if p.CompanyID != req.CompanyID {
			continue
		}
		if req.Status != nil && p.Status != *req.Status {
			continue
		}
		if req.Direction != nil && p.Direction != *req.Direction {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memoryGateRepo) UpdatePassStatus(_ context.Context, companyID, id int64, from, to PassStatus, checkIn, checkOut *time.Time) error {
	p, ok := m.passes[id]
	if !ok || p.CompanyID != companyID || p.Status != from {
		return ErrPassNotFound
	}
	p.Status = to
	if checkIn != nil {
		p.CheckInAt = checkIn
	}
	if checkOut != nil {
		p.CheckOutAt = checkOut
	}
	m.passes[id] = p
	return nil
}

func (m *memoryGateRepo) ExpireOverdue(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, p := range m.passes {
		if p.Status == PassIssued && p.ExpiresAt.Before(cutoff) {
			p.Status = PassCancelled
			m.passes[id] = p
			n++
		}
	}
	return n, nil
}

func newGateService(repo *memoryGateRepo) *Service {
	return NewService(repo, nil, nil)
}

func registerTestVehicle(t *testing.T, svc *Service, companyID int64, plate string) *Vehicle {
	t.Helper()
	v, err := svc.RegisterVehicle(context.Background(), companyID, RegisterVehicleRequest{
		PlateNo:     plate,
		VehicleType: "truck",
		DriverName:  "Ramesh Kumar",
	}, 1)
	require.NoError(t, err)
	return v
}

func issueTestPass(t *testing.T, svc *Service, companyID, vehicleID int64) *GatePass {
	t.Helper()
	pass, err := svc.CreatePass(context.Background(), companyID, CreatePassRequest{
		Direction: DirectionOutward,
		Purpose:   "finished goods dispatch",
		VehicleID: vehicleID,
		Items: []PassItemRequest{
			{ItemCode: "FAB-PRINTED-001", Description: "printed fabric rolls", Qty: 40, Unit: "roll"},
		},
	}, 7)
	require.NoError(t, err)
	return pass
}

func TestRegisterVehicleDuplicatePlate(t *testing.T) {
	repo := newMemoryGateRepo()
	svc := newGateService(repo)

	registerTestVehicle(t, svc, 1, "MH-12-AB-1234")

	_, err := svc.RegisterVehicle(context.Background(), 1, RegisterVehicleRequest{
		PlateNo:     "mh-12-ab-1234",
		VehicleType: "van",
		DriverName:  "Another Driver",
	}, 1)
	require.ErrorIs(t, err, ErrDuplicatePlate)

	// Same plate under a different company is fine.
	_, err = svc.RegisterVehicle(context.Background(), 2, RegisterVehicleRequest{
		PlateNo:     "MH-12-AB-1234",
		VehicleType: "truck",
		DriverName:  "Third Driver",
	}, 1)
	require.NoError(t, err)
}

func TestCreatePassDefaultsValidity(t *testing.T) {
	repo := newMemoryGateRepo()
	svc := newGateService(repo)
	v := registerTestVehicle(t, svc, 1, "GJ-01-XY-9876")

	pass := issueTestPass(t, svc, 1, v.ID)

	require.Regexp(t, `^GP-[0-9A-F]{8}$`, pass.PassNo)
	require.Equal(t, PassIssued, pass.Status)
	require.Len(t, pass.Items, 1)
	require.WithinDuration(t, pass.IssuedAt.Add(24*time.Hour), pass.ExpiresAt, time.Second)
}

func TestCreatePassCustomValidity(t *testing.T) {
	repo := newMemoryGateRepo()
	svc := newGateService(repo)
	v := registerTestVehicle(t, svc, 1, "GJ-01-XY-9876")

	hrs := 48
	pass, err := svc.CreatePass(context.Background(), 1, CreatePassRequest{
		Direction:   DirectionInward,
		Purpose:     "grey fabric inward",
		VehicleID:   v.ID,
		ValidForHrs: &hrs,
		Items: []PassItemRequest{
			{ItemCode: "FAB-GREY-001", Qty: 1200, Unit: "m"},
		},
	}, 7)
	require.NoError(t, err)
	require.WithinDuration(t, pass.IssuedAt.Add(48*time.Hour), pass.ExpiresAt, time.Second)
}

func TestCreatePassUnknownVehicle(t *testing.T) {
	repo := newMemoryGateRepo()
	svc := newGateService(repo)

	_, err := svc.CreatePass(context.Background(), 1, CreatePassRequest{
		Direction: DirectionOutward,
		Purpose:   "dispatch",
		VehicleID: 99,
		Items: []PassItemRequest{
			{ItemCode: "FAB-001", Qty: 10, Unit: "roll"},
		},
	}, 7)
	require.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestVisitorPassNeedsNoItems(t *testing.T) {
	repo := newMemoryGateRepo()
	svc := newGateService(repo)
	v := registerTestVehicle(t, svc, 1, "DL-03-CA-7777")

	pass, err := svc.CreatePass(context.Background(), 1, CreatePassRequest{
		Direction: DirectionVisitor,
		Purpose:   "buyer factory visit",
		VehicleID: v.ID,
	}, 7)
	require.NoError(t, err)
	require.Equal(t, PassIssued, pass.Status)
	require.Empty(t, pass.Items)
}

func TestCreatePassRequiresItems(t *testing.T) {
	repo := newMemoryGateRepo()
	svc := newGateService(repo)
	v := registerTestVehicle(t, svc, 1, "KA-05-MN-4321")

	_, err := svc.CreatePass(context.Background(), 1, CreatePassRequest{
		Direction: DirectionOutward,
		Purpose:   "dispatch",
		VehicleID: v.ID,
	}, 7)
	require.ErrorIs(t, err, ErrNoItems)
}

func TestPassLifecycle(t *testing.T) {
	repo := newMemoryGateRepo()
	svc := newGateService(repo)
	v := registerTestVehicle(t, svc, 1, "KA-05-MN-4321")
	pass := issueTestPass(t, svc, 1, v.ID)

	inside, err := svc.CheckIn(context.Background(), 1, pass.ID, 7)
	require.NoError(t, err)
	require.Equal(t, PassInside, inside.Status)
	require.NotNil(t, inside.CheckInAt)
	require.Nil(t, inside.CheckOutAt)

	closed, err := svc.CheckOut(context.Background(), 1, pass.ID, 7)
	require.NoError(t, err)
	require.Equal(t, PassClosed, closed.Status)
	require.NotNil(t, closed.CheckOutAt)

	// Closed passes accept no further actions.
	_, err = svc.CheckIn(context.Background(), 1, pass.ID, 7)
	require.Error(t, err)
	_, err = svc.Cancel(context.Background(), 1, pass.ID, 7)
	require.Error(t, err)
}

func TestCancelOnlyBeforeCheckIn(t *testing.T) {
	repo := newMemoryGateRepo()
	svc := newGateService(repo)
	v := registerTestVehicle(t, svc, 1, "KA-05-MN-4321")

	pass := issueTestPass(t, svc, 1, v.ID)
	cancelled, err := svc.Cancel(context.Background(), 1, pass.ID, 7)
	require.NoError(t, err)
	require.Equal(t, PassCancelled, cancelled.Status)

	other := issueTestPass(t, svc, 1, v.ID)
	_, err = svc.CheckIn(context.Background(), 1, other.ID, 7)
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), 1, other.ID, 7)
	require.Error(t, err)
}

func TestCheckOutRequiresCheckIn(t *testing.T) {
	repo := newMemoryGateRepo()
	svc := newGateService(repo)
	v := registerTestVehicle(t, svc, 1, "KA-05-MN-4321")
	pass := issueTestPass(t, svc, 1, v.ID)

	_, err := svc.CheckOut(context.Background(), 1, pass.ID, 7)
	require.Error(t, err)
}

func TestExpireOverdueSkipsVehiclesInside(t *testing.T) {
	repo := newMemoryGateRepo()
	svc := newGateService(repo)
	v := registerTestVehicle(t, svc, 1, "KA-05-MN-4321")

	stale := issueTestPass(t, svc, 1, v.ID)
	inside := issueTestPass(t, svc, 1, v.ID)
	_, err := svc.CheckIn(context.Background(), 1, inside.ID, 7)
	require.NoError(t, err)

	// Backdate both passes beyond their validity window.
	for _, id := range []int64{stale.ID, inside.ID} {
		p := repo.passes[id]
		p.ExpiresAt = time.Now().UTC().Add(-time.Hour)
		repo.passes[id] = p
	}

	n, err := svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err := svc.GetPass(context.Background(), 1, stale.ID)
	require.NoError(t, err)
	require.Equal(t, PassCancelled, got.Status)

	still, err := svc.GetPass(context.Background(), 1, inside.ID)
	require.NoError(t, err)
	require.Equal(t, PassInside, still.Status)
}

func TestPassCrossCompanyIsolation(t *testing.T) {
	repo := newMemoryGateRepo()
	svc := newGateService(repo)
	v := registerTestVehicle(t, svc, 1, "KA-05-MN-4321")
	pass := issueTestPass(t, svc, 1, v.ID)

	_, err := svc.GetPass(context.Background(), 2, pass.ID)
	require.ErrorIs(t, err, ErrPassNotFound)
	_, err = svc.CheckIn(context.Background(), 2, pass.ID, 7)
	require.ErrorIs(t, err, ErrPassNotFound)
}
