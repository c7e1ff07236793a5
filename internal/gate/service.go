package gate

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/texfab-erp/texfab-erp/internal/shared"
)

const defaultValidityHrs = 24

// newPassNo builds a GP-XXXXXXXX number from a fresh UUID.
func newPassNo() string {
	return "GP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// AuditPort records audit entries for gate activity.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates vehicle registration and the gate pass lifecycle.
type Service struct {
	repo   Repository
	audit  AuditPort
	logger *slog.Logger
}

func NewService(repo Repository, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

func (s *Service) RegisterVehicle(ctx context.Context, companyID int64, req RegisterVehicleRequest, actorID int64) (*Vehicle, error) {
	v := Vehicle{
		CompanyID:       companyID,
		PlateNo:         req.PlateNo,
		VehicleType:     req.VehicleType,
		DriverName:      req.DriverName,
		DriverPhone:     req.DriverPhone,
		TransporterName: req.TransporterName,
		IsActive:        true,
	}
	id, err := s.repo.RegisterVehicle(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("register vehicle: %w", err)
	}
	s.recordAudit(ctx, companyID, actorID, "vehicle.registered", "vehicle", id, map[string]any{
		"plate_no": req.PlateNo,
	})
	return s.repo.GetVehicle(ctx, companyID, id)
}

func (s *Service) GetVehicle(ctx context.Context, companyID, id int64) (*Vehicle, error) {
	return s.repo.GetVehicle(ctx, companyID, id)
}

func (s *Service) ListVehicles(ctx context.Context, companyID int64, search string, limit, offset int) ([]Vehicle, int, error) {
	return s.repo.ListVehicles(ctx, companyID, search, limit, offset)
}

// CreatePass issues a pass for a registered vehicle. Load-carrying passes
// need at least one item; visitor passes do not. The pass expires after
// the requested validity window, 24 hours when unspecified.
func (s *Service) CreatePass(ctx context.Context, companyID int64, req CreatePassRequest, actorID int64) (*GatePass, error) {
	if req.Direction != DirectionVisitor && len(req.Items) == 0 {
		return nil, ErrNoItems
	}
	if _, err := s.repo.GetVehicle(ctx, companyID, req.VehicleID); err != nil {
		return nil, err
	}

	passNo := newPassNo()

	validity := defaultValidityHrs
	if req.ValidForHrs != nil {
		validity = *req.ValidForHrs
	}
	now := time.Now().UTC()

	pass := GatePass{
		CompanyID: companyID,
		PassNo:    passNo,
		Direction: req.Direction,
		Purpose:   req.Purpose,
		VehicleID: req.VehicleID,
		RefModule: req.RefModule,
		RefID:     req.RefID,
		Status:    PassIssued,
		IssuedBy:  actorID,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Duration(validity) * time.Hour),
		Notes:     req.Notes,
	}
	for _, item := range req.Items {
		pass.Items = append(pass.Items, GatePassItem{
			ItemCode:    item.ItemCode,
			Description: item.Description,
			Qty:         item.Qty,
			Unit:        item.Unit,
		})
	}

	id, err := s.repo.CreatePass(ctx, pass)
	if err != nil {
		return nil, fmt.Errorf("create gate pass: %w", err)
	}
	s.recordAudit(ctx, companyID, actorID, "gate_pass.issued", "gate_pass", id, map[string]any{
		"pass_no":   passNo,
		"direction": string(req.Direction),
	})
	return s.repo.GetPass(ctx, companyID, id)
}

func (s *Service) GetPass(ctx context.Context, companyID, id int64) (*GatePass, error) {
	return s.repo.GetPass(ctx, companyID, id)
}

func (s *Service) ListPasses(ctx context.Context, req ListPassesRequest) ([]GatePass, int, error) {
	return s.repo.ListPasses(ctx, req)
}

// CheckIn records the vehicle entering the premises.
func (s *Service) CheckIn(ctx context.Context, companyID, id, actorID int64) (*GatePass, error) {
	now := time.Now().UTC()
	return s.transition(ctx, companyID, id, actorID, PassInside, "gate_pass.checked_in", &now, nil)
}

// CheckOut records the vehicle leaving and closes the pass.
func (s *Service) CheckOut(ctx context.Context, companyID, id, actorID int64) (*GatePass, error) {
	now := time.Now().UTC()
	return s.transition(ctx, companyID, id, actorID, PassClosed, "gate_pass.checked_out", nil, &now)
}

// Cancel voids a pass that has not been used.
func (s *Service) Cancel(ctx context.Context, companyID, id, actorID int64) (*GatePass, error) {
	return s.transition(ctx, companyID, id, actorID, PassCancelled, "gate_pass.cancelled", nil, nil)
}

func (s *Service) transition(ctx context.Context, companyID, id, actorID int64, to PassStatus, action string, checkIn, checkOut *time.Time) (*GatePass, error) {
	pass, err := s.repo.GetPass(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := passMachine.Check(pass.Status, to); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePassStatus(ctx, companyID, id, pass.Status, to, checkIn, checkOut); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, companyID, actorID, action, "gate_pass", id, map[string]any{
		"pass_no": pass.PassNo,
		"from":    string(pass.Status),
		"to":      string(to),
	})
	return s.repo.GetPass(ctx, companyID, id)
}

// ExpireOverdue cancels issued passes past their validity window. Called
// from the periodic sweep job.
func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expire gate passes: %w", err)
	}
	if n > 0 {
		s.logger.Info("expired overdue gate passes", "count", n)
	}
	return n, nil
}

func (s *Service) recordAudit(ctx context.Context, companyID, actorID int64, action, entity string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		CompanyID: companyID,
		ActorID:   actorID,
		Action:    action,
		Entity:    entity,
		EntityID:  strconv.FormatInt(entityID, 10),
		Meta:      meta,
		At:        time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
