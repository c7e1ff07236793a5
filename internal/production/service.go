package production

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/texfab-erp/texfab-erp/internal/shared"
)

// AuditPort records stage and order events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service runs production orders through the fixed stage route.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService constructs the Service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Create opens a production order with the whole route pending.
func (s *Service) Create(ctx context.Context, companyID int64, req CreateOrderRequest, createdBy int64) (*ProductionOrder, error) {
	prodNo, err := s.repo.NextProdNo(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("allocate prod no: %w", err)
	}

	order := ProductionOrder{
		CompanyID:    companyID,
		ProdNo:       prodNo,
		SalesOrderID: req.SalesOrderID,
		ItemCode:     req.ItemCode,
		Qty:          req.Qty,
		Unit:         req.Unit,
		Status:       OrderPending,
		Notes:        req.Notes,
		CreatedBy:    createdBy,
	}
	for i, name := range StageSequence {
		order.Stages = append(order.Stages, ProductionStage{
			Seq:    i + 1,
			Name:   name,
			Status: StagePending,
		})
	}

	id, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create production order: %w", err)
	}
	order.ID = id
	s.recordAudit(ctx, companyID, createdBy, "production_order.created", id, map[string]any{"prod_no": prodNo})
	return &order, nil
}

// Get fetches one order with its stages, scoped to the company.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*ProductionOrder, error) {
	return s.repo.Get(ctx, companyID, id)
}

// List pages order headers.
func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]ProductionOrder, int, error) {
	return s.repo.List(ctx, req)
}

// StartStage moves stage seq to in_progress. All earlier stages must already
// be completed; starting the first stage also starts the order.
func (s *Service) StartStage(ctx context.Context, companyID, orderID int64, seq int, req StageActionRequest, actorID int64) (*ProductionOrder, error) {
	return s.applyStage(ctx, companyID, orderID, seq, actorID, "production_stage.started",
		func(order *ProductionOrder, stage *ProductionStage) error {
			if err := stageMachine.Check(stage.Status, StageInProgress); err != nil {
				return err
			}
			for i := range order.Stages {
				if order.Stages[i].Seq < seq && order.Stages[i].Status != StageCompleted {
					return fmt.Errorf("%w: stage %d (%s)", ErrPredecessorIncomplete,
						order.Stages[i].Seq, order.Stages[i].Name)
				}
			}
			now := time.Now()
			stage.Status = StageInProgress
			stage.StartedAt = &now
			stage.HoldReason = nil
			if req.OperatorID != nil {
				stage.OperatorID = req.OperatorID
			}
			if req.Notes != nil {
				stage.Notes = req.Notes
			}
			if order.StartedAt == nil {
				order.StartedAt = &now
			}
			return nil
		})
}

// CompleteStage moves stage seq to completed. Completing the last stage
// completes the whole order.
func (s *Service) CompleteStage(ctx context.Context, companyID, orderID int64, seq int, req StageActionRequest, actorID int64) (*ProductionOrder, error) {
	return s.applyStage(ctx, companyID, orderID, seq, actorID, "production_stage.completed",
		func(order *ProductionOrder, stage *ProductionStage) error {
			if err := stageMachine.Check(stage.Status, StageCompleted); err != nil {
				return err
			}
			now := time.Now()
			stage.Status = StageCompleted
			stage.CompletedAt = &now
			if req.OutputQty != nil {
				stage.OutputQty = req.OutputQty
			}
			if req.DefectQty != nil {
				stage.DefectQty = req.DefectQty
			}
			if req.QualityGrade != nil {
				stage.QualityGrade = req.QualityGrade
			}
			if req.Notes != nil {
				stage.Notes = req.Notes
			}
			return nil
		})
}

// HoldStage puts an in-progress stage on hold, which holds the whole order.
func (s *Service) HoldStage(ctx context.Context, companyID, orderID int64, seq int, req StageActionRequest, actorID int64) (*ProductionOrder, error) {
	return s.applyStage(ctx, companyID, orderID, seq, actorID, "production_stage.held",
		func(order *ProductionOrder, stage *ProductionStage) error {
			if err := stageMachine.Check(stage.Status, StageOnHold); err != nil {
				return err
			}
			if req.Reason == nil || strings.TrimSpace(*req.Reason) == "" {
				return ErrHoldReasonRequired
			}
			stage.Status = StageOnHold
			stage.HoldReason = req.Reason
			return nil
		})
}

// ResumeStage brings a held stage back to in_progress.
func (s *Service) ResumeStage(ctx context.Context, companyID, orderID int64, seq int, req StageActionRequest, actorID int64) (*ProductionOrder, error) {
	return s.applyStage(ctx, companyID, orderID, seq, actorID, "production_stage.resumed",
		func(order *ProductionOrder, stage *ProductionStage) error {
			if stage.Status != StageOnHold {
				return stageMachine.Check(stage.Status, StageInProgress)
			}
			stage.Status = StageInProgress
			stage.HoldReason = nil
			if req.Notes != nil {
				stage.Notes = req.Notes
			}
			return nil
		})
}

// Cancel closes the order without finishing the route.
func (s *Service) Cancel(ctx context.Context, companyID, orderID, actorID int64) (*ProductionOrder, error) {
	var result *ProductionOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetForUpdate(ctx, companyID, orderID)
		if err != nil {
			return err
		}
		if order.Status == OrderCompleted || order.Status == OrderCancelled {
			return ErrOrderClosed
		}
		order.Status = OrderCancelled
		if err := tx.UpdateOrder(ctx, *order); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, companyID, actorID, "production_order.cancelled", orderID, nil)
	return result, nil
}

// applyStage mutates one stage and rolls the order status up, in a single
// transaction with the order row locked.
func (s *Service) applyStage(ctx context.Context, companyID, orderID int64, seq int, actorID int64,
	action string, mutate func(*ProductionOrder, *ProductionStage) error) (*ProductionOrder, error) {

	var result *ProductionOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetForUpdate(ctx, companyID, orderID)
		if err != nil {
			return err
		}
		if order.Status == OrderCompleted || order.Status == OrderCancelled {
			return ErrOrderClosed
		}

		var stage *ProductionStage
		for i := range order.Stages {
			if order.Stages[i].Seq == seq {
				stage = &order.Stages[i]
				break
			}
		}
		if stage == nil {
			return fmt.Errorf("%w: seq %d", ErrStageNotFound, seq)
		}

		if err := mutate(order, stage); err != nil {
			return err
		}
		if err := tx.UpdateStage(ctx, *stage); err != nil {
			return err
		}

		order.Status = deriveOrderStatus(order.Stages)
		if order.Status == OrderCompleted && order.CompletedAt == nil {
			now := time.Now()
			order.CompletedAt = &now
		}
		if err := tx.UpdateOrder(ctx, *order); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, companyID, actorID, action, orderID, map[string]any{
		"seq": seq, "order_status": string(result.Status),
	})
	return result, nil
}

func (s *Service) recordAudit(ctx context.Context, companyID, actorID int64, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		CompanyID: companyID,
		ActorID:   actorID,
		Action:    action,
		Entity:    "production_order",
		EntityID:  strconv.FormatInt(orderID, 10),
		Meta:      meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
