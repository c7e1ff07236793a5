package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/texfab-erp/texfab-erp/internal/inventory"
	"github.com/texfab-erp/texfab-erp/internal/shared"
)

// StockPort is the slice of the inventory service the order lifecycle needs.
type StockPort interface {
	Reserve(ctx context.Context, input inventory.ReservationInput) error
	Release(ctx context.Context, input inventory.ReservationInput) error
	Deduct(ctx context.Context, input inventory.DeductInput) (inventory.Movement, error)
}

// AuditPort records lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the sales order lifecycle and its stock side effects.
type Service struct {
	repo   Repository
	stock  StockPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService constructs the Service.
func NewService(repo Repository, stock StockPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, stock: stock, audit: audit, logger: logger}
}

const refModule = "sales_order"

// Create opens a draft order. No stock is touched until confirmation.
func (s *Service) Create(ctx context.Context, companyID int64, req CreateOrderRequest, createdBy int64) (*SalesOrder, error) {
	if len(req.Lines) == 0 {
		return nil, ErrNoLines
	}
	orderNo, err := s.repo.NextOrderNo(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("allocate order no: %w", err)
	}

	order := SalesOrder{
		CompanyID:    companyID,
		OrderNo:      orderNo,
		CustomerID:   req.CustomerID,
		Status:       StatusDraft,
		OrderDate:    req.OrderDate,
		DeliveryDate: req.DeliveryDate,
		Currency:     req.Currency,
		Notes:        req.Notes,
		CreatedBy:    createdBy,
		Lines:        buildLines(req.Lines),
	}
	order.TotalAmount = sumLines(order.Lines)

	id, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create sales order: %w", err)
	}
	order.ID = id
	s.recordAudit(ctx, companyID, createdBy, "sales_order.created", id, map[string]any{"order_no": orderNo})
	return &order, nil
}

// UpdateDraft replaces header fields and lines while the order is in draft.
func (s *Service) UpdateDraft(ctx context.Context, companyID, id int64, req UpdateDraftRequest, actorID int64) (*SalesOrder, error) {
	order, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusDraft {
		return nil, ErrLineNotEditable
	}

	if req.CustomerID != nil {
		order.CustomerID = *req.CustomerID
	}
	if req.DeliveryDate != nil {
		order.DeliveryDate = req.DeliveryDate
	}
	if req.Notes != nil {
		order.Notes = req.Notes
	}
	if req.Lines != nil {
		order.Lines = buildLines(req.Lines)
	}
	order.TotalAmount = sumLines(order.Lines)

	if err := s.repo.ReplaceDraft(ctx, *order); err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}
	return order, nil
}

// Get fetches one order with lines, scoped to the company.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*SalesOrder, error) {
	return s.repo.Get(ctx, companyID, id)
}

// List pages order headers.
func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]SalesOrder, int, error) {
	return s.repo.List(ctx, req)
}

// Transition moves the order to target, applying stock side effects:
// confirm reserves own-stock lines, dispatch releases each reservation and
// deducts on-hand, cancel gives reservations back. Release and Deduct on
// dispatch are two sequential calls per line; a failure between them leaves
// the released quantity available until the dispatch is retried.
func (s *Service) Transition(ctx context.Context, companyID, id int64, target Status, actorID int64) (*SalesOrder, error) {
	order, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := statusMachine.Check(order.Status, target); err != nil {
		return nil, err
	}

	switch target {
	case StatusConfirmed:
		if err := s.reserveLines(ctx, order, actorID); err != nil {
			return nil, err
		}
	case StatusDispatched:
		if err := s.dispatchLines(ctx, order, actorID); err != nil {
			return nil, err
		}
	case StatusCancelled:
		if holdsReservation(order.Status) {
			if err := s.releaseLines(ctx, order, actorID); err != nil {
				return nil, err
			}
		}
	}

	if err := s.repo.UpdateStatus(ctx, companyID, id, order.Status, target); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	s.recordAudit(ctx, companyID, actorID, "sales_order.status_changed", id, map[string]any{
		"from": string(order.Status), "to": string(target),
	})
	order.Status = target
	return order, nil
}

func (s *Service) reserveLines(ctx context.Context, order *SalesOrder, actorID int64) error {
	for _, l := range order.Lines {
		if l.MaterialSource != SourceOwnStock {
			continue
		}
		err := s.stock.Reserve(ctx, inventory.ReservationInput{
			CompanyID: order.CompanyID,
			ItemCode:  l.ItemCode,
			Qty:       l.Qty,
			RefModule: refModule,
			RefID:     strconv.FormatInt(order.ID, 10),
			ActorID:   actorID,
		})
		if err != nil {
			return fmt.Errorf("reserve %s: %w", l.ItemCode, err)
		}
	}
	return nil
}

func (s *Service) releaseLines(ctx context.Context, order *SalesOrder, actorID int64) error {
	for _, l := range order.Lines {
		if l.MaterialSource != SourceOwnStock {
			continue
		}
		err := s.stock.Release(ctx, inventory.ReservationInput{
			CompanyID: order.CompanyID,
			ItemCode:  l.ItemCode,
			Qty:       l.Qty,
			RefModule: refModule,
			RefID:     strconv.FormatInt(order.ID, 10),
			ActorID:   actorID,
		})
		if err != nil {
			return fmt.Errorf("release %s: %w", l.ItemCode, err)
		}
	}
	return nil
}

func (s *Service) dispatchLines(ctx context.Context, order *SalesOrder, actorID int64) error {
	refID := strconv.FormatInt(order.ID, 10)
	for _, l := range order.Lines {
		if l.MaterialSource != SourceOwnStock {
			continue
		}
		err := s.stock.Release(ctx, inventory.ReservationInput{
			CompanyID: order.CompanyID,
			ItemCode:  l.ItemCode,
			Qty:       l.Qty,
			RefModule: refModule,
			RefID:     refID,
			ActorID:   actorID,
		})
		if err != nil {
			return fmt.Errorf("release %s: %w", l.ItemCode, err)
		}
		_, err = s.stock.Deduct(ctx, inventory.DeductInput{
			CompanyID: order.CompanyID,
			ItemCode:  l.ItemCode,
			Qty:       l.Qty,
			RefModule: refModule,
			RefID:     refID,
			Note:      "dispatch " + order.OrderNo,
			ActorID:   actorID,
		})
		if err != nil {
			// The reservation is already gone; the quantity stays available
			// until the dispatch is retried.
			s.logger.Warn("deduct failed after release",
				"order_no", order.OrderNo, "item_code", l.ItemCode, "qty", l.Qty, "error", err)
			return fmt.Errorf("deduct %s: %w", l.ItemCode, err)
		}
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, companyID, actorID int64, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		CompanyID: companyID,
		ActorID:   actorID,
		Action:    action,
		Entity:    "sales_order",
		EntityID:  strconv.FormatInt(orderID, 10),
		Meta:      meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}

func buildLines(reqs []OrderLineRequest) []SalesOrderLine {
	lines := make([]SalesOrderLine, 0, len(reqs))
	for _, l := range reqs {
		lines = append(lines, SalesOrderLine{
			ItemCode:       l.ItemCode,
			Description:    l.Description,
			MaterialSource: l.MaterialSource,
			Qty:            l.Qty,
			Unit:           l.Unit,
			UnitPrice:      l.UnitPrice,
			LineTotal:      l.Qty * l.UnitPrice,
		})
	}
	return lines
}

func sumLines(lines []SalesOrderLine) float64 {
	var total float64
	for _, l := range lines {
		total += l.LineTotal
	}
	return total
}
