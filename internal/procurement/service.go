package procurement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/texfab-erp/texfab-erp/internal/inventory"
	"github.com/texfab-erp/texfab-erp/internal/shared"
	"github.com/texfab-erp/texfab-erp/internal/workflow"
)

// StockPort is the slice of the inventory service receiving needs.
type StockPort interface {
	PostInbound(ctx context.Context, input inventory.InboundInput) (inventory.Movement, error)
}

// AuditPort records lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards against re-posted goods receipt notes.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service orchestrates the purchase order lifecycle and goods receipts.
type Service struct {
	repo   Repository
	stock  StockPort
	audit  AuditPort
	idem   IdempotencyPort
	logger *slog.Logger
}

// NewService constructs the Service.
func NewService(repo Repository, stock StockPort, audit AuditPort, idem IdempotencyPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, stock: stock, audit: audit, idem: idem, logger: logger}
}

const idemModule = "purchase_receipt"

// Create opens a draft purchase order.
func (s *Service) Create(ctx context.Context, companyID int64, req CreateOrderRequest, createdBy int64) (*PurchaseOrder, error) {
	if len(req.Lines) == 0 {
		return nil, ErrNoLines
	}
	poNo, err := s.repo.NextPONo(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("allocate po no: %w", err)
	}

	order := PurchaseOrder{
		CompanyID:    companyID,
		PONo:         poNo,
		SupplierID:   req.SupplierID,
		Status:       StatusDraft,
		OrderDate:    req.OrderDate,
		ExpectedDate: req.ExpectedDate,
		Currency:     req.Currency,
		Notes:        req.Notes,
		CreatedBy:    createdBy,
		Lines:        buildLines(req.Lines),
	}
	order.TotalAmount = sumLines(order.Lines)

	id, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create purchase order: %w", err)
	}
	order.ID = id
	s.recordAudit(ctx, companyID, createdBy, "purchase_order.created", id, map[string]any{"po_no": poNo})
	return &order, nil
}

// UpdateDraft replaces header fields and lines while the PO is in draft.
func (s *Service) UpdateDraft(ctx context.Context, companyID, id int64, req UpdateDraftRequest, actorID int64) (*PurchaseOrder, error) {
	order, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusDraft {
		return nil, ErrLineNotEditable
	}

	if req.SupplierID != nil {
		order.SupplierID = *req.SupplierID
	}
	if req.ExpectedDate != nil {
		order.ExpectedDate = req.ExpectedDate
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

// Get fetches one PO with lines, scoped to the company.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*PurchaseOrder, error) {
	return s.repo.Get(ctx, companyID, id)
}

// List pages PO headers.
func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]PurchaseOrder, int, error) {
	return s.repo.List(ctx, req)
}

// Transition moves the PO to target. Approval stamps the actor as approver.
// The receipt-driven statuses cannot be requested directly.
func (s *Service) Transition(ctx context.Context, companyID, id int64, target Status, actorID int64) (*PurchaseOrder, error) {
	if !requestable(target) {
		return nil, fmt.Errorf("%w: %s is receipt-driven", workflow.ErrInvalidTransition, string(target))
	}
	order, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := statusMachine.Check(order.Status, target); err != nil {
		return nil, err
	}

	var approvedBy *int64
	if target == StatusApproved {
		approvedBy = &actorID
	}
	if err := s.repo.UpdateStatus(ctx, companyID, id, order.Status, target, approvedBy); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	s.recordAudit(ctx, companyID, actorID, "purchase_order.status_changed", id, map[string]any{
		"from": string(order.Status), "to": string(target),
	})
	order.Status = target
	if approvedBy != nil {
		order.ApprovedBy = approvedBy
	}
	return order, nil
}

// PostReceipt records a goods receipt: each line's quantity lands in stock via
// an inbound movement at the PO line's unit cost, received quantities
// accumulate, and the PO moves to partially_received or received. The receipt
// number is the idempotency key; a re-post is rejected before any stock moves.
func (s *Service) PostReceipt(ctx context.Context, companyID, id int64, req ReceiptRequest, actorID int64) (*PurchaseOrder, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyReceipt
	}
	order, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !receivable(order.Status) {
		return nil, fmt.Errorf("%w: status %s", ErrNotReceivable, string(order.Status))
	}

	linesByID := make(map[int64]*PurchaseOrderLine, len(order.Lines))
	for i := range order.Lines {
		linesByID[order.Lines[i].ID] = &order.Lines[i]
	}
	for _, rl := range req.Lines {
		line, ok := linesByID[rl.LineID]
		if !ok {
			return nil, fmt.Errorf("%w: line %d", ErrNotFound, rl.LineID)
		}
		if rl.Qty > line.Outstanding() {
			return nil, fmt.Errorf("%w: line %d outstanding %.3f, got %.3f",
				ErrOverReceipt, rl.LineID, line.Outstanding(), rl.Qty)
		}
	}

	idemKey := fmt.Sprintf("%d:%s:%s", companyID, order.PONo, req.ReceiptNo)
	if err := s.idem.CheckAndInsert(ctx, idemKey, idemModule); err != nil {
		return nil, err
	}

	refID := strconv.FormatInt(order.ID, 10)
	for _, rl := range req.Lines {
		line := linesByID[rl.LineID]
		_, err := s.stock.PostInbound(ctx, inventory.InboundInput{
			CompanyID: companyID,
			ItemCode:  line.ItemCode,
			Qty:       rl.Qty,
			UnitCost:  line.UnitCost,
			Location:  req.Location,
			RefModule: "purchase_order",
			RefID:     refID,
			Note:      "receipt " + req.ReceiptNo,
			ActorID:   actorID,
		})
		if err != nil {
			// Keys roll back so the corrected receipt can be re-posted under
			// the same GRN number.
			if delErr := s.idem.Delete(ctx, idemKey); delErr != nil {
				s.logger.Warn("idempotency rollback failed", "key", idemKey, "error", delErr)
			}
			return nil, fmt.Errorf("post inbound %s: %w", line.ItemCode, err)
		}
		if err := s.repo.AddReceivedQty(ctx, companyID, order.ID, rl.LineID, rl.Qty); err != nil {
			return nil, fmt.Errorf("accumulate received qty: %w", err)
		}
		line.ReceivedQty += rl.Qty
	}

	target := StatusPartiallyReceived
	if fullyReceived(order.Lines) {
		target = StatusReceived
	}
	if target != order.Status {
		if err := s.repo.UpdateStatus(ctx, companyID, order.ID, order.Status, target, nil); err != nil {
			if errors.Is(err, ErrNotFound) {
				// Lost the compare-and-set to a concurrent receipt; the stock
				// postings above already landed.
				s.logger.Warn("receipt status race", "po_no", order.PONo)
			} else {
				return nil, fmt.Errorf("update status: %w", err)
			}
		} else {
			order.Status = target
		}
	}

	s.recordAudit(ctx, companyID, actorID, "purchase_order.received", order.ID, map[string]any{
		"receipt_no": req.ReceiptNo, "status": string(order.Status),
	})
	return order, nil
}

func (s *Service) recordAudit(ctx context.Context, companyID, actorID int64, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		CompanyID: companyID,
		ActorID:   actorID,
		Action:    action,
		Entity:    "purchase_order",
		EntityID:  strconv.FormatInt(orderID, 10),
		Meta:      meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}

func fullyReceived(lines []PurchaseOrderLine) bool {
	for _, l := range lines {
		if l.Outstanding() > 0 {
			return false
		}
	}
	return true
}

func buildLines(reqs []OrderLineRequest) []PurchaseOrderLine {
	lines := make([]PurchaseOrderLine, 0, len(reqs))
	for _, l := range reqs {
		lines = append(lines, PurchaseOrderLine{
			ItemCode:    l.ItemCode,
			Description: l.Description,
			Qty:         l.Qty,
			Unit:        l.Unit,
			UnitCost:    l.UnitCost,
			LineTotal:   l.Qty * l.UnitCost,
		})
	}
	return lines
}

func sumLines(lines []PurchaseOrderLine) float64 {
	var total float64
	for _, l := range lines {
		total += l.LineTotal
	}
	return total
}
