package inventory

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/texfab-erp/texfab-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetBalance(ctx context.Context, companyID int64, itemCode string) (Balance, error)
	ListBalances(ctx context.Context, companyID int64, search string, limit, offset int) ([]Balance, int, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, int, error)
}

// TxRepository is the repository surface available inside a transaction.
type TxRepository interface {
	GetBalanceForUpdate(ctx context.Context, companyID int64, itemCode string) (Balance, error)
	SaveBalance(ctx context.Context, balance Balance) error
	InsertMovement(ctx context.Context, movement Movement) (int64, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates stock mutations. Every mutation runs in its own
// transaction with the balance row locked; callers chaining several calls
// (release then deduct on dispatch) get no cross-call atomicity.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds the Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// PostInbound adds on-hand quantity and recomputes the weighted average cost.
func (s *Service) PostInbound(ctx context.Context, input InboundInput) (Movement, error) {
	if input.CompanyID == 0 || input.ItemCode == "" {
		return Movement{}, ErrItemRequired
	}
	if input.Qty <= 0 {
		return Movement{}, ErrInvalidQuantity
	}
	if input.UnitCost < 0 {
		return Movement{}, fmt.Errorf("%w: negative unit cost", ErrInvalidQuantity)
	}

	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		balance, err := tx.GetBalanceForUpdate(ctx, input.CompanyID, input.ItemCode)
		if err != nil {
			return err
		}
		newQty := balance.OnHand + input.Qty
		if newQty > 0 {
			balance.AvgCost = (balance.OnHand*balance.AvgCost + input.Qty*input.UnitCost) / newQty
		}
		balance.OnHand = newQty
		balance.UpdatedAt = time.Now().UTC()
		if err := tx.SaveBalance(ctx, balance); err != nil {
			return err
		}
		movement = Movement{
			CompanyID:  input.CompanyID,
			ItemCode:   input.ItemCode,
			Type:       MovementIn,
			Qty:        input.Qty,
			UnitCost:   input.UnitCost,
			ToLocation: input.Location,
			RefModule:  input.RefModule,
			RefID:      input.RefID,
			Note:       input.Note,
			PostedBy:   input.ActorID,
			PostedAt:   balance.UpdatedAt,
		}
		movement.ID, err = tx.InsertMovement(ctx, movement)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, input.CompanyID, input.ActorID, "STOCK_IN", input.ItemCode, map[string]any{"qty": input.Qty, "ref": input.RefID})
	return movement, nil
}

// PostAdjustment corrects stock up or down with an ADJUST movement.
func (s *Service) PostAdjustment(ctx context.Context, input AdjustmentInput) (Movement, error) {
	if input.CompanyID == 0 || input.ItemCode == "" {
		return Movement{}, ErrItemRequired
	}
	if math.Abs(input.Qty) < 1e-9 {
		return Movement{}, ErrInvalidQuantity
	}
	if input.Qty > 0 && input.UnitCost < 0 {
		return Movement{}, fmt.Errorf("%w: negative unit cost", ErrInvalidQuantity)
	}

	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		balance, err := tx.GetBalanceForUpdate(ctx, input.CompanyID, input.ItemCode)
		if err != nil {
			return err
		}
		newQty := balance.OnHand + input.Qty
		if newQty < 0 {
			return ErrNegativeStock
		}
		if input.Qty > 0 && newQty > 0 {
			balance.AvgCost = (balance.OnHand*balance.AvgCost + input.Qty*input.UnitCost) / newQty
		}
		balance.OnHand = newQty
		balance.UpdatedAt = time.Now().UTC()
		if err := tx.SaveBalance(ctx, balance); err != nil {
			return err
		}
		movement = Movement{
			CompanyID: input.CompanyID,
			ItemCode:  input.ItemCode,
			Type:      MovementAdjust,
			Qty:       input.Qty,
			UnitCost:  input.UnitCost,
			RefModule: input.RefModule,
			RefID:     input.RefID,
			Note:      input.Note,
			PostedBy:  input.ActorID,
			PostedAt:  balance.UpdatedAt,
		}
		movement.ID, err = tx.InsertMovement(ctx, movement)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, input.CompanyID, input.ActorID, "STOCK_ADJUST", input.ItemCode, map[string]any{"qty": input.Qty})
	return movement, nil
}

// PostTransfer relocates stock between storage locations. Company-level
// quantities do not change; it records the TRANSFER movement for the card.
func (s *Service) PostTransfer(ctx context.Context, input TransferInput) (Movement, error) {
	if input.CompanyID == 0 || input.ItemCode == "" {
		return Movement{}, ErrItemRequired
	}
	if input.Qty <= 0 {
		return Movement{}, ErrInvalidQuantity
	}
	if input.FromLocation == "" || input.ToLocation == "" || input.FromLocation == input.ToLocation {
		return Movement{}, fmt.Errorf("%w: source and destination locations must differ", ErrInvalidQuantity)
	}

	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		balance, err := tx.GetBalanceForUpdate(ctx, input.CompanyID, input.ItemCode)
		if err != nil {
			return err
		}
		if balance.OnHand < input.Qty {
			return ErrNegativeStock
		}
		movement = Movement{
			CompanyID:    input.CompanyID,
			ItemCode:     input.ItemCode,
			Type:         MovementTransfer,
			Qty:          input.Qty,
			UnitCost:     balance.AvgCost,
			FromLocation: input.FromLocation,
			ToLocation:   input.ToLocation,
			RefModule:    "inventory",
			RefID:        input.RefID,
			Note:         input.Note,
			PostedBy:     input.ActorID,
			PostedAt:     time.Now().UTC(),
		}
		movement.ID, err = tx.InsertMovement(ctx, movement)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, input.CompanyID, input.ActorID, "STOCK_TRANSFER", input.ItemCode, map[string]any{"qty": input.Qty, "from": input.FromLocation, "to": input.ToLocation})
	return movement, nil
}

// Reserve holds available quantity for a source document.
func (s *Service) Reserve(ctx context.Context, input ReservationInput) error {
	if input.CompanyID == 0 || input.ItemCode == "" {
		return ErrItemRequired
	}
	if input.Qty <= 0 {
		return ErrInvalidQuantity
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		balance, err := tx.GetBalanceForUpdate(ctx, input.CompanyID, input.ItemCode)
		if err != nil {
			return err
		}
		if balance.Available() < input.Qty {
			return fmt.Errorf("%w: %s available %.2f requested %.2f",
				ErrInsufficientStock, input.ItemCode, balance.Available(), input.Qty)
		}
		balance.Reserved += input.Qty
		balance.UpdatedAt = time.Now().UTC()
		return tx.SaveBalance(ctx, balance)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, input.CompanyID, input.ActorID, "STOCK_RESERVE", input.ItemCode, map[string]any{"qty": input.Qty, "ref": input.RefID})
	return nil
}

// Release returns previously reserved quantity.
func (s *Service) Release(ctx context.Context, input ReservationInput) error {
	if input.CompanyID == 0 || input.ItemCode == "" {
		return ErrItemRequired
	}
	if input.Qty <= 0 {
		return ErrInvalidQuantity
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		balance, err := tx.GetBalanceForUpdate(ctx, input.CompanyID, input.ItemCode)
		if err != nil {
			return err
		}
		if balance.Reserved < input.Qty {
			return fmt.Errorf("%w: %s reserved %.2f release %.2f",
				ErrInvalidQuantity, input.ItemCode, balance.Reserved, input.Qty)
		}
		balance.Reserved -= input.Qty
		balance.UpdatedAt = time.Now().UTC()
		return tx.SaveBalance(ctx, balance)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, input.CompanyID, input.ActorID, "STOCK_RELEASE", input.ItemCode, map[string]any{"qty": input.Qty, "ref": input.RefID})
	return nil
}

// Deduct removes on-hand quantity and records an OUT movement. Dispatch
// callers invoke Release followed by Deduct as two sequential calls.
func (s *Service) Deduct(ctx context.Context, input DeductInput) (Movement, error) {
	if input.CompanyID == 0 || input.ItemCode == "" {
		return Movement{}, ErrItemRequired
	}
	if input.Qty <= 0 {
		return Movement{}, ErrInvalidQuantity
	}

	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		balance, err := tx.GetBalanceForUpdate(ctx, input.CompanyID, input.ItemCode)
		if err != nil {
			return err
		}
		if balance.OnHand < input.Qty {
			return ErrNegativeStock
		}
		balance.OnHand -= input.Qty
		balance.UpdatedAt = time.Now().UTC()
		if err := tx.SaveBalance(ctx, balance); err != nil {
			return err
		}
		movement = Movement{
			CompanyID: input.CompanyID,
			ItemCode:  input.ItemCode,
			Type:      MovementOut,
			Qty:       input.Qty,
			UnitCost:  balance.AvgCost,
			RefModule: input.RefModule,
			RefID:     input.RefID,
			Note:      input.Note,
			PostedBy:  input.ActorID,
			PostedAt:  balance.UpdatedAt,
		}
		movement.ID, err = tx.InsertMovement(ctx, movement)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, input.CompanyID, input.ActorID, "STOCK_OUT", input.ItemCode, map[string]any{"qty": input.Qty, "ref": input.RefID})
	return movement, nil
}

// GetBalance returns the stock balance for one item.
func (s *Service) GetBalance(ctx context.Context, companyID int64, itemCode string) (Balance, error) {
	if companyID == 0 || itemCode == "" {
		return Balance{}, ErrItemRequired
	}
	return s.repo.GetBalance(ctx, companyID, itemCode)
}

// ListBalances lists balances for a company with optional search.
func (s *Service) ListBalances(ctx context.Context, companyID int64, search string, limit, offset int) ([]Balance, int, error) {
	return s.repo.ListBalances(ctx, companyID, search, limit, offset)
}

// ListMovements lists the movement register.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.ListMovements(ctx, filter)
}

func (s *Service) recordAudit(ctx context.Context, companyID, actorID int64, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		CompanyID: companyID,
		ActorID:   actorID,
		Action:    action,
		Entity:    "stock_item",
		EntityID:  entityID,
		Meta:      meta,
	})
}
