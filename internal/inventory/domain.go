package inventory

import (
	"errors"
	"time"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementIn represents an inbound movement (GRN, production output).
	MovementIn MovementType = "IN"
	// MovementOut represents an outbound movement (dispatch).
	MovementOut MovementType = "OUT"
	// MovementTransfer records a relocation between storage locations.
	MovementTransfer MovementType = "TRANSFER"
	// MovementAdjust indicates manual adjustments.
	MovementAdjust MovementType = "ADJUST"
)

// Movement is an append-only record of one stock event. Movements are never
// updated or deleted; balances are derived state.
type Movement struct {
	ID           int64        `json:"id"`
	CompanyID    int64        `json:"company_id"`
	ItemCode     string       `json:"item_code"`
	Type         MovementType `json:"type"`
	Qty          float64      `json:"qty"`
	UnitCost     float64      `json:"unit_cost"`
	FromLocation string       `json:"from_location,omitempty"`
	ToLocation   string       `json:"to_location,omitempty"`
	RefModule    string       `json:"ref_module"`
	RefID        string       `json:"ref_id"`
	Note         string       `json:"note,omitempty"`
	PostedBy     int64        `json:"posted_by"`
	PostedAt     time.Time    `json:"posted_at"`
}

// Balance summarises stock per company and item.
type Balance struct {
	CompanyID int64     `json:"company_id"`
	ItemCode  string    `json:"item_code"`
	OnHand    float64   `json:"on_hand"`
	Reserved  float64   `json:"reserved"`
	AvgCost   float64   `json:"avg_cost"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Available is the quantity not held by reservations.
func (b Balance) Available() float64 {
	return b.OnHand - b.Reserved
}

// MovementFilter narrows movement listings.
type MovementFilter struct {
	CompanyID int64
	ItemCode  string
	Type      MovementType
	RefModule string
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

// InboundInput posts stock in (goods receipt, production output).
type InboundInput struct {
	CompanyID int64
	ItemCode  string
	Qty       float64
	UnitCost  float64
	Location  string
	RefModule string
	RefID     string
	Note      string
	ActorID   int64
}

// AdjustmentInput corrects stock up or down.
type AdjustmentInput struct {
	CompanyID int64
	ItemCode  string
	Qty       float64
	UnitCost  float64
	RefModule string
	RefID     string
	Note      string
	ActorID   int64
}

// TransferInput relocates stock between storage locations.
type TransferInput struct {
	CompanyID    int64
	ItemCode     string
	Qty          float64
	FromLocation string
	ToLocation   string
	RefID        string
	Note         string
	ActorID      int64
}

// ReservationInput reserves or releases quantity against a source document.
type ReservationInput struct {
	CompanyID int64
	ItemCode  string
	Qty       float64
	RefModule string
	RefID     string
	ActorID   int64
}

// DeductInput removes on-hand quantity, recording an OUT movement.
type DeductInput struct {
	CompanyID int64
	ItemCode  string
	Qty       float64
	RefModule string
	RefID     string
	Note      string
	ActorID   int64
}

var (
	// ErrNegativeStock is raised when a movement would drive on-hand below zero.
	ErrNegativeStock = errors.New("inventory: negative stock not allowed")
	// ErrInsufficientStock is raised when a reservation exceeds available stock.
	ErrInsufficientStock = errors.New("inventory: insufficient available stock")
	// ErrInvalidQuantity covers zero or wrong-signed quantities.
	ErrInvalidQuantity = errors.New("inventory: invalid quantity")
	// ErrItemRequired occurs when company or item identifiers are missing.
	ErrItemRequired = errors.New("inventory: company and item required")
)
