package gate

import (
	"errors"
	"time"
)

// PassStatus is the gate pass lifecycle state.
type PassStatus string

const (
	PassIssued    PassStatus = "issued"
	PassInside    PassStatus = "inside"
	PassClosed    PassStatus = "closed"
	PassCancelled PassStatus = "cancelled"
)

// Direction says which way the load crosses the gate.
type Direction string

const (
	DirectionInward  Direction = "inward"
	DirectionOutward Direction = "outward"
	DirectionVisitor Direction = "visitor"
)

var (
	// ErrVehicleNotFound indicates the vehicle is absent or owned by
	// another tenant.
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrDuplicatePlate indicates the plate number is taken within the
	// company.
	ErrDuplicatePlate = errors.New("vehicle plate already registered")
	// ErrPassNotFound indicates the pass is absent or owned by another
	// tenant.
	ErrPassNotFound = errors.New("gate pass not found")
	// ErrNoItems indicates a pass issued without load items.
	ErrNoItems = errors.New("gate pass requires at least one item")
)

// Vehicle is a truck or van registered at the gate.
type Vehicle struct {
	ID              int64     `json:"id"`
	CompanyID       int64     `json:"company_id"`
	PlateNo         string    `json:"plate_no"`
	VehicleType     string    `json:"vehicle_type"`
	DriverName      string    `json:"driver_name"`
	DriverPhone     *string   `json:"driver_phone,omitempty"`
	TransporterName *string   `json:"transporter_name,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// GatePass authorises one vehicle movement through the gate. Check-in and
// check-out timestamps are stamped by the respective transitions.
type GatePass struct {
	ID         int64          `json:"id"`
	CompanyID  int64          `json:"company_id"`
	PassNo     string         `json:"pass_no"`
	Direction  Direction      `json:"direction"`
	Purpose    string         `json:"purpose"`
	VehicleID  int64          `json:"vehicle_id"`
	RefModule  *string        `json:"ref_module,omitempty"`
	RefID      *string        `json:"ref_id,omitempty"`
	Status     PassStatus     `json:"status"`
	IssuedBy   int64          `json:"issued_by"`
	IssuedAt   time.Time      `json:"issued_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
	CheckInAt  *time.Time     `json:"check_in_at,omitempty"`
	CheckOutAt *time.Time     `json:"check_out_at,omitempty"`
	Notes      *string        `json:"notes,omitempty"`
	Items      []GatePassItem `json:"items,omitempty"`
}

// GatePassItem is one load item on the pass.
type GatePassItem struct {
	ID          int64   `json:"id"`
	PassID      int64   `json:"pass_id"`
	ItemCode    string  `json:"item_code"`
	Description string  `json:"description"`
	Qty         float64 `json:"qty"`
	Unit        string  `json:"unit"`
}

// ListPassesRequest filters the pass listing.
type ListPassesRequest struct {
	CompanyID int64
	Status    *PassStatus
	Direction *Direction
	VehicleID *int64
	Search    string
	Limit     int
	Offset    int
}
