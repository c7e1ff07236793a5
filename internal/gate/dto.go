package gate

// RegisterVehicleRequest registers a vehicle at the gate.
type RegisterVehicleRequest struct {
	PlateNo         string  `json:"plate_no" validate:"required,max=20"`
	VehicleType     string  `json:"vehicle_type" validate:"required,oneof=truck van pickup container trailer"`
	DriverName      string  `json:"driver_name" validate:"required,max=100"`
	DriverPhone     *string `json:"driver_phone,omitempty" validate:"omitempty,max=50"`
	TransporterName *string `json:"transporter_name,omitempty" validate:"omitempty,max=200"`
}

// CreatePassRequest issues a gate pass.
type CreatePassRequest struct {
	Direction   Direction         `json:"direction" validate:"required,oneof=inward outward visitor"`
	Purpose     string            `json:"purpose" validate:"required,max=200"`
	VehicleID   int64             `json:"vehicle_id" validate:"required,gt=0"`
	RefModule   *string           `json:"ref_module,omitempty" validate:"omitempty,max=50"`
	RefID       *string           `json:"ref_id,omitempty" validate:"omitempty,max=50"`
	ValidForHrs *int              `json:"valid_for_hours,omitempty" validate:"omitempty,gt=0,lte=168"`
	Notes       *string           `json:"notes,omitempty"`
	Items       []PassItemRequest `json:"items,omitempty" validate:"omitempty,dive"`
}

// PassItemRequest is one load item on the pass.
type PassItemRequest struct {
	ItemCode    string  `json:"item_code" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=500"`
	Qty         float64 `json:"qty" validate:"required,gt=0"`
	Unit        string  `json:"unit" validate:"required,max=20"`
}
