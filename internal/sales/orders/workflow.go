package orders

import "github.com/texfab-erp/texfab-erp/internal/workflow"

// statusMachine encodes the sales order lifecycle. Cancellation is only open
// while the order has not left the plant; once dispatched the order can only
// move forward to delivered.
var statusMachine = workflow.New(map[Status][]Status{
	StatusDraft:            {StatusConfirmed, StatusCancelled},
	StatusConfirmed:        {StatusInProduction, StatusCancelled},
	StatusInProduction:     {StatusQualityCheck, StatusCancelled},
	StatusQualityCheck:     {StatusReadyForDispatch, StatusInProduction},
	StatusReadyForDispatch: {StatusDispatched},
	StatusDispatched:       {StatusDelivered},
	StatusDelivered:        nil,
	StatusCancelled:        nil,
})

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	return statusMachine.CanTransition(from, to)
}

// AllowedFrom lists the legal next statuses.
func AllowedFrom(from Status) []Status {
	return statusMachine.AllowedFrom(from)
}

// holdsReservation reports whether own-stock lines hold a reservation in s.
func holdsReservation(s Status) bool {
	switch s {
	case StatusConfirmed, StatusInProduction, StatusQualityCheck, StatusReadyForDispatch:
		return true
	}
	return false
}
