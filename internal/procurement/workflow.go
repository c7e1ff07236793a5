package procurement

import "github.com/texfab-erp/texfab-erp/internal/workflow"

// statusMachine encodes the purchase order lifecycle. Receiving statuses are
// driven by posted receipt quantities, not by direct transition requests, so
// partially_received/received only appear as targets here to keep the table
// complete for the compare-and-set in the repository.
var statusMachine = workflow.New(map[Status][]Status{
	StatusDraft:             {StatusPendingApproval, StatusCancelled},
	StatusPendingApproval:   {StatusApproved, StatusDraft, StatusCancelled},
	StatusApproved:          {StatusOrdered, StatusCancelled},
	StatusOrdered:           {StatusPartiallyReceived, StatusReceived, StatusCancelled},
	StatusPartiallyReceived: {StatusReceived},
	StatusReceived:          nil,
	StatusCancelled:         nil,
})

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	return statusMachine.CanTransition(from, to)
}

// receivable reports whether receipts may be posted in s.
func receivable(s Status) bool {
	return s == StatusOrdered || s == StatusPartiallyReceived
}

// requestable statuses a client may ask for directly; receipt-driven states
// are excluded.
func requestable(to Status) bool {
	switch to {
	case StatusPartiallyReceived, StatusReceived:
		return false
	}
	return true
}
