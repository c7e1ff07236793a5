package billing

import "github.com/texfab-erp/texfab-erp/internal/workflow"

// statusMachine encodes the invoice lifecycle. Partial/full payments drive the
// paid statuses; clients can only request issue and void.
var statusMachine = workflow.New(map[Status][]Status{
	StatusDraft:         {StatusIssued, StatusVoid},
	StatusIssued:        {StatusPartiallyPaid, StatusPaid, StatusVoid},
	StatusPartiallyPaid: {StatusPaid},
	StatusPaid:          nil,
	StatusVoid:          nil,
})

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	return statusMachine.CanTransition(from, to)
}

// payable reports whether payments may be recorded in s.
func payable(s Status) bool {
	return s == StatusIssued || s == StatusPartiallyPaid
}

// requestable statuses a client may ask for directly.
func requestable(to Status) bool {
	return to == StatusIssued || to == StatusVoid
}
