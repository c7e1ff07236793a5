package gate

import "github.com/texfab-erp/texfab-erp/internal/workflow"

// passMachine encodes the gate pass lifecycle. A pass can only be cancelled
// before the vehicle is inside.
var passMachine = workflow.New(map[PassStatus][]PassStatus{
	PassIssued:    {PassInside, PassCancelled},
	PassInside:    {PassClosed},
	PassClosed:    nil,
	PassCancelled: nil,
})

// CanTransition reports whether from -> to is a legal pass status change.
func CanTransition(from, to PassStatus) bool {
	return passMachine.CanTransition(from, to)
}
