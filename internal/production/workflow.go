package production

import "github.com/texfab-erp/texfab-erp/internal/workflow"

// stageMachine encodes the per-stage lifecycle. Completed is terminal; a held
// stage resumes back to in_progress.
var stageMachine = workflow.New(map[StageStatus][]StageStatus{
	StagePending:    {StageInProgress},
	StageInProgress: {StageCompleted, StageOnHold},
	StageOnHold:     {StageInProgress},
	StageCompleted:  nil,
})

// CanTransitionStage reports whether from -> to is a legal stage change.
func CanTransitionStage(from, to StageStatus) bool {
	return stageMachine.CanTransition(from, to)
}

// deriveOrderStatus rolls the stage states up into the parent order status.
// Any held stage holds the whole order; all stages completed completes it.
func deriveOrderStatus(stages []ProductionStage) OrderStatus {
	allCompleted := true
	anyTouched := false
	for _, st := range stages {
		switch st.Status {
		case StageOnHold:
			return OrderOnHold
		case StageCompleted:
			anyTouched = true
		case StageInProgress:
			anyTouched = true
			allCompleted = false
		default:
			allCompleted = false
		}
	}
	if allCompleted && len(stages) > 0 {
		return OrderCompleted
	}
	if anyTouched {
		return OrderInProgress
	}
	return OrderPending
}
