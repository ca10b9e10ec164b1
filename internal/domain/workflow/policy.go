package workflow

import "github.com/garyjia/leave-approval/internal/domain/entity"

// Acted is the action just processed by the engine
type Acted struct {
	Action entity.Action
	Mode   entity.Mode
}

// Aggregate computes the request status from the full step set after the
// acted outcome has been recorded. Priority:
//  1. manual mode: the acted action decides the request.
//  2. any rejection (acted or recorded): rejected.
//  3. every step decided: approved.
//  4. otherwise pending.
//
// An empty chain with a normal action stays pending; only a manual
// override resolves it.
func Aggregate(steps []*entity.ApprovalStep, acted Acted) entity.Status {
	if acted.Mode == entity.ModeManual {
		if acted.Action == entity.ActionApproved {
			return entity.StatusApproved
		}
		return entity.StatusRejected
	}

	if acted.Action == entity.ActionRejected {
		return entity.StatusRejected
	}
	for _, s := range steps {
		if s.Action == entity.ActionRejected {
			return entity.StatusRejected
		}
	}

	if len(steps) == 0 {
		return entity.StatusPending
	}
	for _, s := range steps {
		if !s.IsDecided() {
			return entity.StatusPending
		}
	}
	return entity.StatusApproved
}

// TriggerFor maps an aggregate outcome to the transition that produces it
func TriggerFor(acted Acted, result entity.Status) Trigger {
	manual := acted.Mode == entity.ModeManual
	switch {
	case result == entity.StatusApproved && manual:
		return TriggerOverrideApprove
	case result == entity.StatusRejected && manual:
		return TriggerOverrideReject
	case result == entity.StatusApproved:
		return TriggerApprove
	case result == entity.StatusRejected:
		return TriggerReject
	}
	return TriggerRecord
}

// NextActor returns the first role of chain with no recorded outcome.
// ok is false when every role is done or the chain is empty.
func NextActor(chain []string, completed map[string]bool) (role string, ok bool) {
	for _, r := range chain {
		if !completed[r] {
			return r, true
		}
	}
	return "", false
}
