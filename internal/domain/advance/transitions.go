package advance

// Action moves an advance payment between statuses.
type Action string

const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionComplete Action = "complete"
)

var transitionMap = map[Action]struct {
	from Status
	to   Status
}{
	ActionApprove:  {from: StatusPending, to: StatusApproved},
	ActionReject:   {from: StatusPending, to: StatusRejected},
	ActionComplete: {from: StatusApproved, to: StatusCompleted},
}

// NextStatus returns the target status of action from the given status.
func NextStatus(action Action, from Status) (Status, bool) {
	t, ok := transitionMap[action]
	if !ok || t.from != from {
		return "", false
	}
	return t.to, true
}
