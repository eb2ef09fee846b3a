package payroll

// Action is an operator request that moves a payment to another status.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionFail    Action = "fail"
	ActionPay     Action = "pay"
)

type transition struct {
	from []PaymentStatus
	to   PaymentStatus
}

// Statuses only move forward. Paid, Rejected and Failed are terminal.
var transitionMap = map[Action]transition{
	ActionApprove: {from: []PaymentStatus{PaymentStatusPending}, to: PaymentStatusApproved},
	ActionReject:  {from: []PaymentStatus{PaymentStatusPending, PaymentStatusApproved}, to: PaymentStatusRejected},
	ActionFail:    {from: []PaymentStatus{PaymentStatusApproved}, to: PaymentStatusFailed},
	ActionPay:     {from: []PaymentStatus{PaymentStatusApproved}, to: PaymentStatusPaid},
}

// NextStatus returns the status action leads to from the given status, and
// false when the move is not allowed.
func NextStatus(action Action, from PaymentStatus) (PaymentStatus, bool) {
	t, ok := transitionMap[action]
	if !ok {
		return "", false
	}
	for _, status := range t.from {
		if status == from {
			return t.to, true
		}
	}
	return "", false
}
