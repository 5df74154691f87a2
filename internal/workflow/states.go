package workflow

import "github.com/nurpe/rentflow/internal/model"

// CanDecide reports whether an application in status from may move to status to.
// Only pending applications are decided, and only to approved or rejected.
func CanDecide(from, to model.ApplicationStatus) bool {
	if from != model.ApplicationStatusPending {
		return false
	}
	return to == model.ApplicationStatusApproved || to == model.ApplicationStatusRejected
}

func ValidApplicationStatus(status model.ApplicationStatus) bool {
	switch status {
	case model.ApplicationStatusPending, model.ApplicationStatusApproved, model.ApplicationStatusRejected:
		return true
	}
	return false
}

type Settlement int

const (
	// SettlementApply means the payment row should be updated.
	SettlementApply Settlement = iota
	// SettlementReplay means the row is already in the target state.
	SettlementReplay
	// SettlementReject means the row is terminal in a different state.
	SettlementReject
)

// Settle decides what a gateway result does to a payment in status from.
func Settle(from, to model.PaymentStatus) Settlement {
	switch {
	case from == to:
		return SettlementReplay
	case from == model.PaymentStatusPending:
		return SettlementApply
	default:
		return SettlementReject
	}
}
