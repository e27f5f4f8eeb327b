package approvalstate

import (
	"approvals-backend/models"

	"github.com/pkg/errors"
)

var transitions = map[models.ApprovalStatus]map[models.ApprovalAction]models.ApprovalStatus{
	models.ApprovalStatusPending: {
		models.ApprovalActionApprove:  models.ApprovalStatusApproved,
		models.ApprovalActionReject:   models.ApprovalStatusRejected,
		models.ApprovalActionDelegate: models.ApprovalStatusDelegated,
		models.ApprovalActionCancel:   models.ApprovalStatusCancelled,
	},
}

// Transition is the only place an approval status changes. Every status except pending is terminal.
func Transition(from models.ApprovalStatus, action models.ApprovalAction) (models.ApprovalStatus, error) {
	to, ok := transitions[from][action]
	if !ok {
		return from, errors.Wrapf(models.ErrInvalidTransition, "%s -> %s", from, action)
	}
	return to, nil
}
