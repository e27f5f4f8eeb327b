package models

type ApprovalStatus string

const (
	ApprovalStatusPending   ApprovalStatus = "pending"
	ApprovalStatusApproved  ApprovalStatus = "approved"
	ApprovalStatusRejected  ApprovalStatus = "rejected"
	ApprovalStatusDelegated ApprovalStatus = "delegated"
	ApprovalStatusCancelled ApprovalStatus = "cancelled"
)

var approvalStatusHumanName = map[ApprovalStatus]string{
	ApprovalStatusPending:   "Ожидает решения",
	ApprovalStatusApproved:  "Согласовано",
	ApprovalStatusRejected:  "Отклонено",
	ApprovalStatusDelegated: "Делегировано",
	ApprovalStatusCancelled: "Отменено",
}

func (s ApprovalStatus) ToHuman() string {
	if human, exist := approvalStatusHumanName[s]; exist {
		return human
	}
	return string(s)
}

func (s ApprovalStatus) IsTerminal() bool {
	return s != ApprovalStatusPending
}

type WorkflowStatus string

const (
	WorkflowStatusInProgress WorkflowStatus = "in_progress"
	WorkflowStatusApproved   WorkflowStatus = "approved"
	WorkflowStatusRejected   WorkflowStatus = "rejected"
	WorkflowStatusCancelled  WorkflowStatus = "cancelled"
)

var workflowStatusHumanName = map[WorkflowStatus]string{
	WorkflowStatusInProgress: "На согласовании",
	WorkflowStatusApproved:   "Согласован",
	WorkflowStatusRejected:   "Отклонен",
	WorkflowStatusCancelled:  "Отозван",
}

func (s WorkflowStatus) ToHuman() string {
	if human, exist := workflowStatusHumanName[s]; exist {
		return human
	}
	return string(s)
}

type ApprovalAction string

const (
	ApprovalActionApprove  ApprovalAction = "approve"
	ApprovalActionReject   ApprovalAction = "reject"
	ApprovalActionDelegate ApprovalAction = "delegate"
	// ApprovalActionCancel is issued by the engine only (quorum reached, rejection, recall).
	ApprovalActionCancel ApprovalAction = "cancel"
)

func (a ApprovalAction) IsUserAction() bool {
	switch a {
	case ApprovalActionApprove, ApprovalActionReject, ApprovalActionDelegate:
		return true
	}
	return false
}

type ApprovalEventType string

const (
	ApprovalEventSubmitted        ApprovalEventType = "submitted"
	ApprovalEventLevelActivated   ApprovalEventType = "level_activated"
	ApprovalEventAssigned         ApprovalEventType = "assigned"
	ApprovalEventApproved         ApprovalEventType = "approved"
	ApprovalEventRejected         ApprovalEventType = "rejected"
	ApprovalEventDelegated        ApprovalEventType = "delegated"
	ApprovalEventCancelled        ApprovalEventType = "cancelled"
	ApprovalEventLevelCompleted   ApprovalEventType = "level_completed"
	ApprovalEventWorkflowClosed   ApprovalEventType = "workflow_closed"
	ApprovalEventWorkflowRecalled ApprovalEventType = "workflow_recalled"
	ApprovalEventOverdue          ApprovalEventType = "approval_overdue"
)

var approvalEventHumanName = map[ApprovalEventType]string{
	ApprovalEventSubmitted:        "Отправлен на согласование",
	ApprovalEventLevelActivated:   "Уровень запущен",
	ApprovalEventAssigned:         "Назначен согласующий",
	ApprovalEventApproved:         "Согласовано",
	ApprovalEventRejected:         "Отклонено",
	ApprovalEventDelegated:        "Делегировано",
	ApprovalEventCancelled:        "Отменено",
	ApprovalEventLevelCompleted:   "Уровень завершен",
	ApprovalEventWorkflowClosed:   "Согласование завершено",
	ApprovalEventWorkflowRecalled: "Отозван инициатором",
	ApprovalEventOverdue:          "Просрочено",
}

func (e ApprovalEventType) ToHuman() string {
	if human, exist := approvalEventHumanName[e]; exist {
		return human
	}
	return string(e)
}
