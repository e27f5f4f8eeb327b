package approvalroutinghandler

import (
	approvalevents "approvals-backend/lib/approval-events"
	approvallevelstore "approvals-backend/lib/approval-level/store"
	approvalstate "approvals-backend/lib/approval/state"
	approvalstore "approvals-backend/lib/approval/store"
	approvalworkflowstore "approvals-backend/lib/approval/workflow-store"
	delegationhandler "approvals-backend/lib/delegation"
	"approvals-backend/models"
	dbmodels "approvals-backend/models/db"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TxEngine activates levels and closes workflows inside the caller's transaction.
// Events go to batch and are published by the caller after commit.
type TxEngine struct {
	now           time.Time
	batch         *approvalevents.Batch
	levelStore    approvallevelstore.Provider
	approvalStore approvalstore.Provider
	workflowStore approvalworkflowstore.Provider
	delegation    delegationhandler.Provider
}

func NewTxEngine(tx *gorm.DB, now time.Time, batch *approvalevents.Batch) *TxEngine {
	return &TxEngine{
		now:           now,
		batch:         batch,
		levelStore:    approvallevelstore.NewInstance(tx),
		approvalStore: approvalstore.NewInstance(tx),
		workflowStore: approvalworkflowstore.NewInstance(tx),
		delegation:    delegationhandler.NewHandlerWithTx(tx),
	}
}

func (e *TxEngine) logger(wf *dbmodels.ApprovalWorkflow) *log.Entry {
	return log.
		WithField("company_id", wf.CompanyID).
		WithField("workflow_id", wf.ID).
		WithField("document_type", wf.DocumentType).
		WithField("document_id", wf.DocumentID)
}

// MatchingLevels returns active levels of the document type whose amount range contains amount, lowest first.
func (e *TxEngine) MatchingLevels(companyID, documentType string, amount decimal.Decimal, afterLevel int) ([]dbmodels.ApprovalLevel, error) {
	list, err := e.levelStore.ListActive(companyID, documentType)
	if err != nil {
		return nil, err
	}
	result := make([]dbmodels.ApprovalLevel, 0, len(list))
	for _, level := range list {
		if level.Level <= afterLevel || !level.Matches(amount) {
			continue
		}
		result = append(result, level)
	}
	return result, nil
}

// ActivateNext materializes the next applicable level using the configuration current at this moment.
// A level already materialized for the workflow is never activated again, even after renumbering.
// It returns nil when no level remains.
func (e *TxEngine) ActivateNext(wf *dbmodels.ApprovalWorkflow, actorID string) (*dbmodels.ApprovalLevel, error) {
	levels, err := e.MatchingLevels(wf.CompanyID, wf.DocumentType, wf.Amount, wf.CurrentLevelNumber)
	if err != nil {
		return nil, err
	}
	rows, err := e.approvalStore.ListByWorkflow(wf.ID)
	if err != nil {
		return nil, err
	}
	visited := make(map[string]struct{}, len(rows))
	for _, rec := range rows {
		visited[rec.ApprovalLevelID] = struct{}{}
	}
	for _, level := range levels {
		if _, ok := visited[level.ID]; ok {
			e.logger(wf).
				WithField("approval_level_id", level.ID).
				WithField("level", level.Level).
				Warn("Уровень согласования уже пройден в этом процессе, пропускаем")
			continue
		}
		if _, err = e.Activate(wf, level, actorID); err != nil {
			return nil, err
		}
		return &level, nil
	}
	return nil, nil
}

// Activate creates one pending approval per eligible approver and snapshots the quorum on the workflow.
func (e *TxEngine) Activate(wf *dbmodels.ApprovalWorkflow, level dbmodels.ApprovalLevel, actorID string) (approvalIDs []string, err error) {
	logger := e.logger(wf).WithField("level", level.Level)
	approvers, err := e.delegation.ListEligibleApprovers(level.ID, e.now)
	if err != nil {
		return nil, err
	}
	if len(approvers) == 0 {
		return nil, models.NewValidationError("approval_level_id", fmt.Sprintf("в уровне согласования %d нет активных участников", level.Level))
	}
	quorum := level.RequiredApprovals
	if level.RequiresAllApprovers {
		quorum = len(approvers)
	} else if quorum > len(approvers) {
		logger.
			WithField("required_approvals", level.RequiredApprovals).
			WithField("roster_size", len(approvers)).
			Warn("Кворум уровня больше числа участников, используется число участников")
		quorum = len(approvers)
	}
	dueDate := DueDate(level, e.now)
	approvalIDs = make([]string, 0, len(approvers))
	for _, approverID := range approvers {
		rec := dbmodels.Approval{
			BaseCompanyModel: dbmodels.BaseCompanyModel{
				BaseModel: dbmodels.BaseModel{
					CreatedAt: e.now,
				},
				CompanyID: wf.CompanyID,
			},
			WorkflowID:      wf.ID,
			DocumentType:    wf.DocumentType,
			DocumentID:      wf.DocumentID,
			DocumentNumber:  wf.DocumentNumber,
			ApprovalLevelID: level.ID,
			LevelNumber:     level.Level,
			RequestedBy:     wf.RequestedBy,
			ApproverID:      approverID,
			DocumentAmount:  wf.Amount,
			Status:          models.ApprovalStatusPending,
			DueDate:         dueDate,
			Version:         1,
		}
		id, err := e.approvalStore.Create(rec)
		if err != nil {
			return nil, errors.Wrap(err, "ошибка создания согласования")
		}
		rec.ID = id
		approvalIDs = append(approvalIDs, id)
		e.batch.Add(e.ApprovalEvent(models.ApprovalEventAssigned, rec, actorID, "", string(models.ApprovalStatusPending), ""))
	}
	updMap := map[string]interface{}{
		"current_level_id":     level.ID,
		"current_level_number": level.Level,
		"current_quorum":       quorum,
		"current_roster_size":  len(approvers),
	}
	if err = e.workflowStore.Update(wf.ID, updMap); err != nil {
		return nil, err
	}
	wf.CurrentLevelID = level.ID
	wf.CurrentLevelNumber = level.Level
	wf.CurrentQuorum = quorum
	wf.CurrentRosterSize = len(approvers)
	e.batch.Add(e.WorkflowEvent(models.ApprovalEventLevelActivated, wf, actorID, "", "", level.Name))
	logger.
		WithField("approvers", len(approvers)).
		WithField("quorum", quorum).
		Info("Активирован уровень согласования")
	return approvalIDs, nil
}

// CancelPending closes the given pending approvals, each under its own version check.
func (e *TxEngine) CancelPending(list []dbmodels.Approval, actorID, comment string) error {
	for _, rec := range list {
		to, err := approvalstate.Transition(rec.Status, models.ApprovalActionCancel)
		if err != nil {
			return err
		}
		ok, err := e.approvalStore.CompareAndSwap(rec.ID, rec.Version, map[string]interface{}{
			"status": to,
		})
		if err != nil {
			return err
		}
		if !ok {
			return errors.Wrapf(models.ErrStaleApprovalState, "согласование %s", rec.ID)
		}
		e.batch.Add(e.ApprovalEvent(models.ApprovalEventCancelled, rec, actorID, string(rec.Status), string(to), comment))
	}
	return nil
}

// Close moves the workflow to its final status once. Approved and rejected workflows are handed to the document owner.
func (e *TxEngine) Close(wf *dbmodels.ApprovalWorkflow, status models.WorkflowStatus, eventType models.ApprovalEventType, actorID, comment string) error {
	ok, err := e.workflowStore.Finalize(wf.ID, status, e.now)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(models.ErrStaleApprovalState, "процесс согласования %s уже завершен", wf.ID)
	}
	from := wf.Status
	completedAt := e.now
	wf.Status = status
	wf.CompletedAt = &completedAt
	e.batch.Add(e.WorkflowEvent(eventType, wf, actorID, string(from), string(status), comment))
	if status == models.WorkflowStatusApproved || status == models.WorkflowStatusRejected {
		e.batch.Finalized(approvalevents.Finalization{
			CompanyID:    wf.CompanyID,
			WorkflowID:   wf.ID,
			DocumentType: wf.DocumentType,
			DocumentID:   wf.DocumentID,
			Status:       status,
		})
	}
	e.logger(wf).WithField("status", status).Info("Процесс согласования завершен")
	return nil
}

// ApprovalEvent builds an event for one approval row at the engine clock.
func (e *TxEngine) ApprovalEvent(eventType models.ApprovalEventType, rec dbmodels.Approval, actorID, from, to, comment string) approvalevents.Event {
	return approvalevents.Event{
		Type:           eventType,
		CompanyID:      rec.CompanyID,
		WorkflowID:     rec.WorkflowID,
		ApprovalID:     rec.ID,
		DocumentType:   rec.DocumentType,
		DocumentID:     rec.DocumentID,
		DocumentNumber: rec.DocumentNumber,
		LevelNumber:    rec.LevelNumber,
		RequestedBy:    rec.RequestedBy,
		ApproverID:     rec.ApproverID,
		ActorID:        actorID,
		FromStatus:     from,
		ToStatus:       to,
		Comment:        comment,
		DueDate:        rec.DueDate,
		OccurredAt:     e.now,
	}
}

func (e *TxEngine) WorkflowEvent(eventType models.ApprovalEventType, wf *dbmodels.ApprovalWorkflow, actorID, from, to, comment string) approvalevents.Event {
	return approvalevents.Event{
		Type:           eventType,
		CompanyID:      wf.CompanyID,
		WorkflowID:     wf.ID,
		DocumentType:   wf.DocumentType,
		DocumentID:     wf.DocumentID,
		DocumentNumber: wf.DocumentNumber,
		LevelNumber:    wf.CurrentLevelNumber,
		RequestedBy:    wf.RequestedBy,
		ActorID:        actorID,
		FromStatus:     from,
		ToStatus:       to,
		Comment:        comment,
		OccurredAt:     e.now,
	}
}

// DueDate is now plus the level SLA, or nil when the level has none.
func DueDate(level dbmodels.ApprovalLevel, now time.Time) *time.Time {
	if level.SlaHours == nil || *level.SlaHours <= 0 {
		return nil
	}
	due := now.Add(time.Duration(*level.SlaHours) * time.Hour)
	return &due
}
