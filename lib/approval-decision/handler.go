package approvaldecisionhandler

import (
	"approvals-backend/db"
	approvalevents "approvals-backend/lib/approval-events"
	approvallevelstore "approvals-backend/lib/approval-level/store"
	approvalroutinghandler "approvals-backend/lib/approval-routing"
	approvalstate "approvals-backend/lib/approval/state"
	approvalstore "approvals-backend/lib/approval/store"
	approvalworkflowstore "approvals-backend/lib/approval/workflow-store"
	companyusershandler "approvals-backend/lib/company/users"
	initchecker "approvals-backend/lib/utils/init-checker"
	"approvals-backend/models"
	approvalapimodels "approvals-backend/models/api/approval"
	dbmodels "approvals-backend/models/db"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Provider interface {
	Process(data approvalapimodels.ProcessData) (approvalapimodels.Outcome, error)
	ProcessBulk(data approvalapimodels.BulkData) ([]approvalapimodels.Outcome, error)
}

var Instance Provider

func NewHandler(dispatcher approvalevents.Dispatcher) {
	initchecker.CheckInit(
		"db.DB", db.DB,
		"dispatcher", dispatcher,
		"companyusershandler.Instance", companyusershandler.Instance,
	)
	Instance = NewHandlerWithDB(db.DB, dispatcher, time.Now)
}

func NewHandlerWithDB(conn *gorm.DB, dispatcher approvalevents.Dispatcher, now func() time.Time) Provider {
	return impl{
		db:         conn,
		dispatcher: dispatcher,
		now:        now,
	}
}

type impl struct {
	db         *gorm.DB
	dispatcher approvalevents.Dispatcher
	now        func() time.Time
}

func (i impl) getLogger(companyID, approvalID, userID string) *log.Entry {
	return log.
		WithField("company_id", companyID).
		WithField("approval_id", approvalID).
		WithField("user_id", userID)
}

func (i impl) Process(data approvalapimodels.ProcessData) (approvalapimodels.Outcome, error) {
	if err := data.DecisionData.Validate(); err != nil {
		return approvalapimodels.Outcome{}, err
	}
	now := i.now()
	batch := approvalevents.NewBatch()
	var outcome approvalapimodels.Outcome
	err := i.db.Transaction(func(tx *gorm.DB) error {
		var err error
		outcome, err = i.process(tx, now, batch, data)
		return err
	})
	if err != nil {
		return approvalapimodels.Outcome{}, err
	}
	i.dispatcher.Dispatch(batch)
	i.getLogger(data.CompanyID, data.ApprovalID, data.UserID).
		WithField("action", data.Action).
		WithField("status", outcome.Status).
		Info("Решение по согласованию принято")
	return outcome, nil
}

// ProcessBulk applies the items one after another in a single transaction.
// The first failure rolls back the whole batch and is reported as BulkError.
func (i impl) ProcessBulk(data approvalapimodels.BulkData) ([]approvalapimodels.Outcome, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	now := i.now()
	batch := approvalevents.NewBatch()
	outcomes := make([]approvalapimodels.Outcome, 0, len(data.ApprovalIDs))
	err := i.db.Transaction(func(tx *gorm.DB) error {
		approvalStore := approvalstore.NewInstance(tx)
		for _, approvalID := range data.ApprovalIDs {
			rec, err := approvalStore.GetByID(data.CompanyID, approvalID)
			if err != nil {
				return models.BulkError{ApprovalID: approvalID, Err: err}
			}
			if rec == nil {
				return models.BulkError{ApprovalID: approvalID, Err: errors.Wrap(models.ErrNotFound, "согласование")}
			}
			outcome, err := i.process(tx, now, batch, approvalapimodels.ProcessData{
				DecisionData:    data.DecisionData,
				CompanyID:       data.CompanyID,
				UserID:          data.UserID,
				ApprovalID:      approvalID,
				ExpectedVersion: rec.Version,
			})
			if err != nil {
				return models.BulkError{ApprovalID: approvalID, Err: err}
			}
			outcomes = append(outcomes, outcome)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	i.dispatcher.Dispatch(batch)
	i.getLogger(data.CompanyID, "", data.UserID).
		WithField("action", data.Action).
		WithField("count", len(outcomes)).
		Info("Пакетное решение по согласованиям принято")
	return outcomes, nil
}

func (i impl) process(tx *gorm.DB, now time.Time, batch *approvalevents.Batch, data approvalapimodels.ProcessData) (approvalapimodels.Outcome, error) {
	approvalStore := approvalstore.NewInstance(tx)
	workflowStore := approvalworkflowstore.NewInstance(tx)
	engine := approvalroutinghandler.NewTxEngine(tx, now, batch)

	rec, err := approvalStore.GetByID(data.CompanyID, data.ApprovalID)
	if err != nil {
		return approvalapimodels.Outcome{}, err
	}
	if rec == nil {
		return approvalapimodels.Outcome{}, errors.Wrap(models.ErrNotFound, "согласование")
	}
	// decisions on one document are serialized on the workflow row
	if err = workflowStore.Touch(rec.WorkflowID); err != nil {
		return approvalapimodels.Outcome{}, err
	}
	rec, err = approvalStore.GetByID(data.CompanyID, data.ApprovalID)
	if err != nil {
		return approvalapimodels.Outcome{}, err
	}
	if rec == nil {
		return approvalapimodels.Outcome{}, errors.Wrap(models.ErrNotFound, "согласование")
	}
	if rec.Version != data.ExpectedVersion {
		return approvalapimodels.Outcome{}, errors.Wrapf(models.ErrStaleApprovalState, "ожидалась версия %d, текущая %d", data.ExpectedVersion, rec.Version)
	}
	if rec.ApproverID != data.UserID {
		return approvalapimodels.Outcome{}, errors.Wrap(models.ErrForbidden, "решение может принять только назначенный согласующий")
	}
	to, err := approvalstate.Transition(rec.Status, data.Action)
	if err != nil {
		return approvalapimodels.Outcome{}, err
	}
	wf, err := workflowStore.GetByID(data.CompanyID, rec.WorkflowID)
	if err != nil {
		return approvalapimodels.Outcome{}, err
	}
	if wf == nil {
		return approvalapimodels.Outcome{}, errors.Wrap(models.ErrNotFound, "процесс согласования")
	}
	if wf.Status != models.WorkflowStatusInProgress || wf.CurrentLevelNumber != rec.LevelNumber {
		return approvalapimodels.Outcome{}, errors.Wrap(models.ErrInvalidTransition, "уровень согласования не активен")
	}
	if data.Action == models.ApprovalActionDelegate {
		if err = i.checkDelegate(tx, rec, data.DelegateToUserID); err != nil {
			return approvalapimodels.Outcome{}, err
		}
	}

	updMap := map[string]interface{}{
		"status":   to,
		"comments": data.Comments,
	}
	switch data.Action {
	case models.ApprovalActionApprove:
		updMap["approved_date"] = now
	case models.ApprovalActionReject:
		updMap["rejection_reason"] = data.Comments
	}
	ok, err := approvalStore.CompareAndSwap(rec.ID, rec.Version, updMap)
	if err != nil {
		return approvalapimodels.Outcome{}, err
	}
	if !ok {
		return approvalapimodels.Outcome{}, errors.Wrapf(models.ErrStaleApprovalState, "согласование %s", rec.ID)
	}
	event := engine.ApprovalEvent(actionEvent(data.Action), *rec, data.UserID, string(rec.Status), string(to), data.Comments)
	outcome := approvalapimodels.Outcome{
		ApprovalID: rec.ID,
		Status:     to,
		Version:    rec.Version + 1,
	}

	switch data.Action {
	case models.ApprovalActionApprove:
		batch.Add(event)
		err = i.afterApprove(approvalStore, workflowStore, engine, batch, wf, rec.LevelNumber, data.UserID, &outcome)
	case models.ApprovalActionReject:
		batch.Add(event)
		err = i.afterReject(approvalStore, engine, wf, data.UserID, data.Comments, &outcome)
	case models.ApprovalActionDelegate:
		event.Changes = []dbmodels.FieldChanges{{
			Field:    "approver_id",
			OldValue: rec.ApproverID,
			NewValue: data.DelegateToUserID,
		}}
		batch.Add(event)
		err = i.afterDelegate(tx, approvalStore, engine, batch, now, *rec, data.DelegateToUserID, data.UserID, &outcome)
	}
	if err != nil {
		return approvalapimodels.Outcome{}, err
	}
	outcome.WorkflowStatus = wf.Status
	return outcome, nil
}

func (i impl) afterApprove(approvalStore approvalstore.Provider, workflowStore approvalworkflowstore.Provider, engine *approvalroutinghandler.TxEngine,
	batch *approvalevents.Batch, wf *dbmodels.ApprovalWorkflow, levelNumber int, userID string, outcome *approvalapimodels.Outcome) error {
	approvedCount, err := approvalStore.CountApprovedByLevel(wf.ID, levelNumber)
	if err != nil {
		return err
	}
	if int(approvedCount) < wf.CurrentQuorum {
		return nil
	}
	completed, err := workflowStore.CompleteLevel(wf.ID, levelNumber)
	if err != nil {
		return err
	}
	if !completed {
		return nil
	}
	wf.CompletedLevelNumber = levelNumber
	outcome.LevelCompleted = true
	batch.Add(engine.WorkflowEvent(models.ApprovalEventLevelCompleted, wf, userID, "", "", ""))
	siblings, err := approvalStore.ListPendingByLevel(wf.ID, levelNumber)
	if err != nil {
		return err
	}
	if err = engine.CancelPending(siblings, userID, "кворум уровня достигнут"); err != nil {
		return err
	}
	next, err := engine.ActivateNext(wf, userID)
	if err != nil {
		return err
	}
	if next != nil {
		outcome.NextLevelNumber = next.Level
		return nil
	}
	outcome.WorkflowFinalized = true
	return engine.Close(wf, models.WorkflowStatusApproved, models.ApprovalEventWorkflowClosed, userID, "")
}

// afterReject applies the single-veto policy: any rejection closes the whole document.
func (i impl) afterReject(approvalStore approvalstore.Provider, engine *approvalroutinghandler.TxEngine,
	wf *dbmodels.ApprovalWorkflow, userID, comments string, outcome *approvalapimodels.Outcome) error {
	pending, err := approvalStore.ListPendingByWorkflow(wf.ID)
	if err != nil {
		return err
	}
	if err = engine.CancelPending(pending, userID, "документ отклонен"); err != nil {
		return err
	}
	outcome.WorkflowFinalized = true
	return engine.Close(wf, models.WorkflowStatusRejected, models.ApprovalEventWorkflowClosed, userID, comments)
}

func (i impl) afterDelegate(tx *gorm.DB, approvalStore approvalstore.Provider, engine *approvalroutinghandler.TxEngine, batch *approvalevents.Batch,
	now time.Time, rec dbmodels.Approval, delegateToUserID, userID string, outcome *approvalapimodels.Outcome) error {
	level, err := approvallevelstore.NewInstance(tx).GetByID(rec.CompanyID, rec.ApprovalLevelID)
	if err != nil {
		return err
	}
	var dueDate *time.Time
	if level != nil {
		dueDate = approvalroutinghandler.DueDate(*level, now)
	}
	delegatedFromID := rec.ID
	newRec := dbmodels.Approval{
		BaseCompanyModel: dbmodels.BaseCompanyModel{
			BaseModel: dbmodels.BaseModel{
				CreatedAt: now,
			},
			CompanyID: rec.CompanyID,
		},
		WorkflowID:      rec.WorkflowID,
		DocumentType:    rec.DocumentType,
		DocumentID:      rec.DocumentID,
		DocumentNumber:  rec.DocumentNumber,
		ApprovalLevelID: rec.ApprovalLevelID,
		LevelNumber:     rec.LevelNumber,
		RequestedBy:     rec.RequestedBy,
		ApproverID:      delegateToUserID,
		DocumentAmount:  rec.DocumentAmount,
		Status:          models.ApprovalStatusPending,
		DueDate:         dueDate,
		DelegatedFromID: &delegatedFromID,
		Version:         1,
	}
	newRec.ID, err = approvalStore.Create(newRec)
	if err != nil {
		return errors.Wrap(err, "ошибка создания делегированного согласования")
	}
	outcome.DelegatedToID = delegateToUserID
	batch.Add(engine.ApprovalEvent(models.ApprovalEventAssigned, newRec, userID, "", string(models.ApprovalStatusPending), ""))
	return nil
}

func (i impl) checkDelegate(tx *gorm.DB, rec *dbmodels.Approval, delegateToUserID string) error {
	if delegateToUserID == "" {
		return models.NewValidationError("delegate_to_user_id", "не указан пользователь для делегирования")
	}
	if delegateToUserID == rec.ApproverID {
		return models.NewValidationError("delegate_to_user_id", "нельзя делегировать самому себе")
	}
	isMember, err := companyusershandler.NewHandlerWithTx(tx).IsMember(rec.CompanyID, delegateToUserID)
	if err != nil {
		return err
	}
	if !isMember {
		return models.NewValidationError("delegate_to_user_id", "сотрудник не найден в компании")
	}
	exist, err := approvalstore.NewInstance(tx).ExistsActive(rec.WorkflowID, rec.LevelNumber, delegateToUserID)
	if err != nil {
		return err
	}
	if exist {
		return models.NewValidationError("delegate_to_user_id", "сотрудник уже участвует в согласовании на этом уровне")
	}
	return nil
}

func actionEvent(action models.ApprovalAction) models.ApprovalEventType {
	switch action {
	case models.ApprovalActionApprove:
		return models.ApprovalEventApproved
	case models.ApprovalActionReject:
		return models.ApprovalEventRejected
	case models.ApprovalActionDelegate:
		return models.ApprovalEventDelegated
	}
	return models.ApprovalEventCancelled
}
