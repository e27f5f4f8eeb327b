package approvalroutinghandler

import (
	"approvals-backend/db"
	approvalevents "approvals-backend/lib/approval-events"
	approvalstore "approvals-backend/lib/approval/store"
	approvalworkflowstore "approvals-backend/lib/approval/workflow-store"
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
	Submit(data approvalapimodels.SubmitData) (approvalapimodels.SubmitResult, error)
	Recall(companyID, workflowID, userID string) error
}

var Instance Provider

func NewHandler(dispatcher approvalevents.Dispatcher) {
	initchecker.CheckInit(
		"db.DB", db.DB,
		"dispatcher", dispatcher,
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

func (i impl) getLogger(companyID, documentType, documentID string) *log.Entry {
	return log.
		WithField("company_id", companyID).
		WithField("document_type", documentType).
		WithField("document_id", documentID)
}

func (i impl) Submit(data approvalapimodels.SubmitData) (approvalapimodels.SubmitResult, error) {
	if err := data.Validate(); err != nil {
		return approvalapimodels.SubmitResult{}, err
	}
	logger := i.getLogger(data.CompanyID, data.DocumentType, data.DocumentID)
	now := i.now()
	batch := approvalevents.NewBatch()
	result := approvalapimodels.SubmitResult{}
	err := i.db.Transaction(func(tx *gorm.DB) error {
		workflowStore := approvalworkflowstore.NewInstance(tx)
		engine := NewTxEngine(tx, now, batch)
		active, err := workflowStore.GetActiveByDocument(data.CompanyID, data.DocumentType, data.DocumentID)
		if err != nil {
			return err
		}
		if active != nil {
			return models.NewValidationError("document_id", "документ уже находится на согласовании")
		}
		levels, err := engine.MatchingLevels(data.CompanyID, data.DocumentType, data.Amount, 0)
		if err != nil {
			return err
		}
		if len(levels) == 0 {
			return nil
		}
		wf := dbmodels.ApprovalWorkflow{
			BaseCompanyModel: dbmodels.BaseCompanyModel{
				BaseModel: dbmodels.BaseModel{
					CreatedAt: now,
				},
				CompanyID: data.CompanyID,
			},
			DocumentType:   data.DocumentType,
			DocumentID:     data.DocumentID,
			DocumentNumber: data.DocumentNumber,
			Amount:         data.Amount,
			RequestedBy:    data.RequestedBy,
			Status:         models.WorkflowStatusInProgress,
			Version:        1,
		}
		wf.ID, err = workflowStore.Create(wf)
		if err != nil {
			return errors.Wrap(err, "ошибка создания процесса согласования")
		}
		batch.Add(engine.WorkflowEvent(models.ApprovalEventSubmitted, &wf, data.RequestedBy, "", string(wf.Status), ""))
		approvalIDs, err := engine.Activate(&wf, levels[0], data.RequestedBy)
		if err != nil {
			return err
		}
		result = approvalapimodels.SubmitResult{
			ApprovalRequired: true,
			WorkflowID:       wf.ID,
			Status:           wf.Status,
			LevelNumber:      wf.CurrentLevelNumber,
			ApprovalIDs:      approvalIDs,
		}
		return nil
	})
	if err != nil {
		return approvalapimodels.SubmitResult{}, err
	}
	if !result.ApprovalRequired {
		logger.Info("Документ не требует согласования")
		return result, nil
	}
	i.dispatcher.Dispatch(batch)
	logger.
		WithField("workflow_id", result.WorkflowID).
		Info("Документ отправлен на согласование")
	return result, nil
}

// Recall lets the requester withdraw an in-progress workflow. The document owner callback is not invoked.
func (i impl) Recall(companyID, workflowID, userID string) error {
	now := i.now()
	batch := approvalevents.NewBatch()
	err := i.db.Transaction(func(tx *gorm.DB) error {
		workflowStore := approvalworkflowstore.NewInstance(tx)
		wf, err := workflowStore.GetByID(companyID, workflowID)
		if err != nil {
			return err
		}
		if wf == nil {
			return errors.Wrap(models.ErrNotFound, "процесс согласования")
		}
		if wf.RequestedBy != userID {
			return errors.Wrap(models.ErrForbidden, "отозвать согласование может только инициатор")
		}
		if wf.Status != models.WorkflowStatusInProgress {
			return models.NewValidationError("workflow_id", "согласование уже завершено")
		}
		if err = workflowStore.Touch(wf.ID); err != nil {
			return err
		}
		pending, err := approvalstore.NewInstance(tx).ListPendingByWorkflow(wf.ID)
		if err != nil {
			return err
		}
		engine := NewTxEngine(tx, now, batch)
		if err = engine.CancelPending(pending, userID, "отозвано инициатором"); err != nil {
			return err
		}
		return engine.Close(wf, models.WorkflowStatusCancelled, models.ApprovalEventWorkflowRecalled, userID, "")
	})
	if err != nil {
		return err
	}
	i.dispatcher.Dispatch(batch)
	return nil
}
