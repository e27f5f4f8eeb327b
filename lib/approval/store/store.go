package approvalstore

import (
	"approvals-backend/models"
	dbmodels "approvals-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.Approval) (id string, err error)
	GetByID(companyID, id string) (rec *dbmodels.Approval, err error)
	// CompareAndSwap applies updMap only while the row is still pending at version and bumps the version.
	CompareAndSwap(id string, version int, updMap map[string]interface{}) (bool, error)
	ListByWorkflow(workflowID string) (list []dbmodels.Approval, err error)
	ListPendingByWorkflow(workflowID string) (list []dbmodels.Approval, err error)
	ListPendingByLevel(workflowID string, levelNumber int) (list []dbmodels.Approval, err error)
	CountApprovedByLevel(workflowID string, levelNumber int) (int64, error)
	// ExistsActive reports a row of approverID at the level that was not cancelled.
	ExistsActive(workflowID string, levelNumber int, approverID string) (bool, error)
	CountPendingByLevelConfig(companyID, levelID string) (int64, error)
	ListPending(companyID string) (list []dbmodels.Approval, err error)
	ListPendingWithDueDate() (list []dbmodels.Approval, err error)
	ListByDocument(companyID, documentType, documentID string) (list []dbmodels.Approval, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Approval) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(companyID, id string) (*dbmodels.Approval, error) {
	rec := dbmodels.Approval{}
	err := i.db.
		Where("id = ?", id).
		Where("company_id = ?", companyID).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) CompareAndSwap(id string, version int, updMap map[string]interface{}) (bool, error) {
	values := make(map[string]interface{}, len(updMap)+1)
	for k, v := range updMap {
		values[k] = v
	}
	values["version"] = gorm.Expr("version + 1")
	result := i.db.
		Model(&dbmodels.Approval{}).
		Where("id = ?", id).
		Where("version = ?", version).
		Where("status = ?", models.ApprovalStatusPending).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (i impl) ListByWorkflow(workflowID string) (list []dbmodels.Approval, err error) {
	list = []dbmodels.Approval{}
	err = i.db.
		Where("workflow_id = ?", workflowID).
		Order("level_number ASC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListPendingByWorkflow(workflowID string) (list []dbmodels.Approval, err error) {
	list = []dbmodels.Approval{}
	err = i.db.
		Where("workflow_id = ?", workflowID).
		Where("status = ?", models.ApprovalStatusPending).
		Order("created_at ASC").
		Order("id ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListPendingByLevel(workflowID string, levelNumber int) (list []dbmodels.Approval, err error) {
	list = []dbmodels.Approval{}
	err = i.db.
		Where("workflow_id = ?", workflowID).
		Where("level_number = ?", levelNumber).
		Where("status = ?", models.ApprovalStatusPending).
		Order("created_at ASC").
		Order("id ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// CountApprovedByLevel counts distinct approvers with an approved row at the level.
func (i impl) CountApprovedByLevel(workflowID string, levelNumber int) (int64, error) {
	var count int64
	err := i.db.
		Model(&dbmodels.Approval{}).
		Where("workflow_id = ?", workflowID).
		Where("level_number = ?", levelNumber).
		Where("status = ?", models.ApprovalStatusApproved).
		Distinct("approver_id").
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (i impl) ExistsActive(workflowID string, levelNumber int, approverID string) (bool, error) {
	var count int64
	err := i.db.
		Model(&dbmodels.Approval{}).
		Where("workflow_id = ?", workflowID).
		Where("level_number = ?", levelNumber).
		Where("approver_id = ?", approverID).
		Where("status <> ?", models.ApprovalStatusCancelled).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (i impl) CountPendingByLevelConfig(companyID, levelID string) (int64, error) {
	var count int64
	err := i.db.
		Model(&dbmodels.Approval{}).
		Where("company_id = ?", companyID).
		Where("approval_level_id = ?", levelID).
		Where("status = ?", models.ApprovalStatusPending).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (i impl) ListPending(companyID string) (list []dbmodels.Approval, err error) {
	list = []dbmodels.Approval{}
	err = i.db.
		Where("company_id = ?", companyID).
		Where("status = ?", models.ApprovalStatusPending).
		Order("created_at ASC").
		Order("id ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListPendingWithDueDate() (list []dbmodels.Approval, err error) {
	list = []dbmodels.Approval{}
	err = i.db.
		Where("status = ?", models.ApprovalStatusPending).
		Where("due_date IS NOT NULL").
		Order("created_at ASC").
		Order("id ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListByDocument(companyID, documentType, documentID string) (list []dbmodels.Approval, err error) {
	list = []dbmodels.Approval{}
	err = i.db.
		Where("company_id = ?", companyID).
		Where("document_type = ?", documentType).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
