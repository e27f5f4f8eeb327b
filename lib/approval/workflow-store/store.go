package approvalworkflowstore

import (
	"approvals-backend/models"
	dbmodels "approvals-backend/models/db"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.ApprovalWorkflow) (id string, err error)
	GetByID(companyID, id string) (rec *dbmodels.ApprovalWorkflow, err error)
	GetActiveByDocument(companyID, documentType, documentID string) (rec *dbmodels.ApprovalWorkflow, err error)
	ListByDocument(companyID, documentType, documentID string) (list []dbmodels.ApprovalWorkflow, err error)
	// Touch bumps the version; on postgres the row stays locked until the transaction ends.
	Touch(id string) error
	Update(id string, updMap map[string]interface{}) error
	// CompleteLevel writes the level completion marker once per level.
	CompleteLevel(id string, levelNumber int) (bool, error)
	// Finalize moves an in-progress workflow to a final status once.
	Finalize(id string, status models.WorkflowStatus, completedAt time.Time) (bool, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.ApprovalWorkflow) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(companyID, id string) (*dbmodels.ApprovalWorkflow, error) {
	rec := dbmodels.ApprovalWorkflow{}
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

func (i impl) GetActiveByDocument(companyID, documentType, documentID string) (*dbmodels.ApprovalWorkflow, error) {
	rec := dbmodels.ApprovalWorkflow{}
	err := i.db.
		Where("company_id = ?", companyID).
		Where("document_type = ?", documentType).
		Where("document_id = ?", documentID).
		Where("status = ?", models.WorkflowStatusInProgress).
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

func (i impl) ListByDocument(companyID, documentType, documentID string) (list []dbmodels.ApprovalWorkflow, err error) {
	list = []dbmodels.ApprovalWorkflow{}
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

func (i impl) Touch(id string) error {
	result := i.db.
		Model(&dbmodels.ApprovalWorkflow{}).
		Where("id = ?", id).
		Update("version", gorm.Expr("version + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.Wrap(models.ErrNotFound, "процесс согласования")
	}
	return nil
}

func (i impl) Update(id string, updMap map[string]interface{}) error {
	if len(updMap) == 0 {
		return nil
	}
	err := i.db.
		Model(&dbmodels.ApprovalWorkflow{}).
		Where("id = ?", id).
		Updates(updMap).
		Error
	if err != nil {
		return err
	}
	return nil
}

func (i impl) CompleteLevel(id string, levelNumber int) (bool, error) {
	result := i.db.
		Model(&dbmodels.ApprovalWorkflow{}).
		Where("id = ?", id).
		Where("completed_level_number < ?", levelNumber).
		Where("status = ?", models.WorkflowStatusInProgress).
		Update("completed_level_number", levelNumber)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (i impl) Finalize(id string, status models.WorkflowStatus, completedAt time.Time) (bool, error) {
	result := i.db.
		Model(&dbmodels.ApprovalWorkflow{}).
		Where("id = ?", id).
		Where("status = ?", models.WorkflowStatusInProgress).
		Updates(map[string]interface{}{
			"status":       status,
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
