package approvallevelstore

import (
	dbmodels "approvals-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.ApprovalLevel) (id string, err error)
	GetByID(companyID, id string) (rec *dbmodels.ApprovalLevel, err error)
	Update(companyID, id string, updMap map[string]interface{}) error
	Delete(companyID, id string) error
	List(companyID, documentType string) (list []dbmodels.ApprovalLevel, err error)
	ListActive(companyID, documentType string) (list []dbmodels.ApprovalLevel, err error)
	ExistsLevel(companyID, documentType string, level int, excludeID string) (bool, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.ApprovalLevel) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(companyID, id string) (*dbmodels.ApprovalLevel, error) {
	rec := dbmodels.ApprovalLevel{}
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

func (i impl) Update(companyID, id string, updMap map[string]interface{}) error {
	if len(updMap) == 0 {
		return nil
	}
	err := i.db.
		Model(&dbmodels.ApprovalLevel{}).
		Where("id = ?", id).
		Where("company_id = ?", companyID).
		Updates(updMap).
		Error
	if err != nil {
		return err
	}
	return nil
}

func (i impl) Delete(companyID, id string) error {
	err := i.db.
		Where("id = ?", id).
		Where("company_id = ?", companyID).
		Delete(&dbmodels.ApprovalLevel{}).
		Error
	if err != nil {
		return err
	}
	return nil
}

func (i impl) List(companyID, documentType string) (list []dbmodels.ApprovalLevel, err error) {
	list = []dbmodels.ApprovalLevel{}
	tx := i.db.
		Where("company_id = ?", companyID)
	if documentType != "" {
		tx = tx.Where("document_type = ?", documentType)
	}
	err = tx.
		Order("document_type ASC").
		Order("level ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListActive(companyID, documentType string) (list []dbmodels.ApprovalLevel, err error) {
	list = []dbmodels.ApprovalLevel{}
	err = i.db.
		Where("company_id = ?", companyID).
		Where("document_type = ?", documentType).
		Where("is_active = ?", true).
		Order("level ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ExistsLevel(companyID, documentType string, level int, excludeID string) (bool, error) {
	var count int64
	tx := i.db.
		Model(&dbmodels.ApprovalLevel{}).
		Where("company_id = ?", companyID).
		Where("document_type = ?", documentType).
		Where("level = ?", level)
	if excludeID != "" {
		tx = tx.Where("id <> ?", excludeID)
	}
	err := tx.Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
