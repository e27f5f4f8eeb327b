package delegationstore

import (
	dbmodels "approvals-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.ApprovalLevelUser) (id string, err error)
	GetByID(companyID, id string) (rec *dbmodels.ApprovalLevelUser, err error)
	GetByLevelUser(levelID, userID string) (rec *dbmodels.ApprovalLevelUser, err error)
	Update(companyID, id string, updMap map[string]interface{}) error
	Delete(companyID, id string) error
	DeleteByLevel(companyID, levelID string) error
	ListByLevel(levelID string) (list []dbmodels.ApprovalLevelUser, err error)
	ListByLevels(levelIDs []string) (list []dbmodels.ApprovalLevelUser, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.ApprovalLevelUser) (id string, err error) {
	err = i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(companyID, id string) (*dbmodels.ApprovalLevelUser, error) {
	rec := dbmodels.ApprovalLevelUser{}
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

func (i impl) GetByLevelUser(levelID, userID string) (*dbmodels.ApprovalLevelUser, error) {
	rec := dbmodels.ApprovalLevelUser{}
	err := i.db.
		Where("approval_level_id = ?", levelID).
		Where("user_id = ?", userID).
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
		Model(&dbmodels.ApprovalLevelUser{}).
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
		Delete(&dbmodels.ApprovalLevelUser{}).
		Error
	if err != nil {
		return err
	}
	return nil
}

func (i impl) DeleteByLevel(companyID, levelID string) error {
	err := i.db.
		Where("company_id = ?", companyID).
		Where("approval_level_id = ?", levelID).
		Delete(&dbmodels.ApprovalLevelUser{}).
		Error
	if err != nil {
		return err
	}
	return nil
}

func (i impl) ListByLevel(levelID string) (list []dbmodels.ApprovalLevelUser, err error) {
	list = []dbmodels.ApprovalLevelUser{}
	err = i.db.
		Where("approval_level_id = ?", levelID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListByLevels(levelIDs []string) (list []dbmodels.ApprovalLevelUser, err error) {
	list = []dbmodels.ApprovalLevelUser{}
	if len(levelIDs) == 0 {
		return list, nil
	}
	err = i.db.
		Where("approval_level_id IN ?", levelIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
