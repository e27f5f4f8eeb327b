package companyusersstore

import (
	dbmodels "approvals-backend/models/db"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.CompanyUser) (string, error)
	GetByID(userID string) (rec *dbmodels.CompanyUser, err error)
	GetByIDs(userIDs []string) (list []dbmodels.CompanyUser, err error)
	IsMember(companyID, userID string) (bool, error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.CompanyUser) (string, error) {
	err := i.db.
		Create(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(userID string) (rec *dbmodels.CompanyUser, err error) {
	err = i.db.Model(dbmodels.CompanyUser{}).
		Where("id = ?", userID).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (i impl) GetByIDs(userIDs []string) (list []dbmodels.CompanyUser, err error) {
	list = []dbmodels.CompanyUser{}
	if len(userIDs) == 0 {
		return list, nil
	}
	err = i.db.
		Where("id IN ?", userIDs).
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) IsMember(companyID, userID string) (bool, error) {
	var count int64
	err := i.db.
		Model(&dbmodels.CompanyUser{}).
		Where("id = ?", userID).
		Where("company_id = ?", companyID).
		Where("is_active = ?", true).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
