package approvallevelhandler

import (
	"approvals-backend/db"
	approvallevelstore "approvals-backend/lib/approval-level/store"
	approvalstore "approvals-backend/lib/approval/store"
	delegationstore "approvals-backend/lib/delegation/store"
	"approvals-backend/models"
	approvalapimodels "approvals-backend/models/api/approval"
	dbmodels "approvals-backend/models/db"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Provider interface {
	DefineLevel(companyID string, data approvalapimodels.LevelData) (id string, err error)
	UpdateLevel(companyID, id string, patch approvalapimodels.LevelPatch) error
	ListLevels(companyID, documentType string) ([]approvalapimodels.LevelView, error)
	GetLevel(companyID, id string) (approvalapimodels.LevelView, error)
	DeleteLevel(companyID, id string) error
}

var Instance Provider

func NewHandler() {
	Instance = NewHandlerWithTx(db.DB)
}

func NewHandlerWithTx(tx *gorm.DB) Provider {
	return impl{
		db:         tx,
		levelStore: approvallevelstore.NewInstance(tx),
	}
}

type impl struct {
	db         *gorm.DB
	levelStore approvallevelstore.Provider
}

func (i impl) getLogger(companyID, levelID string) *log.Entry {
	logger := log.WithField("company_id", companyID)
	if levelID != "" {
		logger = logger.WithField("approval_level_id", levelID)
	}
	return logger
}

func (i impl) DefineLevel(companyID string, data approvalapimodels.LevelData) (id string, err error) {
	if err = data.Validate(); err != nil {
		return "", err
	}
	if err = i.checkUnique(companyID, data.DocumentType, data.Level, ""); err != nil {
		return "", err
	}
	rec := dbmodels.ApprovalLevel{
		CompanyID: companyID,
	}
	fillLevel(&rec, data)
	id, err = i.levelStore.Create(rec)
	if err != nil {
		return "", errors.Wrap(err, "ошибка создания уровня согласования")
	}
	i.getLogger(companyID, id).
		WithField("document_type", data.DocumentType).
		WithField("level", data.Level).
		Info("Создан уровень согласования")
	return id, nil
}

// UpdateLevel never touches approvals already created from the level.
func (i impl) UpdateLevel(companyID, id string, patch approvalapimodels.LevelPatch) error {
	rec, err := i.levelStore.GetByID(companyID, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return errors.Wrap(models.ErrNotFound, "уровень согласования")
	}
	data := patch.Apply(approvalapimodels.LevelToData(*rec))
	if err = data.Validate(); err != nil {
		return err
	}
	if data.Level != rec.Level {
		if err = i.checkUnique(companyID, rec.DocumentType, data.Level, rec.ID); err != nil {
			return err
		}
	}
	updMap := map[string]interface{}{
		"level":                  data.Level,
		"name":                   data.Name,
		"description":            data.Description,
		"entity_type":            data.EntityType,
		"min_amount":             approvalapimodels.NullAmount(data.MinAmount),
		"max_amount":             approvalapimodels.NullAmount(data.MaxAmount),
		"requires_all_approvers": data.RequiresAllApprovers,
		"required_approvals":     data.RequiredApprovals,
		"auto_approval_days":     data.AutoApprovalDays,
		"sla_hours":              data.SlaHours,
		"is_active":              data.IsActive,
	}
	err = i.levelStore.Update(companyID, id, updMap)
	if err != nil {
		return errors.Wrap(err, "ошибка обновления уровня согласования")
	}
	i.getLogger(companyID, id).Info("Обновлен уровень согласования")
	return nil
}

func (i impl) ListLevels(companyID, documentType string) ([]approvalapimodels.LevelView, error) {
	list, err := i.levelStore.List(companyID, documentType)
	if err != nil {
		return nil, err
	}
	result := make([]approvalapimodels.LevelView, 0, len(list))
	for _, rec := range list {
		result = append(result, approvalapimodels.LevelConvert(rec))
	}
	return result, nil
}

func (i impl) GetLevel(companyID, id string) (approvalapimodels.LevelView, error) {
	rec, err := i.levelStore.GetByID(companyID, id)
	if err != nil {
		return approvalapimodels.LevelView{}, err
	}
	if rec == nil {
		return approvalapimodels.LevelView{}, errors.Wrap(models.ErrNotFound, "уровень согласования")
	}
	return approvalapimodels.LevelConvert(*rec), nil
}

// DeleteLevel is refused while pending approvals still point at the level.
func (i impl) DeleteLevel(companyID, id string) error {
	err := i.db.Transaction(func(tx *gorm.DB) error {
		levelStore := approvallevelstore.NewInstance(tx)
		rec, err := levelStore.GetByID(companyID, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return errors.Wrap(models.ErrNotFound, "уровень согласования")
		}
		pendingCount, err := approvalstore.NewInstance(tx).CountPendingByLevelConfig(companyID, id)
		if err != nil {
			return err
		}
		if pendingCount > 0 {
			return models.NewValidationError("id", fmt.Sprintf("по уровню есть незавершенные согласования: %d", pendingCount))
		}
		if err = delegationstore.NewInstance(tx).DeleteByLevel(companyID, id); err != nil {
			return err
		}
		return levelStore.Delete(companyID, id)
	})
	if err != nil {
		return err
	}
	i.getLogger(companyID, id).Info("Удален уровень согласования")
	return nil
}

func (i impl) checkUnique(companyID, documentType string, level int, excludeID string) error {
	exist, err := i.levelStore.ExistsLevel(companyID, documentType, level, excludeID)
	if err != nil {
		return err
	}
	if exist {
		return models.NewValidationError("level", fmt.Sprintf("уровень %d уже настроен для типа документа %s", level, documentType))
	}
	return nil
}

func fillLevel(rec *dbmodels.ApprovalLevel, data approvalapimodels.LevelData) {
	rec.DocumentType = data.DocumentType
	rec.EntityType = data.EntityType
	rec.Level = data.Level
	rec.Name = data.Name
	rec.Description = data.Description
	rec.MinAmount = approvalapimodels.NullAmount(data.MinAmount)
	rec.MaxAmount = approvalapimodels.NullAmount(data.MaxAmount)
	rec.RequiresAllApprovers = data.RequiresAllApprovers
	rec.RequiredApprovals = data.RequiredApprovals
	rec.AutoApprovalDays = data.AutoApprovalDays
	rec.SlaHours = data.SlaHours
	rec.IsActive = data.IsActive
}
