package db

import (
	dbmodels "approvals-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func AutoMigrateDB() error {
	log.Info("Запуск миграций")
	if err := Migrate(DB); err != nil {
		return err
	}
	log.Info("Миграция прошла успешно")
	return nil
}

// Migrate creates or updates the approval schema on conn.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&dbmodels.CompanyUser{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры CompanyUser")
	}
	if err := conn.AutoMigrate(&dbmodels.ApprovalLevel{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ApprovalLevel")
	}
	if err := conn.AutoMigrate(&dbmodels.ApprovalLevelUser{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ApprovalLevelUser")
	}
	if err := conn.AutoMigrate(&dbmodels.ApprovalWorkflow{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ApprovalWorkflow")
	}
	if err := conn.AutoMigrate(&dbmodels.Approval{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры Approval")
	}
	if err := conn.AutoMigrate(&dbmodels.ApprovalHistory{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ApprovalHistory")
	}
	return nil
}
