package dbmodels

import (
	"approvals-backend/models"
	"time"

	"github.com/shopspring/decimal"
)

type ApprovalWorkflow struct {
	BaseCompanyModel
	DocumentType         string                `gorm:"type:varchar(100);index:idx_approval_workflows_document"`
	DocumentID           string                `gorm:"type:varchar(36);index:idx_approval_workflows_document"`
	DocumentNumber       string                `gorm:"type:varchar(100)"`
	Amount               decimal.Decimal       `gorm:"type:numeric(18,2)"`
	RequestedBy          string                `gorm:"type:varchar(36)"`
	Status               models.WorkflowStatus `gorm:"type:varchar(20);index"`
	CurrentLevelID       string                `gorm:"type:varchar(36)"`
	CurrentLevelNumber   int
	CurrentQuorum        int
	CurrentRosterSize    int
	CompletedLevelNumber int
	CompletedAt          *time.Time
	Version              int `gorm:"not null"`
}
