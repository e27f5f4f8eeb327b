package dbmodels

import (
	"approvals-backend/models"
	"time"

	"github.com/shopspring/decimal"
)

type Approval struct {
	BaseCompanyModel
	WorkflowID      string `gorm:"type:varchar(36);index"`
	DocumentType    string `gorm:"type:varchar(100);index:idx_approvals_document"`
	DocumentID      string `gorm:"type:varchar(36);index:idx_approvals_document"`
	DocumentNumber  string `gorm:"type:varchar(100)"`
	ApprovalLevelID string `gorm:"type:varchar(36);index"`
	LevelNumber     int
	RequestedBy     string                `gorm:"type:varchar(36)"`
	ApproverID      string                `gorm:"type:varchar(36);index"`
	DocumentAmount  decimal.Decimal       `gorm:"type:numeric(18,2)"`
	Status          models.ApprovalStatus `gorm:"type:varchar(20);index"`
	Comments        string
	RejectionReason string
	DueDate         *time.Time
	ApprovedDate    *time.Time
	DelegatedFromID *string `gorm:"type:varchar(36)"`
	Version         int     `gorm:"not null"`
}

// IsOverdue is advisory only: nothing transitions an approval because of it.
func (r Approval) IsOverdue(now time.Time) bool {
	return r.Status == models.ApprovalStatusPending && r.DueDate != nil && now.After(*r.DueDate)
}
