package dbmodels

import (
	"github.com/shopspring/decimal"
)

type ApprovalLevel struct {
	BaseModel
	CompanyID            string `gorm:"type:varchar(36);uniqueIndex:idx_approval_levels_doc_level"`
	DocumentType         string `gorm:"type:varchar(100);uniqueIndex:idx_approval_levels_doc_level"`
	Level                int    `gorm:"uniqueIndex:idx_approval_levels_doc_level"`
	Name                 string `gorm:"type:varchar(255)"`
	Description          string
	EntityType           string              `gorm:"type:varchar(100)"`
	MinAmount            decimal.NullDecimal `gorm:"type:numeric(18,2)"`
	MaxAmount            decimal.NullDecimal `gorm:"type:numeric(18,2)"`
	RequiresAllApprovers bool
	RequiredApprovals    int
	AutoApprovalDays     *int
	SlaHours             *int
	IsActive             bool
}

// Matches reports whether amount falls into [MinAmount, MaxAmount); a NULL bound is open.
func (r ApprovalLevel) Matches(amount decimal.Decimal) bool {
	if r.MinAmount.Valid && amount.LessThan(r.MinAmount.Decimal) {
		return false
	}
	if r.MaxAmount.Valid && !amount.LessThan(r.MaxAmount.Decimal) {
		return false
	}
	return true
}
