package dbmodels

import "time"

type ApprovalLevelUser struct {
	BaseCompanyModel
	ApprovalLevelID    string `gorm:"type:varchar(36);uniqueIndex:idx_approval_level_users_level_user"`
	UserID             string `gorm:"type:varchar(36);uniqueIndex:idx_approval_level_users_level_user"`
	IsActive           bool
	CanDelegate        bool
	MaxDelegationLevel int
	DelegateUserID     *string `gorm:"type:varchar(36)"`
	DelegateFromDate   *time.Time
	DelegateToDate     *time.Time
	DelegateReason     string
}

// DelegationActive reports whether the entry forwards to its delegate at asOf. Both window ends are inclusive.
func (r ApprovalLevelUser) DelegationActive(asOf time.Time) bool {
	if !r.IsActive || !r.CanDelegate || r.DelegateUserID == nil || *r.DelegateUserID == "" {
		return false
	}
	if r.DelegateFromDate == nil || r.DelegateToDate == nil {
		return false
	}
	return !asOf.Before(*r.DelegateFromDate) && !asOf.After(*r.DelegateToDate)
}
