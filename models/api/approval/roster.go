package approvalapimodels

import (
	"approvals-backend/models"
	dbmodels "approvals-backend/models/db"
	"time"
)

type RosterUserData struct {
	UserID             string `json:"user_id"`
	IsActive           bool   `json:"is_active"`
	CanDelegate        bool   `json:"can_delegate"`
	MaxDelegationLevel int    `json:"max_delegation_level"` // Допустимая длина цепочки делегирования
}

func (r RosterUserData) Validate() error {
	if r.UserID == "" {
		return models.NewValidationError("user_id", "отсутсвует идентификатор пользователя")
	}
	if r.MaxDelegationLevel < 0 {
		return models.NewValidationError("max_delegation_level", "значение не может быть отрицательным")
	}
	return nil
}

type RosterUserPatch struct {
	IsActive           *bool `json:"is_active"`
	CanDelegate        *bool `json:"can_delegate"`
	MaxDelegationLevel *int  `json:"max_delegation_level"`
}

func (r RosterUserPatch) Validate() error {
	if r.MaxDelegationLevel != nil && *r.MaxDelegationLevel < 0 {
		return models.NewValidationError("max_delegation_level", "значение не может быть отрицательным")
	}
	return nil
}

type DelegationData struct {
	DelegateUserID string    `json:"delegate_user_id"`
	FromDate       time.Time `json:"from_date"` // Начало периода (включительно)
	ToDate         time.Time `json:"to_date"`   // Окончание периода (включительно)
	Reason         string    `json:"reason"`
}

func (r DelegationData) Validate() error {
	if r.DelegateUserID == "" {
		return models.NewValidationError("delegate_user_id", "не указан заместитель")
	}
	if r.FromDate.IsZero() || r.ToDate.IsZero() {
		return models.NewValidationError("from_date", "не указан период делегирования")
	}
	if r.ToDate.Before(r.FromDate) {
		return models.NewValidationError("to_date", "дата окончания раньше даты начала")
	}
	return nil
}

type RosterUserView struct {
	RosterUserData
	ID               string     `json:"id"`
	ApprovalLevelID  string     `json:"approval_level_id"`
	UserName         string     `json:"user_name"`
	DelegateUserID   *string    `json:"delegate_user_id"`
	DelegateUserName string     `json:"delegate_user_name"`
	DelegateFromDate *time.Time `json:"delegate_from_date"`
	DelegateToDate   *time.Time `json:"delegate_to_date"`
	DelegateReason   string     `json:"delegate_reason"`
}

func RosterUserConvert(rec dbmodels.ApprovalLevelUser) RosterUserView {
	return RosterUserView{
		RosterUserData: RosterUserData{
			UserID:             rec.UserID,
			IsActive:           rec.IsActive,
			CanDelegate:        rec.CanDelegate,
			MaxDelegationLevel: rec.MaxDelegationLevel,
		},
		ID:               rec.ID,
		ApprovalLevelID:  rec.ApprovalLevelID,
		DelegateUserID:   rec.DelegateUserID,
		DelegateFromDate: rec.DelegateFromDate,
		DelegateToDate:   rec.DelegateToDate,
		DelegateReason:   rec.DelegateReason,
	}
}
