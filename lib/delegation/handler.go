package delegationhandler

import (
	"approvals-backend/db"
	approvallevelstore "approvals-backend/lib/approval-level/store"
	companyusersstore "approvals-backend/lib/company/users/store"
	delegationresolver "approvals-backend/lib/delegation/resolver"
	delegationstore "approvals-backend/lib/delegation/store"
	"approvals-backend/models"
	approvalapimodels "approvals-backend/models/api/approval"
	dbmodels "approvals-backend/models/db"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Provider interface {
	AssignUser(companyID, levelID string, data approvalapimodels.RosterUserData) (id string, err error)
	UpdateUser(companyID, id string, patch approvalapimodels.RosterUserPatch) error
	RemoveUser(companyID, id string) error
	SetDelegation(companyID, id string, data approvalapimodels.DelegationData) error
	ClearDelegation(companyID, id string) error
	ListRoster(companyID, levelID string) ([]approvalapimodels.RosterUserView, error)
	ResolveEffectiveApprover(levelID, userID string, asOf time.Time) (string, error)
	ListEligibleApprovers(levelID string, asOf time.Time) ([]string, error)
	// Rosters loads the rosters of several levels in one query, keyed by level id.
	Rosters(levelIDs []string) (map[string]delegationresolver.Roster, error)
}

var Instance Provider

func NewHandler() {
	Instance = NewHandlerWithTx(db.DB)
}

func NewHandlerWithTx(tx *gorm.DB) Provider {
	return impl{
		store:      delegationstore.NewInstance(tx),
		levelStore: approvallevelstore.NewInstance(tx),
		usersStore: companyusersstore.NewInstance(tx),
	}
}

type impl struct {
	store      delegationstore.Provider
	levelStore approvallevelstore.Provider
	usersStore companyusersstore.Provider
}

func (i impl) getLogger(companyID, id string) *log.Entry {
	return log.
		WithField("company_id", companyID).
		WithField("approval_level_user_id", id)
}

func (i impl) AssignUser(companyID, levelID string, data approvalapimodels.RosterUserData) (id string, err error) {
	if err = data.Validate(); err != nil {
		return "", err
	}
	level, err := i.levelStore.GetByID(companyID, levelID)
	if err != nil {
		return "", err
	}
	if level == nil {
		return "", errors.Wrap(models.ErrNotFound, "уровень согласования")
	}
	if err = i.checkMember(companyID, "user_id", data.UserID); err != nil {
		return "", err
	}
	existed, err := i.store.GetByLevelUser(levelID, data.UserID)
	if err != nil {
		return "", err
	}
	if existed != nil {
		return "", models.NewValidationError("user_id", "сотрудник уже включен в уровень согласования")
	}
	rec := dbmodels.ApprovalLevelUser{
		BaseCompanyModel: dbmodels.BaseCompanyModel{
			CompanyID: companyID,
		},
		ApprovalLevelID:    levelID,
		UserID:             data.UserID,
		IsActive:           data.IsActive,
		CanDelegate:        data.CanDelegate,
		MaxDelegationLevel: data.MaxDelegationLevel,
	}
	id, err = i.store.Create(rec)
	if err != nil {
		return "", errors.Wrap(err, "ошибка добавления сотрудника в уровень согласования")
	}
	i.getLogger(companyID, id).
		WithField("approval_level_id", levelID).
		WithField("user_id", data.UserID).
		Info("Сотрудник добавлен в уровень согласования")
	return id, nil
}

func (i impl) UpdateUser(companyID, id string, patch approvalapimodels.RosterUserPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	rec, err := i.getRec(companyID, id)
	if err != nil {
		return err
	}
	updMap := map[string]interface{}{}
	if patch.IsActive != nil {
		updMap["is_active"] = *patch.IsActive
	}
	if patch.CanDelegate != nil {
		updMap["can_delegate"] = *patch.CanDelegate
	}
	if patch.MaxDelegationLevel != nil {
		updMap["max_delegation_level"] = *patch.MaxDelegationLevel
	}
	return i.store.Update(companyID, rec.ID, updMap)
}

func (i impl) RemoveUser(companyID, id string) error {
	rec, err := i.getRec(companyID, id)
	if err != nil {
		return err
	}
	err = i.store.Delete(companyID, rec.ID)
	if err != nil {
		return err
	}
	i.getLogger(companyID, id).Info("Сотрудник исключен из уровня согласования")
	return nil
}

// SetDelegation never moves approvals that already exist; it only affects resolution from now on.
func (i impl) SetDelegation(companyID, id string, data approvalapimodels.DelegationData) error {
	if err := data.Validate(); err != nil {
		return err
	}
	rec, err := i.getRec(companyID, id)
	if err != nil {
		return err
	}
	if !rec.CanDelegate {
		return models.NewValidationError("delegate_user_id", "сотруднику запрещено делегирование")
	}
	if data.DelegateUserID == rec.UserID {
		return models.NewValidationError("delegate_user_id", "нельзя делегировать самому себе")
	}
	if err = i.checkMember(companyID, "delegate_user_id", data.DelegateUserID); err != nil {
		return err
	}
	updMap := map[string]interface{}{
		"delegate_user_id":   data.DelegateUserID,
		"delegate_from_date": data.FromDate,
		"delegate_to_date":   data.ToDate,
		"delegate_reason":    data.Reason,
	}
	err = i.store.Update(companyID, id, updMap)
	if err != nil {
		return errors.Wrap(err, "ошибка сохранения делегирования")
	}
	i.getLogger(companyID, id).
		WithField("delegate_user_id", data.DelegateUserID).
		Info("Установлено делегирование")
	return nil
}

func (i impl) ClearDelegation(companyID, id string) error {
	rec, err := i.getRec(companyID, id)
	if err != nil {
		return err
	}
	updMap := map[string]interface{}{
		"delegate_user_id":   nil,
		"delegate_from_date": nil,
		"delegate_to_date":   nil,
		"delegate_reason":    "",
	}
	return i.store.Update(companyID, rec.ID, updMap)
}

func (i impl) ListRoster(companyID, levelID string) ([]approvalapimodels.RosterUserView, error) {
	level, err := i.levelStore.GetByID(companyID, levelID)
	if err != nil {
		return nil, err
	}
	if level == nil {
		return nil, errors.Wrap(models.ErrNotFound, "уровень согласования")
	}
	list, err := i.store.ListByLevel(levelID)
	if err != nil {
		return nil, err
	}
	userIDs := make([]string, 0, len(list)*2)
	for _, rec := range list {
		userIDs = append(userIDs, rec.UserID)
		if rec.DelegateUserID != nil {
			userIDs = append(userIDs, *rec.DelegateUserID)
		}
	}
	users, err := i.usersStore.GetByIDs(userIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, user := range users {
		names[user.ID] = user.GetFullName()
	}
	result := make([]approvalapimodels.RosterUserView, 0, len(list))
	for _, rec := range list {
		view := approvalapimodels.RosterUserConvert(rec)
		view.UserName = names[rec.UserID]
		if rec.DelegateUserID != nil {
			view.DelegateUserName = names[*rec.DelegateUserID]
		}
		result = append(result, view)
	}
	return result, nil
}

func (i impl) ResolveEffectiveApprover(levelID, userID string, asOf time.Time) (string, error) {
	roster, err := i.roster(levelID)
	if err != nil {
		return "", err
	}
	return roster.Resolve(userID, asOf)
}

func (i impl) ListEligibleApprovers(levelID string, asOf time.Time) ([]string, error) {
	roster, err := i.roster(levelID)
	if err != nil {
		return nil, err
	}
	return roster.EligibleApprovers(asOf)
}

func (i impl) Rosters(levelIDs []string) (map[string]delegationresolver.Roster, error) {
	list, err := i.store.ListByLevels(levelIDs)
	if err != nil {
		return nil, err
	}
	byLevel := make(map[string][]dbmodels.ApprovalLevelUser, len(levelIDs))
	for _, rec := range list {
		byLevel[rec.ApprovalLevelID] = append(byLevel[rec.ApprovalLevelID], rec)
	}
	result := make(map[string]delegationresolver.Roster, len(levelIDs))
	for _, levelID := range levelIDs {
		result[levelID] = delegationresolver.NewRoster(byLevel[levelID])
	}
	return result, nil
}

func (i impl) roster(levelID string) (delegationresolver.Roster, error) {
	list, err := i.store.ListByLevel(levelID)
	if err != nil {
		return delegationresolver.Roster{}, err
	}
	return delegationresolver.NewRoster(list), nil
}

func (i impl) getRec(companyID, id string) (*dbmodels.ApprovalLevelUser, error) {
	rec, err := i.store.GetByID(companyID, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.Wrap(models.ErrNotFound, "участник уровня согласования")
	}
	return rec, nil
}

func (i impl) checkMember(companyID, field, userID string) error {
	isMember, err := i.usersStore.IsMember(companyID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return models.NewValidationError(field, "сотрудник не найден в компании")
	}
	return nil
}
