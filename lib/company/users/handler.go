package companyusershandler

import (
	"approvals-backend/db"
	companyusersstore "approvals-backend/lib/company/users/store"
	companyapimodels "approvals-backend/models/api/company"

	"gorm.io/gorm"
)

// Provider is the membership check and the read-only user directory.
type Provider interface {
	IsMember(companyID, userID string) (bool, error)
	GetUserDisplay(userID string) (companyapimodels.UserDisplay, error)
	GetUsersDisplay(userIDs []string) (map[string]companyapimodels.UserDisplay, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		store: companyusersstore.NewInstance(db.DB),
	}
}

func NewHandlerWithTx(tx *gorm.DB) Provider {
	return impl{
		store: companyusersstore.NewInstance(tx),
	}
}

type impl struct {
	store companyusersstore.Provider
}

func (i impl) IsMember(companyID, userID string) (bool, error) {
	if companyID == "" || userID == "" {
		return false, nil
	}
	return i.store.IsMember(companyID, userID)
}

// GetUserDisplay falls back to the bare id for users missing from the directory.
func (i impl) GetUserDisplay(userID string) (companyapimodels.UserDisplay, error) {
	rec, err := i.store.GetByID(userID)
	if err != nil {
		return companyapimodels.UserDisplay{}, err
	}
	if rec == nil {
		return companyapimodels.UserDisplay{ID: userID, Name: userID}, nil
	}
	return companyapimodels.UserDisplay{
		ID:    rec.ID,
		Name:  rec.GetFullName(),
		Email: rec.Email,
	}, nil
}

func (i impl) GetUsersDisplay(userIDs []string) (map[string]companyapimodels.UserDisplay, error) {
	list, err := i.store.GetByIDs(userIDs)
	if err != nil {
		return nil, err
	}
	result := make(map[string]companyapimodels.UserDisplay, len(userIDs))
	for _, userID := range userIDs {
		result[userID] = companyapimodels.UserDisplay{ID: userID, Name: userID}
	}
	for _, rec := range list {
		result[rec.ID] = companyapimodels.UserDisplay{
			ID:    rec.ID,
			Name:  rec.GetFullName(),
			Email: rec.Email,
		}
	}
	return result, nil
}
