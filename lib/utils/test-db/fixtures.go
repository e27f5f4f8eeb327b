package testdb

import (
	"approvals-backend/models"
	dbmodels "approvals-backend/models/db"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var Now = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

// Clock is a settable time source for handlers under test.
type Clock struct {
	At time.Time
}

func NewClock() *Clock {
	return &Clock{At: Now}
}

func (c *Clock) Now() time.Time {
	return c.At
}

func (c *Clock) Add(d time.Duration) {
	c.At = c.At.Add(d)
}

func SeedUsers(t *testing.T, conn *gorm.DB, companyID string, userIDs ...string) {
	t.Helper()
	for _, userID := range userIDs {
		rec := dbmodels.CompanyUser{
			BaseCompanyModel: dbmodels.BaseCompanyModel{
				BaseModel: dbmodels.BaseModel{ID: userID},
				CompanyID: companyID,
			},
			FirstName: "User",
			LastName:  userID,
			Email:     userID + "@example.com",
			IsActive:  true,
			Role:      models.CompanyUserRole,
		}
		require.NoError(t, conn.Create(&rec).Error)
	}
}

// Level is an active level of documentType with a quorum of one and open amount bounds.
func Level(companyID, documentType string, level int) dbmodels.ApprovalLevel {
	return dbmodels.ApprovalLevel{
		CompanyID:         companyID,
		DocumentType:      documentType,
		Level:             level,
		Name:              "Уровень",
		RequiredApprovals: 1,
		IsActive:          true,
	}
}

func SeedLevel(t *testing.T, conn *gorm.DB, rec dbmodels.ApprovalLevel) dbmodels.ApprovalLevel {
	t.Helper()
	require.NoError(t, conn.Create(&rec).Error)
	return rec
}

// SeedRoster adds active members allowed to delegate one hop.
func SeedRoster(t *testing.T, conn *gorm.DB, level dbmodels.ApprovalLevel, userIDs ...string) []dbmodels.ApprovalLevelUser {
	t.Helper()
	result := make([]dbmodels.ApprovalLevelUser, 0, len(userIDs))
	for _, userID := range userIDs {
		rec := dbmodels.ApprovalLevelUser{
			BaseCompanyModel: dbmodels.BaseCompanyModel{
				CompanyID: level.CompanyID,
			},
			ApprovalLevelID:    level.ID,
			UserID:             userID,
			IsActive:           true,
			CanDelegate:        true,
			MaxDelegationLevel: 1,
		}
		require.NoError(t, conn.Create(&rec).Error)
		result = append(result, rec)
	}
	return result
}

// SeedDelegation makes entry forward to delegateID for the whole day around Now.
func SeedDelegation(t *testing.T, conn *gorm.DB, entry dbmodels.ApprovalLevelUser, delegateID string) {
	t.Helper()
	from := Now.Add(-12 * time.Hour)
	to := Now.Add(12 * time.Hour)
	err := conn.Model(&dbmodels.ApprovalLevelUser{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"delegate_user_id":   delegateID,
			"delegate_from_date": from,
			"delegate_to_date":   to,
		}).
		Error
	require.NoError(t, err)
}

func Amount(value int64) *decimal.Decimal {
	amount := decimal.NewFromInt(value)
	return &amount
}
