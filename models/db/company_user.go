package dbmodels

import (
	"approvals-backend/models"
	"fmt"
	"strings"
)

type CompanyUser struct {
	BaseCompanyModel
	FirstName string `gorm:"type:varchar(150)"`
	LastName  string `gorm:"type:varchar(150)"`
	Email     string `gorm:"type:varchar(255)"`
	IsActive  bool
	Role      models.UserRole `gorm:"type:varchar(50)"`
}

func (r CompanyUser) GetFullName() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", r.FirstName, r.LastName))
}
