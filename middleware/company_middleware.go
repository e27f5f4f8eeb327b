package middleware

import (
	companyusershandler "approvals-backend/lib/company/users"
	authutils "approvals-backend/lib/utils/auth-utils"
	"approvals-backend/models"
	apimodels "approvals-backend/models/api"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// CompanyMemberRequired rejects callers that are not active members of the company from their token.
func CompanyMemberRequired() fiber.Handler {
	return func(ctx *fiber.Ctx) (err error) {
		companyID := GetUserCompany(ctx)
		userID := GetUserID(ctx)
		isMember, err := companyusershandler.Instance.IsMember(companyID, userID)
		if err != nil {
			log.
				WithField("company_id", companyID).
				WithField("user_id", userID).
				WithError(err).
				Error("Ошибка проверки участника компании")
			return ctx.Status(fiber.StatusInternalServerError).JSON(apimodels.NewError("ошибка проверки доступа"))
		}
		if !isMember {
			return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("операция недоступна"))
		}
		ctx.Locals("company_id", companyID)
		ctx.Locals("user_id", userID)
		return ctx.Next()
	}
}

func CompanyAdminRequired() fiber.Handler {
	return func(ctx *fiber.Ctx) (err error) {
		if !GetCompanyRole(ctx).IsCompanyAdmin() {
			return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("операция недоступна"))
		}
		return ctx.Next()
	}
}

func GetUserCompany(ctx *fiber.Ctx) string {
	claims := authutils.GetClaims(ctx)
	if company, ok := claims["company"].(string); ok {
		return company
	}
	return ""
}

func GetUserID(ctx *fiber.Ctx) string {
	claims := authutils.GetClaims(ctx)
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}

func GetCompanyRole(ctx *fiber.Ctx) models.UserRole {
	claims := authutils.GetClaims(ctx)
	if role, ok := claims["role"].(string); ok && role != "" {
		return models.UserRole(role)
	}
	return ""
}
