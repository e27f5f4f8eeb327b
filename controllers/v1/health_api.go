package apiv1

import (
	"approvals-backend/controllers"
	"approvals-backend/db"
	apimodels "approvals-backend/models/api"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

type healthApiController struct {
	controllers.BaseAPIController
}

func InitHealthApiRouters(app fiber.Router) {
	controller := healthApiController{}
	app.Get("health", controller.health)
}

// @Summary Проверка доступности сервиса
// @Tags Сервис
// @Description Проверка доступности сервиса и БД
// @Success 200 {object} apimodels.Response
// @Failure 503 {object} apimodels.Response
// @router /api/v1/health [get]
func (c *healthApiController) health(ctx *fiber.Ctx) error {
	if err := db.PingDB(); err != nil {
		log.WithError(err).Error("БД недоступна")
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(apimodels.NewError("БД недоступна"))
	}
	return ctx.JSON(apimodels.NewResponse(nil))
}
