package apiv1

import (
	"approvals-backend/controllers"
	approvallevelhandler "approvals-backend/lib/approval-level"
	delegationhandler "approvals-backend/lib/delegation"
	"approvals-backend/middleware"
	apimodels "approvals-backend/models/api"
	approvalapimodels "approvals-backend/models/api/approval"

	"github.com/gofiber/fiber/v2"
)

type approvalLevelApiController struct {
	controllers.BaseAPIController
}

func InitApprovalLevelApiRouters(app fiber.Router) {
	controller := approvalLevelApiController{}
	app.Route("approval_level", func(router fiber.Router) {
		router.Use(middleware.CompanyAdminRequired())

		router.Get("", controller.list)
		router.Post("", controller.create)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("", controller.get)
			idRoute.Put("", controller.update)
			idRoute.Delete("", controller.delete)
			idRoute.Route("user", func(userRoute fiber.Router) {
				userRoute.Get("", controller.rosterList)
				userRoute.Post("", controller.rosterAssign)
			})
		})
		router.Route("roster/:user_record_id", func(userRoute fiber.Router) {
			userRoute.Put("", controller.rosterUpdate)
			userRoute.Delete("", controller.rosterRemove)
			userRoute.Put("delegation", controller.setDelegation)
			userRoute.Delete("delegation", controller.clearDelegation)
		})
	})
}

// @Summary Создание уровня согласования
// @Tags Уровни согласования
// @Description Создание уровня согласования
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 approvalapimodels.LevelData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval_level [post]
func (c *approvalLevelApiController) create(ctx *fiber.Ctx) error {
	var payload approvalapimodels.LevelData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, err := approvallevelhandler.Instance.DefineLevel(middleware.GetUserCompany(ctx), payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка создания уровня согласования")
	}
	return ctx.JSON(apimodels.NewResponse(id))
}

// @Summary Список уровней согласования
// @Tags Уровни согласования
// @Description Список уровней согласования, можно отфильтровать по типу документа
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   document_type		query		string	false	"Тип документа"
// @Success 200 {object} apimodels.Response{data=[]approvalapimodels.LevelView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval_level [get]
func (c *approvalLevelApiController) list(ctx *fiber.Ctx) error {
	list, err := approvallevelhandler.Instance.ListLevels(middleware.GetUserCompany(ctx), ctx.Query("document_type"))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения списка уровней согласования")
	}
	return ctx.JSON(apimodels.NewResponse(list))
}

// @Summary Уровень согласования
// @Tags Уровни согласования
// @Description Уровень согласования
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    	string  true    "level ID"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.LevelView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval_level/{id} [get]
func (c *approvalLevelApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	level, err := approvallevelhandler.Instance.GetLevel(middleware.GetUserCompany(ctx), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения уровня согласования")
	}
	return ctx.JSON(apimodels.NewResponse(level))
}

// @Summary Изменение уровня согласования
// @Tags Уровни согласования
// @Description Изменение уровня согласования, уже созданные согласования не пересчитываются
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    	string  true    "level ID"
// @Param	body body	 approvalapimodels.LevelPatch	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval_level/{id} [put]
func (c *approvalLevelApiController) update(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload approvalapimodels.LevelPatch
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = approvallevelhandler.Instance.UpdateLevel(middleware.GetUserCompany(ctx), id, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка изменения уровня согласования")
	}
	return ctx.JSON(apimodels.NewResponse(nil))
}

// @Summary Удаление уровня согласования
// @Tags Уровни согласования
// @Description Удаление уровня согласования вместе с составом согласующих. Недоступно при наличии ожидающих согласований
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    	string  true    "level ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval_level/{id} [delete]
func (c *approvalLevelApiController) delete(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = approvallevelhandler.Instance.DeleteLevel(middleware.GetUserCompany(ctx), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка удаления уровня согласования")
	}
	return ctx.JSON(apimodels.NewResponse(nil))
}

// @Summary Состав согласующих уровня
// @Tags Уровни согласования
// @Description Состав согласующих уровня
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    	string  true    "level ID"
// @Success 200 {object} apimodels.Response{data=[]approvalapimodels.RosterUserView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval_level/{id}/user [get]
func (c *approvalLevelApiController) rosterList(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, err := delegationhandler.Instance.ListRoster(middleware.GetUserCompany(ctx), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения состава согласующих")
	}
	return ctx.JSON(apimodels.NewResponse(list))
}

// @Summary Добавление согласующего
// @Tags Уровни согласования
// @Description Добавление согласующего на уровень
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    	string  true    "level ID"
// @Param	body body	 approvalapimodels.RosterUserData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval_level/{id}/user [post]
func (c *approvalLevelApiController) rosterAssign(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload approvalapimodels.RosterUserData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	recID, err := delegationhandler.Instance.AssignUser(middleware.GetUserCompany(ctx), id, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка добавления согласующего")
	}
	return ctx.JSON(apimodels.NewResponse(recID))
}

// @Summary Изменение согласующего
// @Tags Уровни согласования
// @Description Изменение настроек согласующего
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   user_record_id		path    	string  true    "roster record ID"
// @Param	body body	 approvalapimodels.RosterUserPatch	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval_level/roster/{user_record_id} [put]
func (c *approvalLevelApiController) rosterUpdate(ctx *fiber.Ctx) error {
	id, err := c.GetIDByKey(ctx, "user_record_id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload approvalapimodels.RosterUserPatch
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = delegationhandler.Instance.UpdateUser(middleware.GetUserCompany(ctx), id, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка изменения согласующего")
	}
	return ctx.JSON(apimodels.NewResponse(nil))
}

// @Summary Исключение согласующего
// @Tags Уровни согласования
// @Description Исключение согласующего из уровня
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   user_record_id		path    	string  true    "roster record ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval_level/roster/{user_record_id} [delete]
func (c *approvalLevelApiController) rosterRemove(ctx *fiber.Ctx) error {
	id, err := c.GetIDByKey(ctx, "user_record_id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = delegationhandler.Instance.RemoveUser(middleware.GetUserCompany(ctx), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка исключения согласующего")
	}
	return ctx.JSON(apimodels.NewResponse(nil))
}

// @Summary Настройка делегирования
// @Tags Уровни согласования
// @Description Назначение заместителя согласующего на период
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   user_record_id		path    	string  true    "roster record ID"
// @Param	body body	 approvalapimodels.DelegationData	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval_level/roster/{user_record_id}/delegation [put]
func (c *approvalLevelApiController) setDelegation(ctx *fiber.Ctx) error {
	id, err := c.GetIDByKey(ctx, "user_record_id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload approvalapimodels.DelegationData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = delegationhandler.Instance.SetDelegation(middleware.GetUserCompany(ctx), id, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка настройки делегирования")
	}
	return ctx.JSON(apimodels.NewResponse(nil))
}

// @Summary Отмена делегирования
// @Tags Уровни согласования
// @Description Отмена делегирования
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   user_record_id		path    	string  true    "roster record ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval_level/roster/{user_record_id}/delegation [delete]
func (c *approvalLevelApiController) clearDelegation(ctx *fiber.Ctx) error {
	id, err := c.GetIDByKey(ctx, "user_record_id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = delegationhandler.Instance.ClearDelegation(middleware.GetUserCompany(ctx), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка отмены делегирования")
	}
	return ctx.JSON(apimodels.NewResponse(nil))
}
