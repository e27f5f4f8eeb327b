package apiv1

import (
	"approvals-backend/controllers"
	approvaldecisionhandler "approvals-backend/lib/approval-decision"
	approvalqueryhandler "approvals-backend/lib/approval-query"
	approvalroutinghandler "approvals-backend/lib/approval-routing"
	xlsexport "approvals-backend/lib/export/xls"
	"approvals-backend/middleware"
	apimodels "approvals-backend/models/api"
	approvalapimodels "approvals-backend/models/api/approval"
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

type approvalApiController struct {
	controllers.BaseAPIController
}

func InitApprovalApiRouters(app fiber.Router) {
	controller := approvalApiController{}
	app.Route("approval", func(router fiber.Router) {
		router.Post("submit", controller.submit)
		router.Post("pending", controller.pending)
		router.Get("overdue", controller.overdue)
		router.Get("overdue/export", controller.overdueExport)
		router.Put("bulk", controller.bulk)
		router.Put(":id/decision", controller.decision)
		router.Put("workflow/:id/recall", controller.recall)
		router.Route("document/:document_type/:document_id", func(docRoute fiber.Router) {
			docRoute.Get("", controller.documentApprovals)
			docRoute.Get("history", controller.history)
			docRoute.Get("history/export", controller.historyExport)
		})
	})
}

// @Summary Отправка документа на согласование
// @Tags Согласование
// @Description Подбирает уровни согласования по типу и сумме документа и создает согласования первого уровня
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 approvalapimodels.SubmitData	true	"request body"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.SubmitResult}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval/submit [post]
func (c *approvalApiController) submit(ctx *fiber.Ctx) error {
	var payload approvalapimodels.SubmitData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	payload.CompanyID = middleware.GetUserCompany(ctx)
	payload.RequestedBy = middleware.GetUserID(ctx)
	result, err := approvalroutinghandler.Instance.Submit(payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка отправки документа на согласование")
	}
	return ctx.JSON(apimodels.NewResponse(result))
}

// @Summary Решение по согласованию
// @Tags Согласование
// @Description Согласование, отклонение или делегирование. expected_version должен совпадать с текущей версией записи
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    	string  true    "approval ID"
// @Param	body body	 approvalapimodels.ProcessData	true	"request body"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.Outcome}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 422 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval/{id}/decision [put]
func (c *approvalApiController) decision(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload approvalapimodels.ProcessData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	payload.CompanyID = middleware.GetUserCompany(ctx)
	payload.UserID = middleware.GetUserID(ctx)
	payload.ApprovalID = id
	outcome, err := approvaldecisionhandler.Instance.Process(payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка обработки решения по согласованию")
	}
	return ctx.JSON(apimodels.NewResponse(outcome))
}

// @Summary Массовое решение по согласованиям
// @Tags Согласование
// @Description Одно решение для нескольких согласований. При ошибке по любому из них не применяется ни одно
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 approvalapimodels.BulkData	true	"request body"
// @Success 200 {object} apimodels.Response{data=[]approvalapimodels.Outcome}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 422 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval/bulk [put]
func (c *approvalApiController) bulk(ctx *fiber.Ctx) error {
	var payload approvalapimodels.BulkData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	payload.CompanyID = middleware.GetUserCompany(ctx)
	payload.UserID = middleware.GetUserID(ctx)
	list, err := approvaldecisionhandler.Instance.ProcessBulk(payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка массовой обработки согласований")
	}
	return ctx.JSON(apimodels.NewResponse(list))
}

// @Summary Ожидающие согласования
// @Tags Согласование
// @Description Согласования, ожидающие решения текущего пользователя с учетом делегирования
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 approvalapimodels.PendingFilter	true	"request body"
// @Success 200 {object} apimodels.ScrollerResponse{data=[]approvalapimodels.ApprovalView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval/pending [post]
func (c *approvalApiController) pending(ctx *fiber.Ctx) error {
	var payload approvalapimodels.PendingFilter
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	page, limit := payload.GetPage()
	list, rowCount, err := approvalqueryhandler.Instance.ListPending(middleware.GetUserCompany(ctx), middleware.GetUserID(ctx), page, limit)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения списка ожидающих согласований")
	}
	return ctx.JSON(apimodels.NewScrollerResponse(list, rowCount))
}

// @Summary Просроченные согласования
// @Tags Согласование
// @Description Ожидающие согласования компании с истекшим сроком
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=[]approvalapimodels.ApprovalView}
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval/overdue [get]
func (c *approvalApiController) overdue(ctx *fiber.Ctx) error {
	list, err := approvalqueryhandler.Instance.ListOverdue(middleware.GetUserCompany(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения списка просроченных согласований")
	}
	return ctx.JSON(apimodels.NewResponse(list))
}

// @Summary Согласования документа
// @Tags Согласование
// @Description Процессы согласования документа вместе с согласованиями
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   document_type		path    	string  true    "document type"
// @Param   document_id		path    	string  true    "document ID"
// @Success 200 {object} apimodels.Response{data=[]approvalapimodels.WorkflowView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval/document/{document_type}/{document_id} [get]
func (c *approvalApiController) documentApprovals(ctx *fiber.Ctx) error {
	documentType, documentID, err := c.getDocument(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, err := approvalqueryhandler.Instance.DocumentApprovals(middleware.GetUserCompany(ctx), documentType, documentID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения согласований документа")
	}
	return ctx.JSON(apimodels.NewResponse(list))
}

// @Summary История согласования документа
// @Tags Согласование
// @Description История согласования документа
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   document_type		path    	string  true    "document type"
// @Param   document_id		path    	string  true    "document ID"
// @Success 200 {object} apimodels.Response{data=[]approvalapimodels.HistoryView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval/document/{document_type}/{document_id}/history [get]
func (c *approvalApiController) history(ctx *fiber.Ctx) error {
	documentType, documentID, err := c.getDocument(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, err := approvalqueryhandler.Instance.History(middleware.GetUserCompany(ctx), documentType, documentID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения истории согласования")
	}
	return ctx.JSON(apimodels.NewResponse(list))
}

// @Summary Выгрузка истории согласования в Excel
// @Tags Согласование
// @Description Выгрузка истории согласования документа в xlsx
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   document_type		path    	string  true    "document type"
// @Param   document_id		path    	string  true    "document ID"
// @Success 200
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval/document/{document_type}/{document_id}/history/export [get]
func (c *approvalApiController) historyExport(ctx *fiber.Ctx) error {
	documentType, documentID, err := c.getDocument(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, err := approvalqueryhandler.Instance.History(middleware.GetUserCompany(ctx), documentType, documentID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения истории согласования")
	}
	data, err := xlsexport.Instance.ExportHistory(list)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка выгрузки истории согласования в Excel")
	}
	return sendXls(ctx, fmt.Sprintf("approval-history-%v-%v", documentType, documentID), data)
}

// @Summary Выгрузка просроченных согласований в Excel
// @Tags Согласование
// @Description Выгрузка просроченных согласований компании в xlsx
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval/overdue/export [get]
func (c *approvalApiController) overdueExport(ctx *fiber.Ctx) error {
	list, err := approvalqueryhandler.Instance.ListOverdue(middleware.GetUserCompany(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения списка просроченных согласований")
	}
	data, err := xlsexport.Instance.ExportOverdue(list)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка выгрузки просроченных согласований в Excel")
	}
	return sendXls(ctx, "approval-overdue", data)
}

// @Summary Отзыв документа с согласования
// @Tags Согласование
// @Description Отзыв документа инициатором, все ожидающие согласования отменяются
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    	string  true    "workflow ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/company/approval/workflow/{id}/recall [put]
func (c *approvalApiController) recall(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err = approvalroutinghandler.Instance.Recall(middleware.GetUserCompany(ctx), id, middleware.GetUserID(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка отзыва документа с согласования")
	}
	return ctx.JSON(apimodels.NewResponse(nil))
}

func (c *approvalApiController) getDocument(ctx *fiber.Ctx) (documentType, documentID string, err error) {
	documentType, err = c.GetIDByKey(ctx, "document_type")
	if err != nil {
		return "", "", err
	}
	documentID, err = c.GetIDByKey(ctx, "document_id")
	if err != nil {
		return "", "", err
	}
	return documentType, documentID, nil
}

func sendXls(ctx *fiber.Ctx, prefix string, data *bytes.Buffer) error {
	fileName := fmt.Sprintf("%v-%v.xlsx", prefix, time.Now().Format("20060102-150405"))
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	return ctx.SendStream(data)
}
