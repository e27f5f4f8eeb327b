package controllers

import (
	"approvals-backend/middleware"
	"approvals-backend/models"
	apimodels "approvals-backend/models/api"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type BaseAPIController struct{}

func (c *BaseAPIController) BodyParser(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		log.WithError(err).Error("ошибка распознавания запроса")
		return errors.New("не удалось получить данные из запроса")
	}
	return nil
}

func (c *BaseAPIController) GetID(ctx *fiber.Ctx) (string, error) {
	return c.GetIDByKey(ctx, "id")
}

func (c *BaseAPIController) GetIDByKey(ctx *fiber.Ctx, key string) (string, error) {
	id := ctx.Params(key)
	if id == "" {
		return "", errors.Errorf("не указан параметр %s", key)
	}
	return id, nil
}

func (c *BaseAPIController) GetLogger(ctx *fiber.Ctx) *log.Entry {
	return log.
		WithField("company_id", middleware.GetUserCompany(ctx)).
		WithField("user_id", middleware.GetUserID(ctx)).
		WithField("method", ctx.Method()).
		WithField("path", ctx.Path())
}

// SendError maps domain errors to HTTP statuses; anything unknown is logged and answered with 500.
func (c *BaseAPIController) SendError(ctx *fiber.Ctx, logger *log.Entry, err error, msg string) error {
	var bulkErr models.BulkError
	if errors.As(err, &bulkErr) {
		status := errorStatus(bulkErr.Err)
		if status == fiber.StatusInternalServerError {
			logger.WithField("approval_id", bulkErr.ApprovalID).WithError(err).Error(msg)
			return ctx.Status(status).JSON(apimodels.Response{Status: "fail", Message: msg, Data: fiber.Map{"approval_id": bulkErr.ApprovalID}})
		}
		return ctx.Status(status).JSON(apimodels.Response{Status: "fail", Message: err.Error(), Data: fiber.Map{"approval_id": bulkErr.ApprovalID}})
	}
	status := errorStatus(err)
	if status == fiber.StatusInternalServerError {
		logger.WithError(err).Error(msg)
		return ctx.Status(status).JSON(apimodels.NewError(msg))
	}
	return ctx.Status(status).JSON(apimodels.NewError(err.Error()))
}

func errorStatus(err error) int {
	switch {
	case models.IsValidationError(err):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrStaleApprovalState), errors.Is(err, models.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrDelegationChainTooDeep), errors.Is(err, models.ErrDelegationCycle):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}
