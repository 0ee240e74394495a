package controller

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"examstore_backend/internals/features/emails/dto"
	"examstore_backend/internals/features/emails/service"
	helper "examstore_backend/internals/helpers"
)

var validate = validator.New()

type EmailController struct {
	Queue     *service.QueueService
	Processor *service.QueueProcessor
}

func NewEmailController(queue *service.QueueService, processor *service.QueueProcessor) *EmailController {
	return &EmailController{Queue: queue, Processor: processor}
}

// Enqueue accepts a template name + context and inserts one queue
// row.
func (ctl *EmailController) Enqueue(c *fiber.Ctx) error {
	var req dto.QueueEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	row, err := ctl.Queue.QueueEmail(&req)
	if err != nil {
		if errors.Is(err, service.ErrNoRecipients) {
			return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, err.Error())
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, helper.ErrCodeInternal, "enqueue failed")
	}

	return helper.JsonCreated(c, dto.QueueEmailResponse{
		QueueID: row.QueueID.String(),
		Status:  row.QueueStatus,
	})
}

// Process drains pending rows on demand; intended for external
// workers.
func (ctl *EmailController) Process(c *fiber.Ctx) error {
	var req dto.ProcessRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "invalid request body")
		}
	}
	return helper.JsonOK(c, ctl.Processor.ProcessPendingQueue(req.Limit))
}

// Regenerate re-renders a logged email without resending it.
func (ctl *EmailController) Regenerate(c *fiber.Ctx) error {
	logID := c.Params("log_id")
	if logID == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, helper.ErrCodeInput, "log_id is required")
	}
	return helper.JsonOK(c, ctl.Processor.Regenerate(logID))
}
