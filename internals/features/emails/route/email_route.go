package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"examstore_backend/internals/features/emails/controller"
	"examstore_backend/internals/features/emails/service"
	"examstore_backend/internals/middlewares"
)

// EmailRoutes mounts the internal queue endpoints. Both are guarded by
// the shared worker token.
func EmailRoutes(api fiber.Router, db *gorm.DB, processor *service.QueueProcessor) {
	ctl := controller.NewEmailController(service.NewQueueService(db).WithProcessor(processor), processor)

	email := api.Group("/email", middlewares.InternalMiddleware())
	email.Post("/queue", ctl.Enqueue)
	email.Post("/queue/process", ctl.Process)
	email.Post("/queue/regenerate/:log_id", ctl.Regenerate)
}
