package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"examstore_backend/internals/features/vat/controller"
	"examstore_backend/internals/features/vat/service"
	"examstore_backend/internals/middlewares"
)

// VATRoutes mounts the cart VAT recalculation endpoint.
func VATRoutes(api fiber.Router, db *gorm.DB) {
	orch := service.NewVATOrchestrator(db, service.NewRulesEngine())
	ctl := controller.NewVATController(db, orch)

	vat := api.Group("/cart/vat", middlewares.OptionalAuthMiddleware())
	vat.Post("/recalculate", ctl.Recalculate)
}
