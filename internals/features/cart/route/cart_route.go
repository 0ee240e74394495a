package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"examstore_backend/internals/features/cart/controller"
	"examstore_backend/internals/features/cart/service"
	vatService "examstore_backend/internals/features/vat/service"
	"examstore_backend/internals/middlewares"
)

// CartRoutes mounts cart CRUD under auth.
func CartRoutes(api fiber.Router, db *gorm.DB) {
	orch := vatService.NewVATOrchestrator(db, vatService.NewRulesEngine())
	ctl := controller.NewCartController(service.NewCartService(db, orch))

	cart := api.Group("/cart", middlewares.AuthMiddleware())
	cart.Get("/", ctl.GetCart)
	cart.Post("/items", ctl.AddItem)
	cart.Patch("/items/:item_id", ctl.UpdateItem)
	cart.Delete("/items/:item_id", ctl.RemoveItem)
}
