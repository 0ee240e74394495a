package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	cartService "examstore_backend/internals/features/cart/service"
	emailService "examstore_backend/internals/features/emails/service"
	"examstore_backend/internals/features/orders/controller"
	"examstore_backend/internals/features/orders/service"
	vatService "examstore_backend/internals/features/vat/service"
	"examstore_backend/internals/middlewares"
)

func OrderRoutes(api fiber.Router, db *gorm.DB, processor *emailService.QueueProcessor) {
	orch := vatService.NewVATOrchestrator(db, vatService.NewRulesEngine())
	checkout := service.NewCheckoutService(db, orch, service.NewPaymentGateway(), emailService.NewQueueService(db).WithProcessor(processor))
	carts := cartService.NewCartService(db, orch)
	ctl := controller.NewOrderController(db, checkout, carts)

	orders := api.Group("/orders", middlewares.AuthMiddleware())
	orders.Post("/", ctl.CreateOrder)
	orders.Get("/", ctl.ListOrders)
	orders.Get("/:order_id", ctl.GetOrder)

	// Gateway callbacks come from the payment provider, not a user.
	api.Post("/payments/callback", middlewares.InternalMiddleware(), ctl.PaymentCallback)
}
