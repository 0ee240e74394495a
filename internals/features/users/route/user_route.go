package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"examstore_backend/internals/features/users/controller"
	"examstore_backend/internals/middlewares"
)

func UserRoutes(api fiber.Router, db *gorm.DB) {
	ctl := controller.NewUserController(db)

	auth := api.Group("/auth")
	auth.Post("/register", ctl.Register)
	auth.Post("/login", ctl.Login)

	users := api.Group("/users", middlewares.AuthMiddleware())
	users.Get("/me", ctl.Me)
	users.Get("/me/addresses", ctl.ListAddresses)
	users.Post("/me/addresses", ctl.CreateAddress)
	users.Delete("/me/addresses/:address_id", ctl.DeleteAddress)
}
