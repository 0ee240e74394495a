package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	cartRoute "examstore_backend/internals/features/cart/route"
	productRoute "examstore_backend/internals/features/catalog/products/route"
	searchRoute "examstore_backend/internals/features/catalog/search/route"
	searchService "examstore_backend/internals/features/catalog/search/service"
	emailRoute "examstore_backend/internals/features/emails/route"
	emailService "examstore_backend/internals/features/emails/service"
	orderRoute "examstore_backend/internals/features/orders/route"
	userRoute "examstore_backend/internals/features/users/route"
	vatRoute "examstore_backend/internals/features/vat/route"
)

var startTime time.Time

// SetupRoutes wires every feature under /api. Search registers first
// so its fixed paths win over the catalog's :store_product_id
// parameter.
func SetupRoutes(app *fiber.App, db *gorm.DB, search *searchService.SearchService, processor *emailService.QueueProcessor) {
	startTime = time.Now()

	BaseRoutes(app, db)

	api := app.Group("/api")

	log.Println("[INFO] setting up search routes")
	searchRoute.SearchRoutes(api, search)

	log.Println("[INFO] setting up catalog routes")
	productRoute.CatalogRoutes(api, db)

	log.Println("[INFO] setting up user routes")
	userRoute.UserRoutes(api, db)

	log.Println("[INFO] setting up cart routes")
	cartRoute.CartRoutes(api, db)

	log.Println("[INFO] setting up vat routes")
	vatRoute.VATRoutes(api, db)

	log.Println("[INFO] setting up order routes")
	orderRoute.OrderRoutes(api, db, processor)

	log.Println("[INFO] setting up email routes")
	emailRoute.EmailRoutes(api, db, processor)
}
