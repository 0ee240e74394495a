package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	bundleController "examstore_backend/internals/features/catalog/bundles/controller"
	"examstore_backend/internals/features/catalog/products/controller"
)

// CatalogRoutes mounts the public read-only catalog surface.
func CatalogRoutes(api fiber.Router, db *gorm.DB) {
	products := controller.NewProductController(db)
	bundles := bundleController.NewBundleController(db)

	api.Get("/subjects", products.ListSubjects)
	api.Get("/exam-sessions", products.ListSessions)
	api.Get("/products/:store_product_id", products.GetStoreProduct)
	api.Get("/bundles", bundles.ListBundles)
	api.Get("/bundles/:bundle_id", bundles.GetBundle)
}
